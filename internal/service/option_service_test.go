package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/content-console/internal/models"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
)

type mockOptionRepo struct {
	options   []models.Option
	listCalls int
	lastQuery models.PageQuery
	listErr   error
}

func (m *mockOptionRepo) List(_ context.Context, _ models.OptionKind, q models.PageQuery) ([]models.Option, int, error) {
	m.listCalls++
	m.lastQuery = q
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var matched []models.Option
	for _, opt := range m.options {
		if q.Search == "" || strings.Contains(strings.ToLower(opt.Name), strings.ToLower(q.Search)) {
			matched = append(matched, opt)
		}
	}
	start := q.PageNo * q.PageSize
	if start > len(matched) {
		return []models.Option{}, len(matched), nil
	}
	end := start + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched), nil
}

func (m *mockOptionRepo) FindByID(_ context.Context, _ models.OptionKind, id int64) (*models.Option, error) {
	for _, opt := range m.options {
		if opt.ID == id {
			o := opt
			return &o, nil
		}
	}
	return nil, sql.ErrNoRows
}

func newOptionRepo(n int) *mockOptionRepo {
	repo := &mockOptionRepo{}
	for i := 1; i <= n; i++ {
		repo.options = append(repo.options, models.Option{ID: int64(i), Name: "Batch " + string(rune('A'+i-1))})
	}
	return repo
}

func TestOptionServiceListPaginates(t *testing.T) {
	repo := newOptionRepo(25)
	svc := NewOptionService(repo, nil, nil, zap.NewNop(), OptionServiceConfig{DefaultPageSize: 10})

	page, cached, err := svc.List(context.Background(), models.OptionKindBatch, models.PageQuery{PageNo: 2})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, page.PageNumber)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 25, page.TotalElements)
	assert.Len(t, page.Content, 5)
	assert.Equal(t, 10, repo.lastQuery.PageSize)
}

func TestOptionServiceListRejectsPagePastEnd(t *testing.T) {
	repo := newOptionRepo(25)
	svc := NewOptionService(repo, nil, nil, zap.NewNop(), OptionServiceConfig{DefaultPageSize: 10})

	_, _, err := svc.List(context.Background(), models.OptionKindBatch, models.PageQuery{PageNo: 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrPageOutOfRange))

	page, _, err := svc.List(context.Background(), models.OptionKindBatch, models.PageQuery{PageNo: 3, Search: "nothing matches"})
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalElements)
	assert.Empty(t, page.Content)
}

func TestOptionServiceListCachesPages(t *testing.T) {
	repo := newOptionRepo(3)
	cache := newTestCache(&stubCacheRepo{})
	svc := NewOptionService(repo, cache, nil, zap.NewNop(), OptionServiceConfig{})

	q := models.PageQuery{PageSize: 10, Search: " batch "}
	_, cached, err := svc.List(context.Background(), models.OptionKindBatch, q)
	require.NoError(t, err)
	assert.False(t, cached)

	page, cached, err := svc.List(context.Background(), models.OptionKindBatch, q)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Len(t, page.Content, 3)
	assert.Equal(t, 1, repo.listCalls)
	assert.Equal(t, "batch", repo.lastQuery.Search)
}

func TestOptionServiceRejectsUnknownKind(t *testing.T) {
	svc := NewOptionService(newOptionRepo(1), nil, nil, nil, OptionServiceConfig{})
	_, _, err := svc.List(context.Background(), models.OptionKind("planet"), models.PageQuery{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestOptionServiceListWrapsRepoError(t *testing.T) {
	repo := &mockOptionRepo{listErr: errors.New("db down")}
	svc := NewOptionService(repo, nil, nil, nil, OptionServiceConfig{})
	_, _, err := svc.List(context.Background(), models.OptionKindExam, models.PageQuery{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestOptionServiceGet(t *testing.T) {
	svc := NewOptionService(newOptionRepo(2), nil, nil, nil, OptionServiceConfig{})

	opt, err := svc.Get(context.Background(), models.OptionKindBatch, 2)
	require.NoError(t, err)
	assert.Equal(t, "Batch B", opt.Name)

	_, err = svc.Get(context.Background(), models.OptionKindBatch, 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
