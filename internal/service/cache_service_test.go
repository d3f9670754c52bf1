package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/content-console/pkg/errors"
)

type stubCacheRepo struct {
	store   map[string][]byte
	getErr  error
	deleted []string
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.store, key)
		s.deleted = append(s.deleted, key)
	}
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.store {
		if strings.HasPrefix(key, prefix) {
			delete(s.store, key)
			s.deleted = append(s.deleted, key)
		}
	}
	return nil
}

func newTestCache(repo *stubCacheRepo) *CacheService {
	return NewCacheService(repo, NewMetricsService(), time.Minute, zap.NewNop(), true)
}

func TestCacheServiceDisabledIsMiss(t *testing.T) {
	repo := &stubCacheRepo{}
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, repo.store)

	var nilSvc *CacheService
	hit, err = nilSvc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceHitAndMissMetrics(t *testing.T) {
	repo := &stubCacheRepo{}
	svc := newTestCache(repo)
	ctx := context.Background()

	var out []int
	hit, err := svc.Get(ctx, "nums", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "nums", []int{1, 2}, 0))
	hit, err = svc.Get(ctx, "nums", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []int{1, 2}, out)

	snap := svc.metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 0.0001)
}

func TestCacheServiceInvalidate(t *testing.T) {
	repo := &stubCacheRepo{}
	svc := newTestCache(repo)
	ctx := context.Background()
	require.NoError(t, svc.Set(ctx, "rbac:role:ADMIN", []string{"a"}, 0))
	require.NoError(t, svc.Set(ctx, "options:batch:0", []string{"b"}, 0))

	require.NoError(t, svc.Invalidate(ctx, "rbac:*"))
	assert.NotContains(t, repo.store, "rbac:role:ADMIN")
	assert.Contains(t, repo.store, "options:batch:0")

	require.NoError(t, svc.Delete(ctx, "options:batch:0"))
	assert.Empty(t, repo.store)
}

func TestReadThroughFallsBackOnCacheError(t *testing.T) {
	repo := &stubCacheRepo{getErr: errors.New("redis down")}
	svc := newTestCache(repo)
	calls := 0
	value, cached, err := readThrough(context.Background(), svc, "k", 0, func() (string, error) {
		calls++
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "fresh", value)
	assert.Equal(t, 1, calls)
}

func TestCacheKeyEscapesSeparators(t *testing.T) {
	assert.Equal(t, "options:batch:0:10:a|b:-", cacheKey("options", "batch", "0", "10", "a:b", ""))
}
