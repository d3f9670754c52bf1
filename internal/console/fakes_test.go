package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/noah-isme/content-console/internal/dto"
	"github.com/noah-isme/content-console/internal/models"
)

type fakeFetcher struct {
	mu      sync.Mutex
	options []models.Option
	calls   []models.PageQuery
	err     error
	gates   map[string]chan struct{}
}

func newFakeFetcher(n int) *fakeFetcher {
	opts := make([]models.Option, 0, n)
	for i := 1; i <= n; i++ {
		opts = append(opts, models.Option{ID: int64(i), Name: fmt.Sprintf("Batch %02d", i)})
	}
	return &fakeFetcher{options: opts, gates: map[string]chan struct{}{}}
}

func (f *fakeFetcher) gate(search string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[search] = ch
	return ch
}

func (f *fakeFetcher) FetchPage(ctx context.Context, kind models.OptionKind, q models.PageQuery) (*models.OptionPage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	gate := f.gates[q.Search]
	err := f.err
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	matched := make([]models.Option, 0)
	for _, opt := range f.options {
		if q.Search == "" || strings.Contains(strings.ToLower(opt.Name), strings.ToLower(q.Search)) {
			matched = append(matched, opt)
		}
	}
	start := q.PageNo * q.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return models.NewPage(append([]models.Option(nil), matched[start:end]...), q.PageNo, q.PageSize, len(matched)), nil
}

func (f *fakeFetcher) Calls() []models.PageQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.PageQuery(nil), f.calls...)
}

func (f *fakeFetcher) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type fakeDetails struct {
	mu      sync.Mutex
	details map[int64]models.ContentDetail
	fail    map[int64]error
	calls   int
}

func (f *fakeDetails) FetchDetail(_ context.Context, _ models.ContentType, id int64) (*models.ContentDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.fail[id]; ok {
		return nil, err
	}
	detail, ok := f.details[id]
	if !ok {
		return nil, nil
	}
	return &detail, nil
}

func detailWith(id int64, targets ...int64) models.ContentDetail {
	detail := models.ContentDetail{ContentItem: models.ContentItem{ID: id, Type: models.ContentTypeCarousel, Title: fmt.Sprintf("Item %d", id)}}
	for _, target := range targets {
		detail.LinkedTargets = append(detail.LinkedTargets, models.LinkedTarget{ContentID: id, TargetID: target})
	}
	return detail
}

type fakeMapper struct {
	mu       sync.Mutex
	requests []models.MapRequest
	result   *models.MapResult
	err      error
	block    chan struct{}
}

func (f *fakeMapper) MapEntities(_ context.Context, _ models.ContentType, req models.MapRequest) (*models.MapResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &models.MapResult{Success: true, Message: "mapped", MappedCount: len(req.Items) * len(req.TargetBatchIDs)}, nil
}

type fakeLister struct {
	mu        sync.Mutex
	items     []models.ContentItem
	filters   []models.ContentFilter
	deleted   [][]int64
	listErr   error
	dupErr    error
	dupNil    bool
	duplicate []int64
}

func (f *fakeLister) ListContent(_ context.Context, filter models.ContentFilter) (*models.ContentPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	if f.listErr != nil {
		return nil, f.listErr
	}
	start := filter.PageNo * filter.PageSize
	if start > len(f.items) {
		start = len(f.items)
	}
	end := start + filter.PageSize
	if end > len(f.items) {
		end = len(f.items)
	}
	return models.NewPage(append([]models.ContentItem(nil), f.items[start:end]...), filter.PageNo, filter.PageSize, len(f.items)), nil
}

func (f *fakeLister) BulkDeleteContent(_ context.Context, _ models.ContentType, ids []int64) (*dto.BulkResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ids)
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := f.items[:0]
	for _, item := range f.items {
		if !drop[item.ID] {
			kept = append(kept, item)
		}
	}
	affected := len(f.items) - len(kept)
	f.items = kept
	return &dto.BulkResult{Requested: len(ids), Affected: affected}, nil
}

func (f *fakeLister) DuplicateContent(_ context.Context, _ models.ContentType, id int64) (*models.ContentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dupErr != nil {
		return nil, f.dupErr
	}
	f.duplicate = append(f.duplicate, id)
	if f.dupNil {
		return nil, nil
	}
	copyItem := models.ContentItem{ID: id + 1000, Title: fmt.Sprintf("Copy of %d", id)}
	return &copyItem, nil
}

var errBoom = errors.New("connection refused")

func contentItems(n int) []models.ContentItem {
	items := make([]models.ContentItem, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, models.ContentItem{ID: int64(i), Title: fmt.Sprintf("Card %d", i), DisplayOrder: i})
	}
	return items
}
