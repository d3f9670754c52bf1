package console

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/content-console/internal/dto"
	"github.com/noah-isme/content-console/internal/models"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
)

// ListFilter is the shared filter of a content list screen.
type ListFilter struct {
	BatchID *int64
	Search  string
	Active  *bool
	SortBy  string
	SortDir models.SortDirection
}

// ContentList is the controller behind a content list page.
type ContentList struct {
	mu          sync.Mutex
	api         ContentLister
	contentType models.ContentType
	pageSize    int
	filter      *Store[ListFilter]
	current     *Store[*models.ContentItem]
	logger      *zap.Logger

	pageNo    int
	page      *models.ContentPage
	selection *SelectionSet[models.ContentItem]
	guard     SubmitGuard
	gen       uint64
	unsub     func()
}

// NewContentList wires a list to a filter store. Filter changes drop the loaded
// page and reset the list to page 0; paging is refused until the caller reloads.
func NewContentList(api ContentLister, contentType models.ContentType, filter *Store[ListFilter], pageSize int, logger *zap.Logger) *ContentList {
	if filter == nil {
		filter = NewStore(ListFilter{})
	}
	if pageSize <= 0 {
		pageSize = DefaultPickerPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &ContentList{
		api:         api,
		contentType: contentType,
		pageSize:    pageSize,
		filter:      filter,
		current:     NewStore[*models.ContentItem](nil),
		logger:      logger.With(zap.String("content_type", string(contentType))),
		selection:   NewSelectionSet(func(item models.ContentItem) int64 { return item.ID }),
	}
	l.unsub = filter.Subscribe(func(ListFilter) {
		l.mu.Lock()
		l.pageNo = 0
		l.page = nil
		l.gen++
		l.selection.Clear()
		l.selection.SetVisible(nil)
		l.mu.Unlock()
	})
	return l
}

// Detach stops listening to the filter store.
func (l *ContentList) Detach() {
	if l.unsub != nil {
		l.unsub()
	}
}

// Filter returns the shared filter store.
func (l *ContentList) Filter() *Store[ListFilter] {
	return l.filter
}

// Current holds the item focused on the list, e.g. the row being edited.
func (l *ContentList) Current() *Store[*models.ContentItem] {
	return l.current
}

// Load fetches the current page and prunes the selection to the new rows.
func (l *ContentList) Load(ctx context.Context) error {
	l.mu.Lock()
	pageNo := l.pageNo
	l.mu.Unlock()
	return l.load(ctx, pageNo)
}

// PageForward loads the next page if there is one.
func (l *ContentList) PageForward(ctx context.Context) (bool, error) {
	l.mu.Lock()
	page := l.page
	l.mu.Unlock()
	if !page.HasNext() {
		return false, nil
	}
	return true, l.load(ctx, page.PageNumber+1)
}

// PageBack loads the previous page if there is one.
func (l *ContentList) PageBack(ctx context.Context) (bool, error) {
	l.mu.Lock()
	page := l.page
	l.mu.Unlock()
	if !page.HasPrev() {
		return false, nil
	}
	return true, l.load(ctx, page.PageNumber-1)
}

// GoToPage loads pageNo directly. Negative pages load page 0.
func (l *ContentList) GoToPage(ctx context.Context, pageNo int) error {
	if pageNo < 0 {
		pageNo = 0
	}
	return l.load(ctx, pageNo)
}

func (l *ContentList) load(ctx context.Context, pageNo int) error {
	f := l.filter.Get()
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.mu.Unlock()

	page, err := l.api.ListContent(ctx, models.ContentFilter{
		Type:     l.contentType,
		BatchID:  f.BatchID,
		Search:   f.Search,
		Active:   f.Active,
		PageNo:   pageNo,
		PageSize: l.pageSize,
		SortBy:   f.SortBy,
		SortDir:  f.SortDir,
	})
	if err != nil {
		err = asNetworkError(err, fmt.Sprintf("failed to load %s list", l.contentType))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return nil
	}
	if err != nil {
		l.logger.Warn("failed to load content list", zap.Int("page", pageNo), zap.Error(err))
		l.page = models.NewPage[models.ContentItem](nil, 0, l.pageSize, 0)
		l.pageNo = 0
		l.selection.SetVisible(nil)
		return err
	}
	if page == nil {
		page = models.NewPage[models.ContentItem](nil, pageNo, l.pageSize, 0)
	}
	l.page = page
	l.pageNo = page.PageNumber
	l.selection.SetVisible(page.Content)
	return nil
}

// Page returns the loaded page.
func (l *ContentList) Page() *models.ContentPage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page
}

// Selection exposes the row selection. Callers must not use it concurrently
// with Load.
func (l *ContentList) Selection() *SelectionSet[models.ContentItem] {
	return l.selection
}

// Toggle flips one row.
func (l *ContentList) Toggle(item models.ContentItem) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selection.Toggle(item)
}

// ToggleAll flips the header checkbox.
func (l *ContentList) ToggleAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selection.ToggleAll()
}

func (l *ContentList) selected() []models.ContentItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selection.Selected()
}

// BulkDelete deletes the selected rows and reloads the page.
func (l *ContentList) BulkDelete(ctx context.Context) (*dto.BulkResult, error) {
	items := l.selected()
	if len(items) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no items selected")
	}
	if !l.guard.Begin() {
		return nil, appErrors.ErrSubmitting
	}
	defer l.guard.End()

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	result, err := l.api.BulkDeleteContent(ctx, l.contentType, ids)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.selection.Clear()
	l.mu.Unlock()
	l.logger.Info("bulk deleted content", zap.Int("requested", len(ids)), zap.Int("affected", result.Affected))
	return result, l.Load(ctx)
}

// BulkDuplicate copies each selected row in selection order. It stops at the
// first failure and returns the copies made so far.
func (l *ContentList) BulkDuplicate(ctx context.Context) ([]models.ContentItem, error) {
	items := l.selected()
	if len(items) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no items selected")
	}
	if !l.guard.Begin() {
		return nil, appErrors.ErrSubmitting
	}
	defer l.guard.End()

	copies := make([]models.ContentItem, 0, len(items))
	for _, item := range items {
		dup, err := l.api.DuplicateContent(ctx, l.contentType, item.ID)
		if err != nil {
			return copies, err
		}
		if dup == nil {
			return copies, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %d was not duplicated", l.contentType, item.ID))
		}
		copies = append(copies, *dup)
	}
	l.mu.Lock()
	l.selection.Clear()
	l.mu.Unlock()
	return copies, l.Load(ctx)
}

// NewMapDialog opens the mapping workflow for the selected rows.
func (l *ContentList) NewMapDialog(picker *Picker, resolver *MappingResolver, mapper EntityMapper) (*MapDialog, error) {
	items := l.selected()
	if len(items) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no items selected")
	}
	var sourceBatchID int64
	if f := l.filter.Get(); f.BatchID != nil {
		sourceBatchID = *f.BatchID
	}
	return NewMapDialog(l.contentType, sourceBatchID, items, picker, resolver, mapper, l.logger), nil
}
