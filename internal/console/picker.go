package console

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/content-console/internal/models"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
)

// PickerState is the load state of a picker.
type PickerState string

const (
	PickerIdle    PickerState = "idle"
	PickerLoading PickerState = "loading"
	PickerLoaded  PickerState = "loaded"
	PickerError   PickerState = "error"
)

// SelectMode controls whether a picker keeps one or many options.
type SelectMode int

const (
	SingleSelect SelectMode = iota
	MultiSelect
)

// DefaultPickerPageSize is used when PickerConfig.PageSize is unset.
const DefaultPickerPageSize = 10

// PickerConfig configures a Picker.
type PickerConfig struct {
	Kind     models.OptionKind
	Mode     SelectMode
	PageSize int
	Debounce time.Duration
	Active   *bool
	SortBy   string
	SortDir  models.SortDirection
	Logger   *zap.Logger
	// OnChange receives a snapshot after every state transition. It is never
	// called with the picker lock held.
	OnChange func(PickerSnapshot)
}

// PickerSnapshot is a read-only view of the picker.
type PickerSnapshot struct {
	Kind           models.OptionKind
	State          PickerState
	Open           bool
	Query          string
	Items          []models.Option
	PageNumber     int
	TotalPages     int
	TotalElements  int
	PageSize       int
	CanPageForward bool
	CanPageBack    bool
	Selected       []models.Option
	Err            error
}

// Picker is a remote option list with debounced search, pagination and
// single or multi selection.
type Picker struct {
	mu        sync.Mutex
	cfg       PickerConfig
	cache     *PageCache
	debouncer *Debouncer
	logger    *zap.Logger

	state PickerState
	open  bool
	query string
	// loadedQuery is the term the held page was fetched with.
	loadedQuery string
	ctx         context.Context
	gen         uint64
	selected    []models.Option
	err         error
}

// NewPicker builds a picker over fetcher.
func NewPicker(fetcher PageFetcher, cfg PickerConfig) *Picker {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPickerPageSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Picker{
		cfg:       cfg,
		cache:     NewPageCache(fetcher, cfg.Kind),
		debouncer: NewDebouncer(cfg.Debounce),
		logger:    logger.With(zap.String("picker", string(cfg.Kind))),
		state:     PickerIdle,
		ctx:       context.Background(),
	}
}

// Open shows the picker and loads page 0 for the current search term.
func (p *Picker) Open(ctx context.Context) error {
	p.mu.Lock()
	p.open = true
	p.ctx = ctx
	p.mu.Unlock()
	return p.fetch(ctx, 0, false)
}

// Close hides the picker, cancels pending searches and drops in-flight responses.
func (p *Picker) Close() {
	p.debouncer.Stop()
	p.mu.Lock()
	p.open = false
	p.gen++
	if p.state == PickerLoading {
		p.state = PickerIdle
	}
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.notify(snap)
}

// IsOpen reports whether the picker is shown.
func (p *Picker) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// OnQueryChange records the search text and schedules a page 0 fetch after the
// debounce delay. The empty string clears the filter.
func (p *Picker) OnQueryChange(text string) {
	p.mu.Lock()
	p.query = text
	ctx := p.ctx
	open := p.open
	p.mu.Unlock()

	if !open {
		return
	}
	p.debouncer.Trigger(func() {
		if err := p.fetch(ctx, 0, false); err != nil {
			p.logger.Debug("debounced search failed", zap.Error(err))
		}
	})
}

// Search sets the query and fetches page 0 immediately.
func (p *Picker) Search(ctx context.Context, text string) error {
	p.debouncer.Stop()
	p.mu.Lock()
	p.query = text
	p.mu.Unlock()
	return p.fetch(ctx, 0, false)
}

// FlushSearch sends a pending debounced query now.
func (p *Picker) FlushSearch() bool {
	return p.debouncer.Flush()
}

// PageForward loads the next page. It reports false without fetching on the last page.
func (p *Picker) PageForward(ctx context.Context) (bool, error) {
	return p.step(ctx, 1, false)
}

// PageBack loads the previous page. It reports false without fetching on page 0.
func (p *Picker) PageBack(ctx context.Context) (bool, error) {
	return p.step(ctx, -1, false)
}

// LoadMore appends the next page to the current items.
func (p *Picker) LoadMore(ctx context.Context) (bool, error) {
	return p.step(ctx, 1, true)
}

// GoToPage replaces the items with pageNo. Pages past the end are rejected without
// a network call.
func (p *Picker) GoToPage(ctx context.Context, pageNo int) error {
	return p.fetch(ctx, pageNo, false)
}

func (p *Picker) step(ctx context.Context, delta int, merge bool) (bool, error) {
	p.mu.Lock()
	page := p.cache.page
	ok := page != nil && ((delta > 0 && page.HasNext()) || (delta < 0 && page.HasPrev()))
	next := 0
	if ok {
		next = page.PageNumber + delta
	}
	query := p.loadedQuery
	p.mu.Unlock()

	if !ok {
		return false, nil
	}
	return true, p.load(ctx, next, merge, &query)
}

func (p *Picker) fetch(ctx context.Context, pageNo int, merge bool) error {
	return p.load(ctx, pageNo, merge, nil)
}

// load fetches pageNo with query, or with the current search text when query is nil.
func (p *Picker) load(ctx context.Context, pageNo int, merge bool, query *string) error {
	p.mu.Lock()
	search := p.query
	if query != nil {
		search = *query
	}
	pageNo, err := p.cache.CheckBounds(pageNo)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	p.gen++
	gen := p.gen
	q := models.PageQuery{
		PageNo:   pageNo,
		PageSize: p.cfg.PageSize,
		Search:   search,
		Active:   p.cfg.Active,
		SortBy:   p.cfg.SortBy,
		SortDir:  p.cfg.SortDir,
	}
	p.state = PickerLoading
	p.err = nil
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.notify(snap)

	page, err := p.cache.Load(ctx, q)

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		p.logger.Debug("discarding stale page", zap.Int("page", pageNo), zap.String("search", q.Search))
		return nil
	}
	if err != nil {
		p.cache.Fail(err)
		p.state = PickerError
		p.err = err
		snap = p.snapshotLocked()
		p.mu.Unlock()
		p.logger.Warn("failed to load options", zap.Int("page", pageNo), zap.Error(err))
		p.notify(snap)
		return err
	}
	if merge {
		p.cache.Merge(page)
	} else {
		p.cache.Replace(page)
	}
	p.loadedQuery = q.Search
	p.state = PickerLoaded
	snap = p.snapshotLocked()
	p.mu.Unlock()
	p.notify(snap)
	return nil
}

// SelectOne replaces the selection with opt and closes a single-select picker.
func (p *Picker) SelectOne(opt models.Option) error {
	if p.cfg.Mode != SingleSelect {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s picker is multi-select", p.cfg.Kind))
	}
	p.debouncer.Stop()
	p.mu.Lock()
	p.selected = []models.Option{opt}
	p.open = false
	p.gen++
	if p.state == PickerLoading {
		p.state = PickerIdle
	}
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.notify(snap)
	return nil
}

// Toggle adds or removes opt in a multi-select picker and reports whether it is
// now selected.
func (p *Picker) Toggle(opt models.Option) (bool, error) {
	if p.cfg.Mode != MultiSelect {
		return false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s picker is single-select", p.cfg.Kind))
	}
	p.mu.Lock()
	selected := true
	for i, existing := range p.selected {
		if existing.ID == opt.ID {
			p.selected = append(p.selected[:i:i], p.selected[i+1:]...)
			selected = false
			break
		}
	}
	if selected {
		p.selected = append(p.selected, opt)
	}
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.notify(snap)
	return selected, nil
}

// SetSelected replaces the selection, e.g. when an edit form is prefilled.
func (p *Picker) SetSelected(opts []models.Option) {
	p.mu.Lock()
	p.selected = dedupOptions(nil, opts)
	if p.cfg.Mode == SingleSelect && len(p.selected) > 1 {
		p.selected = p.selected[:1]
	}
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.notify(snap)
}

// Clear empties the selection without touching the loaded page.
func (p *Picker) Clear() {
	p.mu.Lock()
	p.selected = nil
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.notify(snap)
}

// Selected returns the selected options in selection order.
func (p *Picker) Selected() []models.Option {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Option(nil), p.selected...)
}

// SelectedIDs returns the ids of the selected options.
func (p *Picker) SelectedIDs() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]int64, 0, len(p.selected))
	for _, opt := range p.selected {
		ids = append(ids, opt.ID)
	}
	return ids
}

// IsSelected reports whether id is selected.
func (p *Picker) IsSelected(id int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, opt := range p.selected {
		if opt.ID == id {
			return true
		}
	}
	return false
}

// Snapshot returns the current picker view.
func (p *Picker) Snapshot() PickerSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Picker) snapshotLocked() PickerSnapshot {
	snap := PickerSnapshot{
		Kind:     p.cfg.Kind,
		State:    p.state,
		Open:     p.open,
		Query:    p.query,
		Items:    p.cache.Items(),
		PageSize: p.cfg.PageSize,
		Selected: append([]models.Option(nil), p.selected...),
		Err:      p.err,
	}
	if page := p.cache.page; page != nil {
		snap.PageNumber = page.PageNumber
		snap.TotalPages = page.TotalPages
		snap.TotalElements = page.TotalElements
		if page.PageSize > 0 {
			snap.PageSize = page.PageSize
		}
		loaded := p.state == PickerLoaded
		snap.CanPageForward = loaded && page.HasNext()
		snap.CanPageBack = loaded && page.HasPrev()
	}
	return snap
}

func (p *Picker) notify(snap PickerSnapshot) {
	if p.cfg.OnChange != nil {
		p.cfg.OnChange(snap)
	}
}
