package console

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/content-console/internal/mapping"
	"github.com/noah-isme/content-console/internal/models"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
)

// DialogView is the screen shown by a MapDialog.
type DialogView string

const (
	ViewSelect DialogView = "select"
	ViewResult DialogView = "result"
)

// TargetOption is a candidate batch decorated with its mapping status.
type TargetOption struct {
	models.Option
	Mapping  models.MappingInfo
	Selected bool
}

// MapOutcome is shown on the result view.
type MapOutcome struct {
	MappedItems int
	Targets     int
	Message     string
}

// MapDialog drives the copy/map to batch workflow for a set of source items.
type MapDialog struct {
	mu            sync.Mutex
	contentType   models.ContentType
	sourceBatchID int64
	sources       []models.ContentItem
	picker        *Picker
	resolver      *MappingResolver
	mapper        EntityMapper
	guard         SubmitGuard
	logger        *zap.Logger

	index      *mapping.Index
	resolveErr error
	view       DialogView
	outcome    *MapOutcome
}

// NewMapDialog builds a dialog. picker must be a multi-select batch picker.
// sourceBatchID is the batch the items are listed under, or 0.
func NewMapDialog(contentType models.ContentType, sourceBatchID int64, sources []models.ContentItem, picker *Picker, resolver *MappingResolver, mapper EntityMapper, logger *zap.Logger) *MapDialog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MapDialog{
		contentType:   contentType,
		sourceBatchID: sourceBatchID,
		sources:       append([]models.ContentItem(nil), sources...),
		picker:        picker,
		resolver:      resolver,
		mapper:        mapper,
		logger:        logger,
		view:          ViewSelect,
	}
}

// Open resolves the current mappings and loads the first page of batches.
func (d *MapDialog) Open(ctx context.Context) error {
	d.mu.Lock()
	d.view = ViewSelect
	d.outcome = nil
	d.mu.Unlock()

	resolveErr := d.Refresh(ctx)
	pickerErr := d.picker.Open(ctx)
	if resolveErr != nil {
		return resolveErr
	}
	return pickerErr
}

// Refresh re-runs the mapping resolution. Submission stays blocked until it succeeds.
func (d *MapDialog) Refresh(ctx context.Context) error {
	ids := make([]int64, 0, len(d.sources))
	for _, item := range d.sources {
		ids = append(ids, item.ID)
	}
	index, _, err := d.resolver.Resolve(ctx, ids)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.index = nil
		d.resolveErr = err
		return err
	}
	d.index = index
	d.resolveErr = nil
	return nil
}

// Close hides the batch picker.
func (d *MapDialog) Close() {
	d.picker.Close()
}

// Picker returns the batch picker.
func (d *MapDialog) Picker() *Picker {
	return d.picker
}

// Sources returns the items being mapped.
func (d *MapDialog) Sources() []models.ContentItem {
	return append([]models.ContentItem(nil), d.sources...)
}

// View returns the current screen.
func (d *MapDialog) View() DialogView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.view
}

// Outcome returns the result of the last successful submission.
func (d *MapDialog) Outcome() *MapOutcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.outcome
}

// ResolveErr returns the last resolution failure.
func (d *MapDialog) ResolveErr() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resolveErr
}

// Targets returns the picker's current batches with badges. Until resolution
// succeeds every target is disabled.
func (d *MapDialog) Targets() []TargetOption {
	snap := d.picker.Snapshot()
	selected := make(map[int64]struct{}, len(snap.Selected))
	for _, opt := range snap.Selected {
		selected[opt.ID] = struct{}{}
	}

	d.mu.Lock()
	index := d.index
	d.mu.Unlock()

	out := make([]TargetOption, 0, len(snap.Items))
	for _, opt := range snap.Items {
		var info models.MappingInfo
		if index != nil {
			info = index.Info(opt.ID)
		} else {
			info = models.MappingInfo{TargetID: opt.ID, State: models.MappingUnmapped, Disabled: true}
		}
		_, isSelected := selected[opt.ID]
		out = append(out, TargetOption{Option: opt, Mapping: info, Selected: isSelected})
	}
	return out
}

// ToggleTarget selects or deselects a batch. Batches holding any of the sources
// cannot be selected.
func (d *MapDialog) ToggleTarget(opt models.Option) (bool, error) {
	d.mu.Lock()
	index := d.index
	resolveErr := d.resolveErr
	d.mu.Unlock()

	if index == nil {
		return false, d.unresolved(resolveErr)
	}
	if !d.picker.IsSelected(opt.ID) {
		if info := index.Info(opt.ID); info.Disabled {
			return false, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s is already mapped (%s)", opt.Name, info.Badge))
		}
	}
	return d.picker.Toggle(opt)
}

// CanSubmit reports whether Submit would be attempted.
func (d *MapDialog) CanSubmit() bool {
	d.mu.Lock()
	ready := d.index != nil && d.view == ViewSelect
	d.mu.Unlock()
	return ready && len(d.picker.SelectedIDs()) > 0 && !d.guard.InFlight()
}

// Submitting reports whether the mapping request is in flight.
func (d *MapDialog) Submitting() bool {
	return d.guard.InFlight()
}

// Submit maps every source item to the selected batches.
func (d *MapDialog) Submit(ctx context.Context) (*MapOutcome, error) {
	d.mu.Lock()
	index := d.index
	resolveErr := d.resolveErr
	view := d.view
	d.mu.Unlock()

	if view != ViewSelect {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "mapping already submitted")
	}
	if index == nil {
		return nil, d.unresolved(resolveErr)
	}
	if len(d.sources) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no items selected")
	}
	targets := d.picker.Selected()
	if len(targets) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "select at least one batch")
	}
	for _, target := range targets {
		if info := index.Info(target.ID); info.Disabled {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s is already mapped (%s)", target.Name, info.Badge))
		}
	}

	if !d.guard.Begin() {
		return nil, appErrors.ErrSubmitting
	}
	defer d.guard.End()

	req := models.MapRequest{
		TargetBatchIDs: make([]int64, 0, len(targets)),
		Items:          make([]models.MapItem, 0, len(d.sources)),
	}
	for _, target := range targets {
		req.TargetBatchIDs = append(req.TargetBatchIDs, target.ID)
	}
	for _, item := range d.sources {
		req.Items = append(req.Items, models.MapItem{
			ItemID:        item.ID,
			DisplayOrder:  item.DisplayOrder,
			SourceBatchID: d.sourceBatchID,
		})
	}
	count := len(req.Items)

	result, err := d.mapper.MapEntities(ctx, d.contentType, req)
	if err != nil {
		d.logger.Warn("map submission failed", zap.String("content_type", string(d.contentType)), zap.Error(err))
		return nil, err
	}
	if result == nil || !result.Success {
		message := "mapping was rejected"
		if result != nil && result.Message != "" {
			message = result.Message
		}
		return nil, appErrors.Clone(appErrors.ErrConflict, message)
	}

	outcome := &MapOutcome{MappedItems: count, Targets: len(targets), Message: result.Message}
	d.mu.Lock()
	d.view = ViewResult
	d.outcome = outcome
	d.mu.Unlock()
	d.picker.Close()

	d.logger.Info("mapped content to batches",
		zap.String("content_type", string(d.contentType)),
		zap.Int("items", count),
		zap.Int64s("targets", req.TargetBatchIDs),
	)
	return outcome, nil
}

func (d *MapDialog) unresolved(cause error) error {
	if cause != nil {
		return appErrors.Wrap(cause, appErrors.ErrPreconditionFailed.Code, appErrors.ErrPreconditionFailed.Status, "mapping status could not be loaded; retry before submitting")
	}
	return appErrors.Clone(appErrors.ErrPreconditionFailed, "mapping status has not been loaded")
}
