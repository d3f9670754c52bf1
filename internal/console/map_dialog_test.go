package console

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/content-console/internal/models"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
)

type dialogFixture struct {
	fetcher *fakeFetcher
	details *fakeDetails
	mapper  *fakeMapper
	dialog  *MapDialog
}

func newDialogFixture(t *testing.T) *dialogFixture {
	t.Helper()
	f := &dialogFixture{
		fetcher: newFakeFetcher(5),
		details: &fakeDetails{details: map[int64]models.ContentDetail{
			11: detailWith(11, 1, 2),
			12: detailWith(12, 1),
		}},
		mapper: &fakeMapper{},
	}
	sources := []models.ContentItem{
		{ID: 11, Title: "Welcome", DisplayOrder: 1},
		{ID: 12, Title: "Exam tips", DisplayOrder: 4},
	}
	picker := NewPicker(f.fetcher, PickerConfig{Kind: models.OptionKindBatch, Mode: MultiSelect, Debounce: 10 * time.Millisecond})
	resolver := NewMappingResolver(f.details, models.ContentTypeCarousel, nil)
	f.dialog = NewMapDialog(models.ContentTypeCarousel, 7, sources, picker, resolver, f.mapper, nil)
	return f
}

func option(id int64) models.Option {
	return models.Option{ID: id, Name: "Batch"}
}

func TestMapDialogTargetsCarryBadges(t *testing.T) {
	f := newDialogFixture(t)
	require.NoError(t, f.dialog.Open(context.Background()))

	targets := f.dialog.Targets()
	require.Len(t, targets, 5)
	assert.Equal(t, "All Mapped", targets[0].Mapping.Badge)
	assert.True(t, targets[0].Mapping.Disabled)
	assert.Equal(t, "Mapped (1/2)", targets[1].Mapping.Badge)
	assert.True(t, targets[1].Mapping.Disabled)
	assert.False(t, targets[2].Mapping.Disabled)
	assert.Empty(t, targets[2].Mapping.Badge)
}

func TestMapDialogRejectsDisabledTarget(t *testing.T) {
	f := newDialogFixture(t)
	require.NoError(t, f.dialog.Open(context.Background()))

	_, err := f.dialog.ToggleTarget(option(1))
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	_, err = f.dialog.ToggleTarget(option(2))
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	on, err := f.dialog.ToggleTarget(option(3))
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, f.dialog.CanSubmit())
}

func TestMapDialogSubmitMovesToResultView(t *testing.T) {
	f := newDialogFixture(t)
	require.NoError(t, f.dialog.Open(context.Background()))
	_, err := f.dialog.ToggleTarget(option(3))
	require.NoError(t, err)
	_, err = f.dialog.ToggleTarget(option(4))
	require.NoError(t, err)

	outcome, err := f.dialog.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.MappedItems)
	assert.Equal(t, 2, outcome.Targets)
	assert.Equal(t, ViewResult, f.dialog.View())
	assert.Equal(t, outcome, f.dialog.Outcome())
	assert.False(t, f.dialog.Submitting())

	require.Len(t, f.mapper.requests, 1)
	req := f.mapper.requests[0]
	assert.Equal(t, []int64{3, 4}, req.TargetBatchIDs)
	assert.Equal(t, []models.MapItem{
		{ItemID: 11, DisplayOrder: 1, SourceBatchID: 7},
		{ItemID: 12, DisplayOrder: 4, SourceBatchID: 7},
	}, req.Items)

	_, err = f.dialog.Submit(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrPreconditionFailed)
}

func TestMapDialogRequiresTarget(t *testing.T) {
	f := newDialogFixture(t)
	require.NoError(t, f.dialog.Open(context.Background()))

	_, err := f.dialog.Submit(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, f.mapper.requests)
}

func TestMapDialogResolveFailureBlocksSubmit(t *testing.T) {
	f := newDialogFixture(t)
	f.details.fail = map[int64]error{12: errBoom}

	err := f.dialog.Open(context.Background())
	require.Error(t, err)
	assert.Error(t, f.dialog.ResolveErr())
	for _, target := range f.dialog.Targets() {
		assert.True(t, target.Mapping.Disabled)
	}

	_, err = f.dialog.ToggleTarget(option(3))
	assert.ErrorIs(t, err, appErrors.ErrPreconditionFailed)
	_, err = f.dialog.Submit(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrPreconditionFailed)
	assert.Empty(t, f.mapper.requests)

	f.details.fail = nil
	require.NoError(t, f.dialog.Refresh(context.Background()))
	_, err = f.dialog.ToggleTarget(option(3))
	require.NoError(t, err)
}

func TestMapDialogServerFailureKeepsSelectView(t *testing.T) {
	f := newDialogFixture(t)
	f.mapper.err = appErrors.Clone(appErrors.ErrConflict, "item 11 already mapped to batch 3")
	require.NoError(t, f.dialog.Open(context.Background()))
	_, err := f.dialog.ToggleTarget(option(3))
	require.NoError(t, err)

	_, err = f.dialog.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "item 11 already mapped to batch 3", appErrors.FromError(err).Message)
	assert.Equal(t, ViewSelect, f.dialog.View())
	assert.False(t, f.dialog.Submitting())
	assert.True(t, f.dialog.CanSubmit())
}

func TestMapDialogUnsuccessfulResult(t *testing.T) {
	f := newDialogFixture(t)
	f.mapper.result = &models.MapResult{Success: false, Message: "batch archived"}
	require.NoError(t, f.dialog.Open(context.Background()))
	_, err := f.dialog.ToggleTarget(option(5))
	require.NoError(t, err)

	_, err = f.dialog.Submit(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Equal(t, ViewSelect, f.dialog.View())
}

func TestMapDialogBlocksDoubleSubmit(t *testing.T) {
	f := newDialogFixture(t)
	f.mapper.block = make(chan struct{})
	require.NoError(t, f.dialog.Open(context.Background()))
	_, err := f.dialog.ToggleTarget(option(3))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.dialog.Submit(context.Background())
		done <- err
	}()
	assert.Eventually(t, f.dialog.Submitting, time.Second, time.Millisecond)
	assert.False(t, f.dialog.CanSubmit())

	_, err = f.dialog.Submit(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrSubmitting)

	close(f.mapper.block)
	require.NoError(t, <-done)
}
