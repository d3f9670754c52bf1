package console

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/content-console/internal/models"
	appErrors "github.com/noah-isme/content-console/pkg/errors"
)

func newTestPicker(fetcher PageFetcher, mode SelectMode) *Picker {
	return NewPicker(fetcher, PickerConfig{
		Kind:     models.OptionKindBatch,
		Mode:     mode,
		PageSize: 10,
		Debounce: 20 * time.Millisecond,
	})
}

func TestPickerOpenLoadsFirstPage(t *testing.T) {
	fetcher := newFakeFetcher(25)
	picker := newTestPicker(fetcher, MultiSelect)
	assert.Equal(t, PickerIdle, picker.Snapshot().State)

	require.NoError(t, picker.Open(context.Background()))

	snap := picker.Snapshot()
	assert.Equal(t, PickerLoaded, snap.State)
	assert.True(t, snap.Open)
	assert.Len(t, snap.Items, 10)
	assert.Equal(t, 3, snap.TotalPages)
	assert.True(t, snap.CanPageForward)
	assert.False(t, snap.CanPageBack)
	require.Len(t, fetcher.Calls(), 1)
	assert.Equal(t, models.PageQuery{PageNo: 0, PageSize: 10}, fetcher.Calls()[0])
}

func TestPickerPageForwardFetchesNextPageWithSameSearch(t *testing.T) {
	fetcher := newFakeFetcher(25)
	picker := newTestPicker(fetcher, MultiSelect)
	require.NoError(t, picker.Search(context.Background(), "batch"))

	moved, err := picker.PageForward(context.Background())
	require.NoError(t, err)
	assert.True(t, moved)

	calls := fetcher.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, 1, calls[1].PageNo)
	assert.Equal(t, "batch", calls[1].Search)
	assert.Equal(t, 1, picker.Snapshot().PageNumber)
}

func TestPickerPagingIsBounded(t *testing.T) {
	fetcher := newFakeFetcher(15)
	picker := newTestPicker(fetcher, MultiSelect)
	require.NoError(t, picker.Open(context.Background()))

	moved, err := picker.PageBack(context.Background())
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = picker.PageForward(context.Background())
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = picker.PageForward(context.Background())
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Len(t, fetcher.Calls(), 2)

	err = picker.GoToPage(context.Background(), 5)
	assert.ErrorIs(t, err, appErrors.ErrPageOutOfRange)
	assert.Len(t, fetcher.Calls(), 2)
}

func TestPickerDebouncesKeystrokes(t *testing.T) {
	fetcher := newFakeFetcher(25)
	picker := newTestPicker(fetcher, MultiSelect)
	require.NoError(t, picker.Open(context.Background()))

	for _, term := range []string{"B", "Ba", "Bat", "Batch 1"} {
		picker.OnQueryChange(term)
		time.Sleep(2 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return len(fetcher.Calls()) == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	calls := fetcher.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "Batch 1", calls[1].Search)
	assert.Equal(t, 0, calls[1].PageNo)
}

func TestPickerClearingSearchRepeatsInitialFetch(t *testing.T) {
	fetcher := newFakeFetcher(25)
	picker := newTestPicker(fetcher, MultiSelect)
	require.NoError(t, picker.Open(context.Background()))

	picker.OnQueryChange("Batch 2")
	assert.Eventually(t, func() bool { return len(fetcher.Calls()) == 2 }, time.Second, 5*time.Millisecond)
	picker.OnQueryChange("")
	assert.Eventually(t, func() bool { return len(fetcher.Calls()) == 3 }, time.Second, 5*time.Millisecond)

	calls := fetcher.Calls()
	assert.Equal(t, calls[0], calls[2])
	assert.Eventually(t, func() bool { return len(picker.Snapshot().Items) == 10 }, time.Second, 5*time.Millisecond)
}

func TestPickerQueryChangeWhileClosedDoesNotFetch(t *testing.T) {
	fetcher := newFakeFetcher(5)
	picker := newTestPicker(fetcher, SingleSelect)

	picker.OnQueryChange("x")
	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, fetcher.Calls())
	assert.Equal(t, "x", picker.Snapshot().Query)
}

func TestPickerFlushSearchSkipsDebounce(t *testing.T) {
	fetcher := newFakeFetcher(25)
	picker := NewPicker(fetcher, PickerConfig{Kind: models.OptionKindBatch, PageSize: 10, Debounce: time.Hour})
	require.NoError(t, picker.Open(context.Background()))

	picker.OnQueryChange("Batch 2")
	require.True(t, picker.FlushSearch())
	assert.False(t, picker.FlushSearch())

	calls := fetcher.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "Batch 2", calls[1].Search)
	assert.Equal(t, "Batch 2", picker.Snapshot().Query)
}

func TestPickerPagingKeepsLoadedTermWhileSearchPending(t *testing.T) {
	fetcher := newFakeFetcher(25)
	picker := NewPicker(fetcher, PickerConfig{Kind: models.OptionKindBatch, PageSize: 10, Debounce: time.Hour})
	require.NoError(t, picker.Open(context.Background()))

	picker.OnQueryChange("Batch 2")
	moved, err := picker.PageForward(context.Background())
	require.NoError(t, err)
	require.True(t, moved)

	calls := fetcher.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, 1, calls[1].PageNo)
	assert.Equal(t, "", calls[1].Search)

	require.True(t, picker.FlushSearch())
	calls = fetcher.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, models.PageQuery{PageNo: 0, PageSize: 10, Search: "Batch 2"}, calls[2])
}

func TestPickerDropsStaleResponses(t *testing.T) {
	fetcher := newFakeFetcher(25)
	picker := newTestPicker(fetcher, MultiSelect)
	release := fetcher.gate("Batch 0")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = picker.Search(context.Background(), "Batch 0")
	}()
	assert.Eventually(t, func() bool { return len(fetcher.Calls()) == 1 }, time.Second, time.Millisecond)

	require.NoError(t, picker.Search(context.Background(), "Batch 2"))
	close(release)
	wg.Wait()

	snap := picker.Snapshot()
	assert.Equal(t, PickerLoaded, snap.State)
	assert.Equal(t, "Batch 2", snap.Query)
	assert.Equal(t, []int64{20, 21, 22, 23, 24, 25}, optionIDs(snap.Items))
}

func TestPickerErrorState(t *testing.T) {
	fetcher := newFakeFetcher(25)
	fetcher.setErr(errBoom)
	picker := newTestPicker(fetcher, MultiSelect)

	err := picker.Open(context.Background())
	require.Error(t, err)

	snap := picker.Snapshot()
	assert.Equal(t, PickerError, snap.State)
	assert.Empty(t, snap.Items)
	assert.ErrorIs(t, snap.Err, appErrors.ErrNetwork)
	assert.False(t, snap.CanPageForward)

	fetcher.setErr(nil)
	require.NoError(t, picker.Open(context.Background()))
	assert.Equal(t, PickerLoaded, picker.Snapshot().State)
}

func TestPickerSelectOneClosesPicker(t *testing.T) {
	fetcher := newFakeFetcher(5)
	picker := newTestPicker(fetcher, SingleSelect)
	require.NoError(t, picker.Open(context.Background()))

	items := picker.Snapshot().Items
	require.NoError(t, picker.SelectOne(items[0]))
	require.NoError(t, picker.SelectOne(items[1]))

	snap := picker.Snapshot()
	assert.False(t, snap.Open)
	assert.Equal(t, []int64{2}, optionIDs(snap.Selected))

	_, err := picker.Toggle(items[0])
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestPickerToggleAndClear(t *testing.T) {
	fetcher := newFakeFetcher(5)
	picker := newTestPicker(fetcher, MultiSelect)
	require.NoError(t, picker.Open(context.Background()))
	items := picker.Snapshot().Items

	on, err := picker.Toggle(items[0])
	require.NoError(t, err)
	assert.True(t, on)
	_, _ = picker.Toggle(items[2])
	off, err := picker.Toggle(items[0])
	require.NoError(t, err)
	assert.False(t, off)
	assert.Equal(t, []int64{3}, picker.SelectedIDs())

	picker.Clear()
	assert.Empty(t, picker.Selected())
	assert.Len(t, picker.Snapshot().Items, 5)
	assert.ErrorIs(t, picker.SelectOne(items[0]), appErrors.ErrValidation)
}

func TestPickerLoadMoreAppends(t *testing.T) {
	fetcher := newFakeFetcher(25)
	picker := newTestPicker(fetcher, MultiSelect)
	require.NoError(t, picker.Open(context.Background()))

	more, err := picker.LoadMore(context.Background())
	require.NoError(t, err)
	assert.True(t, more)

	snap := picker.Snapshot()
	assert.Len(t, snap.Items, 20)
	assert.Equal(t, 1, snap.PageNumber)
}

func TestPickerOnChangeReceivesTransitions(t *testing.T) {
	fetcher := newFakeFetcher(5)
	var mu sync.Mutex
	var states []PickerState
	picker := NewPicker(fetcher, PickerConfig{
		Kind: models.OptionKindTag,
		Mode: MultiSelect,
		OnChange: func(s PickerSnapshot) {
			mu.Lock()
			states = append(states, s.State)
			mu.Unlock()
		},
	})

	require.NoError(t, picker.Open(context.Background()))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []PickerState{PickerLoading, PickerLoaded}, states)
}
