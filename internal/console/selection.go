package console

// SelectionSet tracks the rows chosen on the visible page of a list. Selected ids
// are always a subset of the visible ids. It is not safe for concurrent use.
type SelectionSet[T any] struct {
	idOf     func(T) int64
	visible  []T
	index    map[int64]int
	selected map[int64]struct{}
	order    []int64
}

// NewSelectionSet builds an empty set keyed by idOf.
func NewSelectionSet[T any](idOf func(T) int64) *SelectionSet[T] {
	return &SelectionSet[T]{
		idOf:     idOf,
		index:    map[int64]int{},
		selected: map[int64]struct{}{},
	}
}

// SetVisible replaces the visible rows and drops selections that are no longer shown.
func (s *SelectionSet[T]) SetVisible(items []T) {
	s.visible = make([]T, 0, len(items))
	s.index = make(map[int64]int, len(items))
	for _, item := range items {
		id := s.idOf(item)
		if _, dup := s.index[id]; dup {
			continue
		}
		s.index[id] = len(s.visible)
		s.visible = append(s.visible, item)
	}

	kept := s.order[:0]
	for _, id := range s.order {
		if _, ok := s.index[id]; ok {
			kept = append(kept, id)
			continue
		}
		delete(s.selected, id)
	}
	s.order = kept
}

// Visible returns the visible rows.
func (s *SelectionSet[T]) Visible() []T {
	return append([]T(nil), s.visible...)
}

// Toggle flips the selection of item and reports whether it is now selected.
// Rows that are not visible cannot be selected.
func (s *SelectionSet[T]) Toggle(item T) bool {
	id := s.idOf(item)
	if _, ok := s.selected[id]; ok {
		s.remove(id)
		return false
	}
	if _, ok := s.index[id]; !ok {
		return false
	}
	s.selected[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// SelectAll selects every visible row.
func (s *SelectionSet[T]) SelectAll() {
	for _, item := range s.visible {
		id := s.idOf(item)
		if _, ok := s.selected[id]; ok {
			continue
		}
		s.selected[id] = struct{}{}
		s.order = append(s.order, id)
	}
}

// ToggleAll is the header checkbox: clear when everything is selected, otherwise select all.
func (s *SelectionSet[T]) ToggleAll() {
	if s.IsAllSelected() {
		s.Clear()
		return
	}
	s.SelectAll()
}

// Clear empties the selection.
func (s *SelectionSet[T]) Clear() {
	s.selected = map[int64]struct{}{}
	s.order = nil
}

// IsSelected reports whether id is selected.
func (s *SelectionSet[T]) IsSelected(id int64) bool {
	_, ok := s.selected[id]
	return ok
}

// Len returns the number of selected rows.
func (s *SelectionSet[T]) Len() int {
	return len(s.selected)
}

// IsAllSelected reports whether every visible row is selected and at least one is visible.
func (s *SelectionSet[T]) IsAllSelected() bool {
	return len(s.visible) > 0 && len(s.selected) == len(s.visible)
}

// IsIndeterminate reports a partial selection of the visible rows.
func (s *SelectionSet[T]) IsIndeterminate() bool {
	return len(s.selected) > 0 && len(s.selected) < len(s.visible)
}

// Selected returns the selected rows in selection order.
func (s *SelectionSet[T]) Selected() []T {
	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.visible[s.index[id]])
	}
	return out
}

// SelectedIDs returns the selected ids in selection order.
func (s *SelectionSet[T]) SelectedIDs() []int64 {
	return append([]int64(nil), s.order...)
}

func (s *SelectionSet[T]) remove(id int64) {
	delete(s.selected, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
