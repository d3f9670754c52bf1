package console

import "sync"

// Store holds one shared value with change notification. Writers go through
// Set or Update; subscribers run after the lock is released.
type Store[T any] struct {
	mu     sync.RWMutex
	value  T
	subs   map[int]func(T)
	nextID int
}

// NewStore returns a store holding initial.
func NewStore[T any](initial T) *Store[T] {
	return &Store[T]{value: initial, subs: map[int]func(T){}}
}

// Get returns the current value.
func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the value.
func (s *Store[T]) Set(value T) {
	s.Update(func(v *T) { *v = value })
}

// Update mutates the value in place.
func (s *Store[T]) Update(fn func(*T)) {
	s.mu.Lock()
	fn(&s.value)
	value := s.value
	subs := make([]func(T), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(value)
	}
}

// Subscribe registers fn for future changes and returns a function that removes it.
func (s *Store[T]) Subscribe(fn func(T)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
