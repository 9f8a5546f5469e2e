package properties

import (
	"context"
	"iter"
	"sync"
)

// MemoryStore keeps property bags in a map.
type MemoryStore struct {
	mu     sync.RWMutex
	bags   map[Key]Properties
	closed bool
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bags: make(map[Key]Properties)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key Key) (Properties, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.bags[key].Clone(), nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, key Key, props Properties) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if len(props) == 0 {
		delete(s.bags, key)
		return nil
	}
	s.bags[key] = props.Clone()
	return nil
}

// Remove implements Store.
func (s *MemoryStore) Remove(_ context.Context, key Key) (Properties, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	props := s.bags[key]
	delete(s.bags, key)
	return props, nil
}

// All implements Store. It iterates a snapshot taken when iteration starts.
func (s *MemoryStore) All(ctx context.Context) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		s.mu.RLock()
		if s.closed {
			s.mu.RUnlock()
			yield(Entry{}, ErrClosed)
			return
		}
		entries := make([]Entry, 0, len(s.bags))
		for k, p := range s.bags {
			entries = append(entries, Entry{Key: k, Properties: p.Clone()})
		}
		s.mu.RUnlock()

		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				yield(Entry{}, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

// Len returns the number of stored bags.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bags)
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.bags = nil
	return nil
}
