package adjacency

import (
	"fmt"
	"math/bits"
	"sync"

	"github.com/hupe1980/pgraph/model"
	"golang.org/x/sys/cpu"
)

// Index holds the outgoing and incoming vectors of one edge type.
type Index struct {
	out shardedMap
	in  shardedMap
}

type shardedMap struct {
	stripes []stripe
	mask    uint32
}

type stripe struct {
	mu      sync.RWMutex
	vectors map[int32]*Vector
	_       cpu.CacheLinePad
}

// StripeCount rounds n up to a power of two, with a minimum of 1.
func StripeCount(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// NewIndex creates an index with the given number of lock stripes per
// direction. n is rounded up to a power of two.
func NewIndex(n int) *Index {
	n = StripeCount(n)
	return &Index{
		out: newShardedMap(n),
		in:  newShardedMap(n),
	}
}

func newShardedMap(n int) shardedMap {
	m := shardedMap{
		stripes: make([]stripe, n),
		mask:    uint32(n - 1),
	}
	for i := range m.stripes {
		m.stripes[i].vectors = make(map[int32]*Vector)
	}
	return m
}

func (x *Index) dirMap(dir model.Direction) (*shardedMap, error) {
	switch dir {
	case model.Outgoing:
		return &x.out, nil
	case model.Incoming:
		return &x.in, nil
	default:
		return nil, fmt.Errorf("%w: adjacency index stores %s and %s only, got %s",
			model.ErrInvalidDirection, model.Outgoing, model.Incoming, dir)
	}
}

func (m *shardedMap) stripe(node int32) *stripe {
	return &m.stripes[uint32(node)&m.mask]
}

// Get returns the published vector of node, or an empty vector.
func (x *Index) Get(dir model.Direction, node int32) (*Vector, error) {
	m, err := x.dirMap(dir)
	if err != nil {
		return nil, err
	}
	s := m.stripe(node)
	s.mu.RLock()
	v, ok := s.vectors[node]
	s.mu.RUnlock()
	if !ok {
		return Empty(node, dir), nil
	}
	return v, nil
}

// Update replaces the vector of node with fn(current) under the stripe lock.
// An empty result removes the map entry.
func (x *Index) Update(dir model.Direction, node int32, fn func(*Vector) *Vector) error {
	m, err := x.dirMap(dir)
	if err != nil {
		return err
	}
	s := m.stripe(node)
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.vectors[node]
	if !ok {
		current = Empty(node, dir)
	}
	next := fn(current)
	if next == current {
		return nil
	}
	if next.Len() == 0 {
		delete(s.vectors, node)
		return nil
	}
	s.vectors[node] = next
	return nil
}

// Add inserts edge id into the vector of node.
func (x *Index) Add(c Comparator, dir model.Direction, node, id int32) error {
	return x.Update(dir, node, func(v *Vector) *Vector { return v.Add(c, id) })
}

// Remove detaches edge id from the vector of node.
func (x *Index) Remove(dir model.Direction, node, id int32) error {
	return x.Update(dir, node, func(v *Vector) *Vector { return v.Remove(id) })
}

// Reindex moves edge id to its ordered position after a weight change.
func (x *Index) Reindex(c Comparator, dir model.Direction, node, id int32) error {
	return x.Update(dir, node, func(v *Vector) *Vector { return v.Reindex(c, id) })
}

// Publish replaces the vector of node with one built from ids. It is used
// by restore, where whole lists are known up front.
func (x *Index) Publish(c Comparator, dir model.Direction, node int32, ids []int32) error {
	v := Build(c, node, dir, ids)
	return x.Update(dir, node, func(*Vector) *Vector { return v })
}

// Range calls fn for every non-empty vector in dir. Each stripe is read under
// its lock; fn must not mutate the index.
func (x *Index) Range(dir model.Direction, fn func(node int32, v *Vector) bool) error {
	m, err := x.dirMap(dir)
	if err != nil {
		return err
	}
	for i := range m.stripes {
		s := &m.stripes[i]
		s.mu.RLock()
		snapshot := make([]*Vector, 0, len(s.vectors))
		for _, v := range s.vectors {
			snapshot = append(snapshot, v)
		}
		s.mu.RUnlock()

		for _, v := range snapshot {
			if !fn(v.Owner(), v) {
				return nil
			}
		}
	}
	return nil
}
