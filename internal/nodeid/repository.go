// Package nodeid maps NodeIDs to dense node indices and back.
//
// [Repository] is the live, sharded variant used by the graph: indices are
// appended and never recycled. [Dense] is the single-lock variant used while
// replaying a dump or an import, where nodes arrive with explicit indices.
package nodeid

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/pgraph/internal/container"
	"github.com/hupe1980/pgraph/internal/hash"
	"github.com/hupe1980/pgraph/model"
	"golang.org/x/sys/cpu"
)

// Repository is a sharded bidirectional map NodeID <-> index.
//
// The forward map is striped by NodeID hash. The reverse table is a
// segmented array of atomic pointers, so index -> NodeID lookups take no lock.
type Repository struct {
	stripes []stripe
	mask    uint64
	byIndex *container.SegmentedArray[model.NodeID]
	next    atomic.Int32
	live    atomic.Int64
}

type stripe struct {
	mu  sync.RWMutex
	ids map[model.NodeID]int32
	_   cpu.CacheLinePad
}

// New creates an empty repository with n lock stripes (rounded up to a power
// of two).
func New(n int) *Repository {
	size := 1
	for size < n {
		size <<= 1
	}
	r := &Repository{
		stripes: make([]stripe, size),
		mask:    uint64(size - 1),
		byIndex: container.NewSegmentedArray[model.NodeID](),
	}
	for i := range r.stripes {
		r.stripes[i].ids = make(map[model.NodeID]int32)
	}
	return r
}

func stripeHash(id model.NodeID) uint64 {
	var ord uint64
	if id.Type != nil {
		ord = uint64(id.Type.Ordinal())
	}
	return hash.Combine(hash.String(id.Key), ord)
}

func (r *Repository) stripe(id model.NodeID) *stripe {
	return &r.stripes[stripeHash(id)&r.mask]
}

func validate(id model.NodeID) error {
	if id.Type == nil {
		return fmt.Errorf("node id %q has no type", id.Key)
	}
	return nil
}

// Insert assigns the next index to id. It fails with model.ErrDuplicateKey
// when id is already present.
func (r *Repository) Insert(id model.NodeID) (int32, error) {
	if err := validate(id); err != nil {
		return -1, err
	}
	s := r.stripe(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	if index, ok := s.ids[id]; ok {
		return -1, fmt.Errorf("%w: node %s already has index %d", model.ErrDuplicateKey, id, index)
	}
	index := r.next.Add(1) - 1
	if index < 0 || index > model.MaxIndex {
		r.next.Store(math.MaxInt32)
		return -1, fmt.Errorf("node index space exhausted")
	}
	stored := id
	r.byIndex.Store(uint32(index), &stored)
	s.ids[id] = index
	r.live.Add(1)
	return index, nil
}

// Index returns the index of id, or -1 when unknown.
func (r *Repository) Index(id model.NodeID) int32 {
	s := r.stripe(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index, ok := s.ids[id]; ok {
		return index
	}
	return -1
}

// NodeID returns the id stored at index.
func (r *Repository) NodeID(index int32) (model.NodeID, bool) {
	if index < 0 {
		return model.NodeID{}, false
	}
	p := r.byIndex.Load(uint32(index))
	if p == nil {
		return model.NodeID{}, false
	}
	return *p, true
}

// Remove clears the slot at index and drops the reverse mapping.
func (r *Repository) Remove(index int32) (model.NodeID, bool) {
	if index < 0 {
		return model.NodeID{}, false
	}
	p := r.byIndex.Load(uint32(index))
	if p == nil {
		return model.NodeID{}, false
	}
	s := r.stripe(*p)
	s.mu.Lock()
	defer s.mu.Unlock()

	if !r.byIndex.CompareAndSwap(uint32(index), p, nil) {
		return model.NodeID{}, false
	}
	if current, ok := s.ids[*p]; ok && current == index {
		delete(s.ids, *p)
	}
	r.live.Add(-1)
	return *p, true
}

// Len returns the number of live nodes.
func (r *Repository) Len() int { return int(r.live.Load()) }

// Bound returns one past the highest index ever assigned.
func (r *Repository) Bound() int32 { return r.next.Load() }

// Reserve raises the next assigned index to at least bound.
func (r *Repository) Reserve(bound int32) {
	for {
		cur := r.next.Load()
		if cur >= bound || r.next.CompareAndSwap(cur, bound) {
			return
		}
	}
}

// Range calls fn for every live node in index order.
func (r *Repository) Range(fn func(index int32, id model.NodeID) bool) {
	bound := r.Bound()
	for i := int32(0); i < bound; i++ {
		if p := r.byIndex.Load(uint32(i)); p != nil {
			if !fn(i, *p) {
				return
			}
		}
	}
}

// FromDense promotes a replayed Dense table into a sharded Repository.
// Free slots of the dense table stay unused.
func FromDense(d *Dense, stripes int) *Repository {
	r := New(stripes)
	d.mu.Lock()
	defer d.mu.Unlock()

	for index, id := range d.byIndex {
		stored := id
		r.byIndex.Store(uint32(index), &stored)
		r.stripe(stored).ids[stored] = index
		r.live.Add(1)
	}
	r.next.Store(d.bound)
	return r
}
