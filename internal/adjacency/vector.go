package adjacency

import (
	"cmp"
	"iter"
	"slices"
	"sort"

	"github.com/hupe1980/pgraph/model"
)

// Weigher resolves the current weight of an edge index. Vectors store bare
// indices, so weight-ordered comparisons go through this indirection.
type Weigher interface {
	EdgeWeight(index int32) float32
}

// Comparator orders edge indices for one edge type. Ties break by edge index
// ascending.
type Comparator struct {
	order   model.SortOrder
	weigher Weigher
}

// NewComparator creates a comparator for order. weigher may be nil for
// SortInsertion.
func NewComparator(order model.SortOrder, weigher Weigher) Comparator {
	return Comparator{order: order, weigher: weigher}
}

// Sorted reports whether the comparator orders by weight.
func (c Comparator) Sorted() bool { return c.order != model.SortInsertion }

func (c Comparator) compareWeights(wa, wb float32, a, b int32) int {
	var r int
	switch c.order {
	case model.SortAscendingWeight:
		r = cmp.Compare(wa, wb)
	case model.SortDescendingWeight:
		r = cmp.Compare(wb, wa)
	}
	if r != 0 {
		return r
	}
	return cmp.Compare(a, b)
}

// Vector is an immutable ordered list of edge indices owned by one node in
// one direction. The zero value is not used; absence is an empty Vector.
type Vector struct {
	owner int32
	dir   model.Direction
	ids   []int32
}

// Empty returns an empty vector for owner.
func Empty(owner int32, dir model.Direction) *Vector {
	return &Vector{owner: owner, dir: dir}
}

// Owner returns the node index that owns the vector.
func (v *Vector) Owner() int32 { return v.owner }

// Direction returns the direction of the vector.
func (v *Vector) Direction() model.Direction { return v.dir }

// Len returns the number of edge indices.
func (v *Vector) Len() int { return len(v.ids) }

// At returns the i-th edge index.
func (v *Vector) At(i int) int32 { return v.ids[i] }

// Slice returns a copy of the edge indices.
func (v *Vector) Slice() []int32 { return slices.Clone(v.ids) }

// All iterates the edge indices in order.
func (v *Vector) All() iter.Seq[int32] {
	return func(yield func(int32) bool) {
		for _, id := range v.ids {
			if !yield(id) {
				return
			}
		}
	}
}

// Contains reports whether id is in the vector.
func (v *Vector) Contains(id int32) bool {
	return slices.Contains(v.ids, id)
}

// Add returns a vector with id inserted at its ordered position.
func (v *Vector) Add(c Comparator, id int32) *Vector {
	next := make([]int32, 0, len(v.ids)+1)
	if !c.Sorted() {
		next = append(next, v.ids...)
		next = append(next, id)
		return &Vector{owner: v.owner, dir: v.dir, ids: next}
	}

	w := c.weigher.EdgeWeight(id)
	pos := sort.Search(len(v.ids), func(i int) bool {
		other := v.ids[i]
		return c.compareWeights(w, c.weigher.EdgeWeight(other), id, other) < 0
	})
	next = append(next, v.ids[:pos]...)
	next = append(next, id)
	next = append(next, v.ids[pos:]...)
	return &Vector{owner: v.owner, dir: v.dir, ids: next}
}

// Remove returns a vector without id. It returns v itself when id is absent.
func (v *Vector) Remove(id int32) *Vector {
	pos := slices.Index(v.ids, id)
	if pos < 0 {
		return v
	}
	next := make([]int32, 0, len(v.ids)-1)
	next = append(next, v.ids[:pos]...)
	next = append(next, v.ids[pos+1:]...)
	return &Vector{owner: v.owner, dir: v.dir, ids: next}
}

// Reindex returns a vector with id removed and reinserted at the position
// matching its current weight. When the remaining ids are themselves out of
// order, because another weight changed and its reindex has not run yet, the
// whole vector is re-sorted instead. For insertion order it returns v
// unchanged.
func (v *Vector) Reindex(c Comparator, id int32) *Vector {
	if !c.Sorted() || !v.Contains(id) {
		return v
	}
	rest := v.Remove(id)
	if !rest.inOrder(c) {
		return v.sorted(c)
	}
	return rest.Add(c, id)
}

func (v *Vector) inOrder(c Comparator) bool {
	for i := 1; i < len(v.ids); i++ {
		a, b := v.ids[i-1], v.ids[i]
		if c.compareWeights(c.weigher.EdgeWeight(a), c.weigher.EdgeWeight(b), a, b) > 0 {
			return false
		}
	}
	return true
}

func (v *Vector) sorted(c Comparator) *Vector {
	type entry struct {
		id     int32
		weight float32
	}
	entries := make([]entry, len(v.ids))
	for i, id := range v.ids {
		entries[i] = entry{id: id, weight: c.weigher.EdgeWeight(id)}
	}
	slices.SortFunc(entries, func(a, b entry) int {
		return c.compareWeights(a.weight, b.weight, a.id, b.id)
	})

	next := make([]int32, len(entries))
	for i, e := range entries {
		next[i] = e.id
	}
	return &Vector{owner: v.owner, dir: v.dir, ids: next}
}

// Build creates a vector from ids, ordered by c.
func Build(c Comparator, owner int32, dir model.Direction, ids []int32) *Vector {
	v := &Vector{owner: owner, dir: dir, ids: slices.Clone(ids)}
	if !c.Sorted() {
		slices.Sort(v.ids)
		return v
	}
	return v.sorted(c)
}
