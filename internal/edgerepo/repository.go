// Package edgerepo implements the typed edge repository: all state of one
// edge type (record buffer, adjacency index, index free-list).
package edgerepo

import (
	"fmt"

	"github.com/hupe1980/pgraph/internal/adjacency"
	"github.com/hupe1980/pgraph/internal/recordbuf"
	"github.com/hupe1980/pgraph/model"
)

// Options configures a Repository.
type Options struct {
	// Backend selects the record buffer implementation.
	Backend recordbuf.Backend
	// Stripes is the lock stripe count of the adjacency index and the shard
	// count of the array backend.
	Stripes int
	// SegmentCapacity is the records-per-segment of the binary backend.
	SegmentCapacity int
}

// Repository owns every edge of a single edge type.
//
// Insertion writes the record buffer before publishing into the adjacency
// index. Removal clears the slot, then detaches from the adjacency index, and
// releases the index last, so an index observed in a vector is always
// resolvable or already being removed.
type Repository struct {
	typ *model.EdgeType
	buf recordbuf.Buffer
	adj *adjacency.Index
	cmp adjacency.Comparator
	ids *freeList
}

// New creates an empty repository for typ.
func New(typ *model.EdgeType, opts Options) *Repository {
	stripes := adjacency.StripeCount(opts.Stripes)
	r := &Repository{
		typ: typ,
		buf: recordbuf.New(opts.Backend, typ.Weighted(), stripes, opts.SegmentCapacity),
		adj: adjacency.NewIndex(stripes),
		ids: newFreeList(),
	}
	r.cmp = adjacency.NewComparator(typ.SortOrder(), r)
	return r
}

// Type returns the edge type of the repository.
func (r *Repository) Type() *model.EdgeType { return r.typ }

func (r *Repository) checkID(id model.EdgeID) error {
	if id.Type != r.typ {
		actual := "<nil>"
		if id.Type != nil {
			actual = id.Type.Name()
		}
		return &model.ErrEdgeTypeMismatch{Expected: r.typ.Name(), Actual: actual}
	}
	return model.CheckIndex(id.Index)
}

func checkEndpoints(start, end int32) error {
	if err := model.CheckIndex(start); err != nil {
		return fmt.Errorf("start node: %w", err)
	}
	if err := model.CheckIndex(end); err != nil {
		return fmt.Errorf("end node: %w", err)
	}
	return nil
}

// AddEdge adds an edge between two node indices. On a weighted type the
// edge gets model.DefaultWeight.
func (r *Repository) AddEdge(start, end int32) (model.EdgeID, error) {
	return r.add(start, end, model.DefaultWeight)
}

// AddWeightedEdge adds a weighted edge. It fails on unweighted types.
func (r *Repository) AddWeightedEdge(start, end int32, weight float32) (model.EdgeID, error) {
	if !r.typ.Weighted() {
		return model.EdgeID{}, &model.ErrUnweightedEdgeType{Type: r.typ.Name()}
	}
	return r.add(start, end, weight)
}

func (r *Repository) add(start, end int32, weight float32) (model.EdgeID, error) {
	if err := checkEndpoints(start, end); err != nil {
		return model.EdgeID{}, err
	}
	index, err := r.ids.allocate()
	if err != nil {
		return model.EdgeID{}, fmt.Errorf("edge type %q: %w", r.typ.Name(), err)
	}
	r.insert(index, start, end, weight)
	return model.NewEdgeID(r.typ, index), nil
}

// AddEdgeAt inserts an edge at an explicit index (replay path). It fails with
// model.ErrDuplicateKey when the index is occupied.
func (r *Repository) AddEdgeAt(id model.EdgeID, start, end int32, weight float32) error {
	if err := r.checkID(id); err != nil {
		return err
	}
	if err := checkEndpoints(start, end); err != nil {
		return err
	}
	if !r.typ.Weighted() {
		weight = 0
	}
	if !r.ids.claim(id.Index) {
		return &model.ErrDuplicateIndex{Kind: "edge", Index: id.Index}
	}
	r.insert(id.Index, start, end, weight)
	return nil
}

func (r *Repository) insert(index, start, end int32, weight float32) {
	r.buf.Upsert(index, recordbuf.Record{Start: start, End: end, Weight: weight})
	// Outgoing and incoming are published one after the other. A reader may
	// briefly see the edge on one endpoint only.
	_ = r.adj.Add(r.cmp, model.Outgoing, start, index)
	_ = r.adj.Add(r.cmp, model.Incoming, end, index)
}

func (r *Repository) primitive(index int32, rec recordbuf.Record) model.EdgePrimitive {
	w := rec.Weight
	if !r.typ.Weighted() {
		w = model.DefaultWeight
	}
	return model.EdgePrimitive{
		ID:     model.NewEdgeID(r.typ, index),
		Start:  rec.Start,
		End:    rec.End,
		Weight: w,
	}
}

// Edge returns the primitive stored at id. ok is false for out-of-range or
// deleted indices.
func (r *Repository) Edge(id model.EdgeID) (model.EdgePrimitive, bool, error) {
	if err := r.checkID(id); err != nil {
		return model.EdgePrimitive{}, false, err
	}
	rec, ok := r.buf.Get(id.Index)
	if !ok {
		return model.EdgePrimitive{}, false, nil
	}
	return r.primitive(id.Index, rec), true, nil
}

// RemoveEdge clears the slot of id, detaches the edge from both endpoint
// vectors and releases the index. before, when non-nil, runs after the edge
// is detached and before the index can be reused. ok is false when the edge
// did not exist.
func (r *Repository) RemoveEdge(id model.EdgeID, before func(model.EdgePrimitive)) (model.EdgePrimitive, bool, error) {
	if err := r.checkID(id); err != nil {
		return model.EdgePrimitive{}, false, err
	}
	rec, ok := r.buf.Remove(id.Index)
	if !ok {
		return model.EdgePrimitive{}, false, nil
	}
	return r.release(id.Index, rec, before), true, nil
}

// RemoveEdgeIf is RemoveEdge restricted to an edge that still runs from
// start to end. It does nothing when the index was removed and reused in the
// meantime.
func (r *Repository) RemoveEdgeIf(id model.EdgeID, start, end int32, before func(model.EdgePrimitive)) (model.EdgePrimitive, bool, error) {
	if err := r.checkID(id); err != nil {
		return model.EdgePrimitive{}, false, err
	}
	rec, ok := r.buf.RemoveIf(id.Index, start, end)
	if !ok {
		return model.EdgePrimitive{}, false, nil
	}
	return r.release(id.Index, rec, before), true, nil
}

// release finishes a removal whose slot the caller cleared. Only that caller
// gets here, so an index is never freed twice.
func (r *Repository) release(index int32, rec recordbuf.Record, before func(model.EdgePrimitive)) model.EdgePrimitive {
	_ = r.adj.Remove(model.Outgoing, rec.Start, index)
	_ = r.adj.Remove(model.Incoming, rec.End, index)

	prim := r.primitive(index, rec)
	if before != nil {
		before(prim)
	}
	r.ids.release(index)
	return prim
}

// SetEdgeWeight rewrites the weight of a live edge and reindexes both
// endpoint vectors.
func (r *Repository) SetEdgeWeight(id model.EdgeID, weight float32) error {
	if err := r.checkID(id); err != nil {
		return err
	}
	if !r.typ.Weighted() {
		return &model.ErrUnweightedEdgeType{Type: r.typ.Name()}
	}
	rec, ok := r.buf.Get(id.Index)
	if !ok || !r.buf.SetWeight(id.Index, weight) {
		return fmt.Errorf("%w: edge %s", model.ErrNotFound, model.NewEdgeID(r.typ, id.Index))
	}
	_ = r.adj.Reindex(r.cmp, model.Outgoing, rec.Start, id.Index)
	_ = r.adj.Reindex(r.cmp, model.Incoming, rec.End, id.Index)
	return nil
}

// EdgeWeight implements adjacency.Weigher. Deleted edges weigh zero.
func (r *Repository) EdgeWeight(index int32) float32 {
	rec, ok := r.buf.Get(index)
	if !ok {
		return 0
	}
	return rec.Weight
}

// OutgoingEdges returns the published outgoing vector of node.
func (r *Repository) OutgoingEdges(node int32) (*adjacency.Vector, error) {
	return r.Edges(model.Outgoing, node)
}

// IncomingEdges returns the published incoming vector of node.
func (r *Repository) IncomingEdges(node int32) (*adjacency.Vector, error) {
	return r.Edges(model.Incoming, node)
}

// Edges returns the published vector of node in dir (OUTGOING or INCOMING).
func (r *Repository) Edges(dir model.Direction, node int32) (*adjacency.Vector, error) {
	if err := model.CheckIndex(node); err != nil {
		return nil, err
	}
	return r.adj.Get(dir, node)
}

// Range calls fn for every live edge in index order.
func (r *Repository) Range(fn func(model.EdgePrimitive) bool) {
	bound := r.ids.bound()
	for i := int32(0); i < bound; i++ {
		rec, ok := r.buf.Get(i)
		if !ok {
			continue
		}
		if !fn(r.primitive(i, rec)) {
			return
		}
	}
}

// Len returns the number of live edges.
func (r *Repository) Len() int { return r.buf.Len() }

// Bound returns one past the highest index ever allocated.
func (r *Repository) Bound() int32 { return r.ids.bound() }

// FreeCount returns the number of released indices awaiting reuse.
func (r *Repository) FreeCount() int { return r.ids.free() }
