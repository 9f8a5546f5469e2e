package pgraph

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/pgraph/internal/nodeid"
	"github.com/hupe1980/pgraph/model"
	"github.com/hupe1980/pgraph/properties"
)

// Builder populates a graph at explicit node and edge indices, as import
// and restore need to. Occupied indices fail with ErrDuplicateKey.
//
// A Builder is safe for concurrent use until Build is called. It must not be
// used afterwards.
//
//	b := pgraph.NewBuilder("social")
//	person, _ := b.NodeType("person")
//	knows, _ := b.EdgeType("knows", true, model.SortDescendingWeight)
//	_ = b.AddNodeAt(ctx, 0, model.NewNodeID(person, "alice"), nil)
//	_ = b.AddNodeAt(ctx, 1, model.NewNodeID(person, "bob"), nil)
//	_ = b.AddEdgeAt(ctx, model.NewEdgeID(knows, 7), 0, 1, 0.5, nil)
//	g, err := b.Build()
type Builder struct {
	g     *Graph
	dense *nodeid.Dense
	built atomic.Bool
}

// NewBuilder creates a builder for a graph called name.
func NewBuilder(name string, optFns ...Option) *Builder {
	return newBuilder(name, applyOptions(optFns))
}

func newBuilder(name string, o options) *Builder {
	return &Builder{
		g:     newGraph(name, o),
		dense: nodeid.NewDense(),
	}
}

func (b *Builder) check() error {
	if b.built.Load() {
		return ErrBuilt
	}
	return nil
}

// Logger returns the logger of the graph being built.
func (b *Builder) Logger() *Logger { return b.g.logger }

// NodeType registers a node type.
func (b *Builder) NodeType(name string) (*model.NodeType, error) {
	return b.g.NodeType(name)
}

// EdgeType registers an edge type.
func (b *Builder) EdgeType(name string, weighted bool, order model.SortOrder) (*model.EdgeType, error) {
	return b.g.EdgeType(name, weighted, order)
}

// AddNode inserts a node, reusing an index skipped by AddNodeAt when one
// is free.
func (b *Builder) AddNode(ctx context.Context, id model.NodeID, props properties.Properties) (int32, error) {
	if err := b.check(); err != nil {
		return -1, err
	}
	if err := b.g.checkNodeType(id.Type); err != nil {
		return -1, err
	}
	index, err := b.dense.Insert(id)
	if err != nil {
		return -1, err
	}
	if err := b.saveNodeProperties(ctx, index, id, props); err != nil {
		return -1, err
	}
	return index, nil
}

// AddNodeAt inserts a node at an explicit index.
func (b *Builder) AddNodeAt(ctx context.Context, index int32, id model.NodeID, props properties.Properties) error {
	if err := b.check(); err != nil {
		return err
	}
	if err := b.g.checkNodeType(id.Type); err != nil {
		return err
	}
	if err := b.dense.InsertAt(index, id); err != nil {
		return err
	}
	return b.saveNodeProperties(ctx, index, id, props)
}

func (b *Builder) saveNodeProperties(ctx context.Context, index int32, id model.NodeID, props properties.Properties) error {
	if len(props) == 0 {
		return nil
	}
	if err := b.g.props.Save(ctx, properties.NodeKey(id), props); err != nil {
		b.dense.Remove(index)
		return fmt.Errorf("save properties of %s: %w", id, err)
	}
	return nil
}

// AddEdge adds an edge between two nodes already added to the builder.
// weight is ignored on unweighted types.
func (b *Builder) AddEdge(ctx context.Context, t *model.EdgeType, start, end model.NodeID, weight float32, props properties.Properties) (model.EdgeID, error) {
	if err := b.check(); err != nil {
		return model.EdgeID{}, err
	}
	r, err := b.g.repo(t)
	if err != nil {
		return model.EdgeID{}, err
	}
	s, e := b.dense.Index(start), b.dense.Index(end)
	if s < 0 || e < 0 {
		return model.EdgeID{}, fmt.Errorf("%w: edge endpoints %s -> %s", ErrNotFound, start, end)
	}

	var id model.EdgeID
	if t.Weighted() {
		id, err = r.AddWeightedEdge(s, e, weight)
	} else {
		id, err = r.AddEdge(s, e)
	}
	if err != nil {
		return model.EdgeID{}, err
	}
	if err := b.saveEdgeProperties(ctx, id, s, e, props); err != nil {
		return model.EdgeID{}, err
	}
	return id, nil
}

// AddEdgeAt adds an edge at an explicit index between two node indices
// already added to the builder.
func (b *Builder) AddEdgeAt(ctx context.Context, id model.EdgeID, start, end int32, weight float32, props properties.Properties) error {
	if err := b.check(); err != nil {
		return err
	}
	r, err := b.g.repo(id.Type)
	if err != nil {
		return err
	}
	for _, n := range []int32{start, end} {
		if _, ok := b.dense.NodeID(n); !ok {
			return fmt.Errorf("%w: edge %s endpoint index %d", ErrNotFound, id, n)
		}
	}
	if err := r.AddEdgeAt(id, start, end, weight); err != nil {
		return err
	}
	return b.saveEdgeProperties(ctx, id, start, end, props)
}

func (b *Builder) saveEdgeProperties(ctx context.Context, id model.EdgeID, start, end int32, props properties.Properties) error {
	if len(props) == 0 {
		return nil
	}
	if err := b.g.props.Save(ctx, properties.EdgeKey(id), props); err != nil {
		if r, rerr := b.g.repo(id.Type); rerr == nil {
			_, _, _ = r.RemoveEdgeIf(id, start, end, nil)
		}
		return fmt.Errorf("save properties of %s: %w", id, err)
	}
	return nil
}

// Build returns the populated graph. Node indices left unused by explicit
// inserts stay unused. Build fails with ErrBuilt when called twice.
func (b *Builder) Build() (*Graph, error) {
	if !b.built.CompareAndSwap(false, true) {
		return nil, ErrBuilt
	}
	b.g.nodes = nodeid.FromDense(b.dense, b.g.opts.stripes)
	return b.g, nil
}
