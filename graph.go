package pgraph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/pgraph/internal/edgerepo"
	"github.com/hupe1980/pgraph/internal/nodeid"
	"github.com/hupe1980/pgraph/internal/resource"
	"github.com/hupe1980/pgraph/model"
	"github.com/hupe1980/pgraph/properties"
)

// Graph is an in-memory property graph. All methods are safe for concurrent
// use.
//
// Mutations of a single node's adjacency are serialized; mutations touching
// disjoint nodes run in parallel. Adding or removing an edge publishes the
// outgoing side before the incoming side, so a concurrent reader may briefly
// observe the edge on one endpoint only.
type Graph struct {
	name    string
	opts    options
	logger  *Logger
	metrics MetricsCollector
	props   properties.Store
	reg     *model.Registry
	nodes   *nodeid.Repository
	rc      *resource.Controller

	mu     sync.RWMutex
	edges  map[*model.EdgeType]*edgerepo.Repository
	closed atomic.Bool
}

// New creates an empty graph.
func New(name string, optFns ...Option) *Graph {
	o := applyOptions(optFns)
	return newGraph(name, o)
}

func newGraph(name string, o options) *Graph {
	return &Graph{
		name:    name,
		opts:    o,
		logger:  o.logger.WithGraph(name),
		metrics: o.metricsCollector,
		props:   o.propertyStore,
		reg:     model.NewRegistry(),
		nodes:   nodeid.New(o.stripes),
		rc: resource.NewController(resource.Config{
			MaxTransfers:       int64(o.dumpConcurrency),
			IOLimitBytesPerSec: int64(o.ioLimit),
		}),
		edges: make(map[*model.EdgeType]*edgerepo.Repository),
	}
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// Logger returns the logger scoped to this graph.
func (g *Graph) Logger() *Logger { return g.logger }

// NodeType returns the node type with the given name, registering it on
// first use.
func (g *Graph) NodeType(name string) (*model.NodeType, error) {
	return g.reg.NodeType(name)
}

// EdgeType returns the edge type with the given attributes, registering it
// and creating its repository on first use. Re-registering a name with
// different attributes fails with ErrTypeConflict.
func (g *Graph) EdgeType(name string, weighted bool, order model.SortOrder) (*model.EdgeType, error) {
	// Registration and repository creation form one step, so every type a
	// reader can see in the registry has a repository.
	g.mu.Lock()
	defer g.mu.Unlock()

	t, err := g.reg.EdgeType(name, weighted, order)
	if err != nil {
		return nil, err
	}
	if _, ok := g.edges[t]; !ok {
		g.edges[t] = edgerepo.New(t, edgerepo.Options{
			Backend:         g.opts.backend,
			Stripes:         g.opts.stripes,
			SegmentCapacity: g.opts.segmentCapacity,
		})
	}
	return t, nil
}

// LookupNodeType returns a registered node type.
func (g *Graph) LookupNodeType(name string) (*model.NodeType, bool) {
	return g.reg.LookupNodeType(name)
}

// LookupEdgeType returns a registered edge type.
func (g *Graph) LookupEdgeType(name string) (*model.EdgeType, bool) {
	return g.reg.LookupEdgeType(name)
}

// NodeTypes returns the registered node types in registration order.
func (g *Graph) NodeTypes() []*model.NodeType { return g.reg.NodeTypes() }

// EdgeTypes returns the registered edge types in registration order.
func (g *Graph) EdgeTypes() []*model.EdgeType { return g.reg.EdgeTypes() }

func (g *Graph) repo(t *model.EdgeType) (*edgerepo.Repository, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil edge type", ErrInvalidEdgeType)
	}
	g.mu.RLock()
	r, ok := g.edges[t]
	g.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %w: edge type %q", ErrInvalidEdgeType, ErrUnknownType, t.Name())
	}
	return r, nil
}

// repos returns the repositories of types, or of every registered type in
// registration order when types is empty.
func (g *Graph) repos(types []*model.EdgeType) ([]*edgerepo.Repository, error) {
	if len(types) == 0 {
		return g.allRepos(), nil
	}
	out := make([]*edgerepo.Repository, 0, len(types))
	for _, t := range types {
		r, err := g.repo(t)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (g *Graph) allRepos() []*edgerepo.Repository {
	g.mu.RLock()
	defer g.mu.RUnlock()
	types := g.reg.EdgeTypes()
	out := make([]*edgerepo.Repository, 0, len(types))
	for _, t := range types {
		out = append(out, g.edges[t])
	}
	return out
}

func (g *Graph) checkNodeType(t *model.NodeType) error {
	if t == nil {
		return fmt.Errorf("%w: node id has no type", ErrUnknownType)
	}
	if registered, ok := g.reg.LookupNodeType(t.Name()); !ok || registered != t {
		return fmt.Errorf("%w: node type %q", ErrUnknownType, t.Name())
	}
	return nil
}

func (g *Graph) checkOpen() error {
	if g.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (g *Graph) nodeIndex(id model.NodeID) (int32, error) {
	index := g.nodes.Index(id)
	if index < 0 {
		return -1, fmt.Errorf("%w: node %s", ErrNotFound, id)
	}
	return index, nil
}

// NodeIndex returns the dense index of id, or -1 when it does not exist.
func (g *Graph) NodeIndex(id model.NodeID) int32 {
	return g.nodes.Index(id)
}

// HasNode reports whether id is a live node.
func (g *Graph) HasNode(id model.NodeID) bool {
	return g.nodes.Index(id) >= 0
}

// AddNode inserts a node. It fails with ErrDuplicateKey when id exists.
func (g *Graph) AddNode(ctx context.Context, id model.NodeID, props properties.Properties) (Node, error) {
	start := time.Now()
	node, err := g.addNode(ctx, id, props)
	g.metrics.RecordAddNode(time.Since(start), err)
	return node, err
}

func (g *Graph) addNode(ctx context.Context, id model.NodeID, props properties.Properties) (Node, error) {
	if err := g.checkOpen(); err != nil {
		return Node{}, err
	}
	if err := g.checkNodeType(id.Type); err != nil {
		return Node{}, err
	}
	index, err := g.nodes.Insert(id)
	if err != nil {
		return Node{}, err
	}
	if len(props) > 0 {
		if err := g.props.Save(ctx, properties.NodeKey(id), props); err != nil {
			g.nodes.Remove(index)
			return Node{}, fmt.Errorf("save properties of %s: %w", id, err)
		}
	}
	return Node{Index: index, ID: id, Properties: props.Clone()}, nil
}

// Node returns the live node with the given id.
func (g *Graph) Node(ctx context.Context, id model.NodeID) (Node, error) {
	index, err := g.nodeIndex(id)
	if err != nil {
		return Node{}, err
	}
	return g.resolveNode(ctx, index)
}

// NodeByIndex returns the live node at a dense index.
func (g *Graph) NodeByIndex(ctx context.Context, index int32) (Node, error) {
	if err := model.CheckIndex(index); err != nil {
		return Node{}, err
	}
	return g.resolveNode(ctx, index)
}

func (g *Graph) resolveNode(ctx context.Context, index int32) (Node, error) {
	id, ok := g.nodes.NodeID(index)
	if !ok {
		return Node{}, fmt.Errorf("%w: node index %d", ErrNotFound, index)
	}
	props, err := g.props.Get(ctx, properties.NodeKey(id))
	if err != nil {
		return Node{}, fmt.Errorf("properties of %s: %w", id, err)
	}
	return Node{Index: index, ID: id, Properties: props}, nil
}

// RemoveNode removes a node together with every incident edge of every edge
// type and all their properties. The node index is never reassigned.
func (g *Graph) RemoveNode(ctx context.Context, id model.NodeID) (Node, error) {
	start := time.Now()
	node, edges, err := g.removeNode(ctx, id)
	g.metrics.RecordRemoveNode(edges, time.Since(start), err)
	g.logger.LogRemoveNode(ctx, id.String(), edges, err)
	return node, err
}

func (g *Graph) removeNode(ctx context.Context, id model.NodeID) (Node, int, error) {
	if err := g.checkOpen(); err != nil {
		return Node{}, 0, err
	}
	index, err := g.nodeIndex(id)
	if err != nil {
		return Node{}, 0, err
	}
	// Releasing the id first makes concurrent AddEdge calls on this node
	// roll back instead of leaving dangling edges.
	if _, ok := g.nodes.Remove(index); !ok {
		return Node{}, 0, fmt.Errorf("%w: node %s", ErrNotFound, id)
	}

	var (
		removed int
		errs    []error
	)
	for _, r := range g.allRepos() {
		n, err := g.detach(ctx, r, index)
		removed += n
		if err != nil {
			errs = append(errs, err)
		}
	}

	props, err := g.props.Remove(ctx, properties.NodeKey(id))
	if err != nil {
		errs = append(errs, fmt.Errorf("remove properties of %s: %w", id, err))
	}
	return Node{Index: index, ID: id, Properties: props}, removed, errors.Join(errs...)
}

// detach removes every edge of r incident to node.
func (g *Graph) detach(ctx context.Context, r *edgerepo.Repository, node int32) (int, error) {
	var (
		removed int
		errs    []error
	)
	for _, dir := range []model.Direction{model.Outgoing, model.Incoming} {
		v, err := r.Edges(dir, node)
		if err != nil {
			return removed, err
		}
		for index := range v.All() {
			id := model.NewEdgeID(r.Type(), index)
			prim, ok, err := r.Edge(id)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			// The index may have been recycled since the vector was read.
			if !ok || (prim.Start != node && prim.End != node) {
				continue
			}
			_, ok, err = r.RemoveEdgeIf(id, prim.Start, prim.End, g.dropEdgeProperties(ctx, &errs))
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if ok {
				removed++
			}
		}
	}
	return removed, errors.Join(errs...)
}

// dropEdgeProperties returns a removal hook that deletes the properties of
// the removed edge before its index is released, collecting failures in errs.
func (g *Graph) dropEdgeProperties(ctx context.Context, errs *[]error) func(model.EdgePrimitive) {
	return func(prim model.EdgePrimitive) {
		if _, err := g.props.Remove(ctx, properties.EdgeKey(prim.ID)); err != nil {
			*errs = append(*errs, fmt.Errorf("remove properties of %s: %w", prim.ID, err))
		}
	}
}

// AddEdge adds an edge between two live nodes. On a weighted type the edge
// gets model.DefaultWeight.
func (g *Graph) AddEdge(ctx context.Context, t *model.EdgeType, start, end model.NodeID, props properties.Properties) (model.EdgeID, error) {
	return g.recordAddEdge(ctx, t, func() (model.EdgeID, error) {
		return g.addEdge(ctx, t, start, end, model.DefaultWeight, false, props)
	})
}

// AddWeightedEdge adds a weighted edge. It fails with ErrInvalidEdgeType
// (and ErrUnsupported) on unweighted types.
func (g *Graph) AddWeightedEdge(ctx context.Context, t *model.EdgeType, start, end model.NodeID, weight float32, props properties.Properties) (model.EdgeID, error) {
	return g.recordAddEdge(ctx, t, func() (model.EdgeID, error) {
		return g.addEdge(ctx, t, start, end, weight, true, props)
	})
}

func (g *Graph) recordAddEdge(ctx context.Context, t *model.EdgeType, fn func() (model.EdgeID, error)) (model.EdgeID, error) {
	begin := time.Now()
	id, err := fn()
	name := ""
	if t != nil {
		name = t.Name()
	}
	g.metrics.RecordAddEdge(name, time.Since(begin), err)
	g.logger.LogAddEdge(ctx, name, id.Index, err)
	return id, err
}

func (g *Graph) addEdge(ctx context.Context, t *model.EdgeType, start, end model.NodeID, weight float32, weighted bool, props properties.Properties) (model.EdgeID, error) {
	if err := g.checkOpen(); err != nil {
		return model.EdgeID{}, err
	}
	r, err := g.repo(t)
	if err != nil {
		return model.EdgeID{}, err
	}
	s, err := g.nodeIndex(start)
	if err != nil {
		return model.EdgeID{}, err
	}
	e, err := g.nodeIndex(end)
	if err != nil {
		return model.EdgeID{}, err
	}

	var id model.EdgeID
	if weighted {
		id, err = r.AddWeightedEdge(s, e, weight)
	} else {
		id, err = r.AddEdge(s, e)
	}
	if err != nil {
		return model.EdgeID{}, err
	}

	// An endpoint removed concurrently may have run its cascade before the
	// edge was published.
	if !g.isNode(s, start) || !g.isNode(e, end) {
		_, _, _ = r.RemoveEdgeIf(id, s, e, nil)
		return model.EdgeID{}, fmt.Errorf("%w: endpoint removed while adding %s", ErrNotFound, id)
	}

	if len(props) > 0 {
		if err := g.props.Save(ctx, properties.EdgeKey(id), props); err != nil {
			_, _, _ = r.RemoveEdgeIf(id, s, e, nil)
			return model.EdgeID{}, fmt.Errorf("save properties of %s: %w", id, err)
		}
	}
	return id, nil
}

func (g *Graph) isNode(index int32, id model.NodeID) bool {
	current, ok := g.nodes.NodeID(index)
	return ok && current == id
}

// Edge returns the live edge with the given id.
func (g *Graph) Edge(ctx context.Context, id model.EdgeID) (Edge, error) {
	r, err := g.repo(id.Type)
	if err != nil {
		return Edge{}, err
	}
	prim, ok, err := r.Edge(id)
	if err != nil {
		return Edge{}, err
	}
	if !ok {
		return Edge{}, fmt.Errorf("%w: edge %s", ErrNotFound, id)
	}
	return g.edgeView(ctx, prim)
}

func (g *Graph) edgeView(ctx context.Context, prim model.EdgePrimitive) (Edge, error) {
	start, err := g.resolveNode(ctx, prim.Start)
	if err != nil {
		return Edge{}, err
	}
	end, err := g.resolveNode(ctx, prim.End)
	if err != nil {
		return Edge{}, err
	}
	props, err := g.props.Get(ctx, properties.EdgeKey(prim.ID))
	if err != nil {
		return Edge{}, fmt.Errorf("properties of %s: %w", prim.ID, err)
	}
	return Edge{
		ID:         prim.ID,
		Start:      start,
		End:        end,
		Weight:     prim.Weight,
		Properties: props,
	}, nil
}

// RemoveEdge removes an edge and its properties and releases its index for
// reuse. It returns the removed primitive.
func (g *Graph) RemoveEdge(ctx context.Context, id model.EdgeID) (model.EdgePrimitive, error) {
	start := time.Now()
	prim, err := g.removeEdge(ctx, id)
	name := ""
	if id.Type != nil {
		name = id.Type.Name()
	}
	g.metrics.RecordRemoveEdge(name, time.Since(start), err)
	return prim, err
}

func (g *Graph) removeEdge(ctx context.Context, id model.EdgeID) (model.EdgePrimitive, error) {
	if err := g.checkOpen(); err != nil {
		return model.EdgePrimitive{}, err
	}
	r, err := g.repo(id.Type)
	if err != nil {
		return model.EdgePrimitive{}, err
	}
	var errs []error
	prim, ok, err := r.RemoveEdge(id, g.dropEdgeProperties(ctx, &errs))
	if err != nil {
		return model.EdgePrimitive{}, err
	}
	if !ok {
		return model.EdgePrimitive{}, fmt.Errorf("%w: edge %s", ErrNotFound, id)
	}
	return prim, errors.Join(errs...)
}

// SetEdgeWeight rewrites the weight of a live edge and reorders both
// endpoint adjacency lists. It fails with ErrInvalidEdgeType (and
// ErrUnsupported) on unweighted types, leaving the graph unchanged.
func (g *Graph) SetEdgeWeight(_ context.Context, id model.EdgeID, weight float32) error {
	start := time.Now()
	err := g.setEdgeWeight(id, weight)
	name := ""
	if id.Type != nil {
		name = id.Type.Name()
	}
	g.metrics.RecordSetWeight(name, time.Since(start), err)
	return err
}

func (g *Graph) setEdgeWeight(id model.EdgeID, weight float32) error {
	if err := g.checkOpen(); err != nil {
		return err
	}
	r, err := g.repo(id.Type)
	if err != nil {
		return err
	}
	return r.SetEdgeWeight(id, weight)
}

// SetNodeProperties replaces the properties of a live node. An empty bag
// clears them.
func (g *Graph) SetNodeProperties(ctx context.Context, id model.NodeID, props properties.Properties) error {
	if err := g.checkOpen(); err != nil {
		return err
	}
	if _, err := g.nodeIndex(id); err != nil {
		return err
	}
	return g.props.Save(ctx, properties.NodeKey(id), props)
}

// SetEdgeProperties replaces the properties of a live edge. An empty bag
// clears them.
func (g *Graph) SetEdgeProperties(ctx context.Context, id model.EdgeID, props properties.Properties) error {
	if err := g.checkOpen(); err != nil {
		return err
	}
	r, err := g.repo(id.Type)
	if err != nil {
		return err
	}
	_, ok, err := r.Edge(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: edge %s", ErrNotFound, id)
	}
	return g.props.Save(ctx, properties.EdgeKey(id), props)
}

// NodeCount returns the number of live nodes.
func (g *Graph) NodeCount() int { return g.nodes.Len() }

// EdgeCount returns the number of live edges across all types.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, r := range g.edges {
		n += r.Len()
	}
	return n
}

// Close closes the property store. Mutations and dumps fail with ErrClosed
// afterwards. Close is idempotent.
func (g *Graph) Close() error {
	if !g.closed.CompareAndSwap(false, true) {
		return nil
	}
	return g.props.Close()
}
