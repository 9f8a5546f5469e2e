package pgraph

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/pgraph/internal/edgerepo"
	"github.com/hupe1980/pgraph/model"
	"github.com/hupe1980/pgraph/traverse"
)

// adjacent yields the live primitives adjacent to node. Every run reads the
// currently published vectors. Per type, outgoing edges come before incoming
// ones; with model.Both a self-loop is yielded once.
func adjacent(repos []*edgerepo.Repository, node int32, dir model.Direction) iter.Seq[model.EdgePrimitive] {
	dirs := []model.Direction{dir}
	if dir == model.Both {
		dirs = []model.Direction{model.Outgoing, model.Incoming}
	}
	return func(yield func(model.EdgePrimitive) bool) {
		for _, r := range repos {
			for _, d := range dirs {
				v, err := r.Edges(d, node)
				if err != nil {
					continue
				}
				for index := range v.All() {
					prim, ok, err := r.Edge(model.NewEdgeID(r.Type(), index))
					if err != nil || !ok {
						continue
					}
					if d == model.Outgoing && prim.Start != node {
						continue
					}
					if d == model.Incoming && (prim.End != node || (dir == model.Both && prim.Start == node)) {
						continue
					}
					if !yield(prim) {
						return
					}
				}
			}
		}
	}
}

func other(prim model.EdgePrimitive, node int32) int32 {
	if prim.Start == node {
		return prim.End
	}
	return prim.Start
}

func (g *Graph) resolveEdge(ctx context.Context) func(model.EdgePrimitive) (Edge, bool) {
	return func(prim model.EdgePrimitive) (Edge, bool) {
		e, err := g.edgeView(ctx, prim)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				g.logger.LogUnresolved(ctx, "edge", prim.ID.Index, err)
			}
			return Edge{}, false
		}
		return e, true
	}
}

func (g *Graph) tryNode(ctx context.Context, index int32) (Node, bool) {
	n, err := g.resolveNode(ctx, index)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			g.logger.LogUnresolved(ctx, "node", index, err)
		}
		return Node{}, false
	}
	return n, true
}

// Edges returns the edges adjacent to node in dir, restricted to types when
// given. The result is lazy and restartable; ids that no longer resolve
// (for example, removed concurrently) are silently dropped.
func (g *Graph) Edges(ctx context.Context, node model.NodeID, dir model.Direction, types ...*model.EdgeType) (traverse.Traversable[Edge], error) {
	if err := dir.Validate(); err != nil {
		return traverse.Empty[Edge](), err
	}
	index, err := g.nodeIndex(node)
	if err != nil {
		return traverse.Empty[Edge](), err
	}
	repos, err := g.repos(types)
	if err != nil {
		return traverse.Empty[Edge](), err
	}
	return traverse.TransformNonNil(traverse.New(adjacent(repos, index, dir)), g.resolveEdge(ctx)), nil
}

// Neighbors returns the node at the other end of every edge yielded by
// Edges with the same arguments. A node connected by several edges is
// yielded once per edge; use Distinct to deduplicate.
func (g *Graph) Neighbors(ctx context.Context, node model.NodeID, dir model.Direction, types ...*model.EdgeType) (traverse.Traversable[Node], error) {
	if err := dir.Validate(); err != nil {
		return traverse.Empty[Node](), err
	}
	index, err := g.nodeIndex(node)
	if err != nil {
		return traverse.Empty[Node](), err
	}
	repos, err := g.repos(types)
	if err != nil {
		return traverse.Empty[Node](), err
	}
	prims := traverse.New(adjacent(repos, index, dir))
	return traverse.TransformNonNil(prims, func(prim model.EdgePrimitive) (Node, bool) {
		return g.tryNode(ctx, other(prim, index))
	}), nil
}

// Nodes returns every live node in index order, restricted to types when
// given.
func (g *Graph) Nodes(ctx context.Context, types ...*model.NodeType) traverse.Traversable[Node] {
	var want map[*model.NodeType]struct{}
	if len(types) > 0 {
		want = make(map[*model.NodeType]struct{}, len(types))
		for _, t := range types {
			want[t] = struct{}{}
		}
	}
	return traverse.New(func(yield func(Node) bool) {
		g.nodes.Range(func(index int32, id model.NodeID) bool {
			if want != nil {
				if _, ok := want[id.Type]; !ok {
					return true
				}
			}
			n, ok := g.tryNode(ctx, index)
			if !ok {
				return true
			}
			return yield(n)
		})
	})
}

// EdgesOfType returns every live edge of t in index order.
func (g *Graph) EdgesOfType(ctx context.Context, t *model.EdgeType) (traverse.Traversable[Edge], error) {
	r, err := g.repo(t)
	if err != nil {
		return traverse.Empty[Edge](), err
	}
	prims := traverse.New(func(yield func(model.EdgePrimitive) bool) {
		r.Range(func(prim model.EdgePrimitive) bool {
			return yield(prim)
		})
	})
	return traverse.TransformNonNil(prims, g.resolveEdge(ctx)), nil
}

// Expand walks up to hops steps from seeds in dir and yields every node
// reached, in breadth-first order. Seeds are not yielded and every node is
// yielded at most once.
func (g *Graph) Expand(ctx context.Context, seeds []model.NodeID, dir model.Direction, hops int, types ...*model.EdgeType) (traverse.Traversable[Node], error) {
	if err := dir.Validate(); err != nil {
		return traverse.Empty[Node](), err
	}
	if hops < 0 {
		return traverse.Empty[Node](), fmt.Errorf("negative hop count %d", hops)
	}
	start := make([]int32, 0, len(seeds))
	for _, id := range seeds {
		index, err := g.nodeIndex(id)
		if err != nil {
			return traverse.Empty[Node](), err
		}
		start = append(start, index)
	}
	repos, err := g.repos(types)
	if err != nil {
		return traverse.Empty[Node](), err
	}

	return traverse.New(func(yield func(Node) bool) {
		visited := bitset.New(uint(g.nodes.Bound()))
		for _, index := range start {
			visited.Set(uint(index))
		}
		frontier := start
		for hop := 0; hop < hops && len(frontier) > 0; hop++ {
			var next []int32
			for _, node := range frontier {
				for prim := range adjacent(repos, node, dir) {
					o := other(prim, node)
					if visited.Test(uint(o)) {
						continue
					}
					visited.Set(uint(o))
					n, ok := g.tryNode(ctx, o)
					if !ok {
						continue
					}
					if !yield(n) {
						return
					}
					next = append(next, o)
				}
			}
			frontier = next
		}
	}), nil
}
