package pgraph

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/pgraph/model"
	"github.com/hupe1980/pgraph/properties"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore counts property lookups, which happen once per resolved
// node or edge.
type countingStore struct {
	*properties.MemoryStore
	gets atomic.Int64
}

func (s *countingStore) Get(ctx context.Context, key properties.Key) (properties.Properties, error) {
	s.gets.Add(1)
	return s.MemoryStore.Get(ctx, key)
}

func keys(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Key()
	}
	return out
}

func TestTraversal_Directions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addNodes(t, "a", "b", "c")

	_, err := f.g.AddEdge(ctx, f.bought, f.id("a"), f.id("a"), nil)
	require.NoError(t, err)
	_, err = f.g.AddEdge(ctx, f.bought, f.id("a"), f.id("b"), nil)
	require.NoError(t, err)
	_, err = f.g.AddEdge(ctx, f.bought, f.id("c"), f.id("a"), nil)
	require.NoError(t, err)
	_, err = f.g.AddWeightedEdge(ctx, f.similar, f.id("b"), f.id("a"), 2, nil)
	require.NoError(t, err)

	tests := []struct {
		dir   model.Direction
		types []*model.EdgeType
		want  []string
	}{
		{model.Outgoing, []*model.EdgeType{f.bought}, []string{"a", "b"}},
		{model.Incoming, []*model.EdgeType{f.bought}, []string{"a", "c"}},
		{model.Both, []*model.EdgeType{f.bought}, []string{"a", "b", "c"}},
		{model.Both, nil, []string{"b", "a", "b", "c"}},
		{model.Incoming, []*model.EdgeType{f.similar, f.bought}, []string{"b", "a", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			n, err := f.g.Neighbors(ctx, f.id("a"), tt.dir, tt.types...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, keys(n.AsList()))

			edges, err := f.g.Edges(ctx, f.id("a"), tt.dir, tt.types...)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), edges.Count())
		})
	}

	t.Run("unknown node", func(t *testing.T) {
		_, err := f.g.Neighbors(ctx, f.id("zzz"), model.Both)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTraversal_Restartable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addNodes(t, "a", "b", "c")
	_, err := f.g.AddEdge(ctx, f.bought, f.id("a"), f.id("b"), nil)
	require.NoError(t, err)

	edges, err := f.g.Edges(ctx, f.id("a"), model.Outgoing)
	require.NoError(t, err)
	assert.Equal(t, 1, edges.Count())

	// Every terminal operation reads the currently published lists.
	_, err = f.g.AddEdge(ctx, f.bought, f.id("a"), f.id("c"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, endKeys(edges.AsList()))
}

func TestTraversal_Laziness(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{MemoryStore: properties.NewMemoryStore()}
	f := newFixture(t, WithPropertyStore(store))
	f.addNodes(t, "hub")
	for i := range 1000 {
		key := strconv.Itoa(i)
		f.addNodes(t, key)
		_, err := f.g.AddEdge(ctx, f.bought, f.id("hub"), f.id(key), nil)
		require.NoError(t, err)
	}

	edges, err := f.g.Edges(ctx, f.id("hub"), model.Outgoing)
	require.NoError(t, err)
	pipeline := edges.
		Filter(func(e Edge) bool { return e.End.Key() != "0" }).
		Head(1)
	assert.Equal(t, int64(0), store.gets.Load())

	got := pipeline.AsList()
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].End.Key())
	// Two edges resolved, each with start, end and edge properties.
	assert.Equal(t, int64(6), store.gets.Load())
}

func TestTraversal_NodesAndEdgesOfType(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := nodeType(t, f.g, "user")
	f.addNodes(t, "a", "b")
	_, err := f.g.AddNode(ctx, model.NewNodeID(user, "u1"), nil)
	require.NoError(t, err)
	f.addNodes(t, "c")
	_, err = f.g.RemoveNode(ctx, f.id("b"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "u1", "c"}, keys(f.g.Nodes(ctx).AsList()))
	assert.Equal(t, []string{"a", "c"}, keys(f.g.Nodes(ctx, f.product).AsList()))
	assert.Equal(t, []string{"u1"}, keys(f.g.Nodes(ctx, user).AsList()))

	_, err = f.g.AddWeightedEdge(ctx, f.similar, f.id("a"), f.id("c"), 1, nil)
	require.NoError(t, err)
	_, err = f.g.AddWeightedEdge(ctx, f.similar, f.id("c"), f.id("a"), 2, nil)
	require.NoError(t, err)

	edges, err := f.g.EdgesOfType(ctx, f.similar)
	require.NoError(t, err)
	list := edges.AsList()
	require.Len(t, list, 2)
	assert.Equal(t, int32(0), list[0].Index())
	assert.Equal(t, f.similar, list[1].Type())

	_, err = f.g.EdgesOfType(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidEdgeType)
}

func TestTraversal_Expand(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addNodes(t, "a", "b", "c", "d", "e")
	chain := [][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "e"}, {"c", "a"}}
	for _, pair := range chain {
		_, err := f.g.AddEdge(ctx, f.bought, f.id(pair[0]), f.id(pair[1]), nil)
		require.NoError(t, err)
	}

	tests := []struct {
		name  string
		seeds []string
		dir   model.Direction
		hops  int
		want  []string
	}{
		{"zero hops", []string{"a"}, model.Outgoing, 0, []string{}},
		{"one hop", []string{"a"}, model.Outgoing, 1, []string{"b"}},
		{"two hops", []string{"a"}, model.Outgoing, 2, []string{"b", "c"}},
		{"cycle does not revisit seed", []string{"a"}, model.Outgoing, 10, []string{"b", "c", "d", "e"}},
		{"incoming", []string{"c"}, model.Incoming, 2, []string{"b", "a"}},
		{"both", []string{"c"}, model.Both, 1, []string{"d", "a", "b"}},
		{"multiple seeds", []string{"a", "d"}, model.Outgoing, 1, []string{"b", "e"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seeds := make([]model.NodeID, len(tt.seeds))
			for i, s := range tt.seeds {
				seeds[i] = f.id(s)
			}
			reached, err := f.g.Expand(ctx, seeds, tt.dir, tt.hops)
			require.NoError(t, err)
			assert.Equal(t, tt.want, keys(reached.AsList()))
		})
	}

	t.Run("errors", func(t *testing.T) {
		_, err := f.g.Expand(ctx, []model.NodeID{f.id("a")}, model.Outgoing, -1)
		assert.Error(t, err)
		_, err = f.g.Expand(ctx, []model.NodeID{f.id("zzz")}, model.Outgoing, 1)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = f.g.Expand(ctx, []model.NodeID{f.id("a")}, model.Direction(7), 1)
		assert.ErrorIs(t, err, ErrInvalidDirection)
	})
}
