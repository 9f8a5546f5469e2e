package pgraph

import (
	"context"
	"math"
	"testing"

	"github.com/hupe1980/pgraph/model"
	"github.com/hupe1980/pgraph/properties"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_ExplicitIndices(t *testing.T) {
	ctx := context.Background()
	b := NewBuilder("built", WithStripes(4))
	person, err := b.NodeType("person")
	require.NoError(t, err)
	knows, err := b.EdgeType("knows", true, model.SortDescendingWeight)
	require.NoError(t, err)

	alice := model.NewNodeID(person, "alice")
	bob := model.NewNodeID(person, "bob")
	require.NoError(t, b.AddNodeAt(ctx, 0, alice, properties.Properties{"age": 31}))
	require.NoError(t, b.AddNodeAt(ctx, 3, bob, nil))

	// Indices 1 and 2 were skipped; AddNode reuses the last one skipped.
	carol := model.NewNodeID(person, "carol")
	index, err := b.AddNode(ctx, carol, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), index)

	require.NoError(t, b.AddEdgeAt(ctx, model.NewEdgeID(knows, 7), 0, 3, 0.5, properties.Properties{"since": 2019}))
	id, err := b.AddEdge(ctx, knows, alice, carol, 0.9, nil)
	require.NoError(t, err)
	// Indices below 7 became free; the highest is handed out first.
	assert.Equal(t, int32(6), id.Index)

	g, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })

	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, int32(3), g.NodeIndex(bob))

	e, err := g.Edge(ctx, model.NewEdgeID(knows, 7))
	require.NoError(t, err)
	assert.Equal(t, "alice", e.Start.Key())
	assert.Equal(t, "bob", e.End.Key())
	assert.EqualValues(t, 2019, e.Properties["since"])

	edges, err := g.Edges(ctx, alice, model.Outgoing, knows)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "bob"}, endKeys(edges.AsList()))

	// Index 1 stays unused; new nodes continue after the bound.
	n, err := g.AddNode(ctx, model.NewNodeID(person, "dave"), nil)
	require.NoError(t, err)
	assert.Equal(t, int32(4), n.Index)
	_, err = g.NodeByIndex(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBuilder_Errors(t *testing.T) {
	ctx := context.Background()
	b := NewBuilder("built")
	person, err := b.NodeType("person")
	require.NoError(t, err)
	knows, err := b.EdgeType("knows", false, model.SortInsertion)
	require.NoError(t, err)
	alice := model.NewNodeID(person, "alice")
	require.NoError(t, b.AddNodeAt(ctx, 0, alice, nil))
	require.NoError(t, b.AddEdgeAt(ctx, model.NewEdgeID(knows, 0), 0, 0, 0, nil))
	foreign, err := model.NewRegistry().EdgeType("other", false, model.SortInsertion)
	require.NoError(t, err)

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"node index taken", b.AddNodeAt(ctx, 0, model.NewNodeID(person, "bob"), nil), ErrDuplicateKey},
		{"node id taken", b.AddNodeAt(ctx, 5, alice, nil), ErrDuplicateKey},
		{"negative node index", b.AddNodeAt(ctx, -1, model.NewNodeID(person, "x"), nil), ErrIndexOutOfRange},
		{"edge index taken", b.AddEdgeAt(ctx, model.NewEdgeID(knows, 0), 0, 0, 0, nil), ErrDuplicateKey},
		{"missing endpoint index", b.AddEdgeAt(ctx, model.NewEdgeID(knows, 1), 0, 9, 0, nil), ErrNotFound},
		{"unknown edge type", b.AddEdgeAt(ctx, model.NewEdgeID(foreign, 0), 0, 0, 0, nil), ErrUnknownType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.want)
		})
	}

	t.Run("missing endpoint id", func(t *testing.T) {
		_, err := b.AddEdge(ctx, knows, alice, model.NewNodeID(person, "nobody"), 0, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("after build", func(t *testing.T) {
		g, err := b.Build()
		require.NoError(t, err)
		t.Cleanup(func() { _ = g.Close() })

		_, err = b.Build()
		assert.ErrorIs(t, err, ErrBuilt)
		assert.ErrorIs(t, b.AddNodeAt(ctx, 1, model.NewNodeID(person, "late"), nil), ErrBuilt)
		_, err = b.AddNode(ctx, model.NewNodeID(person, "late"), nil)
		assert.ErrorIs(t, err, ErrBuilt)
		_, err = b.AddEdge(ctx, knows, alice, alice, 0, nil)
		assert.ErrorIs(t, err, ErrBuilt)
		assert.ErrorIs(t, b.AddEdgeAt(ctx, model.NewEdgeID(knows, 2), 0, 0, 0, nil), ErrBuilt)
	})
}

func TestBuilder_FarIndices(t *testing.T) {
	ctx := context.Background()
	for _, backend := range allBackends {
		t.Run(backend.String(), func(t *testing.T) {
			b := NewBuilder("sparse", WithStripes(4), WithBackend(backend))
			person, err := b.NodeType("person")
			require.NoError(t, err)
			knows, err := b.EdgeType("knows", false, model.SortInsertion)
			require.NoError(t, err)

			require.NoError(t, b.AddNodeAt(ctx, 0, model.NewNodeID(person, "a"), nil))
			require.NoError(t, b.AddNodeAt(ctx, 50_000_000, model.NewNodeID(person, "b"), nil))
			require.NoError(t, b.AddEdgeAt(ctx, model.NewEdgeID(knows, 40_000_000), 0, 50_000_000, 0, nil))

			err = b.AddEdgeAt(ctx, model.NewEdgeID(knows, math.MaxInt32), 0, 0, 0, nil)
			require.ErrorIs(t, err, ErrIndexOutOfRange)
			err = b.AddNodeAt(ctx, math.MaxInt32, model.NewNodeID(person, "c"), nil)
			require.ErrorIs(t, err, ErrIndexOutOfRange)

			id, err := b.AddEdge(ctx, knows, model.NewNodeID(person, "b"), model.NewNodeID(person, "a"), 0, nil)
			require.NoError(t, err)
			assert.Equal(t, int32(39_999_999), id.Index)

			g, err := b.Build()
			require.NoError(t, err)
			t.Cleanup(func() { _ = g.Close() })

			stats := g.Stats()
			assert.Equal(t, int32(50_000_001), stats.NodeBound)
			require.Len(t, stats.EdgeTypes, 1)
			assert.Equal(t, 2, stats.EdgeTypes[0].Edges)
			assert.Equal(t, 39_999_999, stats.EdgeTypes[0].FreeIDs)
		})
	}
}
