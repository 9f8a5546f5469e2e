package model

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Interning(t *testing.T) {
	r := NewRegistry()

	a, err := r.NodeType("person")
	require.NoError(t, err)
	b, err := r.NodeType("person")
	require.NoError(t, err)
	c, err := r.NodeType("product")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, uint16(0), a.Ordinal())
	assert.Equal(t, uint16(1), c.Ordinal())

	et1, err := r.EdgeType("SIMILAR", true, SortDescendingWeight)
	require.NoError(t, err)
	et2, err := r.EdgeType("SIMILAR", true, SortDescendingWeight)
	require.NoError(t, err)
	assert.Same(t, et1, et2)

	got, ok := r.NodeTypeByOrdinal(1)
	require.True(t, ok)
	assert.Same(t, c, got)

	assert.Len(t, r.NodeTypes(), 2)
	assert.Len(t, r.EdgeTypes(), 1)
}

func TestRegistry_EdgeTypeConflict(t *testing.T) {
	r := NewRegistry()

	_, err := r.EdgeType("BOUGHT", false, SortInsertion)
	require.NoError(t, err)

	_, err = r.EdgeType("BOUGHT", true, SortInsertion)
	assert.ErrorIs(t, err, ErrTypeConflict)

	_, err = r.EdgeType("VIEWED", false, SortAscendingWeight)
	assert.ErrorIs(t, err, ErrTypeConflict)
}

func TestRegistry_Full(t *testing.T) {
	r := NewRegistry()
	for i := range math.MaxUint16 {
		_, err := r.NodeType(strconv.Itoa(i))
		require.NoError(t, err)
		_, err = r.EdgeType(strconv.Itoa(i), false, SortInsertion)
		require.NoError(t, err)
	}

	last, ok := r.NodeTypeByOrdinal(math.MaxUint16 - 1)
	require.True(t, ok)
	assert.Equal(t, strconv.Itoa(math.MaxUint16-1), last.Name())

	_, err := r.NodeType("overflow")
	assert.ErrorIs(t, err, ErrRegistryFull)
	_, err = r.EdgeType("overflow", false, SortInsertion)
	assert.ErrorIs(t, err, ErrRegistryFull)

	// Registered names still resolve.
	again, err := r.NodeType("0")
	require.NoError(t, err)
	assert.Equal(t, uint16(0), again.Ordinal())
	assert.Len(t, r.NodeTypes(), math.MaxUint16)
}

func TestErrors_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"mismatch", &ErrEdgeTypeMismatch{Expected: "a", Actual: "b"}, ErrInvalidEdgeType},
		{"unweighted invalid", &ErrUnweightedEdgeType{Type: "a"}, ErrInvalidEdgeType},
		{"unweighted unsupported", &ErrUnweightedEdgeType{Type: "a"}, ErrUnsupported},
		{"duplicate", &ErrDuplicateIndex{Kind: "edge", Index: 3}, ErrDuplicateKey},
		{"negative", CheckIndex(-1), ErrIndexOutOfRange},
		{"direction", Direction(7).Validate(), ErrInvalidDirection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.target))
		})
	}

	assert.NoError(t, CheckIndex(0))
	assert.NoError(t, Both.Validate())
}

func TestParseSortOrder(t *testing.T) {
	for _, o := range []SortOrder{SortInsertion, SortAscendingWeight, SortDescendingWeight} {
		got, err := ParseSortOrder(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, got)
	}
	_, err := ParseSortOrder("RANDOM")
	assert.Error(t, err)
}
