package model

import (
	"fmt"
	"math"
	"strconv"
)

// SortOrder controls how the adjacency lists of an edge type are ordered.
type SortOrder uint8

const (
	// SortInsertion keeps edges in the order they were added.
	SortInsertion SortOrder = iota
	// SortAscendingWeight keeps edges ordered by weight, smallest first.
	SortAscendingWeight
	// SortDescendingWeight keeps edges ordered by weight, largest first.
	SortDescendingWeight
)

// String returns the stable name of the sort order.
func (s SortOrder) String() string {
	switch s {
	case SortInsertion:
		return "INSERTION"
	case SortAscendingWeight:
		return "ASCENDING_WEIGHT"
	case SortDescendingWeight:
		return "DESCENDING_WEIGHT"
	default:
		return "SortOrder(" + strconv.Itoa(int(s)) + ")"
	}
}

// ParseSortOrder parses the stable name produced by SortOrder.String.
func ParseSortOrder(s string) (SortOrder, error) {
	switch s {
	case "INSERTION", "":
		return SortInsertion, nil
	case "ASCENDING_WEIGHT":
		return SortAscendingWeight, nil
	case "DESCENDING_WEIGHT":
		return SortDescendingWeight, nil
	default:
		return 0, fmt.Errorf("unknown sort order %q", s)
	}
}

// Direction selects which adjacency list of a node is traversed.
type Direction uint8

const (
	Outgoing Direction = iota
	Incoming
	Both
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "OUTGOING"
	case Incoming:
		return "INCOMING"
	case Both:
		return "BOTH"
	default:
		return "Direction(" + strconv.Itoa(int(d)) + ")"
	}
}

// Validate returns ErrInvalidDirection for values outside the enum.
func (d Direction) Validate() error {
	if d > Both {
		return fmt.Errorf("%w: %d", ErrInvalidDirection, d)
	}
	return nil
}

// NodeType is an interned node type. Obtain instances from a Registry.
type NodeType struct {
	name    string
	ordinal uint16
}

// Name returns the type name.
func (t *NodeType) Name() string { return t.name }

// Ordinal returns the registration order of the type within its registry.
func (t *NodeType) Ordinal() uint16 { return t.ordinal }

func (t *NodeType) String() string { return t.name }

// EdgeType is an interned edge type. Obtain instances from a Registry.
type EdgeType struct {
	name     string
	ordinal  uint16
	weighted bool
	order    SortOrder
}

// Name returns the type name.
func (t *EdgeType) Name() string { return t.name }

// Ordinal returns the registration order of the type within its registry.
func (t *EdgeType) Ordinal() uint16 { return t.ordinal }

// Weighted reports whether edges of this type carry a weight.
func (t *EdgeType) Weighted() bool { return t.weighted }

// SortOrder returns the adjacency ordering of this type.
func (t *EdgeType) SortOrder() SortOrder { return t.order }

func (t *EdgeType) String() string { return t.name }

// NodeID identifies a node by type and key. It is comparable and can be used
// as a map key.
type NodeID struct {
	Type *NodeType
	Key  string
}

// NewNodeID creates a NodeID.
func NewNodeID(t *NodeType, key string) NodeID {
	return NodeID{Type: t, Key: key}
}

// IsZero reports whether the id is unset.
func (id NodeID) IsZero() bool { return id.Type == nil && id.Key == "" }

func (id NodeID) String() string {
	if id.Type == nil {
		return "<nil>:" + id.Key
	}
	return id.Type.name + ":" + id.Key
}

// EdgeID identifies an edge by type and dense per-type index.
//
// Indices are recycled after removal, so an EdgeID must not be retained
// across the removal of the edge it names.
type EdgeID struct {
	Type  *EdgeType
	Index int32
}

// NewEdgeID creates an EdgeID.
func NewEdgeID(t *EdgeType, index int32) EdgeID {
	return EdgeID{Type: t, Index: index}
}

func (id EdgeID) String() string {
	if id.Type == nil {
		return "<nil>#" + strconv.Itoa(int(id.Index))
	}
	return id.Type.name + "#" + strconv.Itoa(int(id.Index))
}

// EdgePrimitive is the stored form of an edge: its id and the dense indices
// of its endpoints plus the weight.
type EdgePrimitive struct {
	ID     EdgeID
	Start  int32
	End    int32
	Weight float32
}

// MaxIndex is the largest node or edge index. Keeping MaxInt32 unused lets
// index+1 bounds stay representable as int32.
const MaxIndex int32 = math.MaxInt32 - 1

// DefaultWeight is reported for unweighted edges and used by unweighted adds
// on weighted types.
const DefaultWeight float32 = 1
