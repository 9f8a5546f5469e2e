package pgraph

import (
	"github.com/hupe1980/pgraph/model"
	"github.com/hupe1980/pgraph/properties"
)

// Node is a read view of a live node joined with its properties.
type Node struct {
	Index      int32
	ID         model.NodeID
	Properties properties.Properties
}

// Type returns the node type.
func (n Node) Type() *model.NodeType { return n.ID.Type }

// Key returns the node key.
func (n Node) Key() string { return n.ID.Key }

// Edge is a read view of a live edge joined with its endpoints and
// properties. Weight is model.DefaultWeight for unweighted types.
type Edge struct {
	ID         model.EdgeID
	Start      Node
	End        Node
	Weight     float32
	Properties properties.Properties
}

// Index returns the per-type edge index.
func (e Edge) Index() int32 { return e.ID.Index }

// Type returns the edge type.
func (e Edge) Type() *model.EdgeType { return e.ID.Type }

// Other returns the endpoint opposite to the node at index. For a self-loop
// it returns the same node.
func (e Edge) Other(index int32) Node {
	if e.Start.Index == index {
		return e.End
	}
	return e.Start
}
