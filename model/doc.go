// Package model defines the identity and schema types shared by every layer of
// the graph engine.
//
// # Types
//
//   - NodeType / EdgeType: interned schema entries, compared by pointer identity
//   - SortOrder: adjacency ordering of an edge type (insertion or by weight)
//   - Direction: OUTGOING, INCOMING or BOTH
//
// # Identity
//
//   - NodeID: (NodeType, string key), the user-facing node handle
//   - EdgeID: (EdgeType, dense int32 index), recyclable after removal
//   - EdgePrimitive: the stored (start, end, weight) triple of one edge
//
// Interning happens through a Registry. Two NodeType values with the same
// name obtained from the same Registry are the same pointer.
package model
