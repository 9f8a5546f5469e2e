// Package recordbuf stores the primitives (start, end, weight) of one edge
// type, addressed by dense int32 edge index.
//
// Two interchangeable backends implement [Buffer]:
//
//   - [Array]: N shards of growable parallel slices, keyed by index mod N
//   - [Binary]: lazily allocated fixed-width byte segments, keyed by
//     index / capacity; its layout is the dump wire layout
//
// Wire layout of one record (little endian):
//
//	[start int32][end int32]               unweighted, 8 bytes
//	[start int32][end int32][weight f32]   weighted, 12 bytes
//
// Deleted or never-written slots hold start = end = -1. Slots are never
// compacted, so an index stays stable for the life of the edge.
package recordbuf
