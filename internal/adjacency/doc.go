// Package adjacency maintains the per-node edge lists of one edge type.
//
// A [Vector] is an immutable, ordered list of edge indices attached to one
// node in one direction. Mutations return a new Vector (copy-on-write), so a
// reader holding a Vector never observes a partially sorted list.
//
// An [Index] shards the node -> Vector maps by node index mod stripe count,
// separately for outgoing and incoming edges. Writers take the stripe lock,
// derive the next Vector from the published one and publish it before
// releasing the lock. Readers take the stripe lock only for the map lookup.
package adjacency
