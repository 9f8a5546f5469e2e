// Package conv provides checked integer conversions for values read from
// dumps and for dense int32 indices.
//
// Provably safe conversions (loop counters, values already bounded by a
// segment capacity) use direct casts instead.
package conv
