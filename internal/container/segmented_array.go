// Package container implements concurrent container data structures.
package container

import (
	"sync"
	"sync/atomic"
)

const (
	// segmentBits determines the size of each segment.
	// 14 bits = 16384 slots per segment.
	segmentBits = 14
	segmentSize = 1 << segmentBits
	segmentMask = segmentSize - 1
)

// SegmentedArray is a growable array of pointers addressed by a dense
// non-negative index. Reads are lock-free; each slot is an atomic pointer so
// concurrent Load and Store on the same index are race-free. Growth is
// serialized by a mutex and publishes a new segment table atomically.
type SegmentedArray[T any] struct {
	segments atomic.Pointer[[]*segment[T]]
	mu       sync.Mutex // Protects growth
}

type segment[T any] struct {
	slots [segmentSize]atomic.Pointer[T]
}

// NewSegmentedArray creates an empty SegmentedArray.
func NewSegmentedArray[T any]() *SegmentedArray[T] {
	sa := &SegmentedArray[T]{}
	segments := make([]*segment[T], 0)
	sa.segments.Store(&segments)
	return sa
}

// Load returns the pointer stored at index, or nil.
func (sa *SegmentedArray[T]) Load(index uint32) *T {
	segments := *sa.segments.Load()
	segIdx := int(index >> segmentBits)
	if segIdx >= len(segments) || segments[segIdx] == nil {
		return nil
	}
	return segments[segIdx].slots[index&segmentMask].Load()
}

// Store stores v at index, growing the array when needed.
func (sa *SegmentedArray[T]) Store(index uint32, v *T) {
	sa.segmentFor(index).slots[index&segmentMask].Store(v)
}

// CompareAndSwap swaps the pointer at index when it equals old.
func (sa *SegmentedArray[T]) CompareAndSwap(index uint32, old, v *T) bool {
	return sa.segmentFor(index).slots[index&segmentMask].CompareAndSwap(old, v)
}

func (sa *SegmentedArray[T]) segmentFor(index uint32) *segment[T] {
	segIdx := int(index >> segmentBits)

	// Fast path: segment exists
	segments := *sa.segments.Load()
	if segIdx < len(segments) && segments[segIdx] != nil {
		return segments[segIdx]
	}

	// Slow path: grow
	sa.mu.Lock()
	defer sa.mu.Unlock()

	current := *sa.segments.Load()
	if segIdx < len(current) && current[segIdx] != nil {
		return current[segIdx]
	}

	// Only the addressed segment is allocated; Load treats nil segments as
	// empty.
	grown := make([]*segment[T], max(len(current), segIdx+1))
	copy(grown, current)
	grown[segIdx] = &segment[T]{}
	sa.segments.Store(&grown)
	return grown[segIdx]
}
