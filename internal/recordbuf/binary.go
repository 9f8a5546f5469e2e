package recordbuf

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// DefaultSegmentCapacity is the number of records per binary segment.
const DefaultSegmentCapacity = 1 << 14

// Binary stores records as fixed-width little-endian bytes in segments of
// capacity records each. Segments are allocated on first write and filled
// with sentinel records, so unwritten slots read as deleted.
type Binary struct {
	weighted bool
	width    int
	capacity int

	segments atomic.Pointer[[]*binarySegment]
	growMu   sync.Mutex
}

type binarySegment struct {
	mu   sync.Mutex
	data []byte
	live int
	_    cpu.CacheLinePad
}

// NewBinary creates a binary backend with segments of capacity records.
func NewBinary(weighted bool, capacity int) *Binary {
	if capacity < 1 {
		capacity = DefaultSegmentCapacity
	}
	b := &Binary{
		weighted: weighted,
		width:    Width(weighted),
		capacity: capacity,
	}
	segments := make([]*binarySegment, 0)
	b.segments.Store(&segments)
	return b
}

// Capacity returns the number of records per segment.
func (b *Binary) Capacity() int { return b.capacity }

// Segments returns the number of allocated segments.
func (b *Binary) Segments() int {
	n := 0
	for _, seg := range *b.segments.Load() {
		if seg != nil {
			n++
		}
	}
	return n
}

func (b *Binary) lookup(index int32) (*binarySegment, int) {
	segments := *b.segments.Load()
	segIdx := int(index) / b.capacity
	if segIdx >= len(segments) || segments[segIdx] == nil {
		return nil, 0
	}
	return segments[segIdx], (int(index) % b.capacity) * b.width
}

func (b *Binary) grow(index int32) (*binarySegment, int) {
	if seg, off := b.lookup(index); seg != nil {
		return seg, off
	}

	b.growMu.Lock()
	defer b.growMu.Unlock()

	current := *b.segments.Load()
	segIdx := int(index) / b.capacity
	if segIdx < len(current) && current[segIdx] != nil {
		return current[segIdx], (int(index) % b.capacity) * b.width
	}
	// Only the addressed segment is allocated; skipped ones stay nil and
	// read as deleted.
	grown := make([]*binarySegment, max(len(current), segIdx+1))
	copy(grown, current)
	grown[segIdx] = b.newSegment()
	b.segments.Store(&grown)
	return grown[segIdx], (int(index) % b.capacity) * b.width
}

func (b *Binary) newSegment() *binarySegment {
	data := make([]byte, b.capacity*b.width)
	for off := 0; off < len(data); off += b.width {
		PutRecord(data[off:], deleted, b.weighted)
	}
	return &binarySegment{data: data}
}

// Upsert implements Buffer.
func (b *Binary) Upsert(index int32, rec Record) {
	seg, off := b.grow(index)
	seg.mu.Lock()
	defer seg.mu.Unlock()

	wasLive := !ReadRecord(seg.data[off:], false).Deleted()
	PutRecord(seg.data[off:], rec, b.weighted)

	switch isLive := !rec.Deleted(); {
	case isLive && !wasLive:
		seg.live++
	case !isLive && wasLive:
		seg.live--
	}
}

// Get implements Buffer.
func (b *Binary) Get(index int32) (Record, bool) {
	seg, off := b.lookup(index)
	if seg == nil {
		return deleted, false
	}
	seg.mu.Lock()
	rec := ReadRecord(seg.data[off:], b.weighted)
	seg.mu.Unlock()

	if rec.Deleted() {
		return deleted, false
	}
	return rec, true
}

// Remove implements Buffer.
func (b *Binary) Remove(index int32) (Record, bool) {
	return b.remove(index, func(Record) bool { return true })
}

// RemoveIf implements Buffer.
func (b *Binary) RemoveIf(index, start, end int32) (Record, bool) {
	return b.remove(index, func(rec Record) bool {
		return rec.Start == start && rec.End == end
	})
}

func (b *Binary) remove(index int32, match func(Record) bool) (Record, bool) {
	seg, off := b.lookup(index)
	if seg == nil {
		return deleted, false
	}
	seg.mu.Lock()
	defer seg.mu.Unlock()

	rec := ReadRecord(seg.data[off:], b.weighted)
	if rec.Deleted() || !match(rec) {
		return deleted, false
	}
	PutRecord(seg.data[off:], deleted, b.weighted)
	seg.live--
	return rec, true
}

// SetWeight implements Buffer.
func (b *Binary) SetWeight(index int32, weight float32) bool {
	if !b.weighted {
		return false
	}
	seg, off := b.lookup(index)
	if seg == nil {
		return false
	}
	seg.mu.Lock()
	defer seg.mu.Unlock()

	rec := ReadRecord(seg.data[off:], true)
	if rec.Deleted() {
		return false
	}
	rec.Weight = weight
	PutRecord(seg.data[off:], rec, true)
	return true
}

// Len implements Buffer.
func (b *Binary) Len() int {
	n := 0
	for _, seg := range *b.segments.Load() {
		if seg == nil {
			continue
		}
		seg.mu.Lock()
		n += seg.live
		seg.mu.Unlock()
	}
	return n
}

// Weighted implements Buffer.
func (b *Binary) Weighted() bool { return b.weighted }

// AppendRange implements Buffer. Allocated segments are copied in bulk;
// unallocated ranges are emitted as sentinel records.
func (b *Binary) AppendRange(dst []byte, from, to int32) []byte {
	for i := from; i < to; {
		segIdx := int(i) / b.capacity
		segEnd := int32((segIdx + 1) * b.capacity)
		if segEnd > to {
			segEnd = to
		}

		seg, off := b.lookup(i)
		n := int(segEnd - i)
		if seg == nil {
			empty := make([]byte, b.width)
			PutRecord(empty, deleted, b.weighted)
			for j := 0; j < n; j++ {
				dst = append(dst, empty...)
			}
		} else {
			seg.mu.Lock()
			dst = append(dst, seg.data[off:off+n*b.width]...)
			seg.mu.Unlock()
		}
		i = segEnd
	}
	return dst
}
