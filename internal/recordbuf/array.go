package recordbuf

import (
	"sync"

	"golang.org/x/sys/cpu"
)

// Array stores records in N shards of growable parallel slices. Index i lives
// in shard i mod N at offset i / N.
type Array struct {
	shards   []arrayShard
	weighted bool
}

type arrayShard struct {
	mu      sync.Mutex
	ends    []uint64 // start<<32 | uint32(end)
	weights []float32
	live    int
	_       cpu.CacheLinePad
}

var packedSentinel = pack(Sentinel, Sentinel)

func pack(start, end int32) uint64 {
	return uint64(uint32(start))<<32 | uint64(uint32(end))
}

func unpack(v uint64) (int32, int32) {
	return int32(uint32(v >> 32)), int32(uint32(v))
}

// NewArray creates an array backend with the given number of shards.
func NewArray(weighted bool, shards int) *Array {
	if shards < 1 {
		shards = 1
	}
	return &Array{
		shards:   make([]arrayShard, shards),
		weighted: weighted,
	}
}

func (a *Array) locate(index int32) (*arrayShard, int) {
	n := int32(len(a.shards))
	return &a.shards[index%n], int(index / n)
}

// Upsert implements Buffer.
func (a *Array) Upsert(index int32, rec Record) {
	s, off := a.locate(index)
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.ends) <= off {
		s.ends = append(s.ends, packedSentinel)
		if a.weighted {
			s.weights = append(s.weights, 0)
		}
	}

	wasLive := s.ends[off] != packedSentinel
	s.ends[off] = pack(rec.Start, rec.End)
	if a.weighted {
		s.weights[off] = rec.Weight
	}

	switch isLive := !rec.Deleted(); {
	case isLive && !wasLive:
		s.live++
	case !isLive && wasLive:
		s.live--
	}
}

// Get implements Buffer.
func (a *Array) Get(index int32) (Record, bool) {
	s, off := a.locate(index)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(off, a.weighted)
}

func (s *arrayShard) get(off int, weighted bool) (Record, bool) {
	if off >= len(s.ends) || s.ends[off] == packedSentinel {
		return deleted, false
	}
	start, end := unpack(s.ends[off])
	rec := Record{Start: start, End: end}
	if weighted {
		rec.Weight = s.weights[off]
	}
	return rec, true
}

// Remove implements Buffer.
func (a *Array) Remove(index int32) (Record, bool) {
	return a.remove(index, func(Record) bool { return true })
}

// RemoveIf implements Buffer.
func (a *Array) RemoveIf(index, start, end int32) (Record, bool) {
	return a.remove(index, func(rec Record) bool {
		return rec.Start == start && rec.End == end
	})
}

func (a *Array) remove(index int32, match func(Record) bool) (Record, bool) {
	s, off := a.locate(index)
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.get(off, a.weighted)
	if !ok || !match(rec) {
		return deleted, false
	}
	s.ends[off] = packedSentinel
	if a.weighted {
		s.weights[off] = 0
	}
	s.live--
	return rec, true
}

// SetWeight implements Buffer.
func (a *Array) SetWeight(index int32, weight float32) bool {
	if !a.weighted {
		return false
	}
	s, off := a.locate(index)
	s.mu.Lock()
	defer s.mu.Unlock()

	if off >= len(s.ends) || s.ends[off] == packedSentinel {
		return false
	}
	s.weights[off] = weight
	return true
}

// Len implements Buffer.
func (a *Array) Len() int {
	n := 0
	for i := range a.shards {
		s := &a.shards[i]
		s.mu.Lock()
		n += s.live
		s.mu.Unlock()
	}
	return n
}

// Weighted implements Buffer.
func (a *Array) Weighted() bool { return a.weighted }

// AppendRange implements Buffer.
func (a *Array) AppendRange(dst []byte, from, to int32) []byte {
	width := Width(a.weighted)
	buf := make([]byte, width)
	for i := from; i < to; i++ {
		rec, ok := a.Get(i)
		if !ok {
			rec = deleted
		}
		PutRecord(buf, rec, a.weighted)
		dst = append(dst, buf...)
	}
	return dst
}
