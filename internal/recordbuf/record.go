package recordbuf

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Sentinel marks the start and end of a deleted or empty slot.
const Sentinel int32 = -1

// Record is the stored form of one edge.
type Record struct {
	Start  int32
	End    int32
	Weight float32
}

// Deleted reports whether r is the sentinel record.
func (r Record) Deleted() bool { return r.Start == Sentinel && r.End == Sentinel }

var deleted = Record{Start: Sentinel, End: Sentinel}

// Width returns the encoded size of a record in bytes.
func Width(weighted bool) int {
	if weighted {
		return 12
	}
	return 8
}

// Backend selects a Buffer implementation.
type Backend uint8

const (
	// BackendArray shards growable slices by index mod N.
	BackendArray Backend = iota
	// BackendBinary stores fixed-width records in lazily allocated segments.
	BackendBinary
)

func (b Backend) String() string {
	switch b {
	case BackendArray:
		return "array"
	case BackendBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// ParseBackend parses "array" or "binary".
func ParseBackend(s string) (Backend, error) {
	switch s {
	case "", "array":
		return BackendArray, nil
	case "binary":
		return BackendBinary, nil
	default:
		return BackendArray, fmt.Errorf("unknown record buffer backend %q", s)
	}
}

// Buffer is the storage contract shared by both backends. All methods are
// safe for concurrent use; operations on different shards never block each
// other. Callers validate that indices are non-negative.
type Buffer interface {
	// Upsert writes rec at index, growing storage as needed.
	Upsert(index int32, rec Record)
	// Get returns the live record at index.
	Get(index int32) (Record, bool)
	// Remove overwrites the slot with the sentinel and returns the previous
	// live record.
	Remove(index int32) (Record, bool)
	// RemoveIf behaves like Remove but only clears a live record that runs
	// from start to end. The check and the write happen under one lock.
	RemoveIf(index, start, end int32) (Record, bool)
	// SetWeight rewrites the weight of a live record. It never resurrects a
	// deleted slot.
	SetWeight(index int32, weight float32) bool
	// Len returns the number of live records.
	Len() int
	// Weighted reports whether records carry a weight.
	Weighted() bool
	// AppendRange appends the wire encoding of slots [from, to) to dst.
	AppendRange(dst []byte, from, to int32) []byte
}

// New creates a buffer for the given backend. shards applies to the array
// backend, segmentCapacity to the binary backend.
func New(backend Backend, weighted bool, shards, segmentCapacity int) Buffer {
	if backend == BackendBinary {
		return NewBinary(weighted, segmentCapacity)
	}
	return NewArray(weighted, shards)
}

// PutRecord encodes rec into dst, which must hold Width(weighted) bytes.
func PutRecord(dst []byte, rec Record, weighted bool) {
	binary.LittleEndian.PutUint32(dst[0:], uint32(rec.Start))
	binary.LittleEndian.PutUint32(dst[4:], uint32(rec.End))
	if weighted {
		binary.LittleEndian.PutUint32(dst[8:], math.Float32bits(rec.Weight))
	}
}

// ReadRecord decodes the record at the start of src.
func ReadRecord(src []byte, weighted bool) Record {
	rec := Record{
		Start: int32(binary.LittleEndian.Uint32(src[0:])),
		End:   int32(binary.LittleEndian.Uint32(src[4:])),
	}
	if weighted {
		rec.Weight = math.Float32frombits(binary.LittleEndian.Uint32(src[8:]))
	}
	return rec
}
