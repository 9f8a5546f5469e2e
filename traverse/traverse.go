// Package traverse provides Traversable, a lazy and restartable pipeline
// over a sequence producer.
//
// Combinators (Head, Skip, Filter, Transform, Unique, Distinct, Concat)
// return new pipelines and do no work until a terminal operation (AsList,
// ForEach, First, At, Count, Map, Reduce, MapReduce) runs. Each terminal
// operation re-runs the producer from the start.
//
// Tail is the exception: it consumes the upstream once when called to learn
// its length. This is O(n) by contract.
package traverse

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// Traversable is a lazy pipeline of T.
type Traversable[T any] struct {
	seq iter.Seq[T]
}

// New wraps a sequence producer.
func New[T any](seq iter.Seq[T]) Traversable[T] {
	if seq == nil {
		return Empty[T]()
	}
	return Traversable[T]{seq: seq}
}

// FromSlice iterates s without copying it.
func FromSlice[T any](s []T) Traversable[T] {
	return Traversable[T]{seq: func(yield func(T) bool) {
		for _, v := range s {
			if !yield(v) {
				return
			}
		}
	}}
}

// Empty returns a pipeline with no elements.
func Empty[T any]() Traversable[T] {
	return Traversable[T]{seq: func(func(T) bool) {}}
}

// Seq exposes the pipeline as an iter.Seq for range loops.
func (t Traversable[T]) Seq() iter.Seq[T] {
	if t.seq == nil {
		return func(func(T) bool) {}
	}
	return t.seq
}

// Head keeps the first n elements.
func (t Traversable[T]) Head(n int) Traversable[T] {
	src := t.Seq()
	return Traversable[T]{seq: func(yield func(T) bool) {
		if n <= 0 {
			return
		}
		taken := 0
		for v := range src {
			if !yield(v) {
				return
			}
			taken++
			if taken >= n {
				return
			}
		}
	}}
}

// Skip drops the first n elements.
func (t Traversable[T]) Skip(n int) Traversable[T] {
	src := t.Seq()
	return Traversable[T]{seq: func(yield func(T) bool) {
		skipped := 0
		for v := range src {
			if skipped < n {
				skipped++
				continue
			}
			if !yield(v) {
				return
			}
		}
	}}
}

// Tail keeps the last n elements. It counts the upstream eagerly, then
// re-runs it lazily skipping count-n elements.
func (t Traversable[T]) Tail(n int) Traversable[T] {
	if n <= 0 {
		return Empty[T]()
	}
	count := t.Count()
	if count <= n {
		return t
	}
	return t.Skip(count - n)
}

// Filter keeps elements for which pred returns true.
func (t Traversable[T]) Filter(pred func(T) bool) Traversable[T] {
	src := t.Seq()
	return Traversable[T]{seq: func(yield func(T) bool) {
		for v := range src {
			if pred(v) && !yield(v) {
				return
			}
		}
	}}
}

// Distinct drops elements whose key was already seen. Keys are tracked in a
// roaring bitmap, so it suits dense integer keys such as node indices.
func (t Traversable[T]) Distinct(key func(T) uint32) Traversable[T] {
	src := t.Seq()
	return Traversable[T]{seq: func(yield func(T) bool) {
		seen := roaring.New()
		for v := range src {
			if !seen.CheckedAdd(key(v)) {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}}
}

// ForEach visits elements until fn returns false.
func (t Traversable[T]) ForEach(fn func(T) bool) {
	for v := range t.Seq() {
		if !fn(v) {
			return
		}
	}
}

// AsList materializes the pipeline.
func (t Traversable[T]) AsList() []T {
	var out []T
	for v := range t.Seq() {
		out = append(out, v)
	}
	return out
}

// First returns the first element.
func (t Traversable[T]) First() (T, bool) {
	for v := range t.Seq() {
		return v, true
	}
	var zero T
	return zero, false
}

// At returns the element at position i.
func (t Traversable[T]) At(i int) (T, bool) {
	if i < 0 {
		var zero T
		return zero, false
	}
	return t.Skip(i).First()
}

// Count consumes the pipeline and returns its length.
func (t Traversable[T]) Count() int {
	n := 0
	for range t.Seq() {
		n++
	}
	return n
}
