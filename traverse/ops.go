package traverse

// Transform lazily maps every element through f.
func Transform[T, U any](t Traversable[T], f func(T) U) Traversable[U] {
	src := t.Seq()
	return Traversable[U]{seq: func(yield func(U) bool) {
		for v := range src {
			if !yield(f(v)) {
				return
			}
		}
	}}
}

// TransformNonNil maps every element through f and drops elements for which
// f reports false.
func TransformNonNil[T, U any](t Traversable[T], f func(T) (U, bool)) Traversable[U] {
	src := t.Seq()
	return Traversable[U]{seq: func(yield func(U) bool) {
		for v := range src {
			u, ok := f(v)
			if !ok {
				continue
			}
			if !yield(u) {
				return
			}
		}
	}}
}

// Unique drops repeated elements.
func Unique[T comparable](t Traversable[T]) Traversable[T] {
	src := t.Seq()
	return Traversable[T]{seq: func(yield func(T) bool) {
		seen := make(map[T]struct{})
		for v := range src {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			if !yield(v) {
				return
			}
		}
	}}
}

// Concat chains pipelines in order.
func Concat[T any](ts ...Traversable[T]) Traversable[T] {
	return Traversable[T]{seq: func(yield func(T) bool) {
		for _, t := range ts {
			for v := range t.Seq() {
				if !yield(v) {
					return
				}
			}
		}
	}}
}

// Map applies a bulk mapper to the whole sequence.
func Map[T, U any](t Traversable[T], mapper func([]T) []U) []U {
	return mapper(t.AsList())
}

// Reduce folds the sequence into a single value.
func Reduce[T, A any](t Traversable[T], init A, reducer func(A, T) A) A {
	acc := init
	for v := range t.Seq() {
		acc = reducer(acc, v)
	}
	return acc
}

// MapReduce emits a key/value pair per element and folds values that share
// a key.
func MapReduce[T any, K comparable, V any](t Traversable[T], mapper func(T) (K, V), reducer func(V, V) V) map[K]V {
	out := make(map[K]V)
	for v := range t.Seq() {
		k, val := mapper(v)
		if prev, ok := out[k]; ok {
			out[k] = reducer(prev, val)
		} else {
			out[k] = val
		}
	}
	return out
}
