package recordbuf

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(weighted bool) map[string]Buffer {
	return map[string]Buffer{
		"array":  New(BackendArray, weighted, 4, 0),
		"binary": New(BackendBinary, weighted, 0, 16),
	}
}

func TestBuffer_UpsertGetRemove(t *testing.T) {
	for name, buf := range backends(true) {
		t.Run(name, func(t *testing.T) {
			_, ok := buf.Get(0)
			assert.False(t, ok)
			_, ok = buf.Get(1000)
			assert.False(t, ok)

			buf.Upsert(0, Record{Start: 1, End: 2, Weight: 0.5})
			buf.Upsert(37, Record{Start: 3, End: 4, Weight: 2})
			assert.Equal(t, 2, buf.Len())

			rec, ok := buf.Get(37)
			require.True(t, ok)
			assert.Equal(t, Record{Start: 3, End: 4, Weight: 2}, rec)

			// Gaps below the max read as deleted.
			_, ok = buf.Get(20)
			assert.False(t, ok)

			rec, ok = buf.Remove(0)
			require.True(t, ok)
			assert.Equal(t, int32(1), rec.Start)
			assert.Equal(t, 1, buf.Len())

			_, ok = buf.Remove(0)
			assert.False(t, ok)
			_, ok = buf.Get(0)
			assert.False(t, ok)

			// Overwrite keeps the live count stable.
			buf.Upsert(37, Record{Start: 5, End: 6, Weight: 1})
			assert.Equal(t, 1, buf.Len())
		})
	}
}

func TestBuffer_SetWeight(t *testing.T) {
	for name, buf := range backends(true) {
		t.Run(name, func(t *testing.T) {
			buf.Upsert(3, Record{Start: 1, End: 2, Weight: 1})
			require.True(t, buf.SetWeight(3, 9))

			rec, ok := buf.Get(3)
			require.True(t, ok)
			assert.Equal(t, float32(9), rec.Weight)

			buf.Remove(3)
			assert.False(t, buf.SetWeight(3, 4), "must not resurrect a deleted slot")
			_, ok = buf.Get(3)
			assert.False(t, ok)
			assert.False(t, buf.SetWeight(500, 1))
		})
	}

	for name, buf := range backends(false) {
		t.Run(name+"/unweighted", func(t *testing.T) {
			buf.Upsert(0, Record{Start: 1, End: 2})
			assert.False(t, buf.SetWeight(0, 3))
		})
	}
}

func TestBuffer_AppendRange(t *testing.T) {
	for _, weighted := range []bool{false, true} {
		for name, buf := range backends(weighted) {
			t.Run(name, func(t *testing.T) {
				buf.Upsert(1, Record{Start: 10, End: 11, Weight: 1.5})
				buf.Upsert(18, Record{Start: 12, End: 13, Weight: 2.5})

				width := Width(weighted)
				raw := buf.AppendRange(nil, 0, 40)
				require.Len(t, raw, 40*width)

				for i := 0; i < 40; i++ {
					rec := ReadRecord(raw[i*width:], weighted)
					switch i {
					case 1:
						assert.Equal(t, int32(10), rec.Start)
						if weighted {
							assert.Equal(t, float32(1.5), rec.Weight)
						}
					case 18:
						assert.Equal(t, int32(13), rec.End)
					default:
						assert.True(t, rec.Deleted(), "slot %d", i)
					}
				}
			})
		}
	}
}

func TestBuffer_Concurrent(t *testing.T) {
	for name, buf := range backends(true) {
		t.Run(name, func(t *testing.T) {
			const workers, perWorker = 8, 500

			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < perWorker; i++ {
						idx := int32(w*perWorker + i)
						buf.Upsert(idx, Record{Start: idx, End: idx + 1, Weight: float32(i)})
						if i%2 == 0 {
							buf.Remove(idx)
						}
					}
				}(w)
			}
			wg.Wait()

			assert.Equal(t, workers*perWorker/2, buf.Len())
		})
	}
}

func TestBinary_LazySegments(t *testing.T) {
	b := NewBinary(false, 0)
	assert.Equal(t, DefaultSegmentCapacity, b.Capacity())

	b = NewBinary(false, 8)
	assert.Equal(t, 0, b.Segments())

	_, ok := b.Get(100)
	assert.False(t, ok)
	_, ok = b.Remove(100)
	assert.False(t, ok)
	assert.Equal(t, 0, b.Segments(), "reads do not allocate")

	b.Upsert(17, Record{Start: 1, End: 2})
	assert.Equal(t, 1, b.Segments(), "skipped segments stay unallocated")
	_, ok = b.Get(3)
	assert.False(t, ok)

	b.Upsert(3, Record{Start: 1, End: 2})
	assert.Equal(t, 2, b.Segments())
	assert.Equal(t, 2, b.Len())

	raw := b.AppendRange(nil, 0, 24)
	assert.Len(t, raw, 24*Width(false))
	assert.Equal(t, Record{Start: Sentinel, End: Sentinel}, ReadRecord(raw[8*Width(false):], false))
}

func TestBuffer_RemoveIf(t *testing.T) {
	for name, buf := range backends(true) {
		t.Run(name, func(t *testing.T) {
			buf.Upsert(5, Record{Start: 1, End: 2, Weight: 3})

			_, ok := buf.RemoveIf(5, 1, 9)
			assert.False(t, ok)
			_, ok = buf.RemoveIf(5, 9, 2)
			assert.False(t, ok)
			_, ok = buf.RemoveIf(6, 1, 2)
			assert.False(t, ok)
			assert.Equal(t, 1, buf.Len())

			rec, ok := buf.RemoveIf(5, 1, 2)
			require.True(t, ok)
			assert.Equal(t, Record{Start: 1, End: 2, Weight: 3}, rec)
			assert.Equal(t, 0, buf.Len())

			_, ok = buf.RemoveIf(5, 1, 2)
			assert.False(t, ok)
		})
	}
}
