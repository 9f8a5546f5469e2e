package nodeid

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/hupe1980/pgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTypes() (*model.NodeType, *model.NodeType) {
	reg := model.NewRegistry()
	person, _ := reg.NodeType("person")
	city, _ := reg.NodeType("city")
	return person, city
}

func TestRepository_InsertLookupRemove(t *testing.T) {
	person, city := testTypes()
	r := New(4)

	alice := model.NewNodeID(person, "alice")
	bob := model.NewNodeID(person, "bob")

	i0, err := r.Insert(alice)
	require.NoError(t, err)
	i1, err := r.Insert(bob)
	require.NoError(t, err)
	assert.Equal(t, int32(0), i0)
	assert.Equal(t, int32(1), i1)

	// Same key under a different type is a different node.
	i2, err := r.Insert(model.NewNodeID(city, "alice"))
	require.NoError(t, err)
	assert.Equal(t, int32(2), i2)

	_, err = r.Insert(alice)
	require.ErrorIs(t, err, model.ErrDuplicateKey)

	assert.Equal(t, int32(1), r.Index(bob))
	got, ok := r.NodeID(1)
	require.True(t, ok)
	assert.Equal(t, bob, got)
	assert.Equal(t, 3, r.Len())

	removed, ok := r.Remove(0)
	require.True(t, ok)
	assert.Equal(t, alice, removed)
	_, ok = r.Remove(0)
	assert.False(t, ok)
	assert.Equal(t, int32(-1), r.Index(alice))
	_, ok = r.NodeID(0)
	assert.False(t, ok)

	// Indices are not recycled.
	i3, err := r.Insert(alice)
	require.NoError(t, err)
	assert.Equal(t, int32(3), i3)
	assert.Equal(t, int32(4), r.Bound())

	var seen []int32
	r.Range(func(index int32, _ model.NodeID) bool {
		seen = append(seen, index)
		return true
	})
	assert.Equal(t, []int32{1, 2, 3}, seen)

	_, ok = r.NodeID(-1)
	assert.False(t, ok)
	_, ok = r.NodeID(1 << 20)
	assert.False(t, ok)
}

func TestRepository_RejectsUntypedID(t *testing.T) {
	_, err := New(1).Insert(model.NodeID{Key: "x"})
	require.Error(t, err)
}

func TestRepository_ConcurrentInsert(t *testing.T) {
	person, _ := testTypes()
	r := New(8)

	const workers, perWorker = 8, 500
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := r.Insert(model.NewNodeID(person, fmt.Sprintf("%d-%d", w, i)))
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	require.Equal(t, workers*perWorker, r.Len())
	r.Range(func(index int32, id model.NodeID) bool {
		assert.Equal(t, index, r.Index(id))
		return true
	})
}

func TestRepository_ConcurrentDuplicateInsert(t *testing.T) {
	person, _ := testTypes()
	r := New(8)
	id := model.NewNodeID(person, "contested")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Insert(id); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, r.Len())
}

func TestDense_InsertAtAndPromote(t *testing.T) {
	person, _ := testTypes()
	d := NewDense()

	require.NoError(t, d.InsertAt(3, model.NewNodeID(person, "d")))
	require.NoError(t, d.InsertAt(0, model.NewNodeID(person, "a")))

	err := d.InsertAt(3, model.NewNodeID(person, "x"))
	require.ErrorIs(t, err, model.ErrDuplicateKey)
	var dup *model.ErrDuplicateIndex
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, int32(3), dup.Index)

	err = d.InsertAt(5, model.NewNodeID(person, "a"))
	require.ErrorIs(t, err, model.ErrDuplicateKey)

	require.ErrorIs(t, d.InsertAt(-1, model.NewNodeID(person, "n")), model.ErrIndexOutOfRange)

	// Skipped indices 1 and 2 are reused, highest skipped last in.
	i, err := d.Insert(model.NewNodeID(person, "b"))
	require.NoError(t, err)
	assert.Equal(t, int32(2), i)

	_, ok := d.Remove(0)
	require.True(t, ok)
	i, err = d.Insert(model.NewNodeID(person, "c"))
	require.NoError(t, err)
	assert.Equal(t, int32(0), i)
	assert.Equal(t, 3, d.Len())

	r := FromDense(d, 4)
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, int32(4), r.Bound())
	assert.Equal(t, int32(3), r.Index(model.NewNodeID(person, "d")))
	assert.Equal(t, int32(0), r.Index(model.NewNodeID(person, "c")))
	_, ok = r.NodeID(1)
	assert.False(t, ok)

	next, err := r.Insert(model.NewNodeID(person, "e"))
	require.NoError(t, err)
	assert.Equal(t, int32(4), next)
}

func TestRepository_Reserve(t *testing.T) {
	person, _ := testTypes()
	r := New(2)
	r.Reserve(10)
	r.Reserve(5)
	assert.Equal(t, int32(10), r.Bound())

	index, err := r.Insert(model.NewNodeID(person, "late"))
	require.NoError(t, err)
	assert.Equal(t, int32(10), index)
}

func TestDense_FarInsertAt(t *testing.T) {
	person, _ := testTypes()
	d := NewDense()

	require.NoError(t, d.InsertAt(100_000_000, model.NewNodeID(person, "far")))
	assert.Equal(t, 1, d.Len())
	assert.Less(t, d.gaps.GetSizeInBytes(), uint64(1<<20))

	i, err := d.Insert(model.NewNodeID(person, "near"))
	require.NoError(t, err)
	assert.Equal(t, int32(99_999_999), i)

	require.ErrorIs(t, d.InsertAt(math.MaxInt32, model.NewNodeID(person, "max")), model.ErrIndexOutOfRange)

	r := FromDense(d, 4)
	assert.Equal(t, int32(100_000_001), r.Bound())
	assert.Equal(t, int32(100_000_000), r.Index(model.NewNodeID(person, "far")))
	id, ok := r.NodeID(99_999_999)
	require.True(t, ok)
	assert.Equal(t, "near", id.Key)
	_, ok = r.NodeID(7)
	assert.False(t, ok)
}
