package edgerepo

import (
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/pgraph/model"
)

// freeList allocates dense edge indices. Released indices are reused LIFO;
// when none are free the next index is the previous maximum plus one.
//
// Indices skipped by an explicit claim are kept as ranges in gaps rather than
// on the stack, so claiming a far index costs no more than its bitmap
// containers. Gaps are handed out highest first once the stack is empty.
type freeList struct {
	mu      sync.Mutex
	stack   []int32
	members *roaring.Bitmap
	gaps    *roaring.Bitmap
	next    int32
}

func newFreeList() *freeList {
	return &freeList{members: roaring.New(), gaps: roaring.New()}
}

func (f *freeList) allocate() (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if n := len(f.stack); n > 0 {
		id := f.stack[n-1]
		f.stack = f.stack[:n-1]
		f.members.Remove(uint32(id))
		return id, nil
	}
	if !f.gaps.IsEmpty() {
		id := f.gaps.Maximum()
		f.gaps.Remove(id)
		return int32(id), nil
	}
	if f.next > model.MaxIndex {
		return 0, fmt.Errorf("edge index space exhausted")
	}
	id := f.next
	f.next++
	return id, nil
}

func (f *freeList) release(id int32) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.gaps.Contains(uint32(id)) {
		return
	}
	if f.members.CheckedAdd(uint32(id)) {
		f.stack = append(f.stack, id)
	}
}

// claim reserves a specific index for the replay path. It succeeds when the
// index is free or beyond the allocated range; indices skipped over become
// free. It fails when the index is already handed out or above
// model.MaxIndex.
func (f *freeList) claim(id int32) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if id < 0 || id > model.MaxIndex {
		return false
	}
	if id >= f.next {
		if id > f.next {
			f.gaps.AddRange(uint64(f.next), uint64(id))
		}
		f.next = id + 1
		return true
	}
	if f.gaps.CheckedRemove(uint32(id)) {
		return true
	}
	if !f.members.CheckedRemove(uint32(id)) {
		return false
	}
	for i := len(f.stack) - 1; i >= 0; i-- {
		if f.stack[i] == id {
			f.stack = append(f.stack[:i], f.stack[i+1:]...)
			break
		}
	}
	return true
}

// reset replaces the state after a restore. free is pushed in reverse so the
// lowest free index is reused first.
func (f *freeList) reset(next int32, free []int32) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.next = next
	f.members.Clear()
	f.gaps.Clear()
	f.stack = f.stack[:0]
	for i := len(free) - 1; i >= 0; i-- {
		f.members.Add(uint32(free[i]))
		f.stack = append(f.stack, free[i])
	}
}

func (f *freeList) bound() int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.next
}

func (f *freeList) free() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stack) + int(f.gaps.GetCardinality())
}
