package nodeid

import (
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/pgraph/model"
)

// Dense is the non-sharded NodeID table used on replay paths. It accepts
// explicit indices and reuses freed indices LIFO. Indices skipped by an
// explicit insert are tracked as bitmap ranges and handed out highest first
// once no removed index is left.
type Dense struct {
	mu      sync.Mutex
	byID    map[model.NodeID]int32
	byIndex map[int32]model.NodeID
	free    []int32
	gaps    *roaring.Bitmap
	bound   int32
}

// NewDense creates an empty table.
func NewDense() *Dense {
	return &Dense{
		byID:    make(map[model.NodeID]int32),
		byIndex: make(map[int32]model.NodeID),
		gaps:    roaring.New(),
	}
}

// Insert assigns a free or new index to id.
func (d *Dense) Insert(id model.NodeID) (int32, error) {
	if err := validate(id); err != nil {
		return -1, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if index, ok := d.byID[id]; ok {
		return -1, fmt.Errorf("%w: node %s already has index %d", model.ErrDuplicateKey, id, index)
	}
	var index int32
	switch n := len(d.free); {
	case n > 0:
		index = d.free[n-1]
		d.free = d.free[:n-1]
	case !d.gaps.IsEmpty():
		gap := d.gaps.Maximum()
		d.gaps.Remove(gap)
		index = int32(gap)
	default:
		if d.bound > model.MaxIndex {
			return -1, fmt.Errorf("node index space exhausted")
		}
		index = d.bound
		d.bound++
	}
	d.set(index, id)
	return index, nil
}

// InsertAt stores id at an explicit index. It fails with
// model.ErrDuplicateKey when the index is occupied or id already exists.
func (d *Dense) InsertAt(index int32, id model.NodeID) error {
	if err := model.CheckIndex(index); err != nil {
		return err
	}
	if err := validate(id); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.byIndex[index]; ok {
		return &model.ErrDuplicateIndex{Kind: "node", Index: index}
	}
	if existing, ok := d.byID[id]; ok {
		return fmt.Errorf("%w: node %s already has index %d", model.ErrDuplicateKey, id, existing)
	}

	switch {
	case index >= d.bound:
		if index > d.bound {
			d.gaps.AddRange(uint64(d.bound), uint64(index))
		}
		d.bound = index + 1
	case d.gaps.CheckedRemove(uint32(index)):
	default:
		for i, f := range d.free {
			if f == index {
				d.free = append(d.free[:i], d.free[i+1:]...)
				break
			}
		}
	}
	d.set(index, id)
	return nil
}

func (d *Dense) set(index int32, id model.NodeID) {
	d.byIndex[index] = id
	d.byID[id] = index
}

// Remove frees index.
func (d *Dense) Remove(index int32) (model.NodeID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id, ok := d.byIndex[index]
	if !ok {
		return model.NodeID{}, false
	}
	delete(d.byIndex, index)
	delete(d.byID, id)
	d.free = append(d.free, index)
	return id, true
}

// Index returns the index of id, or -1.
func (d *Dense) Index(id model.NodeID) int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index, ok := d.byID[id]; ok {
		return index
	}
	return -1
}

// NodeID returns the id at index.
func (d *Dense) NodeID(index int32) (model.NodeID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.byIndex[index]
	return id, ok
}

// Len returns the number of live nodes.
func (d *Dense) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.byID)
}
