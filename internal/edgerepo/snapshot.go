package edgerepo

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/pgraph/internal/recordbuf"
	"github.com/hupe1980/pgraph/model"
)

// RecordWidth returns the encoded size of one record of this type.
func (r *Repository) RecordWidth() int { return recordbuf.Width(r.typ.Weighted()) }

// SegmentCount returns how many segments of capacity records cover the
// allocated index range.
func (r *Repository) SegmentCount(capacity int) int {
	bound := int(r.ids.bound())
	return (bound + capacity - 1) / capacity
}

// AppendSegment appends the fixed-width encoding of segment seg to dst. The
// last segment is truncated at the allocated bound; deleted slots are
// encoded as sentinel records.
func (r *Repository) AppendSegment(dst []byte, seg, capacity int) []byte {
	bound := r.ids.bound()
	from := int32(seg * capacity)
	to := from + int32(capacity)
	if to > bound {
		to = bound
	}
	if from >= to {
		return dst
	}
	return r.buf.AppendRange(dst, from, to)
}

// Restorer rebuilds a repository from dumped segments. Segments may be loaded
// in any order; Finish publishes adjacency lists and the free-list.
type Restorer struct {
	r    *Repository
	live *roaring.Bitmap
	out  map[int32][]int32
	in   map[int32][]int32
}

// NewRestorer prepares an empty repository for restore.
func (r *Repository) NewRestorer() (*Restorer, error) {
	if r.Len() != 0 || r.ids.bound() != 0 {
		return nil, fmt.Errorf("edge type %q: restore into non-empty repository", r.typ.Name())
	}
	return &Restorer{
		r:    r,
		live: roaring.New(),
		out:  make(map[int32][]int32),
		in:   make(map[int32][]int32),
	}, nil
}

// Load replays one segment whose first record has index first.
func (rs *Restorer) Load(first int32, raw []byte) error {
	width := rs.r.RecordWidth()
	if len(raw)%width != 0 {
		return fmt.Errorf("edge type %q: segment size %d is not a multiple of record width %d",
			rs.r.typ.Name(), len(raw), width)
	}
	weighted := rs.r.typ.Weighted()
	for off := 0; off < len(raw); off += width {
		index := first + int32(off/width)
		rec := recordbuf.ReadRecord(raw[off:], weighted)
		if rec.Deleted() {
			continue
		}
		if rec.Start < 0 || rec.End < 0 {
			return fmt.Errorf("edge type %q: corrupt record %d: %w",
				rs.r.typ.Name(), index, model.ErrIndexOutOfRange)
		}
		if !rs.live.CheckedAdd(uint32(index)) {
			return &model.ErrDuplicateIndex{Kind: "edge", Index: index}
		}
		rs.r.buf.Upsert(index, rec)
		rs.out[rec.Start] = append(rs.out[rec.Start], index)
		rs.in[rec.End] = append(rs.in[rec.End], index)
	}
	return nil
}

// Finish publishes the adjacency lists and reconstructs the free-list from
// the sentinel gaps below the highest live index.
func (rs *Restorer) Finish() error {
	r := rs.r
	for node, ids := range rs.out {
		if err := r.adj.Publish(r.cmp, model.Outgoing, node, ids); err != nil {
			return err
		}
	}
	for node, ids := range rs.in {
		if err := r.adj.Publish(r.cmp, model.Incoming, node, ids); err != nil {
			return err
		}
	}

	if rs.live.IsEmpty() {
		r.ids.reset(0, nil)
		return nil
	}
	maxLive := int32(rs.live.Maximum())

	gaps := roaring.Flip(rs.live, 0, uint64(maxLive)+1)
	free := make([]int32, 0, gaps.GetCardinality())
	it := gaps.Iterator()
	for it.HasNext() {
		free = append(free, int32(it.Next()))
	}
	r.ids.reset(maxLive+1, free)
	return nil
}
