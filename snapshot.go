package pgraph

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/pgraph/blobstore"
	"github.com/hupe1980/pgraph/codec"
	"github.com/hupe1980/pgraph/internal/conv"
	"github.com/hupe1980/pgraph/internal/edgerepo"
	"github.com/hupe1980/pgraph/internal/resource"
	"github.com/hupe1980/pgraph/internal/segfile"
	"github.com/hupe1980/pgraph/model"
	"github.com/hupe1980/pgraph/properties"
)

// Dump layout
//
//	manifest.json                       written last, names the generation
//	data/<gen>/nodes.seg                msgpack node records
//	data/<gen>/properties.seg           msgpack property records
//	data/<gen>/edges/<type>/<n>.seg     fixed-width edge records
//
// Every .seg blob is framed by segfile. A dump that fails before the
// manifest is written leaves the previous manifest and its generation
// intact.
const (
	manifestName    = "manifest.json"
	manifestVersion = 1
	dataPrefix      = "data/"
)

var (
	manifestCodec = codec.GoJSON{}
	recordCodec   = codec.Msgpack{}
)

type manifest struct {
	Version       int                `json:"version"`
	Name          string             `json:"name"`
	Generation    uint64             `json:"generation"`
	CreatedAt     time.Time          `json:"created_at"`
	Compression   string             `json:"compression"`
	PropertyCodec string             `json:"property_codec"`
	NodeTypes     []string           `json:"node_types"`
	Nodes         nodesManifest      `json:"nodes"`
	EdgeTypes     []edgeTypeManifest `json:"edge_types"`
	Properties    string             `json:"properties"`
}

type nodesManifest struct {
	Count int    `json:"count"`
	Bound int32  `json:"bound"`
	Blob  string `json:"blob"`
}

type edgeTypeManifest struct {
	Name            string   `json:"name"`
	Weighted        bool     `json:"weighted"`
	SortOrder       string   `json:"sort_order"`
	Count           int      `json:"count"`
	Bound           int32    `json:"bound"`
	SegmentCapacity int      `json:"segment_capacity"`
	RecordWidth     int      `json:"record_width"`
	Segments        []string `json:"segments"`
}

type nodeRecord struct {
	Index int32  `msgpack:"i"`
	Type  uint16 `msgpack:"t"`
	Key   string `msgpack:"k"`
}

type propertyRecord struct {
	Kind  uint8                 `msgpack:"k"`
	Type  string                `msgpack:"t"`
	ID    string                `msgpack:"i"`
	Props properties.Properties `msgpack:"p"`
}

func generationPrefix(gen uint64) string {
	return fmt.Sprintf("%s%08d/", dataPrefix, gen)
}

func edgeSegmentName(gen uint64, typ string, seg int) string {
	return fmt.Sprintf("%sedges/%s/%06d.seg", generationPrefix(gen), url.PathEscape(typ), seg)
}

// readManifest returns the current manifest of store, or nil when store
// holds no dump.
func readManifest(ctx context.Context, store blobstore.Store) (*manifest, error) {
	data, err := store.Get(ctx, manifestName)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := manifestCodec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.Version != manifestVersion {
		return nil, fmt.Errorf("unsupported manifest version %d", m.Version)
	}
	return &m, nil
}

// blobJob produces one blob when its transfer slot is granted, so at most
// the configured number of encoded blobs is held in memory.
type blobJob struct {
	name   string
	encode func() ([]byte, error)
}

func put(ctx context.Context, rc *resource.Controller, store blobstore.Store, name string, data []byte) error {
	if err := rc.AcquireIO(ctx, len(data)); err != nil {
		return err
	}
	if err := store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	return nil
}

func get(ctx context.Context, rc *resource.Controller, store blobstore.Store, name string) ([]byte, error) {
	if err := rc.AcquireTransfer(ctx); err != nil {
		return nil, err
	}
	defer rc.ReleaseTransfer()

	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	if err := rc.AcquireIO(ctx, len(data)); err != nil {
		return nil, err
	}
	return data, nil
}

// Dump writes a snapshot of the graph to store. Segments are uploaded in
// parallel; the manifest is written last so an interrupted dump is never
// mistaken for a complete one. After a successful dump the blobs of older
// generations are deleted. Any failure is returned as a *GraphError.
//
// Dump does not block writers. Under concurrent mutation the snapshot is
// per-segment consistent only.
func (g *Graph) Dump(ctx context.Context, store blobstore.Store) error {
	start := time.Now()
	blobs, bytes, err := g.dump(ctx, store)
	err = wrapOp("dump", err)
	g.metrics.RecordDump(bytes, time.Since(start), err)
	g.logger.LogDump(ctx, blobs, bytes, err)
	return err
}

func (g *Graph) dump(ctx context.Context, store blobstore.Store) (int, int64, error) {
	if err := g.checkOpen(); err != nil {
		return 0, 0, err
	}
	prev, err := readManifest(ctx, store)
	if err != nil {
		return 0, 0, err
	}
	gen := uint64(1)
	if prev != nil {
		gen = prev.Generation + 1
	}
	prefix := generationPrefix(gen)
	comp := g.opts.compression

	m := &manifest{
		Version:       manifestVersion,
		Name:          g.name,
		Generation:    gen,
		CreatedAt:     time.Now().UTC(),
		Compression:   comp.String(),
		PropertyCodec: recordCodec.Name(),
		Nodes: nodesManifest{
			Count: g.nodes.Len(),
			Bound: g.nodes.Bound(),
			Blob:  prefix + "nodes.seg",
		},
		Properties: prefix + "properties.seg",
	}
	for _, t := range g.reg.NodeTypes() {
		m.NodeTypes = append(m.NodeTypes, t.Name())
	}

	jobs := []blobJob{
		{name: m.Nodes.Blob, encode: func() ([]byte, error) { return g.encodeNodes(comp) }},
		{name: m.Properties, encode: func() ([]byte, error) { return g.encodeProperties(ctx, comp) }},
	}
	for _, r := range g.allRepos() {
		t := r.Type()
		capacity := g.opts.segmentCapacity
		et := edgeTypeManifest{
			Name:            t.Name(),
			Weighted:        t.Weighted(),
			SortOrder:       t.SortOrder().String(),
			Count:           r.Len(),
			Bound:           r.Bound(),
			SegmentCapacity: capacity,
			RecordWidth:     r.RecordWidth(),
		}
		for seg := range r.SegmentCount(capacity) {
			name := edgeSegmentName(gen, t.Name(), seg)
			et.Segments = append(et.Segments, name)
			jobs = append(jobs, blobJob{name: name, encode: func() ([]byte, error) {
				return encodeEdgeSegment(r, seg, capacity, comp)
			}})
		}
		m.EdgeTypes = append(m.EdgeTypes, et)
	}

	var (
		written atomic.Int64
		blobs   atomic.Int64
	)
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.dumpConcurrency)
	for _, job := range jobs {
		eg.Go(func() error {
			if err := g.rc.AcquireTransfer(egctx); err != nil {
				return err
			}
			defer g.rc.ReleaseTransfer()

			data, err := job.encode()
			if err != nil {
				return fmt.Errorf("encode %s: %w", job.name, err)
			}
			if err := put(egctx, g.rc, store, job.name, data); err != nil {
				return err
			}
			written.Add(int64(len(data)))
			blobs.Add(1)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return int(blobs.Load()), written.Load(), err
	}

	data, err := manifestCodec.MarshalIndent(m, "", "  ")
	if err != nil {
		return int(blobs.Load()), written.Load(), fmt.Errorf("encode manifest: %w", err)
	}
	if err := put(ctx, g.rc, store, manifestName, data); err != nil {
		return int(blobs.Load()), written.Load(), err
	}
	written.Add(int64(len(data)))
	blobs.Add(1)

	if err := deleteStaleGenerations(ctx, store, prefix); err != nil {
		g.logger.WarnContext(ctx, "dump cleanup failed", "generation", gen, "error", err)
	}
	return int(blobs.Load()), written.Load(), nil
}

// deleteStaleGenerations removes every data blob outside keep. Orphans of
// interrupted dumps go with them.
func deleteStaleGenerations(ctx context.Context, store blobstore.Store, keep string) error {
	names, err := store.List(ctx, dataPrefix)
	if err != nil {
		return err
	}
	var errs []error
	for _, name := range names {
		if strings.HasPrefix(name, keep) {
			continue
		}
		if err := store.Delete(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (g *Graph) encodeNodes(comp segfile.Compression) ([]byte, error) {
	var recs []nodeRecord
	g.nodes.Range(func(index int32, id model.NodeID) bool {
		recs = append(recs, nodeRecord{Index: index, Type: id.Type.Ordinal(), Key: id.Key})
		return true
	})
	raw, err := recordCodec.Marshal(recs)
	if err != nil {
		return nil, err
	}
	return segfile.EncodeBytes(raw, comp)
}

func (g *Graph) encodeProperties(ctx context.Context, comp segfile.Compression) ([]byte, error) {
	var recs []propertyRecord
	for e, err := range g.props.All(ctx) {
		if err != nil {
			return nil, err
		}
		recs = append(recs, propertyRecord{
			Kind:  uint8(e.Key.Kind),
			Type:  e.Key.Type,
			ID:    e.Key.ID,
			Props: e.Properties,
		})
	}
	raw, err := recordCodec.Marshal(recs)
	if err != nil {
		return nil, err
	}
	return segfile.EncodeBytes(raw, comp)
}

func encodeEdgeSegment(r *edgerepo.Repository, seg, capacity int, comp segfile.Compression) ([]byte, error) {
	width := r.RecordWidth()
	raw := r.AppendSegment(nil, seg, capacity)
	count, err := conv.IntToUint32(len(raw) / width)
	if err != nil {
		return nil, err
	}
	return segfile.Encode(segfile.Header{
		Weighted:    r.Type().Weighted(),
		Compression: comp,
		Width:       uint8(width),
		First:       int32(seg * capacity),
		Count:       count,
	}, raw)
}

// Restore loads the dump in store into a new graph configured by optFns.
// Removed node and edge indices stay removed: edge indices below the
// highest live one are returned to the free-list and node indices are never
// reassigned. Any failure is returned as a *GraphError, and the property
// store of the partial graph is closed.
func Restore(ctx context.Context, store blobstore.Store, optFns ...Option) (*Graph, error) {
	o := applyOptions(optFns)
	start := time.Now()
	g, err := restore(ctx, store, o)
	err = wrapOp("restore", err)

	var nodes, edges int
	if g != nil {
		nodes, edges = g.NodeCount(), g.EdgeCount()
	}
	o.metricsCollector.RecordRestore(nodes, edges, time.Since(start), err)
	o.logger.LogRestore(ctx, nodes, edges, err)
	if err != nil {
		_ = o.propertyStore.Close()
		return nil, err
	}
	return g, nil
}

func restore(ctx context.Context, store blobstore.Store, o options) (*Graph, error) {
	m, err := readManifest(ctx, store)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("no dump found: %w", blobstore.ErrNotFound)
	}
	if c, ok := codec.ByName(m.PropertyCodec); !ok || c.Name() != recordCodec.Name() {
		return nil, fmt.Errorf("%w: record codec %q", ErrUnsupported, m.PropertyCodec)
	}

	b := newBuilder(m.Name, o)
	rc := b.g.rc

	for i, name := range m.NodeTypes {
		t, err := b.NodeType(name)
		if err != nil {
			return nil, err
		}
		if int(t.Ordinal()) != i {
			return nil, fmt.Errorf("%w: node type %q listed twice", segfile.ErrCorrupt, name)
		}
	}

	type segmentTask struct {
		name     string
		restorer *edgerepo.Restorer
		repo     *edgerepo.Repository
		mu       *sync.Mutex
	}
	var (
		tasks     []segmentTask
		restorers []*edgerepo.Restorer
	)
	for _, et := range m.EdgeTypes {
		order, err := model.ParseSortOrder(et.SortOrder)
		if err != nil {
			return nil, err
		}
		t, err := b.EdgeType(et.Name, et.Weighted, order)
		if err != nil {
			return nil, err
		}
		r, err := b.g.repo(t)
		if err != nil {
			return nil, err
		}
		if r.RecordWidth() != et.RecordWidth {
			return nil, fmt.Errorf("edge type %q: record width %d, expected %d", et.Name, et.RecordWidth, r.RecordWidth())
		}
		rs, err := r.NewRestorer()
		if err != nil {
			return nil, err
		}
		restorers = append(restorers, rs)
		mu := &sync.Mutex{}
		for _, name := range et.Segments {
			tasks = append(tasks, segmentTask{name: name, restorer: rs, repo: r, mu: mu})
		}
	}

	data, err := get(ctx, rc, store, m.Nodes.Blob)
	if err != nil {
		return nil, err
	}
	if err := restoreNodes(b, data); err != nil {
		return nil, fmt.Errorf("nodes: %w", err)
	}

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(o.dumpConcurrency)
	for _, task := range tasks {
		eg.Go(func() error {
			data, err := get(egctx, rc, store, task.name)
			if err != nil {
				return err
			}
			h, raw, err := segfile.Decode(data)
			if err != nil {
				return fmt.Errorf("%s: %w", task.name, err)
			}
			if h.Weighted != task.repo.Type().Weighted() || int(h.Width) != task.repo.RecordWidth() {
				return fmt.Errorf("%s: %w: header does not match edge type %q", task.name, segfile.ErrCorrupt, task.repo.Type().Name())
			}
			task.mu.Lock()
			defer task.mu.Unlock()
			if err := task.restorer.Load(h.First, raw); err != nil {
				return fmt.Errorf("%s: %w", task.name, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	for _, rs := range restorers {
		if err := rs.Finish(); err != nil {
			return nil, err
		}
	}

	data, err = get(ctx, rc, store, m.Properties)
	if err != nil {
		return nil, err
	}
	if err := restoreProperties(ctx, b.g.props, data); err != nil {
		return nil, fmt.Errorf("properties: %w", err)
	}

	g, err := b.Build()
	if err != nil {
		return nil, err
	}
	g.nodes.Reserve(m.Nodes.Bound)
	return g, nil
}

func restoreNodes(b *Builder, data []byte) error {
	raw, err := segfile.DecodeBytes(data)
	if err != nil {
		return err
	}
	var recs []nodeRecord
	if err := recordCodec.Unmarshal(raw, &recs); err != nil {
		return err
	}
	for _, rec := range recs {
		t, ok := b.g.reg.NodeTypeByOrdinal(rec.Type)
		if !ok {
			return fmt.Errorf("%w: node %d has unknown type ordinal %d", segfile.ErrCorrupt, rec.Index, rec.Type)
		}
		if err := b.dense.InsertAt(rec.Index, model.NewNodeID(t, rec.Key)); err != nil {
			return err
		}
	}
	return nil
}

func restoreProperties(ctx context.Context, store properties.Store, data []byte) error {
	raw, err := segfile.DecodeBytes(data)
	if err != nil {
		return err
	}
	var recs []propertyRecord
	if err := recordCodec.Unmarshal(raw, &recs); err != nil {
		return err
	}
	for _, rec := range recs {
		key := properties.Key{Kind: properties.Kind(rec.Kind), Type: rec.Type, ID: rec.ID}
		if err := store.Save(ctx, key, rec.Props); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}
