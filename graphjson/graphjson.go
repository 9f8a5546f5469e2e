// Package graphjson reads and writes whole graphs as a single JSON document:
//
//	{
//	  "metadata": {
//	    "name": "shop",
//	    "nodetypes": ["product"],
//	    "edgetypes": [{"name": "SIMILAR", "sortorder": "DESCENDING_WEIGHT", "weighted": true}]
//	  },
//	  "nodes": [{"_index": 0, "_type": "product", "_id": "p1", "name": "lamp"}],
//	  "edges": [{"_index": 0, "_type": "SIMILAR", "_start": 0, "_end": 1, "_weight": 0.8}]
//	}
//
// Edge endpoints refer to node "_index" values. Keys without a leading
// underscore are properties. Import preserves node and edge indices.
package graphjson

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/hupe1980/pgraph"
	"github.com/hupe1980/pgraph/internal/conv"
	"github.com/hupe1980/pgraph/model"
	"github.com/hupe1980/pgraph/properties"
)

// Reserved record keys.
const (
	KeyIndex  = "_index"
	KeyType   = "_type"
	KeyID     = "_id"
	KeyStart  = "_start"
	KeyEnd    = "_end"
	KeyWeight = "_weight"
)

var (
	// ErrInvalidDocument is returned when a document is structurally wrong.
	ErrInvalidDocument = errors.New("graphjson: invalid document")
	// ErrReservedKey is returned on export when a property name is reserved.
	ErrReservedKey = errors.New("graphjson: reserved property key")
)

// Document is the top-level JSON shape.
type Document struct {
	Metadata Metadata         `json:"metadata"`
	Nodes    []map[string]any `json:"nodes"`
	Edges    []map[string]any `json:"edges"`
}

// Metadata describes the graph name and its types.
type Metadata struct {
	Name      string     `json:"name"`
	NodeTypes []string   `json:"nodetypes"`
	EdgeTypes []EdgeType `json:"edgetypes"`
}

// EdgeType describes an edge type. A missing weighted flag means weighted
// unless the sort order is INSERTION.
type EdgeType struct {
	Name      string `json:"name"`
	SortOrder string `json:"sortorder"`
	Weighted  *bool  `json:"weighted,omitempty"`
}

func (t EdgeType) weighted(order model.SortOrder) bool {
	if t.Weighted != nil {
		return *t.Weighted
	}
	return order != model.SortInsertion
}

// DefaultMaxIndex is the largest node or edge index Import accepts unless
// WithMaxIndex says otherwise. Explicit indices size the dense index tables,
// so the cap bounds the memory one document can claim.
const DefaultMaxIndex int32 = 1<<24 - 1

type options struct {
	indent       string
	graphOptions []pgraph.Option
	maxIndex     int32
}

// Option configures Import and Export.
type Option func(*options)

// WithIndent pretty-prints exported documents.
func WithIndent(indent string) Option {
	return func(o *options) {
		o.indent = indent
	}
}

// WithMaxIndex sets the largest "_index" Import accepts. Values above
// model.MaxIndex are clamped.
func WithMaxIndex(n int32) Option {
	return func(o *options) {
		o.maxIndex = min(n, model.MaxIndex)
	}
}

// WithGraphOptions passes options to the graph created by Import.
func WithGraphOptions(optFns ...pgraph.Option) Option {
	return func(o *options) {
		o.graphOptions = append(o.graphOptions, optFns...)
	}
}

func applyOptions(optFns []Option) options {
	o := options{maxIndex: DefaultMaxIndex}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// Export writes g to w. Failures are reported as *pgraph.GraphError with
// Op "export".
func Export(ctx context.Context, g *pgraph.Graph, w io.Writer, optFns ...Option) error {
	o := applyOptions(optFns)
	doc, err := encodeGraph(ctx, g)
	if err == nil {
		enc := gojson.NewEncoder(w)
		if o.indent != "" {
			enc.SetIndent("", o.indent)
		}
		err = enc.EncodeContext(ctx, doc)
	}
	if err != nil {
		g.Logger().LogExport(ctx, 0, 0, err)
		return &pgraph.GraphError{Op: "export", Err: err}
	}
	g.Logger().LogExport(ctx, len(doc.Nodes), len(doc.Edges), nil)
	return nil
}

func encodeGraph(ctx context.Context, g *pgraph.Graph) (*Document, error) {
	doc := &Document{
		Metadata: Metadata{Name: g.Name()},
		Nodes:    make([]map[string]any, 0, g.NodeCount()),
		Edges:    make([]map[string]any, 0, g.EdgeCount()),
	}
	for _, t := range g.NodeTypes() {
		doc.Metadata.NodeTypes = append(doc.Metadata.NodeTypes, t.Name())
	}

	for n := range g.Nodes(ctx).Seq() {
		rec, err := record(n.Properties, 3)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
		rec[KeyIndex] = n.Index
		rec[KeyType] = n.Type().Name()
		rec[KeyID] = n.Key()
		doc.Nodes = append(doc.Nodes, rec)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, t := range g.EdgeTypes() {
		weighted := t.Weighted()
		doc.Metadata.EdgeTypes = append(doc.Metadata.EdgeTypes, EdgeType{
			Name:      t.Name(),
			SortOrder: t.SortOrder().String(),
			Weighted:  &weighted,
		})
		edges, err := g.EdgesOfType(ctx, t)
		if err != nil {
			return nil, err
		}
		for e := range edges.Seq() {
			rec, err := record(e.Properties, 5)
			if err != nil {
				return nil, fmt.Errorf("edge %s: %w", e.ID, err)
			}
			rec[KeyIndex] = e.Index()
			rec[KeyType] = t.Name()
			rec[KeyStart] = e.Start.Index
			rec[KeyEnd] = e.End.Index
			if weighted {
				rec[KeyWeight] = e.Weight
			}
			doc.Edges = append(doc.Edges, rec)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func record(props properties.Properties, reserved int) (map[string]any, error) {
	rec := make(map[string]any, len(props)+reserved)
	for k, v := range props {
		if strings.HasPrefix(k, "_") {
			return nil, fmt.Errorf("%w: %q", ErrReservedKey, k)
		}
		rec[k] = v
	}
	return rec, nil
}

// Import reads a document from r into a new graph. Failures are reported
// as *pgraph.GraphError with Op "import"; the property store configured
// through WithGraphOptions is closed on failure.
func Import(ctx context.Context, r io.Reader, optFns ...Option) (*pgraph.Graph, error) {
	o := applyOptions(optFns)

	var doc Document
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	if err := dec.DecodeContext(ctx, &doc); err != nil {
		return nil, &pgraph.GraphError{Op: "import", Err: fmt.Errorf("decode: %w", err)}
	}

	b := pgraph.NewBuilder(doc.Metadata.Name, o.graphOptions...)
	g, err := build(ctx, b, &doc, o.maxIndex)
	if err != nil {
		b.Logger().LogImport(ctx, len(doc.Nodes), len(doc.Edges), err)
		// Release the property store of the partial graph.
		if partial, berr := b.Build(); berr == nil {
			_ = partial.Close()
		}
		return nil, &pgraph.GraphError{Op: "import", Err: err}
	}
	g.Logger().LogImport(ctx, g.NodeCount(), g.EdgeCount(), nil)
	return g, nil
}

func build(ctx context.Context, b *pgraph.Builder, doc *Document, maxIndex int32) (*pgraph.Graph, error) {
	for _, name := range doc.Metadata.NodeTypes {
		if _, err := b.NodeType(name); err != nil {
			return nil, err
		}
	}
	edgeTypes := make(map[string]*model.EdgeType, len(doc.Metadata.EdgeTypes))
	for _, et := range doc.Metadata.EdgeTypes {
		order, err := model.ParseSortOrder(et.SortOrder)
		if err != nil {
			return nil, fmt.Errorf("%w: edge type %q: %w", ErrInvalidDocument, et.Name, err)
		}
		t, err := b.EdgeType(et.Name, et.weighted(order), order)
		if err != nil {
			return nil, fmt.Errorf("edge type %q: %w", et.Name, err)
		}
		edgeTypes[et.Name] = t
	}

	for i, rec := range doc.Nodes {
		if err := importNode(ctx, b, rec, maxIndex); err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
	}
	for i, rec := range doc.Edges {
		if err := importEdge(ctx, b, edgeTypes, rec, maxIndex); err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
	}
	return b.Build()
}

func importNode(ctx context.Context, b *pgraph.Builder, rec map[string]any, maxIndex int32) error {
	index, err := indexField(rec, maxIndex)
	if err != nil {
		return err
	}
	typ, err := stringField(rec, KeyType)
	if err != nil {
		return err
	}
	key, err := stringField(rec, KeyID)
	if err != nil {
		return err
	}
	nt, err := b.NodeType(typ)
	if err != nil {
		return err
	}
	return b.AddNodeAt(ctx, index, model.NewNodeID(nt, key), props(rec, KeyIndex, KeyType, KeyID))
}

func importEdge(ctx context.Context, b *pgraph.Builder, types map[string]*model.EdgeType, rec map[string]any, maxIndex int32) error {
	index, err := indexField(rec, maxIndex)
	if err != nil {
		return err
	}
	name, err := stringField(rec, KeyType)
	if err != nil {
		return err
	}
	t, ok := types[name]
	if !ok {
		return fmt.Errorf("%w: edge type %q not declared in metadata", ErrInvalidDocument, name)
	}
	start, err := intField(rec, KeyStart)
	if err != nil {
		return err
	}
	end, err := intField(rec, KeyEnd)
	if err != nil {
		return err
	}
	weight := model.DefaultWeight
	if _, ok := rec[KeyWeight]; ok {
		w, err := floatField(rec, KeyWeight)
		if err != nil {
			return err
		}
		weight = w
	}
	return b.AddEdgeAt(ctx, model.NewEdgeID(t, index), start, end, weight,
		props(rec, KeyIndex, KeyType, KeyStart, KeyEnd, KeyWeight))
}

func props(rec map[string]any, reserved ...string) properties.Properties {
	if len(rec) <= len(reserved) {
		return nil
	}
	out := make(properties.Properties, len(rec))
	for k, v := range rec {
		if strings.HasPrefix(k, "_") {
			continue
		}
		out[k] = normalize(v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// normalize converts decoded json.Number values to int64 when integral and
// float64 otherwise.
func normalize(v any) any {
	switch x := v.(type) {
	case gojson.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		for k, e := range x {
			x[k] = normalize(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = normalize(e)
		}
		return x
	default:
		return v
	}
}

func stringField(rec map[string]any, key string) (string, error) {
	v, ok := rec[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %s", ErrInvalidDocument, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidDocument, key, v)
	}
	return s, nil
}

func intField(rec map[string]any, key string) (int32, error) {
	v, ok := rec[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidDocument, key)
	}
	n, ok := v.(gojson.Number)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidDocument, key, v)
	}
	i, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidDocument, key, err)
	}
	return conv.Int64ToInt32(i)
}

func indexField(rec map[string]any, maxIndex int32) (int32, error) {
	index, err := intField(rec, KeyIndex)
	if err != nil {
		return 0, err
	}
	if index > maxIndex {
		return 0, fmt.Errorf("%w: %s %d exceeds %d", ErrInvalidDocument, KeyIndex, index, maxIndex)
	}
	return index, nil
}

func floatField(rec map[string]any, key string) (float32, error) {
	n, ok := rec[key].(gojson.Number)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidDocument, key, rec[key])
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidDocument, key, err)
	}
	return float32(f), nil
}
