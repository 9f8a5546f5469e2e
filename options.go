package pgraph

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/pgraph/internal/adjacency"
	"github.com/hupe1980/pgraph/internal/recordbuf"
	"github.com/hupe1980/pgraph/internal/segfile"
	"github.com/hupe1980/pgraph/properties"
)

const (
	// DefaultSegmentCapacity is the number of edge records per dump segment
	// and per binary-backend segment.
	DefaultSegmentCapacity = recordbuf.DefaultSegmentCapacity
	// DefaultDumpConcurrency bounds parallel blob transfers.
	DefaultDumpConcurrency = 4
)

// Backend selects the record buffer implementation of edge types.
type Backend = recordbuf.Backend

const (
	// BackendArray shards growable arrays by edge index.
	BackendArray  = recordbuf.BackendArray
	// BackendBinary stores fixed-width records in lazily allocated segments.
	BackendBinary = recordbuf.BackendBinary
)

// ParseBackend parses "array" or "binary".
func ParseBackend(s string) (Backend, error) { return recordbuf.ParseBackend(s) }

// Compression selects the codec of dumped segments.
type Compression = segfile.Compression

const (
	CompressionNone = segfile.CompressionNone
	CompressionLZ4  = segfile.CompressionLZ4
	CompressionZSTD = segfile.CompressionZSTD
)

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) { return segfile.ParseCompression(s) }

type options struct {
	stripes          int
	backend          Backend
	segmentCapacity  int
	propertyStore    properties.Store
	logger           *Logger
	metricsCollector MetricsCollector
	compression      Compression
	dumpConcurrency  int
	ioLimit          int
}

func defaultOptions() options {
	return options{
		stripes:          adjacency.StripeCount(4 * runtime.GOMAXPROCS(0)),
		backend:          BackendArray,
		segmentCapacity:  DefaultSegmentCapacity,
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		compression:      CompressionNone,
		dumpConcurrency:  DefaultDumpConcurrency,
	}
}

func applyOptions(optFns []Option) options {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	if o.propertyStore == nil {
		o.propertyStore = properties.NewMemoryStore()
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.segmentCapacity <= 0 {
		o.segmentCapacity = DefaultSegmentCapacity
	}
	if o.dumpConcurrency <= 0 {
		o.dumpConcurrency = DefaultDumpConcurrency
	}
	o.stripes = adjacency.StripeCount(o.stripes)
	return o
}

// Option configures graph construction and restore.
type Option func(*options)

// WithStripes sets the lock stripe count shared by the node id repository,
// the adjacency indexes and the array backend. The value is rounded up to a
// power of two. The default is the next power of two >= 4*GOMAXPROCS.
func WithStripes(n int) Option {
	return func(o *options) {
		o.stripes = n
	}
}

// WithBackend selects the record buffer backend of every edge type.
func WithBackend(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithSegmentCapacity sets the records per segment used by the binary
// backend and by dumps.
func WithSegmentCapacity(records int) Option {
	return func(o *options) {
		o.segmentCapacity = records
	}
}

// WithPropertyStore sets the properties side-store. The graph takes
// ownership and closes it on Close. Default: an in-memory store.
//
// Example with Badger:
//
//	store, _ := properties.NewBadgerStore(properties.BadgerOptions{Dir: "./props"})
//	g := pgraph.New("social", pgraph.WithPropertyStore(store))
func WithPropertyStore(s properties.Store) Option {
	return func(o *options) {
		o.propertyStore = s
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := pgraph.NewJSONLogger(slog.LevelInfo)
//	g := pgraph.New("social", pgraph.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &pgraph.BasicMetricsCollector{}
//	g := pgraph.New("social", pgraph.WithMetricsCollector(metrics))
//	// ... use g ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithCompression sets the codec for dumped segments.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithDumpConcurrency bounds the number of blobs transferred in parallel by
// Dump and Restore.
func WithDumpConcurrency(n int) Option {
	return func(o *options) {
		o.dumpConcurrency = n
	}
}

// WithIOLimit throttles Dump and Restore to bytesPerSec. Zero disables the
// limit.
func WithIOLimit(bytesPerSec int) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}
