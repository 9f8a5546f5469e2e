package pgraph

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with pgraph-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithGraph adds the graph name to every record.
func (l *Logger) WithGraph(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("graph", name),
	}
}

// LogAddEdge logs an edge insertion.
func (l *Logger) LogAddEdge(ctx context.Context, edgeType string, index int32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add edge failed",
			"edge_type", edgeType,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "edge added",
			"edge_type", edgeType,
			"index", index,
		)
	}
}

// LogRemoveNode logs a node removal and the number of cascaded edges.
func (l *Logger) LogRemoveNode(ctx context.Context, node string, edges int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "remove node failed",
			"node", node,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "node removed",
			"node", node,
			"cascaded_edges", edges,
		)
	}
}

// LogDump logs a dump operation.
func (l *Logger) LogDump(ctx context.Context, blobs int, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "dump failed",
			"blobs_written", blobs,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "dump completed",
			"blobs", blobs,
			"bytes", bytes,
		)
	}
}

// LogRestore logs a restore operation.
func (l *Logger) LogRestore(ctx context.Context, nodes, edges int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "restore failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "restore completed",
			"nodes", nodes,
			"edges", edges,
		)
	}
}

// LogUnresolved logs an id dropped from a traversal because it no longer
// resolves.
func (l *Logger) LogUnresolved(ctx context.Context, kind string, index int32, err error) {
	if err != nil {
		l.WarnContext(ctx, "traversal dropped element",
			"kind", kind,
			"index", index,
			"error", err,
		)
	}
}

// LogImport logs a JSON import.
func (l *Logger) LogImport(ctx context.Context, nodes, edges int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "import failed",
			"nodes_read", nodes,
			"edges_read", edges,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "import completed",
			"nodes", nodes,
			"edges", edges,
		)
	}
}

// LogExport logs a JSON export.
func (l *Logger) LogExport(ctx context.Context, nodes, edges int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "export failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "export completed",
			"nodes", nodes,
			"edges", edges,
		)
	}
}
