package pgraph

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; package
// promcollector provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordAddNode is called after each node insertion.
	RecordAddNode(duration time.Duration, err error)

	// RecordRemoveNode is called after each node removal. edges is the number
	// of incident edges removed with it.
	RecordRemoveNode(edges int, duration time.Duration, err error)

	// RecordAddEdge is called after each edge insertion.
	RecordAddEdge(edgeType string, duration time.Duration, err error)

	// RecordRemoveEdge is called after each edge removal.
	RecordRemoveEdge(edgeType string, duration time.Duration, err error)

	// RecordSetWeight is called after each weight update.
	RecordSetWeight(edgeType string, duration time.Duration, err error)

	// RecordDump is called after each dump. bytes is the total blob size.
	RecordDump(bytes int64, duration time.Duration, err error)

	// RecordRestore is called after each restore.
	RecordRestore(nodes, edges int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAddNode(time.Duration, error)            {}
func (NoopMetricsCollector) RecordRemoveNode(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordAddEdge(string, time.Duration, error)    {}
func (NoopMetricsCollector) RecordRemoveEdge(string, time.Duration, error) {}
func (NoopMetricsCollector) RecordSetWeight(string, time.Duration, error)  {}
func (NoopMetricsCollector) RecordDump(int64, time.Duration, error)        {}
func (NoopMetricsCollector) RecordRestore(int, int, time.Duration, error)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddNodeCount     atomic.Int64
	AddNodeErrors    atomic.Int64
	RemoveNodeCount  atomic.Int64
	RemoveNodeErrors atomic.Int64
	CascadedEdges    atomic.Int64
	AddEdgeCount     atomic.Int64
	AddEdgeErrors    atomic.Int64
	AddEdgeNanos     atomic.Int64
	RemoveEdgeCount  atomic.Int64
	RemoveEdgeErrors atomic.Int64
	SetWeightCount   atomic.Int64
	SetWeightErrors  atomic.Int64
	DumpCount        atomic.Int64
	DumpErrors       atomic.Int64
	DumpBytes        atomic.Int64
	RestoreCount     atomic.Int64
	RestoreErrors    atomic.Int64
}

// RecordAddNode implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAddNode(_ time.Duration, err error) {
	b.AddNodeCount.Add(1)
	if err != nil {
		b.AddNodeErrors.Add(1)
	}
}

// RecordRemoveNode implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemoveNode(edges int, _ time.Duration, err error) {
	b.RemoveNodeCount.Add(1)
	b.CascadedEdges.Add(int64(edges))
	if err != nil {
		b.RemoveNodeErrors.Add(1)
	}
}

// RecordAddEdge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAddEdge(_ string, duration time.Duration, err error) {
	b.AddEdgeCount.Add(1)
	b.AddEdgeNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AddEdgeErrors.Add(1)
	}
}

// RecordRemoveEdge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemoveEdge(_ string, _ time.Duration, err error) {
	b.RemoveEdgeCount.Add(1)
	if err != nil {
		b.RemoveEdgeErrors.Add(1)
	}
}

// RecordSetWeight implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSetWeight(_ string, _ time.Duration, err error) {
	b.SetWeightCount.Add(1)
	if err != nil {
		b.SetWeightErrors.Add(1)
	}
}

// RecordDump implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDump(bytes int64, _ time.Duration, err error) {
	b.DumpCount.Add(1)
	if err != nil {
		b.DumpErrors.Add(1)
		return
	}
	b.DumpBytes.Add(bytes)
}

// RecordRestore implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRestore(_, _ int, _ time.Duration, err error) {
	b.RestoreCount.Add(1)
	if err != nil {
		b.RestoreErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddNodeCount:     b.AddNodeCount.Load(),
		AddNodeErrors:    b.AddNodeErrors.Load(),
		RemoveNodeCount:  b.RemoveNodeCount.Load(),
		RemoveNodeErrors: b.RemoveNodeErrors.Load(),
		CascadedEdges:    b.CascadedEdges.Load(),
		AddEdgeCount:     b.AddEdgeCount.Load(),
		AddEdgeErrors:    b.AddEdgeErrors.Load(),
		AddEdgeAvgNanos:  b.avgAddEdgeNanos(),
		RemoveEdgeCount:  b.RemoveEdgeCount.Load(),
		RemoveEdgeErrors: b.RemoveEdgeErrors.Load(),
		SetWeightCount:   b.SetWeightCount.Load(),
		SetWeightErrors:  b.SetWeightErrors.Load(),
		DumpCount:        b.DumpCount.Load(),
		DumpErrors:       b.DumpErrors.Load(),
		DumpBytes:        b.DumpBytes.Load(),
		RestoreCount:     b.RestoreCount.Load(),
		RestoreErrors:    b.RestoreErrors.Load(),
	}
}

func (b *BasicMetricsCollector) avgAddEdgeNanos() int64 {
	count := b.AddEdgeCount.Load()
	if count == 0 {
		return 0
	}
	return b.AddEdgeNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddNodeCount     int64
	AddNodeErrors    int64
	RemoveNodeCount  int64
	RemoveNodeErrors int64
	CascadedEdges    int64
	AddEdgeCount     int64
	AddEdgeErrors    int64
	AddEdgeAvgNanos  int64
	RemoveEdgeCount  int64
	RemoveEdgeErrors int64
	SetWeightCount   int64
	SetWeightErrors  int64
	DumpCount        int64
	DumpErrors       int64
	DumpBytes        int64
	RestoreCount     int64
	RestoreErrors    int64
}
