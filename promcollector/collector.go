// Package promcollector exports graph metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	c, err := promcollector.New(reg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	g := pgraph.New("shop", pgraph.WithMetricsCollector(c))
package promcollector

import (
	"time"

	"github.com/hupe1980/pgraph"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pgraph"

// Collector implements pgraph.MetricsCollector with Prometheus counters and
// histograms.
type Collector struct {
	opLatency     *prometheus.HistogramVec
	ops           *prometheus.CounterVec
	cascadedEdges prometheus.Counter
	dumpBytes     prometheus.Counter
	restored      *prometheus.CounterVec
}

var _ pgraph.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers its metrics with reg. A nil reg
// uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of graph operations",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"op", "status"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Graph operations by operation, edge type and status",
		}, []string{"op", "edge_type", "status"}),
		cascadedEdges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cascaded_edges_total",
			Help:      "Edges removed together with their nodes",
		}),
		dumpBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dump_bytes_total",
			Help:      "Bytes written by successful dumps",
		}),
		restored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restored_total",
			Help:      "Nodes and edges loaded by successful restores",
		}, []string{"kind"}),
	}
	for _, m := range []prometheus.Collector{c.opLatency, c.ops, c.cascadedEdges, c.dumpBytes, c.restored} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (c *Collector) observe(op, edgeType string, d time.Duration, err error) {
	s := status(err)
	c.opLatency.WithLabelValues(op, s).Observe(d.Seconds())
	c.ops.WithLabelValues(op, edgeType, s).Inc()
}

func (c *Collector) RecordAddNode(d time.Duration, err error) {
	c.observe("add_node", "", d, err)
}

func (c *Collector) RecordRemoveNode(edges int, d time.Duration, err error) {
	c.observe("remove_node", "", d, err)
	if err == nil {
		c.cascadedEdges.Add(float64(edges))
	}
}

func (c *Collector) RecordAddEdge(edgeType string, d time.Duration, err error) {
	c.observe("add_edge", edgeType, d, err)
}

func (c *Collector) RecordRemoveEdge(edgeType string, d time.Duration, err error) {
	c.observe("remove_edge", edgeType, d, err)
}

func (c *Collector) RecordSetWeight(edgeType string, d time.Duration, err error) {
	c.observe("set_weight", edgeType, d, err)
}

func (c *Collector) RecordDump(bytes int64, d time.Duration, err error) {
	c.observe("dump", "", d, err)
	if err == nil {
		c.dumpBytes.Add(float64(bytes))
	}
}

func (c *Collector) RecordRestore(nodes, edges int, d time.Duration, err error) {
	c.observe("restore", "", d, err)
	if err == nil {
		c.restored.WithLabelValues("node").Add(float64(nodes))
		c.restored.WithLabelValues("edge").Add(float64(edges))
	}
}
