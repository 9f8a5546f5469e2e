// Package pgraph provides an embeddable in-memory property graph for Go.
//
// Nodes and edges are typed and carry arbitrary key/value properties. Each
// edge type owns its own storage: a fixed-width record buffer of edge
// primitives (start, end, weight) plus an adjacency index holding, for every
// node, an outgoing and an incoming list of edge indices kept in the type's
// sort order.
//
//   - Interned node and edge types; edge types are weighted or unweighted and
//     sorted by insertion, ascending weight or descending weight
//   - Lock-striped adjacency with copy-on-write lists: readers never see a
//     partially sorted list
//   - Dense, recyclable edge indices (LIFO free-list) and stable node indices
//   - Two record buffer backends: sharded growable arrays and lazily
//     allocated fixed-width binary segments
//   - Lazy, restartable traversal pipelines (package traverse)
//   - Pluggable property stores: in-memory or Badger
//   - Snapshot dump/restore to local directories, S3 or MinIO, with optional
//     LZ4/ZSTD compression and I/O throttling
//
// # Quick Start
//
//	ctx := context.Background()
//	g := pgraph.New("shop")
//	defer g.Close()
//
//	product, err := g.NodeType("product")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	similar, err := g.EdgeType("similar", true, model.SortDescendingWeight)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	p1 := model.NewNodeID(product, "p1")
//	p2 := model.NewNodeID(product, "p2")
//	_, _ = g.AddNode(ctx, p1, properties.Properties{"name": "lamp"})
//	_, _ = g.AddNode(ctx, p2, nil)
//	_, _ = g.AddWeightedEdge(ctx, similar, p1, p2, 0.8, nil)
//
// Traverse lazily; nothing is resolved until a terminal operation runs:
//
//	edges, err := g.Edges(ctx, p1, model.Outgoing, similar)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	top := edges.Head(10).AsList()
//
// Walk several hops:
//
//	reached, _ := g.Expand(ctx, []model.NodeID{p1}, model.Both, 2)
//	for n := range reached.Seq() {
//	    fmt.Println(n.ID)
//	}
//
// # Consistency
//
// Every operation is a single atomic step per node stripe. Adding or
// removing an edge updates the start node's list before the end node's, so
// a concurrent reader may briefly observe the edge on one side only.
// Traversals drop ids that no longer resolve instead of failing.
//
// # Persistence
//
// Dump writes a snapshot to a blobstore.Store; Restore reads it back into a
// new graph:
//
//	store := blobstore.NewLocalStore("./dump")
//	if err := g.Dump(ctx, store); err != nil {
//	    log.Fatal(err)
//	}
//	restored, err := pgraph.Restore(ctx, store)
//
// Dump and restore failures are reported as *GraphError.
//
// # Observability
//
// Configure logging and metrics through options:
//
//	g := pgraph.New("shop",
//	    pgraph.WithLogger(pgraph.NewJSONLogger(slog.LevelInfo)),
//	    pgraph.WithMetricsCollector(&pgraph.BasicMetricsCollector{}),
//	)
//
// Package promcollector provides a Prometheus MetricsCollector.
package pgraph
