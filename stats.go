package pgraph

import "github.com/hupe1980/pgraph/model"

// EdgeTypeStats describes one edge type.
type EdgeTypeStats struct {
	Name      string          `json:"name"`
	Weighted  bool            `json:"weighted"`
	SortOrder model.SortOrder `json:"-"`
	Order     string          `json:"sort_order"`
	Edges     int             `json:"edges"`
	Bound     int32           `json:"bound"`
	FreeIDs   int             `json:"free_ids"`
}

// Stats is a point-in-time summary of a graph. Counts are read without a
// global lock and may be mutually inconsistent under concurrent writes.
type Stats struct {
	Name      string          `json:"name"`
	Nodes     int             `json:"nodes"`
	NodeBound int32           `json:"node_bound"`
	NodeTypes []string        `json:"node_types"`
	EdgeTypes []EdgeTypeStats `json:"edge_types"`
}

// Stats returns node and per-edge-type counters.
func (g *Graph) Stats() Stats {
	s := Stats{
		Name:      g.name,
		Nodes:     g.nodes.Len(),
		NodeBound: g.nodes.Bound(),
	}
	for _, t := range g.reg.NodeTypes() {
		s.NodeTypes = append(s.NodeTypes, t.Name())
	}
	for _, r := range g.allRepos() {
		t := r.Type()
		s.EdgeTypes = append(s.EdgeTypes, EdgeTypeStats{
			Name:      t.Name(),
			Weighted:  t.Weighted(),
			SortOrder: t.SortOrder(),
			Order:     t.SortOrder().String(),
			Edges:     r.Len(),
			Bound:     r.Bound(),
			FreeIDs:   r.FreeCount(),
		})
	}
	return s
}
