package model

// GraphHints is the read-only adjacency map supplied by the embedder and
// consulted by the Scorer for graph-proximity estimation. It may be replaced
// atomically between ticks; the pipeline never mutates a GraphHints value
// once published.
type GraphHints struct {
	Adjacency map[string][]string       `json:"adjacency"`
	Metadata  map[string]map[string]any `json:"metadata,omitempty"`
}

// Neighbours returns the adjacency list for entity, or nil if entity has no
// recorded neighbours.
func (g *GraphHints) Neighbours(entity string) []string {
	if g == nil {
		return nil
	}
	return g.Adjacency[entity]
}
