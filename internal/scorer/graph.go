package scorer

import "github.com/opspulse/sentinel/internal/model"

// maxPathDepth bounds the breadth-first search per spec.md §4.5 step 3.
const maxPathDepth = 4

// undirectedGraph is a symmetrized view over GraphHints' (possibly
// directed) adjacency lists, built once per tick and shared across every
// effect's path query in that tick's scoring pass.
type undirectedGraph struct {
	adj map[string]map[string]struct{}
}

func buildUndirected(hints *model.GraphHints) *undirectedGraph {
	g := &undirectedGraph{adj: make(map[string]map[string]struct{})}
	if hints == nil {
		return g
	}
	for from, tos := range hints.Adjacency {
		g.link(from, tos...)
		for _, to := range tos {
			g.link(to, from)
		}
	}
	return g
}

func (g *undirectedGraph) link(from string, tos ...string) {
	set, ok := g.adj[from]
	if !ok {
		set = make(map[string]struct{})
		g.adj[from] = set
	}
	for _, to := range tos {
		set[to] = struct{}{}
	}
}

// shortestPath returns the BFS distance between from and to bounded at
// maxPathDepth, or -1 if unreachable within that bound.
func (g *undirectedGraph) shortestPath(from, to string) int {
	if from == to {
		return 0
	}
	visited := map[string]struct{}{from: {}}
	frontier := []string{from}
	for depth := 1; depth <= maxPathDepth; depth++ {
		var next []string
		for _, node := range frontier {
			for neighbour := range g.adj[node] {
				if neighbour == to {
					return depth
				}
				if _, seen := visited[neighbour]; seen {
					continue
				}
				visited[neighbour] = struct{}{}
				next = append(next, neighbour)
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return -1
}
