package depgraph

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Severity grades a cycle.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// SeverityFor grades a cycle of the given edge count. Short cycles are the
// harder ones to untangle.
func SeverityFor(edges int) Severity {
	if edges <= 3 {
		return SeverityHigh
	}
	return SeverityMedium
}

// Cycle is one circular import chain. Path repeats its first node at the end.
type Cycle struct {
	Path     []string `json:"path"`
	Length   int      `json:"length"`
	Severity Severity `json:"severity"`
}

// DetectCycles links g through r and reports cycles.
func DetectCycles(g *Graph, r Resolver) []Cycle {
	return Link(g, r).Cycles()
}

// Cycles runs a depth-first search from every unvisited node in lexical
// order, neighbors also in lexical order. Each root reports at most the
// first cycle it reaches.
func (a Adjacency) Cycles() []Cycle {
	roots := make([]string, 0, len(a))
	for p := range a {
		roots = append(roots, p)
	}
	sort.Strings(roots)

	d := cycleSearch{adj: a, visited: map[string]bool{}, onStack: map[string]bool{}}
	cycles := []Cycle{}
	for _, root := range roots {
		if d.visited[root] {
			continue
		}
		d.path = d.path[:0]
		if c, ok := d.visit(root); ok {
			cycles = append(cycles, c)
		}
		clear(d.onStack)
	}
	return cycles
}

type cycleSearch struct {
	adj     Adjacency
	visited map[string]bool
	onStack map[string]bool
	path    []string
}

func (d *cycleSearch) visit(node string) (Cycle, bool) {
	if d.onStack[node] {
		for i, p := range d.path {
			if p == node {
				closed := append(append([]string{}, d.path[i:]...), node)
				edges := len(closed) - 1
				return Cycle{Path: closed, Length: edges, Severity: SeverityFor(edges)}, true
			}
		}
	}
	if d.visited[node] {
		return Cycle{}, false
	}

	d.visited[node] = true
	d.onStack[node] = true
	d.path = append(d.path, node)

	for _, next := range d.adj[node] {
		if c, ok := d.visit(next); ok {
			return c, true
		}
	}

	d.path = d.path[:len(d.path)-1]
	d.onStack[node] = false
	return Cycle{}, false
}

// Component is a strongly connected set of files with more than one member.
type Component struct {
	Files  []string `json:"files"`
	Cyclic bool     `json:"cyclic"`
}

// StronglyConnected links g through r and returns its non-trivial strongly
// connected components, largest first.
func StronglyConnected(g *Graph, r Resolver) []Component {
	return Link(g, r).Components()
}

// Components returns the strongly connected components of a with more than
// one member. Every such component contains a cycle.
func (a Adjacency) Components() []Component {
	ig := a.indexed()
	out := []Component{}
	for _, scc := range topo.TarjanSCC(ig.g) {
		if len(scc) < 2 {
			continue
		}
		files := make([]string, len(scc))
		for i, n := range scc {
			files[i] = ig.names[n.ID()]
		}
		sort.Strings(files)
		out = append(out, Component{Files: files, Cyclic: true})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Files) != len(out[j].Files) {
			return len(out[i].Files) > len(out[j].Files)
		}
		return out[i].Files[0] < out[j].Files[0]
	})
	return out
}

// Rank is a file's PageRank over the import graph.
type Rank struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// PageRank links g through r and ranks files by how much of the graph
// depends on them, highest first, capped at limit when limit > 0.
func PageRank(g *Graph, r Resolver, limit int) []Rank {
	return Link(g, r).PageRank(limit)
}

// PageRank ranks the nodes of a with damping 0.85 and tolerance 1e-6.
func (a Adjacency) PageRank(limit int) []Rank {
	ig := a.indexed()
	if ig.g.Nodes().Len() == 0 {
		return []Rank{}
	}
	scores := network.PageRank(ig.g, 0.85, 1e-6)
	out := make([]Rank, 0, len(scores))
	for id, s := range scores {
		out = append(out, Rank{Path: ig.names[id], Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Path < out[j].Path
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type indexedGraph struct {
	g     *simple.DirectedGraph
	names map[int64]string
}

// indexed converts a to a gonum graph. Self-edges are dropped since simple
// graphs cannot hold them.
func (a Adjacency) indexed() indexedGraph {
	paths := make([]string, 0, len(a))
	for p := range a {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	ig := indexedGraph{g: simple.NewDirectedGraph(), names: make(map[int64]string, len(paths))}
	ids := make(map[string]int64, len(paths))
	node := func(p string) graph.Node {
		id, ok := ids[p]
		if !ok {
			id = int64(len(ids))
			ids[p] = id
			ig.names[id] = p
			ig.g.AddNode(simple.Node(id))
		}
		return simple.Node(id)
	}
	for _, p := range paths {
		from := node(p)
		for _, t := range a[p] {
			if t == p {
				continue
			}
			ig.g.SetEdge(simple.Edge{F: from, T: node(t)})
		}
	}
	return ig
}
