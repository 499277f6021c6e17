// Package graph implements the §4.3 Dependency Graph: a directed graph
// over an already import-closed set of ResolvedFiles, with connected
// components, transitive dependencies and direct dependency/dependent
// queries. Cycles are legal (Solidity import cycles occur in practice)
// and every walk here guards with a visited set, the way the teacher's
// gps/pkgtree reachability code does for Go import cycles.
package graph

import (
	"github.com/gosolc/buildcore/internal/model"
)

// Graph is a directed graph whose nodes are ResolvedFiles and whose
// edges are file -> file for each import. The node set is closed under
// imports: every file an edge points to is itself a node.
type Graph struct {
	nodes map[model.SourceName]*model.ResolvedFile
	// out[a] holds the import edges a -> b.
	out map[model.SourceName][]model.SourceName
	// in[b] holds the reverse edges a -> b, for direct_dependents.
	in map[model.SourceName][]model.SourceName
}

// Build constructs a DependencyGraph from a flat list of already-
// resolved files (as returned by Resolver.ResolveMany, which performs
// the recursive closure). Build does not itself resolve anything
// further; it only wires up the edges between the files it is given,
// skipping edges to names absent from the set (the caller is
// responsible for having achieved closure).
func Build(files []*model.ResolvedFile) *Graph {
	g := &Graph{
		nodes: make(map[model.SourceName]*model.ResolvedFile, len(files)),
		out:   make(map[model.SourceName][]model.SourceName, len(files)),
		in:    make(map[model.SourceName][]model.SourceName, len(files)),
	}

	for _, f := range files {
		g.nodes[f.SourceName] = f
	}

	for _, f := range files {
		for _, imp := range f.Imports {
			if _, ok := g.nodes[imp]; !ok {
				// Not part of the closed set supplied; ignore rather
				// than panic, so a partially-resolved graph built for
				// diagnostics doesn't explode.
				continue
			}
			g.out[f.SourceName] = append(g.out[f.SourceName], imp)
			g.in[imp] = append(g.in[imp], f.SourceName)
		}
	}

	return g
}

// File returns the ResolvedFile for name, or nil if name is not a node.
func (g *Graph) File(name model.SourceName) *model.ResolvedFile {
	return g.nodes[name]
}

// Files returns every node in the graph, in no particular order.
func (g *Graph) Files() []*model.ResolvedFile {
	out := make([]*model.ResolvedFile, 0, len(g.nodes))
	for _, f := range g.nodes {
		out = append(out, f)
	}
	return out
}

// DirectDependencies returns the files name directly imports.
func (g *Graph) DirectDependencies(name model.SourceName) []*model.ResolvedFile {
	edges := g.out[name]
	out := make([]*model.ResolvedFile, 0, len(edges))
	for _, e := range edges {
		out = append(out, g.nodes[e])
	}
	return out
}

// DirectDependents returns the files that directly import name.
func (g *Graph) DirectDependents(name model.SourceName) []*model.ResolvedFile {
	edges := g.in[name]
	out := make([]*model.ResolvedFile, 0, len(edges))
	for _, e := range edges {
		out = append(out, g.nodes[e])
	}
	return out
}

// TransitiveDependencies returns every file reachable from name by
// following imports, not including name itself. Safe against cycles.
func (g *Graph) TransitiveDependencies(name model.SourceName) []*model.ResolvedFile {
	visited := map[model.SourceName]bool{name: true}
	var out []*model.ResolvedFile

	queue := append([]model.SourceName(nil), g.out[name]...)
	for i := 0; i < len(queue); i++ {
		n := queue[i]
		if visited[n] {
			continue
		}
		visited[n] = true
		if f := g.nodes[n]; f != nil {
			out = append(out, f)
		}
		queue = append(queue, g.out[n]...)
	}
	return out
}

// TransitiveDependencyPath returns the shortest import chain from from
// down to to (inclusive of both endpoints), or nil if to is not
// reachable from from. Used to report the dependency path of an
// IndirectlyImportsIncompatible planning error.
func (g *Graph) TransitiveDependencyPath(from, to model.SourceName) []model.SourceName {
	if from == to {
		return []model.SourceName{from}
	}

	visited := map[model.SourceName]bool{from: true}
	prev := map[model.SourceName]model.SourceName{}
	queue := []model.SourceName{from}

	for i := 0; i < len(queue); i++ {
		n := queue[i]
		for _, next := range g.out[n] {
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = n
			if next == to {
				path := []model.SourceName{to}
				for cur := n; ; cur = prev[cur] {
					path = append([]model.SourceName{cur}, path...)
					if cur == from {
						break
					}
				}
				return path
			}
			queue = append(queue, next)
		}
	}
	return nil
}

// ConnectedComponents returns the graph's weakly connected components:
// maximal subsets of files linked by an undirected path of imports.
// Components separate otherwise independent build clusters. The
// planner does not call this: plan.Plan selects a compiler version per
// root file.
func (g *Graph) ConnectedComponents() [][]*model.ResolvedFile {
	visited := map[model.SourceName]bool{}
	var components [][]*model.ResolvedFile

	// Iterate over a stable ordering of node names so the returned
	// component list (and thus the order callers see files in) doesn't
	// depend on map iteration order.
	names := g.sortedNames()

	for _, start := range names {
		if visited[start] {
			continue
		}
		var comp []*model.ResolvedFile
		queue := []model.SourceName{start}
		visited[start] = true

		for i := 0; i < len(queue); i++ {
			n := queue[i]
			comp = append(comp, g.nodes[n])

			neighbors := append(append([]model.SourceName(nil), g.out[n]...), g.in[n]...)
			for _, nb := range neighbors {
				if !visited[nb] {
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}
		components = append(components, comp)
	}

	return components
}

// HasCycle reports whether the graph contains an import cycle. Cycles
// are legal in Solidity and never an error; this is diagnostic only.
func (g *Graph) HasCycle() bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[model.SourceName]int{}

	var visit func(n model.SourceName) bool
	visit = func(n model.SourceName) bool {
		color[n] = gray
		for _, next := range g.out[n] {
			switch color[next] {
			case gray:
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		color[n] = black
		return false
	}

	for n := range g.nodes {
		if color[n] == white {
			if visit(n) {
				return true
			}
		}
	}
	return false
}

func (g *Graph) sortedNames() []model.SourceName {
	names := make([]model.SourceName, 0, len(g.nodes))
	for n := range g.nodes {
		names = append(names, n)
	}
	// simple insertion sort avoids importing sort for a tiny, already-
	// mostly-ordered slice in the common case; correctness, not speed,
	// matters here since this only affects iteration order.
	for i := 1; i < len(names); i++ {
		for k := i; k > 0 && names[k-1] > names[k]; k-- {
			names[k-1], names[k] = names[k], names[k-1]
		}
	}
	return names
}
