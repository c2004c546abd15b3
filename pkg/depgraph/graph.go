// Package depgraph builds import dependency graphs over generated file sets
// and selects relevant context files under a token budget.
package depgraph

import (
	"path"
	"sort"
	"strings"

	"github.com/forgeloop/forged/pkg/types"
)

// FileNode is one file in the dependency graph.
type FileNode struct {
	Path       string   `json:"path"`
	Imports    []string `json:"imports"`
	Exports    []string `json:"exports"`
	ImportedBy []string `json:"imported_by"`
	Depth      int      `json:"depth"`
}

// Graph is the directed import graph of a file set.
type Graph struct {
	Nodes       map[string]*FileNode `json:"nodes"`
	EntryPoints []string             `json:"entry_points"`
	Cycles      [][]string           `json:"cycles"`
}

// resolveExtensions is probed in order when resolving a relative import.
// The order is a compatibility contract and must not change.
var resolveExtensions = []string{
	"", ".ts", ".tsx", ".js", ".jsx",
	"/index.ts", "/index.tsx", "/index.js",
}

// Build constructs the dependency graph for a set of files. Relative
// imports that resolve to no file in the set are dropped; bare module
// specifiers (external packages) are ignored.
func Build(files []types.SourceFile) *Graph {
	graph := &Graph{Nodes: make(map[string]*FileNode)}

	inSet := make(map[string]bool, len(files))
	for _, f := range files {
		inSet[f.Path] = true
	}

	// Forward edges first, preserving input order for determinism.
	for _, f := range files {
		node := &FileNode{Path: f.Path, Exports: scanExports(f.Content)}
		for _, spec := range scanImports(f.Content) {
			if !strings.HasPrefix(spec, ".") {
				continue
			}
			if resolved, ok := resolveRelative(f.Path, spec, inSet); ok {
				node.Imports = append(node.Imports, resolved)
			}
		}
		graph.Nodes[f.Path] = node
	}

	// Reverse edges in input order.
	for _, f := range files {
		for _, imp := range graph.Nodes[f.Path].Imports {
			target := graph.Nodes[imp]
			target.ImportedBy = append(target.ImportedBy, f.Path)
		}
	}

	// Entry points are files nothing imports.
	for _, f := range files {
		if len(graph.Nodes[f.Path].ImportedBy) == 0 {
			graph.EntryPoints = append(graph.EntryPoints, f.Path)
		}
	}

	graph.computeDepths()
	graph.Cycles = graph.detectCycles()

	return graph
}

// resolveRelative resolves spec against the importing file's directory and
// probes the extension list in order until a file in the set matches.
func resolveRelative(importer, spec string, inSet map[string]bool) (string, bool) {
	base := path.Join(path.Dir(importer), spec)
	// path.Join cleans ".." segments; a specifier escaping the root
	// cleans to something outside the set and resolves to nothing.
	for _, ext := range resolveExtensions {
		candidate := base + ext
		if inSet[candidate] {
			return candidate, true
		}
	}
	return "", false
}

// computeDepths assigns each node its BFS distance from the entry-point
// set. Multi-source BFS, first visit wins. Nodes unreachable from any entry
// point keep depth zero.
func (g *Graph) computeDepths() {
	visited := make(map[string]bool, len(g.Nodes))
	queue := make([]string, 0, len(g.EntryPoints))

	for _, entry := range g.EntryPoints {
		visited[entry] = true
		g.Nodes[entry].Depth = 0
		queue = append(queue, entry)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, imp := range g.Nodes[current].Imports {
			if visited[imp] {
				continue
			}
			visited[imp] = true
			g.Nodes[imp].Depth = g.Nodes[current].Depth + 1
			queue = append(queue, imp)
		}
	}
}

// detectCycles runs DFS with an explicit recursion stack and reports one
// cycle per back-edge found. Overlapping cycles through the same strongly
// connected component are reported separately; callers depend on this
// shape.
func (g *Graph) detectCycles() [][]string {
	var cycles [][]string
	visited := make(map[string]bool, len(g.Nodes))
	onStack := make(map[string]bool, len(g.Nodes))
	var stack []string

	var visit func(node string)
	visit = func(node string) {
		visited[node] = true
		onStack[node] = true
		stack = append(stack, node)

		for _, imp := range g.Nodes[node].Imports {
			if !visited[imp] {
				visit(imp)
			} else if onStack[imp] {
				// Back-edge: the cycle is the stack slice from
				// the repeated node through the repeat.
				start := 0
				for i, p := range stack {
					if p == imp {
						start = i
						break
					}
				}
				cycle := make([]string, 0, len(stack)-start+1)
				cycle = append(cycle, stack[start:]...)
				cycle = append(cycle, imp)
				cycles = append(cycles, cycle)
			}
		}

		stack = stack[:len(stack)-1]
		onStack[node] = false
	}

	paths := make([]string, 0, len(g.Nodes))
	for p := range g.Nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if !visited[p] {
			visit(p)
		}
	}

	return cycles
}
