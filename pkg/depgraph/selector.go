package depgraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/forgeloop/forged/pkg/types"
)

// DefaultContextBudget is the token budget used when a caller passes zero.
const DefaultContextBudget = 4000

// ContextFile is one selected context file with its relevance weight.
type ContextFile struct {
	Path      string  `json:"path"`
	Relevance float64 `json:"relevance"`
	Reason    string  `json:"reason"`
}

// ContextSelection is the set of files chosen to accompany a change to the
// primary file, packed under a token budget.
type ContextSelection struct {
	PrimaryFile        string        `json:"primary_file"`
	ContextFiles       []ContextFile `json:"context_files"`
	TotalTokenEstimate int           `json:"total_token_estimate"`
}

// sharedTypeFiles are probed, in order, as the heuristic "shared schema"
// candidate included whenever present.
var sharedTypeFiles = []string{
	"types.ts", "src/types.ts", "schema.ts", "src/schema.ts",
	"shared/types.ts", "src/shared/types.ts",
}

// SelectContext ranks candidate files by relevance to the target and
// greedily packs them into the token budget. The packing is greedy by
// relevance, not size-optimal; ties keep insertion order (imports, then
// importers, then the shared-types file, then transitive imports).
func SelectContext(graph *Graph, target string, files []types.SourceFile, budget int) ContextSelection {
	if budget <= 0 {
		budget = DefaultContextBudget
	}

	selection := ContextSelection{PrimaryFile: target}
	node, ok := graph.Nodes[target]
	if !ok {
		return selection
	}

	contentByPath := make(map[string]string, len(files))
	for _, f := range files {
		contentByPath[f.Path] = f.Content
	}

	var candidates []ContextFile
	chosen := map[string]bool{target: true}
	add := func(path string, relevance float64, reason string) {
		if chosen[path] {
			return
		}
		chosen[path] = true
		candidates = append(candidates, ContextFile{Path: path, Relevance: relevance, Reason: reason})
	}

	for _, imp := range node.Imports {
		add(imp, 0.9, "imported by target")
	}
	for _, importer := range node.ImportedBy {
		add(importer, 0.7, "imports target")
	}
	for _, shared := range sharedTypeFiles {
		if _, exists := graph.Nodes[shared]; exists {
			add(shared, 0.8, "shared types")
			break
		}
	}
	for _, imp := range node.Imports {
		for _, transitive := range graph.Nodes[imp].Imports {
			add(transitive, 0.4, fmt.Sprintf("transitive import via %s", imp))
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Relevance > candidates[j].Relevance
	})

	for _, candidate := range candidates {
		cost := types.EstimateTokens(contentByPath[candidate.Path])
		if selection.TotalTokenEstimate+cost > budget {
			continue
		}
		selection.ContextFiles = append(selection.ContextFiles, candidate)
		selection.TotalTokenEstimate += cost
	}

	return selection
}

// RenderPromptBlock formats a selection as the inlined "related files"
// block of a completion prompt.
func (s ContextSelection) RenderPromptBlock(files []types.SourceFile) string {
	if len(s.ContextFiles) == 0 {
		return ""
	}

	contentByPath := make(map[string]string, len(files))
	for _, f := range files {
		contentByPath[f.Path] = f.Content
	}

	var sb strings.Builder
	sb.WriteString("Related files:\n")
	for _, cf := range s.ContextFiles {
		sb.WriteString(fmt.Sprintf("\n--- %s (%s) ---\n", cf.Path, cf.Reason))
		sb.WriteString(contentByPath[cf.Path])
		sb.WriteString("\n")
	}
	return sb.String()
}
