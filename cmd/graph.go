package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forgeloop/forged/pkg/config"
	"github.com/forgeloop/forged/pkg/depgraph"
	"github.com/forgeloop/forged/pkg/workspace"
)

var graphContextFlag string

var graphCmd = &cobra.Command{
	Use:   "graph [dir]",
	Short: "Build and inspect the dependency graph of a workspace",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDir := "."
		if len(args) == 1 {
			rootDir = args[0]
		}

		files, err := workspace.LoadSourceFiles(rootDir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Println("No source files found.")
			return nil
		}

		graph := depgraph.Build(files)

		if graphContextFlag != "" {
			cfg, err := config.LoadOrInit(rootDir)
			if err != nil {
				return err
			}
			selection := depgraph.SelectContext(graph, graphContextFlag, files, cfg.ContextBudget)
			fmt.Printf("Context for %s (%d tokens):\n", selection.PrimaryFile, selection.TotalTokenEstimate)
			for _, cf := range selection.ContextFiles {
				fmt.Printf("  %.1f  %-40s %s\n", cf.Relevance, cf.Path, cf.Reason)
			}
			return nil
		}

		fmt.Printf("Files: %d\n", len(graph.Nodes))
		fmt.Printf("Entry points: %s\n", strings.Join(graph.EntryPoints, ", "))

		paths := make([]string, 0, len(graph.Nodes))
		for p := range graph.Nodes {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			node := graph.Nodes[p]
			fmt.Printf("  depth %d  %-40s imports=%d imported_by=%d\n",
				node.Depth, p, len(node.Imports), len(node.ImportedBy))
		}

		if len(graph.Cycles) > 0 {
			fmt.Printf("Cycles detected: %d\n", len(graph.Cycles))
			for _, cycle := range graph.Cycles {
				fmt.Printf("  %s\n", strings.Join(cycle, " -> "))
			}
		}
		return nil
	},
}

func init() {
	graphCmd.Flags().StringVar(&graphContextFlag, "context", "", "show the context selection for the given file")
}
