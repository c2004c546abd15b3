package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"github.com/forgeloop/forged/pkg/autofix"
	"github.com/forgeloop/forged/pkg/config"
	"github.com/forgeloop/forged/pkg/events"
	"github.com/forgeloop/forged/pkg/filesystem"
	"github.com/forgeloop/forged/pkg/llmclient"
	"github.com/forgeloop/forged/pkg/memory"
	"github.com/forgeloop/forged/pkg/orchestration"
	"github.com/forgeloop/forged/pkg/types"
	"github.com/forgeloop/forged/pkg/utils"
)

var (
	generateOutputFlag  string
	generateQualityFlag string
)

var generateCmd = &cobra.Command{
	Use:   "generate [request]",
	Short: "Plan and generate code for a natural-language request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		request := args[0]
		logger := utils.GetLogger(verboseFlag)

		cfg, err := config.LoadOrInit(".")
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		quality := orchestration.Quality(cfg.Quality)
		if generateQualityFlag != "" {
			quality = orchestration.Quality(generateQualityFlag)
		}

		root, err := filesystem.NewRoot(generateOutputFlag)
		if err != nil {
			return err
		}

		client, err := llmclient.NewOllamaClient(cfg.Model)
		if err != nil {
			return fmt.Errorf("completion service unavailable: %w", err)
		}

		mem := memory.NewService()
		projectID := filepath.Base(root.Dir())
		snapshotPath := filepath.Join(root.Dir(), ".forged", "memory.json")
		if cfg.MemorySnapshots {
			if err := mem.LoadSnapshot(projectID, snapshotPath); err != nil {
				logger.LogError(err)
			}
		}

		bus := events.NewBus()
		stream := bus.Subscribe("cli")
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			printEvents(stream)
		}()

		// Generation has no external validator by default; validation
		// passes trivially and the fix loop never engages.
		validate := func(ctx context.Context) (types.ValidationResult, error) {
			return types.ValidationResult{Success: true}, nil
		}

		engine := autofix.NewEngine(mem, client, logger)
		orch := orchestration.New(projectID, client, validate, engine.DefaultApplier(root), mem, bus, logger)

		runErr := orch.Run(cmd.Context(), request, quality)

		// Persist the generated files whether or not fixing finished
		// cleanly; a partial result is still a result.
		for path, content := range orch.State().Code {
			if err := root.WriteFile(path, content); err != nil {
				logger.LogError(err)
			}
		}

		if cfg.MemorySnapshots {
			if err := mem.SaveSnapshot(projectID, snapshotPath); err != nil {
				logger.LogError(err)
			}
		}

		bus.Unsubscribe("cli")
		wg.Wait()
		return runErr
	},
}

// printEvents renders the event stream for the terminal.
func printEvents(stream <-chan events.Event) {
	for event := range stream {
		switch payload := event.Payload.(type) {
		case events.PhaseChange:
			fmt.Printf("==> %s: %s\n", payload.Phase, payload.Message)
		case events.TaskStart:
			fmt.Printf("  - %s", payload.Description)
			if payload.File != "" {
				fmt.Printf(" (%s)", payload.File)
			}
			fmt.Println()
		case events.TasksUpdated:
			fmt.Printf("    [%d/%d tasks complete]\n", payload.CompletedCount, payload.TotalCount)
		case events.Validation:
			if payload.Valid {
				fmt.Println("  validation passed")
			} else {
				fmt.Printf("  validation found %d error(s)\n", len(payload.Errors))
			}
		case events.FixAttempt:
			fmt.Printf("  fix attempt %d/%d\n", payload.Attempt, payload.MaxAttempts)
		case events.Review:
			fmt.Printf("  review: %s (%d issue(s))\n", payload.Summary, payload.IssueCount)
		case events.Complete:
			fmt.Printf("Done: %s (%d file(s))\n", payload.Summary, len(payload.Code))
		case events.Error:
			fmt.Printf("Error: %s\n", payload.Message)
		}
	}
}

func init() {
	generateCmd.Flags().StringVarP(&generateOutputFlag, "output", "o", ".", "directory to write generated files into")
	generateCmd.Flags().StringVarP(&generateQualityFlag, "quality", "q", "", "quality profile: prototype, demo, or production")
}
