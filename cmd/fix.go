package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forgeloop/forged/pkg/autofix"
	"github.com/forgeloop/forged/pkg/config"
	"github.com/forgeloop/forged/pkg/filesystem"
	"github.com/forgeloop/forged/pkg/llmclient"
	"github.com/forgeloop/forged/pkg/memory"
	"github.com/forgeloop/forged/pkg/types"
	"github.com/forgeloop/forged/pkg/utils"
)

var fixMaxIterationsFlag int

var fixCmd = &cobra.Command{
	Use:   "fix [command]",
	Short: "Run a command, and if it fails, auto-fix the errors it reports",
	Long: `Runs a command and captures its output. Any errors in the output are
classified, prioritized, and repaired iteratively: rule-based strategies
first, then the configured completion service, re-running the command
after each fix until it passes or the iteration budget runs out.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		commandToRun := args[0]
		logger := utils.GetLogger(verboseFlag)

		cfg, err := config.LoadOrInit(".")
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		root, err := filesystem.NewRoot(".")
		if err != nil {
			return err
		}

		client, err := llmclient.NewOllamaClient(cfg.Model)
		if err != nil {
			// The rule-based strategies still work without a
			// completion service.
			logger.LogError(fmt.Errorf("completion service unavailable: %w", err))
			client = nil
		}

		validate := func(ctx context.Context) (types.ValidationResult, error) {
			c := exec.CommandContext(ctx, "sh", "-c", commandToRun)
			var outAndErr bytes.Buffer
			c.Stdout = &outAndErr
			c.Stderr = &outAndErr
			runErr := c.Run()

			output := strings.TrimSpace(outAndErr.String())
			if runErr == nil {
				return types.ValidationResult{Success: true}, nil
			}
			return types.ValidationResult{Errors: autofix.ParseOutput(output)}, nil
		}

		fileContent := func(path string) string {
			content, err := root.ReadFile(path)
			if err != nil {
				return ""
			}
			return content
		}

		engine := autofix.NewEngine(memory.NewService(), client, logger)
		maxIterations := fixMaxIterationsFlag
		if maxIterations == 0 {
			maxIterations = cfg.MaxFixIterations
		}

		session, err := engine.Run(cmd.Context(), ".", validate, engine.DefaultApplier(root), fileContent, maxIterations)
		if err != nil {
			return err
		}

		switch session.Status {
		case autofix.StatusCompleted:
			fmt.Printf("All errors resolved in %d iteration(s).\n", session.CurrentIteration)
		case autofix.StatusMaxIterationsReached:
			fmt.Printf("Partially fixed: %d error(s) remain after %d iteration(s).\n",
				len(session.UnresolvedErrors), session.CurrentIteration)
		default:
			fmt.Printf("Fix session ended with status %s.\n", session.Status)
		}
		return nil
	},
}

func init() {
	fixCmd.Flags().IntVarP(&fixMaxIterationsFlag, "max-iterations", "n", 0, "iteration budget (default from config)")
}
