package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var verboseFlag bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "forged",
	Short: "LLM-driven code generation orchestrator",
	Long: `Forged coordinates multi-phase, LLM-driven code generation: it plans,
generates, validates, and iteratively repairs a body of generated source
code, selecting the minimal relevant context for each step.

Available commands:
  generate - Plan and generate code for a request
  fix      - Run a command and auto-fix the errors it reports
  graph    - Build and inspect the dependency graph of a workspace
  init     - Initialize forged configuration in the current directory`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It is called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// A .env in the working directory may carry OLLAMA_HOST and
	// FORGED_* overrides; absence is fine.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "echo process steps to stderr")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(initCmd)
}
