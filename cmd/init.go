package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgeloop/forged/pkg/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize forged configuration in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrInit(".")
		if err != nil {
			return fmt.Errorf("failed to initialize configuration: %w", err)
		}
		fmt.Printf("Initialized .forged/config.json (model: %s, quality: %s)\n", cfg.Model, cfg.Quality)
		return nil
	},
}
