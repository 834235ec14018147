package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bawa-networks/provision-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "provision-cli",
	Short: "Provisioning order report pipeline",
	Long:  "Stages provisioning order messages, extracts circuit data from their PDF attachments, classifies each order by disconnect type, and writes configurator workbooks.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
