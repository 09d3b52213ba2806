package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kayz/techwatch/internal/logger"
)

var (
	logLevel   string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "techwatch",
	Short: "techwatch curated tech digest pipeline",
	Long: `techwatch collects items from community sources, deduplicates and
ranks them, and writes a digest with an LLM (or a plain template when no
provider is reachable).

Modes:
  techwatch run      Run the watch once and print the digest
  techwatch serve    Run on a schedule with an HTTP trigger endpoint
  techwatch history  Inspect the seen-items store
  techwatch runs     List archived runs`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Parse and set log level
		level, err := logger.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: techwatch.yaml next to the binary)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
