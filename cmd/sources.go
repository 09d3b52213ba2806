package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kayz/techwatch/internal/config"
	"github.com/kayz/techwatch/internal/sources"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the available source ids",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			cfg = config.DefaultConfig()
		}
		for _, id := range sources.NewRegistry(cfg.Sources).List() {
			fmt.Println(id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
