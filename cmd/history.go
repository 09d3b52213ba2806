package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the seen-items store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		stats, err := a.store.Stats()
		if err != nil {
			return fmt.Errorf("failed to read history stats: %w", err)
		}

		fmt.Printf("Tracked items:  %d\n", stats.TotalItems)
		fmt.Printf("Retention:      %d days\n", stats.RetentionDays)
		if stats.LastCleanup.IsZero() {
			fmt.Println("Last cleanup:   never")
		} else {
			fmt.Printf("Last cleanup:   %s\n", stats.LastCleanup.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
