package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	runsLimit int
	runsShow  string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List archived runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if a.archive == nil {
			return fmt.Errorf("run archive is unavailable")
		}

		if runsShow != "" {
			rec, err := a.archive.GetRun(runsShow)
			if err != nil {
				return fmt.Errorf("run %s not found: %w", runsShow, err)
			}
			fmt.Println(rec.Digest)
			return nil
		}

		recs, err := a.archive.ListRuns(runsLimit)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No archived runs.")
			return nil
		}

		for _, rec := range recs {
			mode := rec.Provider
			if rec.Degraded {
				mode = "degraded"
			}
			fmt.Printf("%s  %s  focus=%s  new=%d recall=%d errors=%d  [%s]\n",
				rec.StartedAt.Format("2006-01-02 15:04"),
				rec.RunID, rec.Focus, rec.Fresh, rec.Recall, len(rec.Errors), mode)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum runs to list")
	runsCmd.Flags().StringVar(&runsShow, "show", "", "Print the digest of one run by id")
	rootCmd.AddCommand(runsCmd)
}
