package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kayz/techwatch/internal/notify"
	"github.com/kayz/techwatch/internal/pipeline"
)

var (
	runFocus   string
	runPeriod  string
	runMax     int
	runDeliver bool
)

var runCmd = &cobra.Command{
	Use:   "run [query]",
	Short: "Run the watch once and print the digest",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		intent := pipeline.Intent{
			Query:        strings.Join(args, " "),
			Focus:        pipeline.Focus(runFocus),
			Period:       runPeriod,
			MaxPerSource: runMax,
		}
		if intent.Query == "" {
			intent.Query = a.cfg.Schedule.Query
		}
		if intent.Query == "" {
			intent.Query = "what's new in tech?"
		}

		run := a.pipe.Run(cmd.Context(), intent)
		a.archiveRun(run)

		fmt.Println(run.Digest())

		if runDeliver && len(a.notifiers) > 0 {
			return notify.Broadcast(context.Background(), a.notifiers, run.Digest())
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runFocus, "focus", "general",
		"Focus area: general, ai, devops, web, security, tools, all")
	runCmd.Flags().StringVar(&runPeriod, "period", "today",
		"Time window: today, week, month")
	runCmd.Flags().IntVar(&runMax, "max-items", 10,
		"Maximum items fetched per source")
	runCmd.Flags().BoolVar(&runDeliver, "deliver", false,
		"Also send the digest to configured chat destinations")
	rootCmd.AddCommand(runCmd)
}
