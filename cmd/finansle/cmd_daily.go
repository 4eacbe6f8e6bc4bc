package main

import (
	"github.com/spf13/cobra"

	"Finansle/internal/scheduler"
)

// dailyCmd generates today's stock of the day once and exits
var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Generate today's stock of the day",
	Long: `Pick the stock of the day from the listings file, collect and reconcile
its data and write the merged record to the output file.

Examples:
  finansle daily
  finansle daily --config configs/prod.yaml
  finansle daily --dry-run`,
	RunE: runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	rec, err := newRecorder(cfg.Data.OutputFile)
	if err != nil {
		return err
	}
	defer rec.Close()

	sched := scheduler.NewScheduler(ctx, newCollector(cfg), rec, cfg.Data.ListingsFile, cfg.Currency.Local)
	sched.Out = cmd.OutOrStdout()
	_, err = sched.RunDailyNow()
	return err
}
