package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"Finansle/internal/scheduler"
)

var runOnStart bool

// serveCmd keeps running and generates the stock of the day on schedule
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daily job on the configured cron schedule",
	Long: `Run in the foreground and generate the stock of the day according to
schedule.daily_cron (seconds field first). Stops on SIGINT or SIGTERM.

Examples:
  finansle serve
  finansle serve --run-on-start`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "Run the daily job once immediately")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	rec, err := newRecorder(cfg.Data.OutputFile)
	if err != nil {
		return err
	}
	defer rec.Close()

	sched := scheduler.NewScheduler(ctx, newCollector(cfg), rec, cfg.Data.ListingsFile, cfg.Currency.Local)
	sched.Out = cmd.OutOrStdout()
	if err := sched.Register(cfg.Schedule.DailyCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if runOnStart {
		log.Info().Msg("run-on-start enabled, executing daily task now")
		go func() {
			if _, err := sched.RunDailyNow(); err != nil {
				log.Error().Err(err).Msg("daily task failed")
			}
		}()
	}

	log.Info().Str("cron", cfg.Schedule.DailyCron).Msg("Finansle is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping...")
	return nil
}
