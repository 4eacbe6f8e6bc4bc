package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"Finansle/internal/collector"
	"Finansle/internal/model"
	"Finansle/internal/notifier"
	"Finansle/internal/selector"
)

var (
	batchAll    bool
	batchOutput string
)

// batchCmd collects many tickers sequentially
var batchCmd = &cobra.Command{
	Use:   "batch [SYMBOL...]",
	Short: "Collect several tickers in one run",
	Long: `Collect the given tickers, or every listing with --all, one at a time
with the configured delay between tickers. Tickers that fail are reported
and skipped.

Examples:
  finansle batch EQNR DNB MOWI
  finansle batch --all --output data/batch.json`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().BoolVar(&batchAll, "all", false, "Collect every ticker in the listings file")
	batchCmd.Flags().StringVar(&batchOutput, "output", "data/batch.json", "Output file for the collected records")
}

func runBatch(cmd *cobra.Command, args []string) error {
	tickers := args
	if batchAll {
		listings, err := selector.LoadListings(cfg.Data.ListingsFile)
		if err != nil {
			return err
		}
		tickers = selector.Tickers(listings)
	}
	if len(tickers) == 0 {
		return errors.New("no tickers given, pass symbols or --all")
	}

	ctx, cancel := signalContext()
	defer cancel()

	rec, err := newRecorder(batchOutput)
	if err != nil {
		return err
	}
	defer rec.Close()

	log.Info().Int("tickers", len(tickers)).Dur("delay", cfg.Market.RequestDelay).Msg("starting batch")
	results := collector.NewBatch(newCollector(cfg), cfg.Market.RequestDelay).Run(ctx, tickers)

	var records []*model.StockRecord
	failed := make(map[string]error)
	for _, r := range results {
		if r.Err != nil {
			failed[r.Ticker] = r.Err
			continue
		}
		records = append(records, r.Record)
	}

	fmt.Fprint(cmd.OutOrStdout(), notifier.FormatBatchReport(records, failed))
	if len(records) == 0 {
		return fmt.Errorf("all %d tickers failed", len(tickers))
	}
	return rec.RecordAll(records)
}
