package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"Finansle/internal/notifier"
)

var (
	tickerJSON   bool
	tickerOutput string
)

// tickerCmd collects a single ticker
var tickerCmd = &cobra.Command{
	Use:   "ticker SYMBOL",
	Short: "Collect and summarize one ticker",
	Long: `Collect one ticker outside the daily rotation. The exchange suffix is
appended when missing.

Examples:
  finansle ticker EQNR
  finansle ticker DNB.OL --json
  finansle ticker MOWI --output data/mowi.json`,
	Args: cobra.ExactArgs(1),
	RunE: runTicker,
}

func init() {
	rootCmd.AddCommand(tickerCmd)
	tickerCmd.Flags().BoolVar(&tickerJSON, "json", false, "Print the merged record as JSON")
	tickerCmd.Flags().StringVar(&tickerOutput, "output", "", "Also write the record to this file")
}

func runTicker(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	stock, err := newCollector(cfg).Collect(ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if tickerJSON {
		data, err := json.MarshalIndent(stock, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprint(out, notifier.FormatSummary(stock, cfg.Currency.Local))
		for _, w := range notifier.Warnings(stock) {
			fmt.Fprintf(out, "⚠️ %s\n", w)
		}
	}

	if tickerOutput == "" {
		return nil
	}
	rec, err := newRecorder(tickerOutput)
	if err != nil {
		return err
	}
	defer rec.Close()
	return rec.Record(stock)
}
