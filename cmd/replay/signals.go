package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mkhoshkam/powerreplay/strategy"
)

func newSignalsCmd() *cobra.Command {
	var product string
	var freq time.Duration
	var lookback int
	var k1, k2 float64
	var openOffset, closeOffset time.Duration

	cmd := &cobra.Command{
		Use:   "signals",
		Short: "Replay the log, derive bars, and evaluate Dual Thrust signals for one product",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseRFC3339(product)
			if err != nil {
				return err
			}

			bars, err := runBars(product, freq)
			if err != nil {
				return err
			}

			if lookback <= 0 {
				lookback = cfg.Strategy.Lookback
			}
			if k1 <= 0 {
				k1 = cfg.Strategy.K1
			}
			if k2 <= 0 {
				k2 = cfg.Strategy.K2
			}
			if openOffset <= 0 {
				openOffset = cfg.Strategy.OpenOffset
			}
			if closeOffset < 0 {
				closeOffset = cfg.Strategy.CloseOffset
			}

			sc, err := strategy.NewConfig(strategy.Config{
				Lookback:      lookback,
				K1:            decimal.NewFromFloat(k1),
				K2:            decimal.NewFromFloat(k2),
				DeliveryStart: p,
				OpenOffset:    openOffset,
				CloseOffset:   closeOffset,
			})
			if err != nil {
				return err
			}

			signals := strategy.Evaluate(bars, sc)
			return printSignals(signals)
		},
	}

	cmd.Flags().StringVar(&product, "product", "", "product DeliveryStart, RFC3339 (required)")
	cmd.Flags().DurationVar(&freq, "freq", 0, "bar frequency, defaults to configured time_series.freq")
	cmd.Flags().IntVar(&lookback, "lookback", 0, "n, defaults to configured strategy.lookback")
	cmd.Flags().Float64Var(&k1, "k1", 0, "defaults to configured strategy.k1")
	cmd.Flags().Float64Var(&k2, "k2", 0, "defaults to configured strategy.k2")
	cmd.Flags().DurationVar(&openOffset, "open", 0, "defaults to configured strategy.open_offset")
	cmd.Flags().DurationVar(&closeOffset, "close", -1, "defaults to configured strategy.close_offset")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

func printSignals(signals []strategy.Signal) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSIGNAL\tUPPER\tLOWER")
	for _, s := range signals {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", s.Time.Format(time.RFC3339), s.Value, optDecimal(s.Upper), optDecimal(s.Lower))
	}
	return w.Flush()
}
