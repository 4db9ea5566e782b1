package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkhoshkam/powerreplay/replay"
	"github.com/mkhoshkam/powerreplay/timeseries"
)

func newBarsCmd() *cobra.Command {
	var product string
	var freq time.Duration

	cmd := &cobra.Command{
		Use:   "bars",
		Short: "Replay the log and print the derived Bar series for one product",
		RunE: func(cmd *cobra.Command, args []string) error {
			bars, err := runBars(product, freq)
			if err != nil {
				return err
			}
			return printBars(bars)
		},
	}

	cmd.Flags().StringVar(&product, "product", "", "product DeliveryStart, RFC3339 (required)")
	cmd.Flags().DurationVar(&freq, "freq", 0, "bar frequency, defaults to the configured time_series.freq")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

func runBars(product string, freq time.Duration) ([]timeseries.Bar, error) {
	store, err := loadStore()
	if err != nil {
		return nil, err
	}
	p, err := parseRFC3339(product)
	if err != nil {
		return nil, err
	}
	if freq <= 0 {
		freq = cfg.TimeSeries.Freq
	}

	driver := replay.NewDriver(store)
	ticks, trades, err := driver.Run()
	if err != nil {
		return nil, err
	}

	return timeseries.Build(ticks, trades, p, freq), nil
}

func printBars(bars []timeseries.Bar) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tBEST_BID\tBEST_ASK\tMID\tVWAP\tTRADED_QTY\tBUY_VOL\tSELL_VOL")
	for _, b := range bars {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			b.Time.Format(time.RFC3339),
			optDecimal(b.BestBid), optDecimal(b.BestAsk), optDecimal(b.Mid), optDecimal(b.VWAP),
			b.TradedQty, b.BuyVol, b.SellVol,
		)
	}
	return w.Flush()
}
