package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mkhoshkam/powerreplay/event"
	"github.com/mkhoshkam/powerreplay/replay"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Load the event log and replay it, printing a per-product summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := loadStore()
			if err != nil {
				return err
			}
			logger.Info("loaded event log",
				zap.Int("events", len(store.Events())),
				zap.Int("products", len(store.Products())),
			)

			driver := replay.NewDriver(store)
			ticks, trades, err := driver.Run()
			if err != nil {
				return err
			}
			logger.Info("replay complete",
				zap.Int("ticks", len(ticks)),
				zap.Int("trades", len(trades)),
			)

			return printRunSummary(store, ticks, trades)
		},
	}
}

func printRunSummary(store *event.Store, ticks replay.TickTable, trades replay.TradeTable) error {
	tickCount := map[time.Time]int{}
	for _, t := range ticks {
		tickCount[t.ProductKey]++
	}
	tradeCount := map[time.Time]int{}
	for _, t := range trades {
		tradeCount[t.ProductKey]++
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tTICKS\tTRADES")
	for _, p := range store.Products() {
		fmt.Fprintf(w, "%s\t%d\t%d\n", p.Format(time.RFC3339), tickCount[p], tradeCount[p])
	}
	return w.Flush()
}
