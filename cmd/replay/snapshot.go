package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newSnapshotCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print the set of resting orders active at a given instant",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := loadStore()
			if err != nil {
				return err
			}
			t, err := parseRFC3339(at)
			if err != nil {
				return err
			}

			orders := store.Snapshot(t)
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "INITIAL_ID\tSIDE\tPRICE\tQUANTITY\tDELIVERY_START")
			for _, o := range orders {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", o.InitialID, o.Side, o.Price, o.Quantity, o.DeliveryStart.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "instant to query, RFC3339 (required)")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}
