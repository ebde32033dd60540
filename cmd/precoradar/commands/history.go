package commands

import (
	"os"

	"precoradar/lib/serviceutil"
	"precoradar/services/compare/reportstore"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyDb *string

func init() {
	historyDb = historyCmd.Flags().String("db", "history.db", "The price history database to read.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history <product query> [--db <history.db>]",
	Short: "Prints the recorded price-per-kg series for a product, oldest first.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, err := reportstore.Open(*historyDb)
		if err != nil {
			serviceutil.Fatal("failed to open history database", err)
		}
		defer store.Close()

		points, err := store.History(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("failed to read history", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Date", "Retailer", "R$/kg"})
		for _, p := range points {
			t.AppendRow(table.Row{
				p.Time.Format("2006-01-02 15:04"),
				p.Retailer,
				p.PricePerKg.StringFixed(2),
			})
		}
		t.Render()
	},
}
