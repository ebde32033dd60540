package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"precoradar/lib/catalog"
	"precoradar/lib/configutil"
	"precoradar/lib/retailer"
	"precoradar/lib/retailer/arena"
	"precoradar/lib/retailer/goodbom"
	"precoradar/lib/retailer/tenda"
	"precoradar/lib/serviceutil"
	"precoradar/lib/telemetry"
	"precoradar/services/compare"
	"precoradar/services/compare/reportstore"

	"github.com/spf13/cobra"
)

// Config wires the storefront sessions and orchestrator knobs. A nil
// retailer section leaves that adapter out of the run.
type Config struct {
	Tenda   *retailer.Options `json:"tenda"`
	Arena   *retailer.Options `json:"arena"`
	Goodbom *retailer.Options `json:"goodbom"`
	Compare compare.Config    `json:"compare"`
}

var (
	compareCatalog *string
	compareOut     *string
	compareDb      *string
)

func init() {
	compareCatalog = compareCmd.Flags().String("catalog", "products.txt", "The product list to shop for, one query per line.")
	compareOut = compareCmd.Flags().String("out", "report.json", "Where to write the report.")
	compareDb = compareCmd.Flags().String("db", "", "Optionally append the run to a price history database.")
	rootCmd.AddCommand(compareCmd)
}

func buildAdapters(cfg Config) ([]retailer.Adapter, func()) {
	var adapters []retailer.Adapter
	closers := []func(){}

	if cfg.Tenda != nil {
		adapter, err := tenda.New(*cfg.Tenda)
		if err != nil {
			serviceutil.Fatal("failed to start tenda browser", err)
		}
		adapters = append(adapters, adapter)
		closers = append(closers, adapter.Close)
	}
	if cfg.Arena != nil {
		adapters = append(adapters, arena.New(*cfg.Arena))
	}
	if cfg.Goodbom != nil {
		adapters = append(adapters, goodbom.New(*cfg.Goodbom))
	}

	return adapters, func() {
		for _, close := range closers {
			close()
		}
	}
}

var compareCmd = &cobra.Command{
	Use:   "compare [--catalog <products.txt>] [--out <report.json>] [--db <history.db>]",
	Short: "Searches every configured retailer and reports the cheapest offer per kilogram.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		t, err := telemetry.SetupFromEnv(ctx, "precoradar")
		if err != nil {
			serviceutil.Fatal("failed to setup telemetry", err)
		}
		defer t.Shutdown(context.Background())

		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		products, err := catalog.ReadFile(*compareCatalog)
		if err != nil {
			serviceutil.Fatal("failed to read catalog", err)
		}
		if len(products) == 0 {
			slog.Warn("catalog is empty, nothing to do", "path", *compareCatalog)
			return
		}

		adapters, closeAdapters := buildAdapters(cfg)
		defer closeAdapters()
		if len(adapters) == 0 {
			serviceutil.Fatal("no retailers enabled", errors.New("config.json5 has no retailer section"))
		}

		slog.Info("comparing prices", "products", len(products), "retailers", len(adapters))

		t1 := time.Now()
		report := compare.Run(ctx, products, adapters, cfg.Compare)
		t2 := time.Now()

		slog.Info(
			"run finished",
			"seconds", t2.Sub(t1).Seconds(),
			"matched", len(report.BestOffers),
			"unmatched", len(report.Unmatched),
			"totalSpend", report.TotalSpend.StringFixed(2),
		)

		sink := compare.FileSink{Path: *compareOut}
		if err := sink.Store(ctx, report); err != nil {
			serviceutil.Fatal("failed to write report", err)
		}

		if *compareDb != "" {
			store, err := reportstore.Open(*compareDb)
			if err != nil {
				serviceutil.Fatal("failed to open history database", err)
			}
			defer store.Close()
			if err := store.Store(ctx, report); err != nil {
				serviceutil.Fatal("failed to record history", err)
			}
		}
	},
}
