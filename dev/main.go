// Command dev scaffolds a local working directory: sample config.json5,
// telemetry.json5 and products.txt next to go.mod, so `precoradar
// compare` can run against real storefronts right away.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
)

const sampleConfig = `{
	// delete a retailer section to leave it out of the run
	tenda: {
		postal_code: "13187-227",
		delivery_mode: "delivery",
		request_interval_ms: 1500,
	},
	arena: {
		postal_code: "13187-227",
		delivery_mode: "pickup",
		request_interval_ms: 1000,
	},
	goodbom: {
		postal_code: "13187-227",
		request_interval_ms: 1000,
	},
	compare: {
		candidate_limit: 15,
		max_retries: 3,
		backoff_base_ms: 500,
		concurrency: 4,
		timeout_sec: 600,
	},
}
`

const sampleTelemetry = `{
	otlp: {
		traces: {
			grpc_endpoint: "http://localhost:4317",
		},
		metrics: {
			grpc_endpoint: "http://localhost:4317",
		},
	},
}
`

const sampleProducts = `# one product per line, weights in grams
Bacon Defumado 500g
Arroz Branco 1000g
Feijao Carioca 1000g
Queijo Mussarela 400g
`

func create(recreate bool) error {
	_, err := os.Stat("go.mod")
	if os.IsNotExist(err) {
		return fmt.Errorf("the dev environment must be created in the repository root (the same directory as the 'go.mod' file)")
	}

	files := map[string]string{
		"config.json5":    sampleConfig,
		"telemetry.json5": sampleTelemetry,
		"products.txt":    sampleProducts,
	}
	for name, contents := range files {
		_, err := os.Stat(name)
		if err == nil && !recreate {
			slog.Info("file already exists, skipping", "name", name)
			continue
		}
		err = os.WriteFile(name, []byte(contents), 0644)
		if err != nil {
			return err
		}
		slog.Info("wrote sample file", "name", name)
	}
	return nil
}

func main() {
	recreate := flag.Bool("recreate", false, "Overwrite existing config files.")
	flag.Parse()

	err := create(*recreate)
	if err != nil {
		slog.Error("failed to create dev environment", "err", err)
		os.Exit(1)
	}
}
