// bridged is the scraping worker: it is spawned by a host process,
// announces readiness on stdout and then serves line-delimited
// JSON-RPC requests from stdin until the stream closes.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"scrapebridge/lib/configutil"
	"scrapebridge/lib/jsonrpc"
	"scrapebridge/lib/scrapers/twitter"
	"scrapebridge/services/bridge"
)

type Config struct {
	Locale    string `json:"locale"`
	SessionDB string `json:"session_db"`
}

// reportStartupFailure emits the capability-unavailable line the host
// process expects before it has issued any request, then exits 1.
func reportStartupFailure(err error) {
	line, _ := json.Marshal(jsonrpc.NewError(nil, jsonrpc.CodeCapabilityUnavailable, err.Error()))
	fmt.Fprintln(os.Stdout, string(line))
	os.Exit(1)
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := context.Background()

	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config]("bridge.json5")
	if err != nil && !os.IsNotExist(err) {
		reportStartupFailure(fmt.Errorf("read config: %w", err))
	}
	if cfg.Locale == "" {
		cfg.Locale = "en-US"
	}

	capability, err := twitter.NewClient(ctx, twitter.ClientOptions{
		Locale:    cfg.Locale,
		SessionDB: cfg.SessionDB,
	})
	if err != nil {
		reportStartupFailure(fmt.Errorf("twitter client unavailable: %w", err))
	}
	defer capability.Close()

	service := bridge.NewService(capability)
	loop := bridge.NewLoop(service, os.Stdin, os.Stdout)

	err = loop.Run(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "protocol loop failed", "err", err)
		os.Exit(1)
	}
}
