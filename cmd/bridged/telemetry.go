package main

import (
	"context"
	"log/slog"

	"scrapebridge/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	err := telemetry.SetupFromEnv(ctx, "bridged")
	if err != nil {
		// the worker is still useful without an exporter; say so
		// and keep going
		slog.WarnContext(ctx, "telemetry setup failed", "err", err)
		return
	}
	telemetry.InstrumentPerfStats(ctx)
}
