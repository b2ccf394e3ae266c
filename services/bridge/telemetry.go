package bridge

import (
	"scrapebridge/lib/telemetry"

	"go.opentelemetry.io/otel"
)

var tracer = telemetry.Tracer("scrapebridge.services.bridge")

var meter = otel.Meter("scrapebridge.services.bridge")
var requestCount, _ = meter.Int64Counter("bridge.requests")
var protocolErrorCount, _ = meter.Int64Counter("bridge.protocol_errors")
