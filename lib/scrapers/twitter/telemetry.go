package twitter

import "scrapebridge/lib/telemetry"

var tracer = telemetry.Tracer("scrapebridge.lib.scrapers.twitter")
