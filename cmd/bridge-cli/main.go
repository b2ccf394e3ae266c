package main

import (
	"context"

	"scrapebridge/cmd/bridge-cli/commands"
	"scrapebridge/lib/telemetry"
)

func main() {
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
