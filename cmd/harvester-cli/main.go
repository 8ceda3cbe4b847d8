package main

import (
	"context"

	"frequense-harvester/cmd/harvester-cli/commands"
	"frequense-harvester/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false)
	telemetry.SetupFromEnv(context.Background(), "harvester-cli")
	commands.ExecuteContext(context.Background())
}
