package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"frequense-harvester/lib/configutil"
	"frequense-harvester/lib/serviceutil"
	"frequense-harvester/lib/telemetry"
	"frequense-harvester/services/harvest"
	harvestdb "frequense-harvester/services/harvest/db"
)

type Config struct {
	Port     int              `json:"port"`
	Verbose  bool             `json:"verbose"`
	Portal   harvest.Config   `json:"portal"`
	Database harvestdb.Config `json:"database"`
}

func main() {
	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if config.Port == 0 {
		config.Port = 8311
	}

	telemetry.InitSlog(config.Verbose)

	slog.Info("opening database...")
	sqlite, err := config.Database.OpenDB()
	if err != nil {
		serviceutil.Fatal("failed to open database", err)
	}
	store, err := harvestdb.NewStore(sqlite)
	if err != nil {
		serviceutil.Fatal("failed to initialize run log", err)
	}

	service := harvest.NewService(config.Portal, store)
	mux := http.NewServeMux()
	service.RegisterRoutes(mux)

	ctx := serviceutil.SignalContext()

	go serviceutil.StartHttpServer(config.Port, mux)

	tel, err := telemetry.SetupFromEnv(ctx, "cmd/harvester")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	if err == nil {
		defer tel.Shutdown(ctx)
		telemetry.InstrumentPerfStats(ctx)
	}

	<-ctx.Done()
}
