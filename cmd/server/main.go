package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/MKhiriev/bank-mmudzi/internal/config"
	"github.com/MKhiriev/bank-mmudzi/internal/handler"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/internal/metrics"
	"github.com/MKhiriev/bank-mmudzi/internal/server"
	"github.com/MKhiriev/bank-mmudzi/internal/service"
	"github.com/MKhiriev/bank-mmudzi/internal/store"
	"github.com/MKhiriev/bank-mmudzi/internal/workers"
	"github.com/MKhiriev/bank-mmudzi/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("mmudzi-server")
	cfg, err := config.GetStructuredConfig(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}
	if err = logger.SetLevel(cfg.App.LogLevel); err != nil {
		log.Warn().Err(err).Str("level", cfg.App.LogLevel).Msg("unknown log level, keeping default")
	}

	log.Debug().Any("arbiter", cfg.Arbiter).Any("sync", cfg.Sync).Any("server", cfg.Server).Msg("received configs")

	storages, err := store.NewStorages(context.Background(), cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}
	defer func() {
		if err := storages.Close(); err != nil {
			log.Err(err).Msg("error closing storages")
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	build := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
	services, err := service.NewServices(storages, *cfg, build, m, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating services")
	}

	handlers, err := handler.NewHandlers(services, registry, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	ws := workers.NewWorkers(cfg.Workers.ShutdownTimeout, log, services.SyncJob)

	srv, err := server.NewServer(handlers, ws, *cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	if err = srv.RunServer(); err != nil {
		log.Err(err).Msg("server stopped with error")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
