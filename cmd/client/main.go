package main

import (
	"fmt"
	"os"

	"github.com/MKhiriev/bank-mmudzi/internal/client"
	"github.com/MKhiriev/bank-mmudzi/internal/config"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	log := logger.NewConsoleLogger("mmudzictl", os.Stderr)
	if err := logger.SetLevel("warn"); err != nil {
		log.Fatal().Err(err).Msg("error setting log level")
	}

	cfg, err := config.GetClientConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	build := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
	app := client.NewApp(*cfg, build, log)
	if err = app.Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
