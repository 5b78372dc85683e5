package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"csfe-soap/cmd/rest/internal/api"
	"csfe-soap/internal/common"
	"csfe-soap/internal/config"

	CharmLog "github.com/charmbracelet/log"
)

var logger = CharmLog.NewWithOptions(os.Stderr, CharmLog.Options{
	ReportTimestamp: true,
	TimeFormat:      time.Kitchen,
	Prefix:          "REST Service📡",
})

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatal("Could not load config", "error", err)
	}
	if level, err := CharmLog.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}

	router := api.New(common.NewAuthenticator(cfg.Server.AuthToken), logger).Routes()

	logger.Info(fmt.Sprintf("Listening on :%d", cfg.Server.RESTPort))
	logger.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.RESTPort), router))
}
