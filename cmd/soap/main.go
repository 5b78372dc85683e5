package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"csfe-soap/cmd/soap/internal/server"
	"csfe-soap/internal/common"
	"csfe-soap/internal/config"

	CharmLog "github.com/charmbracelet/log"
)

var logger = CharmLog.NewWithOptions(os.Stderr, CharmLog.Options{
	ReportTimestamp: true,
	TimeFormat:      time.Kitchen,
	Prefix:          "SOAP Service 🧼",
})

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatal("Could not load config", "error", err)
	}
	if level, err := CharmLog.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}

	srv := server.New(common.NewAuthenticator(cfg.Server.AuthToken), cfg.Server.SOAPPort, logger)

	logger.Info(fmt.Sprintf("Listening on port %d", cfg.Server.SOAPPort))
	logger.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.SOAPPort), srv.Routes()))
}
