package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"csfe-soap/internal/config"
	"csfe-soap/internal/supervisor"

	CharmLog "github.com/charmbracelet/log"
)

var logger = CharmLog.NewWithOptions(os.Stderr, CharmLog.Options{
	ReportTimestamp: true,
	TimeFormat:      time.Kitchen,
	Prefix:          "Orchestrator Service 🎻",
})

func main() {
	logger.Info("Starting orchestrator...")

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatal("could not load config", "err", err)
	}
	if len(cfg.Services) == 0 {
		logger.Fatal("no services found in config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		logger.Info("caught signal; shutting down", "signal", sig)
		cancel()
	}()

	supervisor.New(cfg, logger).Run(ctx)
	logger.Info("Orchestrator shutdown complete")
}
