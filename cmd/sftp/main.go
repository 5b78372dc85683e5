package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"csfe-soap/cmd/sftp/internal/drop"
	"csfe-soap/cmd/sftp/internal/hostkey"
	"csfe-soap/internal/common"
	"csfe-soap/internal/config"

	CharmLog "github.com/charmbracelet/log"
)

var logger = CharmLog.NewWithOptions(os.Stderr, CharmLog.Options{
	ReportTimestamp: true,
	TimeFormat:      time.Kitchen,
	Prefix:          "SFTP Service 📁",
})

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatal("Could not load config", "error", err)
	}
	if level, err := CharmLog.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}

	d, err := drop.New(cfg.SFTP.Root, logger)
	if err != nil {
		logger.Fatal("Failed to open capture drop", "error", err)
	}

	signer, err := hostkey.Load(cfg.SFTP.HostKeyPath, logger)
	if err != nil {
		logger.Fatal("Failed to load host key", "error", err)
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.SFTPPort))
	if err != nil {
		logger.Fatal("Failed to listen on port", "port", cfg.Server.SFTPPort, "error", err)
	}
	defer listener.Close()

	logger.Info("SFTP server listening", "port", cfg.Server.SFTPPort)
	logger.Info("Server Details", "addr", listener.Addr(), "user", cfg.SFTP.User)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := d.Serve(ctx, listener, drop.ServerConfig(common.NewAuthenticator(cfg.Server.AuthToken), signer)); err != nil {
		logger.Fatal("SFTP server stopped", "error", err)
	}
	logger.Info("SFTP server shut down")
}
