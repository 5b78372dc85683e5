package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"csfe-soap/cmd/soapctl/internal/cli"

	CharmLog "github.com/charmbracelet/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, cli.ErrFailure) {
			CharmLog.Error("soapctl", "error", err)
		}
		stop()
		os.Exit(1)
	}
}
