// Package supervisor launches the mock services as child processes and
// restarts them when they exit.
package supervisor

import (
	"context"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"csfe-soap/internal/config"

	CharmLog "github.com/charmbracelet/log"
)

type Supervisor struct {
	services     []config.ServiceEntry
	restartDelay time.Duration
	logger       *CharmLog.Logger

	Stdout io.Writer
	Stderr io.Writer
}

func New(cfg *config.Config, logger *CharmLog.Logger) *Supervisor {
	return &Supervisor{
		services:     cfg.Services,
		restartDelay: cfg.RestartDelay,
		logger:       logger,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
	}
}

// Run blocks until every service has stopped, either because ctx was
// cancelled or because it reached its retry limit.
func (s *Supervisor) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, svc := range s.services {
		wg.Add(1)
		go s.launch(ctx, svc, &wg)
	}
	wg.Wait()
}

func (s *Supervisor) launch(ctx context.Context, svc config.ServiceEntry, wg *sync.WaitGroup) {
	defer wg.Done()
	retries := 0
	s.logger.Info("Launching service", "name", svc.Name)

	for {
		if svc.MaxRetries > 0 && retries >= svc.MaxRetries {
			s.logger.Error("max retries reached", "service", svc.Name, "retries", retries)
			return
		}
		if ctx.Err() != nil {
			s.logger.Info("received stop signal", "name", svc.Name)
			return
		}

		retries++
		s.logger.Info("starting service", "service", svc.Name, "attempt", retries)

		cmd := exec.CommandContext(ctx, svc.Path)
		cmd.Stdout = s.Stdout
		cmd.Stderr = s.Stderr
		cmd.Env = append(os.Environ(), svc.Env...)

		if err := cmd.Start(); err != nil {
			s.logger.Error("failed to start service", "name", svc.Name, "err", err)
		} else {
			s.logger.Info("service started", "service", svc.Name, "pid", cmd.Process.Pid)
			err := cmd.Wait()
			s.logger.Warn("service exited, attempting restart", "service", svc.Name, "err", err)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("received stop signal", "name", svc.Name)
			return
		case <-time.After(s.restartDelay):
		}
	}
}
