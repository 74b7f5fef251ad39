package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"sentinel/config"
	"sentinel/internal/api"
	"sentinel/internal/logger"
	"sentinel/internal/pipeline"
)

type monitorOptions struct {
	noFeed bool
}

func newMonitorCmd(root *rootOptions) *cobra.Command {
	opts := &monitorOptions{}
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Consume the interaction change feed and serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}
			logger.Infof("Config loaded from: %s", path)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runMonitor(ctx, &cfg.Sentinel, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.noFeed, "no-feed", false, "Serve the HTTP API only; do not consume the Redis change feed")
	return cmd
}

func loadConfig(path string) (*config.Config, string, error) {
	cfg, resolved, err := config.Load(path)
	if err != nil {
		return nil, resolved, err
	}
	l := cfg.Sentinel.Logging
	if err := logger.Init(l.Enabled, l.Level, l.File, l.Console); err != nil {
		return nil, resolved, fmt.Errorf("initialize logger: %w", err)
	}
	return cfg, resolved, nil
}

func runMonitor(ctx context.Context, cfg *config.SentinelConfig, opts *monitorOptions) error {
	logger.Infof("Sentinel starting")

	svc, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Errorf("Error closing stores: %v", err)
		}
	}()

	if opts.noFeed && !cfg.API.Enabled {
		return errors.New("--no-feed requires api.enabled")
	}

	var pipe *pipeline.Pipeline
	if !opts.noFeed {
		queue, err := newQueue(cfg)
		if err != nil {
			return fmt.Errorf("create Redis queue: %w", err)
		}
		logger.Infof("Change feed: redis %s key=%s dead_letter=%s", cfg.Input.Redis.Addr, cfg.Input.Redis.Key, cfg.Input.Redis.DeadLetterKey)
		pipe = pipeline.New(queue, svc.monitor, svc.metrics, cfg.Pipeline.Workers)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	if cfg.API.Enabled {
		gin.SetMode(gin.ReleaseMode)
		h := &api.Handler{
			Monitor:      svc.monitor,
			Interactions: svc.backend.interactions,
			Alerts:       svc.lister,
		}
		if cfg.Metrics.Enabled {
			h.Metrics = svc.metrics
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := api.Serve(ctx, cfg.API.Addr, h.Router()); err != nil {
				errCh <- fmt.Errorf("http api: %w", err)
			}
		}()
	}

	if pipe != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := pipe.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("pipeline: %w", err)
			}
			if err := pipe.Close(); err != nil {
				logger.Errorf("Error closing pipeline: %v", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	logger.Infof("Shutting down")
	cancel()
	wg.Wait()
	logger.Infof("Sentinel stopped")
	return runErr
}
