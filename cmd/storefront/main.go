// Package main runs the storefront web server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "net/http/pprof"

	"github.com/abgdnv/storefront/internal/storefront/app"
	"github.com/abgdnv/storefront/internal/storefront/config"
	"github.com/abgdnv/storefront/pkg/bootstrap"
	"github.com/abgdnv/storefront/pkg/config/configloader"
	"github.com/abgdnv/storefront/pkg/server"
	"github.com/abgdnv/storefront/pkg/telemetry"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run loads the configuration, wires the storefront and serves it until ctx is cancelled.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](app.ServiceName, configloader.WithDefaults(config.Defaults()))
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	if cfg.Telemetry.Enabled {
		tp, err := telemetry.NewTracerProvider(ctx, app.ServiceName, cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("failed to create tracer provider: %w", err)
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("failed to shutdown tracer provider", "error", err)
			}
		}()
	}

	metrics, err := telemetry.NewMetrics(app.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	defer func() {
		_ = metrics.Provider.Shutdown(context.Background())
	}()

	catalogClient, err := app.NewCatalogClient(cfg.Catalog, logger)
	if err != nil {
		return fmt.Errorf("failed to create catalog client: %w", err)
	}
	deps, err := app.SetupDependencies(cfg, catalogClient, metrics, logger)
	if err != nil {
		return fmt.Errorf("failed to set up dependencies: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	server.Serve(gCtx, g, app.SetupHttpServer(deps, cfg), "http", cfg.Shutdown.Timeout, logger)
	if cfg.PProf.Enabled {
		// the pprof server uses http.DefaultServeMux
		server.Serve(gCtx, g, &http.Server{Addr: cfg.PProf.Addr}, "pprof", cfg.Shutdown.Timeout, logger)
	}
	g.Go(func() error {
		return deps.Sessions.Run(gCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}
