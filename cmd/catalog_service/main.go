// Package main runs the catalog backend: products, users and orders over REST.
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

	"github.com/abgdnv/storefront/internal/backend/app"
	"github.com/abgdnv/storefront/internal/backend/config"
	"github.com/abgdnv/storefront/internal/backend/migrations"
	"github.com/abgdnv/storefront/internal/backend/service"
	"github.com/abgdnv/storefront/internal/backend/store"
	"github.com/abgdnv/storefront/pkg/bootstrap"
	pkgconfig "github.com/abgdnv/storefront/pkg/config"
	"github.com/abgdnv/storefront/pkg/config/configloader"
	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/abgdnv/storefront/pkg/nats"
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

// run initializes storage, the cache and the event publisher, then starts the HTTP and pprof servers.
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

	stores, closeStores, err := openStores(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	var cache store.Cache
	if cfg.Redis.Enabled {
		rdb, err := bootstrap.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		cache = store.NewRedisCache(rdb, service.ProductsCollection, cfg.Redis.TTL)
		logger.Info("product list cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}

	publisher, closePublisher, err := newPublisher(ctx, cfg.Nats, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	deps, err := app.SetupDependencies(stores, cache, publisher, metrics, logger)
	if err != nil {
		return fmt.Errorf("failed to set up dependencies: %w", err)
	}

	if cfg.Seed.Enabled {
		n, err := deps.ProductService.Seed(ctx, service.SampleProducts())
		if err != nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}
		if n > 0 {
			logger.Info("catalog seeded", "products", n)
		}
	}

	g, gCtx := errgroup.WithContext(ctx)

	server.Serve(gCtx, g, app.SetupHttpServer(deps, cfg), "http", cfg.Shutdown.Timeout, logger)
	if cfg.PProf.Enabled {
		// the pprof server uses http.DefaultServeMux
		server.Serve(gCtx, g, &http.Server{Addr: cfg.PProf.Addr}, "pprof", cfg.Shutdown.Timeout, logger)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// openStores connects to the configured database and returns the entity collections with a close func.
func openStores(ctx context.Context, cfg pkgconfig.DatabaseConfig, logger *slog.Logger) (app.Stores, func(), error) {
	switch cfg.Driver {
	case pkgconfig.DriverMongo:
		client, err := bootstrap.NewMongoClient(ctx, cfg.URL, cfg.Timeout)
		if err != nil {
			return app.Stores{}, nil, err
		}
		logger.Info("connected to mongo", "database", cfg.Name)
		return app.NewMongoStores(client.Database(cfg.Name)), func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Error("failed to disconnect mongo", "error", err)
			}
		}, nil
	default:
		if cfg.Migrate {
			if err := migrations.Up(cfg.URL); err != nil {
				return app.Stores{}, nil, fmt.Errorf("failed to apply migrations: %w", err)
			}
		}
		pool, err := bootstrap.NewDbPool(ctx, cfg.URL, cfg.Timeout)
		if err != nil {
			return app.Stores{}, nil, err
		}
		logger.Info("connected to postgres")
		return app.NewPgStores(pool), pool.Close, nil
	}
}

// newPublisher returns a JetStream publisher when NATS is enabled and a log publisher otherwise.
func newPublisher(ctx context.Context, cfg pkgconfig.NATSConfig, logger *slog.Logger) (messaging.Publisher, func(), error) {
	if !cfg.Enabled {
		return messaging.NewLogPublisher(logger), func() {}, nil
	}
	nc, err := nats.NewClient(cfg.Url, cfg.Timeout)
	if err != nil {
		return nil, nil, err
	}
	js, err := nats.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}
	if err := nats.EnsureStream(ctx, js, cfg.Stream, messaging.OrdersCreatedSubject); err != nil {
		nc.Close()
		return nil, nil, err
	}
	logger.Info("connected to NATS", "stream", cfg.Stream)
	return nats.NewNatsPublisher(js), func() {
		if err := nc.Drain(); err != nil {
			logger.Error("failed to drain NATS connection", "error", err)
		}
	}, nil
}
