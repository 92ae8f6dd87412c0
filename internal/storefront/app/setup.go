// Package app contains the application setup for the storefront.
package app

import (
	"log/slog"
	"net/http"

	"github.com/abgdnv/storefront/internal/storefront/catalog"
	"github.com/abgdnv/storefront/internal/storefront/config"
	"github.com/abgdnv/storefront/internal/storefront/session"
	"github.com/abgdnv/storefront/internal/storefront/transport/page"
	"github.com/abgdnv/storefront/pkg/client/resilience"
	"github.com/abgdnv/storefront/pkg/server"
	"github.com/abgdnv/storefront/pkg/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const ServiceName = "storefront"

type Dependencies struct {
	Sessions *session.Manager
	Handler  *page.Handler
	Metrics  *telemetry.Metrics
	Logger   *slog.Logger
}

// NewCatalogClient builds the catalog HTTP client with tracing and a circuit breaker.
func NewCatalogClient(cfg config.CatalogConfig, logger *slog.Logger) (*catalog.Client, error) {
	breaker := resilience.NewCircuitBreaker("catalog-service-cb", cfg.CircuitBreaker)
	httpClient := &http.Client{
		Transport: otelhttp.NewTransport(resilience.NewTransport(http.DefaultTransport, breaker)),
	}
	return catalog.NewClient(catalog.Config{
		BaseURL:  cfg.BaseURL,
		PageSize: cfg.PageSize,
		Timeout:  cfg.Timeout,
	}, httpClient, logger)
}

// SetupDependencies wires the session manager and the page handler around loader.
func SetupDependencies(cfg *config.Config, loader catalog.Loader, metrics *telemetry.Metrics, logger *slog.Logger) (*Dependencies, error) {
	sessionCfg := session.Config{
		Slides:           len(cfg.Storefront.Slides),
		CarouselInterval: cfg.Carousel.Interval,
		ResetOnNavigate:  cfg.Carousel.ResetOnNavigate,
		NewsletterDelay:  cfg.Newsletter.Delay,
	}
	manager, err := session.NewManager(sessionCfg, loader, cfg.Session.IdleTimeout,
		metrics.Provider.Meter(ServiceName), logger)
	if err != nil {
		return nil, err
	}

	cookies := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Session.IdleTimeout.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	handler, err := page.NewHandler(manager, cookies, page.Content{
		Slides: cfg.Storefront.Slides,
		Brands: cfg.Storefront.Brands,
	}, logger)
	if err != nil {
		return nil, err
	}
	return &Dependencies{Sessions: manager, Handler: handler, Metrics: metrics, Logger: logger}, nil
}

// SetupHttpHandler builds the router serving the storefront and /metrics.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(ServiceName, deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	deps.Handler.RegisterRoutes(mux)
	mux.Handle("/metrics", deps.Metrics.Handler)
}

// SetupHttpServer creates and configures the storefront HTTP server.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps))
}
