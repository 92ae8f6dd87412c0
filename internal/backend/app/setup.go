// Package app contains the application setup for the catalog backend.
package app

import (
	"log/slog"
	"net/http"

	"github.com/abgdnv/storefront/internal/backend/config"
	"github.com/abgdnv/storefront/internal/backend/service"
	"github.com/abgdnv/storefront/internal/backend/store"
	"github.com/abgdnv/storefront/internal/backend/transport/rest"
	"github.com/abgdnv/storefront/pkg/messaging"
	"github.com/abgdnv/storefront/pkg/server"
	"github.com/abgdnv/storefront/pkg/telemetry"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const ServiceName = "catalog"

// Stores holds one collection per entity.
type Stores struct {
	Products store.Collection[service.Product]
	Users    store.Collection[service.User]
	Orders   store.Collection[service.Order]
}

// NewPgStores backs every entity by the PostgreSQL documents table.
func NewPgStores(db store.DBTX) Stores {
	return Stores{
		Products: store.NewPgCollection[service.Product](db, service.ProductsCollection),
		Users:    store.NewPgCollection[service.User](db, service.UsersCollection),
		Orders:   store.NewPgCollection[service.Order](db, service.OrdersCollection),
	}
}

// NewMongoStores backs every entity by a MongoDB collection of the same name.
func NewMongoStores(db *mongo.Database) Stores {
	return Stores{
		Products: store.NewMongoCollection[service.Product](db, service.ProductsCollection),
		Users:    store.NewMongoCollection[service.User](db, service.UsersCollection),
		Orders:   store.NewMongoCollection[service.Order](db, service.OrdersCollection),
	}
}

type Dependencies struct {
	ProductService service.ProductService
	UserService    service.UserService
	OrderService   service.OrderService
	Metrics        *telemetry.Metrics
	Logger         *slog.Logger
}

// SetupDependencies builds the services over stores. A nil cache disables product list caching.
func SetupDependencies(stores Stores, cache store.Cache, publisher messaging.Publisher, metrics *telemetry.Metrics, logger *slog.Logger) (*Dependencies, error) {
	products := service.NewProductService(stores.Products, cache, logger)
	users := service.NewUserService(stores.Users, logger)
	orders, err := service.NewOrderService(stores.Orders, products, users, publisher, metrics.Provider.Meter(ServiceName), logger)
	if err != nil {
		return nil, err
	}
	return &Dependencies{
		ProductService: products,
		UserService:    users,
		OrderService:   orders,
		Metrics:        metrics,
		Logger:         logger,
	}, nil
}

// SetupHttpHandler builds the router serving the REST API and /metrics.
// Used by tests to exercise the full middleware stack.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(ServiceName, deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	handler := rest.NewHandler(deps.ProductService, deps.UserService, deps.OrderService, service.NewValidator(), deps.Logger)
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", deps.Metrics.Handler)
}

// SetupHttpServer creates and configures the catalog HTTP server.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps))
}
