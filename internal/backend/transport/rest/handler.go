// Package rest provides the HTTP API of the catalog backend.
package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	berrors "github.com/abgdnv/storefront/internal/backend/errors"
	"github.com/abgdnv/storefront/internal/backend/service"
	"github.com/abgdnv/storefront/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

// MaxPageSize bounds the limit query parameter of list endpoints.
const MaxPageSize = 1000

type Handler struct {
	products service.ProductService
	users    service.UserService
	orders   service.OrderService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(
	products service.ProductService,
	users service.UserService,
	orders service.OrderService,
	validate *validator.Validate,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		products: products,
		users:    users,
		orders:   orders,
		validate: validate,
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes of the catalog backend.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.FindProducts)
		r.Post("/", h.CreateProduct)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindProductByID)
			r.Put("/", h.UpdateProduct)
			r.Delete("/", h.DeleteProduct)
		})
	})

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Get("/", h.FindUsers)
		r.Post("/", h.CreateUser)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindUserByID)
			r.Put("/", h.UpdateUser)
			r.Delete("/", h.DeleteUser)
		})
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Get("/", h.FindOrders)
		r.Post("/", h.CreateOrder)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindOrderByID)
			r.Put("/", h.UpdateOrder)
			r.Delete("/", h.DeleteOrder)
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// page reads the mandatory limit and offset query parameters.
func (h *Handler) page(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (offset, limit int, ok bool) {
	l, ok := web.ParseValidateBetween(r, w, logger, "limit", 1, MaxPageSize)
	if !ok {
		return 0, 0, false
	}
	o, ok := web.ParseValidateGte(r, w, logger, "offset", 0)
	if !ok {
		return 0, 0, false
	}
	return int(o), int(l), true
}

// respondServiceError maps service errors onto status codes.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, action, entity string, id int64) {
	switch {
	case errors.Is(err, berrors.ErrProductNotFound), errors.Is(err, berrors.ErrUserNotFound), errors.Is(err, berrors.ErrOrderNotFound):
		logger.WarnContext(r.Context(), "Entity not found", "entity", entity, "ID", id, "error", err)
		web.RespondError(w, logger, http.StatusNotFound, notFoundMessage(err, entity, id))
	case errors.Is(err, berrors.ErrOptimisticLock):
		logger.WarnContext(r.Context(), "Version conflict", "entity", entity, "ID", id)
		web.RespondError(w, logger, http.StatusConflict, fmt.Sprintf("%s with ID %d was modified concurrently", entity, id))
	case errors.Is(err, berrors.ErrEmailTaken):
		logger.WarnContext(r.Context(), "Email already registered", "error", err)
		web.RespondError(w, logger, http.StatusConflict, "Email already registered")
	case errors.Is(err, berrors.ErrInvalidInput):
		web.RespondError(w, logger, http.StatusBadRequest, err.Error())
	default:
		logger.ErrorContext(r.Context(), "Error during "+action, "entity", entity, "ID", id, "error", err)
		if id != 0 {
			web.RespondError(w, logger, http.StatusInternalServerError, fmt.Sprintf("Failed to %s %s with ID %d", action, entity, id))
			return
		}
		web.RespondError(w, logger, http.StatusInternalServerError, fmt.Sprintf("Failed to %s %s", action, entity))
	}
}

// notFoundMessage names the entity that was actually missing, which for orders may be a product or user.
func notFoundMessage(err error, entity string, id int64) string {
	switch {
	case errors.Is(err, berrors.ErrProductNotFound) && entity != "Product":
		return "Referenced product not found"
	case errors.Is(err, berrors.ErrUserNotFound) && entity != "User":
		return "Referenced user not found"
	}
	return fmt.Sprintf("%s with ID %d not found", entity, id)
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
