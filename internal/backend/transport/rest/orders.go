package rest

import (
	"net/http"

	"github.com/abgdnv/storefront/internal/backend/service"
	"github.com/abgdnv/storefront/pkg/web"
)

// FindOrders lists orders, restricted to one user when user_id is given.
func (h *Handler) FindOrders(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	offset, limit, ok := h.page(w, r, mLogger)
	if !ok {
		return
	}
	userID, ok := web.ParseOptionalGt(r, w, mLogger, "user_id", 0)
	if !ok {
		return
	}
	list, err := h.orders.FindAll(r.Context(), userID, offset, limit)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving order list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

func (h *Handler) FindOrderByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	found, err := h.orders.FindByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "retrieve", "Order", id)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto service.OrderCreateDto
	if !web.DecodeAndValidate(w, r, mLogger, h.validate, &dto) {
		return
	}
	created, err := h.orders.Create(r.Context(), dto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "create", "Order", 0)
		return
	}
	mLogger.InfoContext(r.Context(), "Order created successfully", "ID", created.ID, "total", created.Total.String())
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var dto service.OrderUpdateDto
	if !web.DecodeAndValidate(w, r, mLogger, h.validate, &dto) {
		return
	}
	dto.ID = id

	updated, err := h.orders.Update(r.Context(), dto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "update", "Order", id)
		return
	}
	mLogger.InfoContext(r.Context(), "Order updated successfully", "ID", updated.ID, "status", updated.Status)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	if err := h.orders.DeleteByID(r.Context(), id); err != nil {
		h.respondServiceError(w, r, mLogger, err, "delete", "Order", id)
		return
	}
	mLogger.InfoContext(r.Context(), "Order deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}
