package rest

import (
	"net/http"

	"github.com/abgdnv/storefront/internal/backend/service"
	"github.com/abgdnv/storefront/pkg/web"
)

// FindProducts lists products. The optional category parameter filters them; "All" means no filter.
func (h *Handler) FindProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	offset, limit, ok := h.page(w, r, mLogger)
	if !ok {
		return
	}
	category := r.URL.Query().Get("category")
	if category == "All" {
		category = ""
	}
	mLogger.DebugContext(r.Context(), "Received request to find products", "limit", limit, "offset", offset, "category", category)
	list, err := h.products.FindAll(r.Context(), category, offset, limit)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "fetch", "products", 0)
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

func (h *Handler) FindProductByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	found, err := h.products.FindByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "retrieve", "Product", id)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto service.ProductCreateDto
	if !web.DecodeAndValidate(w, r, mLogger, h.validate, &dto) {
		return
	}
	created, err := h.products.Create(r.Context(), dto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "create", "Product", 0)
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var dto service.ProductDto
	if !web.DecodeAndValidate(w, r, mLogger, h.validate, &dto) {
		return
	}
	dto.ID = id

	updated, err := h.products.Update(r.Context(), dto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "update", "Product", id)
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Version", updated.Version)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	if err := h.products.DeleteByID(r.Context(), id); err != nil {
		h.respondServiceError(w, r, mLogger, err, "delete", "Product", id)
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}
