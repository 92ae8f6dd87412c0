package rest

import (
	"net/http"

	"github.com/abgdnv/storefront/internal/backend/service"
	"github.com/abgdnv/storefront/pkg/web"
)

func (h *Handler) FindUsers(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	offset, limit, ok := h.page(w, r, mLogger)
	if !ok {
		return
	}
	list, err := h.users.FindAll(r.Context(), offset, limit)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving user list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch users")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

func (h *Handler) FindUserByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	found, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "retrieve", "User", id)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto service.UserCreateDto
	if !web.DecodeAndValidate(w, r, mLogger, h.validate, &dto) {
		return
	}
	created, err := h.users.Create(r.Context(), dto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "create", "User", 0)
		return
	}
	mLogger.InfoContext(r.Context(), "User created successfully", "ID", created.ID)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var dto service.UserDto
	if !web.DecodeAndValidate(w, r, mLogger, h.validate, &dto) {
		return
	}
	dto.ID = id

	updated, err := h.users.Update(r.Context(), dto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "update", "User", id)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	if err := h.users.DeleteByID(r.Context(), id); err != nil {
		h.respondServiceError(w, r, mLogger, err, "delete", "User", id)
		return
	}
	mLogger.InfoContext(r.Context(), "User deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}
