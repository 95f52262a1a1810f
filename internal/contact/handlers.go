package contact

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zaida-dev/backend-hospeda/internal/common"
)

// Handler exposes registrant profile endpoints.
type Handler struct {
	Service *Service
}

// List handles GET /api/v1/contact-profiles.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	customerID, ok := authedCustomer(w, r)
	if !ok {
		return
	}
	profiles, err := h.Service.List(r.Context(), customerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": profiles})
}

// Create handles POST /api/v1/contact-profiles.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	customerID, ok := authedCustomer(w, r)
	if !ok {
		return
	}
	var input ProfileInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	profile, err := h.Service.Create(r.Context(), customerID, input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": profile})
}

// Get handles GET /api/v1/contact-profiles/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	customerID, ok := authedCustomer(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid profile id", nil)
		return
	}
	profile, err := h.Service.Get(r.Context(), customerID, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": profile})
}

// Update handles PUT /api/v1/contact-profiles/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	customerID, ok := authedCustomer(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid profile id", nil)
		return
	}
	var input ProfileInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	profile, err := h.Service.Update(r.Context(), customerID, id, input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": profile})
}

// Delete handles DELETE /api/v1/contact-profiles/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	customerID, ok := authedCustomer(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid profile id", nil)
		return
	}
	if err := h.Service.Delete(r.Context(), customerID, id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func authedCustomer(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw, ok := common.CustomerID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
}
