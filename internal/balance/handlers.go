package balance

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zaida-dev/backend-hospeda/internal/common"
)

// Handler exposes account balance endpoints.
type Handler struct {
	Service *Service
}

type creditRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// Current handles GET /api/v1/balance.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	customerID, ok := authedCustomer(w, r)
	if !ok {
		return
	}
	amount, err := h.Service.Current(r.Context(), customerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]int64{"balance": amount}})
}

// Credit handles POST /api/v1/balance/top-up.
func (h *Handler) Credit(w http.ResponseWriter, r *http.Request) {
	customerID, ok := authedCustomer(w, r)
	if !ok {
		return
	}
	var req creditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	tx, err := h.Service.Credit(r.Context(), customerID, req.Amount, req.Description)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": tx})
}

// PayInvoice handles POST /api/v1/invoices/{id}/pay/balance.
func (h *Handler) PayInvoice(w http.ResponseWriter, r *http.Request) {
	customerID, ok := authedCustomer(w, r)
	if !ok {
		return
	}
	invoiceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid invoice id", nil)
		return
	}
	result, err := h.Service.PayInvoice(r.Context(), customerID, invoiceID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// Transactions handles GET /api/v1/balance/transactions.
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	customerID, ok := authedCustomer(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	rows, err := h.Service.Transactions(r.Context(), customerID, int32(limit), int32(offset))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
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
