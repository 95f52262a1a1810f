package payment

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zaida-dev/backend-hospeda/internal/common"
)

// Handler exposes payment initiation endpoints.
type Handler struct {
	Service *Service
}

// InitiateGateway handles POST /api/v1/invoices/{id}/pay/gateway.
func (h *Handler) InitiateGateway(w http.ResponseWriter, r *http.Request) {
	customerID, invoiceID, ok := authedInvoice(w, r)
	if !ok {
		return
	}
	intent, err := h.Service.InitiateGateway(r.Context(), customerID, invoiceID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": intent})
}

// BankTransfer handles POST /api/v1/invoices/{id}/pay/bank-transfer.
func (h *Handler) BankTransfer(w http.ResponseWriter, r *http.Request) {
	customerID, invoiceID, ok := authedInvoice(w, r)
	if !ok {
		return
	}
	instructions, err := h.Service.BankTransferInstructions(r.Context(), customerID, invoiceID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": instructions})
}

func authedInvoice(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	raw, ok := common.CustomerID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return uuid.Nil, uuid.Nil, false
	}
	customerID, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return uuid.Nil, uuid.Nil, false
	}
	invoiceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid invoice id", nil)
		return uuid.Nil, uuid.Nil, false
	}
	return customerID, invoiceID, true
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
