package balance

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zaida-dev/backend-hospeda/internal/common"
	"github.com/zaida-dev/backend-hospeda/internal/events"
	"github.com/zaida-dev/backend-hospeda/internal/obs"
	"github.com/zaida-dev/backend-hospeda/internal/store"
)

// Store defines the persistence operations the balance service depends on.
type Store interface {
	GetBalance(ctx context.Context, customerID uuid.UUID) (int64, error)
	CreditBalance(ctx context.Context, customerID uuid.UUID, amount int64, description string) (store.AccountTransaction, error)
	DebitForInvoice(ctx context.Context, customerID, invoiceID uuid.UUID) (store.AccountTransaction, store.Invoice, error)
	ListAccountTransactions(ctx context.Context, customerID uuid.UUID, limit, offset int32) ([]store.AccountTransaction, error)
}

// Service manages the prepaid account balance.
type Service struct {
	store  Store
	bus    *events.Bus
	logger zerolog.Logger
}

// NewService constructs a Service instance.
func NewService(st Store, bus *events.Bus, logger zerolog.Logger) (*Service, error) {
	if st == nil {
		return nil, errors.New("balance: store is required")
	}
	return &Service{store: st, bus: bus, logger: logger}, nil
}

// Transaction is the public payload of one balance mutation.
type Transaction struct {
	ID              string    `json:"id"`
	InvoiceID       *string   `json:"invoice_id,omitempty"`
	Kind            string    `json:"kind"`
	Amount          int64     `json:"amount"`
	PreviousBalance int64     `json:"previous_balance"`
	CurrentBalance  int64     `json:"current_balance"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"created_at"`
}

// PaymentResult is returned after an invoice is paid from the balance.
type PaymentResult struct {
	Transaction   Transaction `json:"transaction"`
	InvoiceNumber string      `json:"invoice_number"`
	InvoiceStatus string      `json:"invoice_status"`
}

// Current returns the customer's available balance.
func (s *Service) Current(ctx context.Context, customerID uuid.UUID) (int64, error) {
	amount, err := s.store.GetBalance(ctx, customerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, common.NewAppError("NOT_FOUND", "account not found", http.StatusNotFound, err)
		}
		return 0, err
	}
	return amount, nil
}

// Credit tops up the account and records the audit transaction.
func (s *Service) Credit(ctx context.Context, customerID uuid.UUID, amount int64, description string) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, common.NewAppError("VALIDATION_ERROR", "amount must be positive", http.StatusBadRequest, nil)
	}
	row, err := s.store.CreditBalance(ctx, customerID, amount, description)
	if err != nil {
		s.countMutation(store.TxKindCredit, "error")
		return Transaction{}, err
	}
	s.countMutation(store.TxKindCredit, "ok")
	s.emit(ctx, events.TopicBalanceCredited, row)
	return toTransaction(row), nil
}

// PayInvoice settles an unpaid invoice from the balance. The whole operation
// is a single transaction: either the balance covers the invoice and both
// records change together, or nothing changes at all.
func (s *Service) PayInvoice(ctx context.Context, customerID, invoiceID uuid.UUID) (PaymentResult, error) {
	row, invoice, err := s.store.DebitForInvoice(ctx, customerID, invoiceID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInsufficientBalance):
			s.countMutation(store.TxKindDebit, "insufficient")
			s.countSettlement("insufficient")
			return PaymentResult{}, common.NewAppError("INSUFFICIENT_FUNDS", "balance does not cover the invoice amount", http.StatusPaymentRequired, err)
		case errors.Is(err, store.ErrAlreadySettled):
			return PaymentResult{}, common.NewAppError("ALREADY_PAID", "invoice is already settled", http.StatusConflict, err)
		case errors.Is(err, store.ErrOrderCanceled):
			return PaymentResult{}, common.NewAppError("ORDER_CANCELED", "order was canceled", http.StatusConflict, err)
		case errors.Is(err, store.ErrNotFound):
			return PaymentResult{}, common.NewAppError("NOT_FOUND", "invoice not found", http.StatusNotFound, err)
		}
		s.countMutation(store.TxKindDebit, "error")
		return PaymentResult{}, err
	}
	s.countMutation(store.TxKindDebit, "ok")
	s.countSettlement("paid")
	s.emit(ctx, events.TopicBalanceDebited, row)
	s.emitInvoicePaid(ctx, invoice)

	return PaymentResult{
		Transaction:   toTransaction(row),
		InvoiceNumber: invoice.Number,
		InvoiceStatus: invoice.Status,
	}, nil
}

// Transactions returns the audit trail, newest first.
func (s *Service) Transactions(ctx context.Context, customerID uuid.UUID, limit, offset int32) ([]Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.store.ListAccountTransactions(ctx, customerID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, toTransaction(row))
	}
	return out, nil
}

func (s *Service) emit(ctx context.Context, topic string, row store.AccountTransaction) {
	if s.bus == nil {
		return
	}
	if _, err := s.bus.Emit(ctx, topic, store.NullUUID(row.CustomerID), map[string]any{
		"amount":          row.Amount,
		"current_balance": row.CurrentBalance,
	}); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Msg("emit balance event")
	}
}

func (s *Service) emitInvoicePaid(ctx context.Context, invoice store.Invoice) {
	if s.bus == nil {
		return
	}
	if _, err := s.bus.Emit(ctx, events.TopicInvoicePaid, store.NullUUID(invoice.ID), map[string]any{
		"invoice_number": invoice.Number,
		"amount":         invoice.Amount,
		"method":         store.MethodBalance,
	}); err != nil {
		s.logger.Warn().Err(err).Str("invoice", invoice.Number).Msg("emit invoice.paid")
	}
}

func (s *Service) countMutation(kind, result string) {
	if obs.BalanceMutationTotal != nil {
		obs.BalanceMutationTotal.WithLabelValues(kind, result).Inc()
	}
}

func (s *Service) countSettlement(result string) {
	if obs.SettlementTotal != nil {
		obs.SettlementTotal.WithLabelValues(store.MethodBalance, result).Inc()
	}
}

func toTransaction(row store.AccountTransaction) Transaction {
	tx := Transaction{
		ID:              row.ID.String(),
		Kind:            row.Kind,
		Amount:          row.Amount,
		PreviousBalance: row.PreviousBalance,
		CurrentBalance:  row.CurrentBalance,
		Description:     row.Description,
		CreatedAt:       row.CreatedAt,
	}
	if row.InvoiceID.Valid {
		id := uuid.UUID(row.InvoiceID.Bytes).String()
		tx.InvoiceID = &id
	}
	return tx
}
