package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zaida-dev/backend-hospeda/internal/common"
	"github.com/zaida-dev/backend-hospeda/internal/obs"
	"github.com/zaida-dev/backend-hospeda/internal/store"
)

// Store defines the persistence operations the payment service depends on.
// CreateGatewayPayment records the attempt and moves the invoice's order to
// PROCESSING in one transaction.
type Store interface {
	GetInvoice(ctx context.Context, customerID, invoiceID uuid.UUID) (store.Invoice, error)
	CreatePayment(ctx context.Context, invoiceID uuid.UUID, provider, method, reference string, amount int64) (store.Payment, error)
	CreateGatewayPayment(ctx context.Context, invoiceID uuid.UUID, provider, reference string, amount int64) (store.Payment, error)
	GetPaymentByReference(ctx context.Context, reference string) (store.Payment, error)
}

// BankDetails holds the static account used for manual transfers.
type BankDetails struct {
	BankName      string `json:"bank_name"`
	IBAN          string `json:"iban"`
	AccountHolder string `json:"account_holder"`
}

// Service initiates gateway payments and issues bank transfer instructions.
type Service struct {
	store     Store
	provider  Provider
	logger    zerolog.Logger
	bank      BankDetails
	intentTTL time.Duration
	callback  string
}

// Config groups Service dependencies.
type Config struct {
	Store           Store
	Provider        Provider
	Logger          zerolog.Logger
	Bank            BankDetails
	IntentTTL       time.Duration
	CallbackBaseURL string
}

// GatewayIntent is the public payload returned when a gateway payment is opened.
type GatewayIntent struct {
	Provider    string `json:"provider"`
	Reference   string `json:"reference"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
	ExpiresAt   int64  `json:"expires_at"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// TransferInstructions is the public payload for a manual bank transfer.
type TransferInstructions struct {
	Bank          BankDetails `json:"bank"`
	Reference     string      `json:"reference"`
	InvoiceNumber string      `json:"invoice_number"`
	Amount        int64       `json:"amount"`
	Currency      string      `json:"currency"`
}

// NewService constructs a Service instance.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("payment: store is required")
	}
	if cfg.Provider == nil {
		return nil, errors.New("payment: provider is required")
	}
	intentTTL := cfg.IntentTTL
	if intentTTL <= 0 {
		intentTTL = 15 * time.Minute
	}
	return &Service{
		store:     cfg.Store,
		provider:  cfg.Provider,
		logger:    cfg.Logger,
		bank:      cfg.Bank,
		intentTTL: intentTTL,
		callback:  strings.TrimRight(cfg.CallbackBaseURL, "/"),
	}, nil
}

// InitiateGateway opens a gateway payment intent for an unpaid invoice. The
// provider call happens first: a gateway failure surfaces to the caller
// without leaving a payment row behind. On success the attempt is recorded
// and the order moves to PROCESSING in one transaction.
func (s *Service) InitiateGateway(ctx context.Context, customerID, invoiceID uuid.UUID) (GatewayIntent, error) {
	invoice, err := s.unpaidInvoice(ctx, customerID, invoiceID)
	if err != nil {
		return GatewayIntent{}, err
	}

	reference := newPaymentReference()
	intent, err := s.provider.CreateIntent(ctx, IntentRequest{
		Reference:       reference,
		Amount:          invoice.Amount,
		Currency:        invoice.Currency,
		ExpiresAtSec:    int(s.intentTTL.Seconds()),
		CallbackBaseURL: s.callback,
	})
	if err != nil {
		s.countIntent("error")
		return GatewayIntent{}, common.NewAppError("GATEWAY_ERROR", "payment gateway unavailable", http.StatusBadGateway, err)
	}

	if _, err := s.store.CreateGatewayPayment(ctx, invoice.ID, s.provider.Name(), reference, invoice.Amount); err != nil {
		s.countIntent("error")
		if errors.Is(err, store.ErrOrderCanceled) {
			return GatewayIntent{}, common.NewAppError("ORDER_CANCELED", "order was canceled", http.StatusConflict, err)
		}
		return GatewayIntent{}, fmt.Errorf("record payment attempt: %w", err)
	}
	s.countIntent("created")

	return GatewayIntent{
		Provider:    intent.Provider,
		Reference:   reference,
		Token:       intent.Token,
		RedirectURL: intent.RedirectURL,
		ExpiresAt:   intent.ExpiresAt,
		Amount:      invoice.Amount,
		Currency:    invoice.Currency,
	}, nil
}

// BankTransferInstructions records a pending transfer and returns the static
// account details with the reference the customer must cite.
func (s *Service) BankTransferInstructions(ctx context.Context, customerID, invoiceID uuid.UUID) (TransferInstructions, error) {
	invoice, err := s.unpaidInvoice(ctx, customerID, invoiceID)
	if err != nil {
		return TransferInstructions{}, err
	}

	reference := newPaymentReference()
	if _, err := s.store.CreatePayment(ctx, invoice.ID, "bank", store.MethodBankTransfer, reference, invoice.Amount); err != nil {
		return TransferInstructions{}, fmt.Errorf("record transfer attempt: %w", err)
	}

	return TransferInstructions{
		Bank:          s.bank,
		Reference:     reference,
		InvoiceNumber: invoice.Number,
		Amount:        invoice.Amount,
		Currency:      invoice.Currency,
	}, nil
}

func (s *Service) unpaidInvoice(ctx context.Context, customerID, invoiceID uuid.UUID) (store.Invoice, error) {
	invoice, err := s.store.GetInvoice(ctx, customerID, invoiceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Invoice{}, common.NewAppError("NOT_FOUND", "invoice not found", http.StatusNotFound, err)
		}
		return store.Invoice{}, err
	}
	if invoice.Status == store.InvoiceStatusVoid {
		return store.Invoice{}, common.NewAppError("ORDER_CANCELED", "order was canceled", http.StatusConflict, nil)
	}
	if invoice.Status != store.InvoiceStatusUnpaid {
		return store.Invoice{}, common.NewAppError("ALREADY_PAID", "invoice is already settled", http.StatusConflict, nil)
	}
	return invoice, nil
}

func (s *Service) countIntent(result string) {
	if obs.GatewayIntentTotal != nil {
		obs.GatewayIntentTotal.WithLabelValues(s.provider.Name(), result).Inc()
	}
}

func newPaymentReference() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "PP-" + strings.ToUpper(raw[:16])
}
