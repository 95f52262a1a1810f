package checkout

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
	"github.com/zaida-dev/backend-hospeda/internal/events"
	"github.com/zaida-dev/backend-hospeda/internal/obs"
	"github.com/zaida-dev/backend-hospeda/internal/store"
)

// Store defines the persistence operations the checkout depends on.
type Store interface {
	GetOpenCart(ctx context.Context, customerID uuid.UUID) (store.Cart, error)
	ListCartItems(ctx context.Context, cartID uuid.UUID) ([]store.CartItem, error)
	CreateOrderFromCart(ctx context.Context, params store.CheckoutParams) (store.CheckoutResult, error)
}

// Service converts open carts into orders with their invoices.
type Service struct {
	store          Store
	bus            *events.Bus
	logger         zerolog.Logger
	currency       string
	invoiceDueDays int
	now            func() time.Time
}

// Config groups Service dependencies.
type Config struct {
	Store          Store
	Bus            *events.Bus
	Logger         zerolog.Logger
	Currency       string
	InvoiceDueDays int
}

// Result is the public payload of a completed checkout.
type Result struct {
	OrderID       string    `json:"order_id"`
	OrderStatus   string    `json:"order_status"`
	InvoiceID     string    `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	DueAt         time.Time `json:"due_at"`
	Replayed      bool      `json:"replayed"`
}

// NewService constructs a Service instance.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("checkout: store is required")
	}
	currency := strings.TrimSpace(cfg.Currency)
	if currency == "" {
		currency = "AOA"
	}
	dueDays := cfg.InvoiceDueDays
	if dueDays <= 0 {
		dueDays = 3
	}
	return &Service{
		store:          cfg.Store,
		bus:            cfg.Bus,
		logger:         cfg.Logger,
		currency:       currency,
		invoiceDueDays: dueDays,
		now:            time.Now,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create converts the customer's open cart into an order plus unpaid invoice.
// The idempotency key is derived from the cart contents, so retrying the same
// submission returns the original order instead of creating a second one.
// Domain registrations require a registrant profile on the cart; that check
// fails the request before anything is persisted.
func (s *Service) Create(ctx context.Context, customerID uuid.UUID) (Result, error) {
	cart, err := s.store.GetOpenCart(ctx, customerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.countCheckout("no_cart")
			return Result{}, common.NewAppError("NOT_FOUND", "no open cart to check out", http.StatusNotFound, err)
		}
		return Result{}, err
	}
	items, err := s.store.ListCartItems(ctx, cart.ID)
	if err != nil {
		return Result{}, err
	}
	if len(items) == 0 {
		s.countCheckout("empty_cart")
		return Result{}, common.NewAppError("VALIDATION_ERROR", "cart is empty", http.StatusBadRequest, nil)
	}
	if hasDomainItems(items) && !cart.ContactProfileID.Valid {
		s.countCheckout("missing_profile")
		return Result{}, common.NewAppError("VALIDATION_ERROR", "domain registrations require a registrant contact profile", http.StatusBadRequest, nil)
	}

	result, err := s.store.CreateOrderFromCart(ctx, store.CheckoutParams{
		Key:        checkoutKey(cart.ID, items),
		CustomerID: customerID,
		CartID:     cart.ID,
		Currency:   s.currency,
		InvoiceDue: s.now().AddDate(0, 0, s.invoiceDueDays),
	})
	if err != nil {
		if errors.Is(err, store.ErrCartNotOpen) {
			s.countCheckout("cart_closed")
			return Result{}, common.NewAppError("CART_NOT_OPEN", "cart was already checked out", http.StatusConflict, err)
		}
		s.countCheckout("error")
		return Result{}, err
	}

	if result.Replayed {
		s.countCheckout("replayed")
	} else {
		s.countCheckout("created")
		s.emitOrderCreated(ctx, result)
	}

	return Result{
		OrderID:       result.Order.ID.String(),
		OrderStatus:   result.Order.Status,
		InvoiceID:     result.Invoice.ID.String(),
		InvoiceNumber: result.Invoice.Number,
		Amount:        result.Invoice.Amount,
		Currency:      result.Invoice.Currency,
		DueAt:         result.Invoice.DueAt,
		Replayed:      result.Replayed,
	}, nil
}

func (s *Service) emitOrderCreated(ctx context.Context, result store.CheckoutResult) {
	if s.bus == nil {
		return
	}
	if _, err := s.bus.Emit(ctx, events.TopicOrderCreated, store.NullUUID(result.Order.ID), map[string]any{
		"order_id":       result.Order.ID.String(),
		"invoice_number": result.Invoice.Number,
		"amount":         result.Invoice.Amount,
	}); err != nil {
		s.logger.Warn().Err(err).Str("order_id", result.Order.ID.String()).Msg("emit order.created")
	}
}

func (s *Service) countCheckout(result string) {
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues(result).Inc()
	}
}

func hasDomainItems(items []store.CartItem) bool {
	for _, it := range items {
		if it.ProductType == store.ProductDomain {
			return true
		}
	}
	return false
}

// checkoutKey derives a stable fingerprint from the cart id and its lines. Two
// submissions of the same cart contents collapse onto one order.
func checkoutKey(cartID uuid.UUID, items []store.CartItem) string {
	var b strings.Builder
	b.WriteString(cartID.String())
	var total int64
	for _, it := range items {
		fmt.Fprintf(&b, "|%s:%s:%d:%d:%d", it.ProductType, it.Label, it.Years, it.UnitPrice, it.Qty)
		total += it.UnitPrice * int64(it.Qty)
	}
	fmt.Fprintf(&b, "|%d", total)
	return common.Sha256Hex(b.String())
}
