package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/zaida-dev/backend-hospeda/internal/common"
	"github.com/zaida-dev/backend-hospeda/internal/store"
)

// Store defines the persistence operations the order service depends on.
type Store interface {
	GetOrder(ctx context.Context, customerID, orderID uuid.UUID) (store.Order, error)
	ListOrders(ctx context.Context, customerID uuid.UUID, limit, offset int32) ([]store.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]store.OrderItem, error)
	CancelOrder(ctx context.Context, customerID, orderID uuid.UUID) error
	GetInvoice(ctx context.Context, customerID, invoiceID uuid.UUID) (store.Invoice, error)
	ListInvoices(ctx context.Context, customerID uuid.UUID, limit, offset int32) ([]store.Invoice, error)
}

// Service reads order and invoice history.
type Service struct {
	store Store
}

// NewService constructs a Service instance.
func NewService(st Store) (*Service, error) {
	if st == nil {
		return nil, errors.New("order: store is required")
	}
	return &Service{store: st}, nil
}

// ItemView is one settled order line.
type ItemView struct {
	ProductType  string          `json:"product_type"`
	Label        string          `json:"label"`
	Years        int             `json:"years"`
	UnitPrice    int64           `json:"unit_price"`
	Qty          int             `json:"qty"`
	LineTotal    int64           `json:"line_total"`
	RenewalPrice int64           `json:"renewal_price"`
	Details      json.RawMessage `json:"details,omitempty"`
}

// View is the public order payload.
type View struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	Total     int64      `json:"total"`
	Currency  string     `json:"currency"`
	CreatedAt time.Time  `json:"created_at"`
	Items     []ItemView `json:"items,omitempty"`
}

// InvoiceView is the public invoice payload.
type InvoiceView struct {
	ID            string     `json:"id"`
	OrderID       string     `json:"order_id"`
	Number        string     `json:"number"`
	Status        string     `json:"status"`
	Amount        int64      `json:"amount"`
	Currency      string     `json:"currency"`
	DueAt         time.Time  `json:"due_at"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	PaymentMethod *string    `json:"payment_method,omitempty"`
}

// List returns a page of the customer's orders.
func (s *Service) List(ctx context.Context, customerID uuid.UUID, limit, offset int32) ([]View, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.store.ListOrders(ctx, customerID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(rows))
	for _, row := range rows {
		out = append(out, toView(row, nil))
	}
	return out, nil
}

// Get returns one order with its lines.
func (s *Service) Get(ctx context.Context, customerID, orderID uuid.UUID) (View, error) {
	row, err := s.store.GetOrder(ctx, customerID, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return View{}, common.NewAppError("NOT_FOUND", "order not found", http.StatusNotFound, err)
		}
		return View{}, err
	}
	items, err := s.store.ListOrderItems(ctx, orderID)
	if err != nil {
		return View{}, err
	}
	return toView(row, items), nil
}

// Cancel voids a pending order.
func (s *Service) Cancel(ctx context.Context, customerID, orderID uuid.UUID) error {
	if err := s.store.CancelOrder(ctx, customerID, orderID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return common.NewAppError("NOT_FOUND", "order not found or not cancellable", http.StatusNotFound, err)
		}
		return err
	}
	return nil
}

// Invoices returns a page of the customer's invoices.
func (s *Service) Invoices(ctx context.Context, customerID uuid.UUID, limit, offset int32) ([]InvoiceView, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.store.ListInvoices(ctx, customerID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]InvoiceView, 0, len(rows))
	for _, row := range rows {
		out = append(out, toInvoiceView(row))
	}
	return out, nil
}

// Invoice returns one invoice.
func (s *Service) Invoice(ctx context.Context, customerID, invoiceID uuid.UUID) (InvoiceView, error) {
	row, err := s.store.GetInvoice(ctx, customerID, invoiceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return InvoiceView{}, common.NewAppError("NOT_FOUND", "invoice not found", http.StatusNotFound, err)
		}
		return InvoiceView{}, err
	}
	return toInvoiceView(row), nil
}

func toView(row store.Order, items []store.OrderItem) View {
	view := View{
		ID:        row.ID.String(),
		Status:    row.Status,
		Total:     row.Total,
		Currency:  row.Currency,
		CreatedAt: row.CreatedAt,
	}
	for _, it := range items {
		view.Items = append(view.Items, ItemView{
			ProductType:  it.ProductType,
			Label:        it.Label,
			Years:        int(it.Years),
			UnitPrice:    it.UnitPrice,
			Qty:          int(it.Qty),
			LineTotal:    it.LineTotal,
			RenewalPrice: it.RenewalPrice,
			Details:      json.RawMessage(it.Details),
		})
	}
	return view
}

func toInvoiceView(row store.Invoice) InvoiceView {
	view := InvoiceView{
		ID:       row.ID.String(),
		OrderID:  row.OrderID.String(),
		Number:   row.Number,
		Status:   row.Status,
		Amount:   row.Amount,
		Currency: row.Currency,
		DueAt:    row.DueAt,
	}
	if row.PaidAt.Valid {
		paidAt := row.PaidAt.Time
		view.PaidAt = &paidAt
	}
	if row.PaymentMethod.Valid {
		method := row.PaymentMethod.String
		view.PaymentMethod = &method
	}
	return view
}
