package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Cart lifecycle states.
const (
	CartStatusOpen       = "OPEN"
	CartStatusCheckedOut = "CHECKED_OUT"
	CartStatusExpired    = "EXPIRED"
)

// Order lifecycle states.
const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusPaid       = "PAID"
	OrderStatusCanceled   = "CANCELED"
)

// Invoice lifecycle states. A voided invoice belongs to a canceled order and
// can never be settled.
const (
	InvoiceStatusUnpaid = "UNPAID"
	InvoiceStatusPaid   = "PAID"
	InvoiceStatusVoid   = "VOID"
)

// Payment lifecycle states.
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusConfirmed = "CONFIRMED"
	PaymentStatusFailed    = "FAILED"
)

// Account transaction kinds.
const (
	TxKindCredit = "CREDIT"
	TxKindDebit  = "DEBIT"
)

// Payment methods accepted at settlement.
const (
	MethodGateway      = "GATEWAY"
	MethodBankTransfer = "BANK_TRANSFER"
	MethodBalance      = "BALANCE"
)

// Sellable product types. Pricing groups these into two discount families;
// the product type is what the storefront and order lines display.
const (
	ProductHosting         = "hosting"
	ProductDomain          = "domain"
	ProductEmail           = "email"
	ProductOffice365       = "office365"
	ProductDedicatedServer = "dedicated-server"
)

// Customer is an account holder with a prepaid balance in cents-free kwanzas.
type Customer struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         string
	Balance      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ContactProfile holds registrant details attached to domain orders.
type ContactProfile struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	LegalName  string
	Email      string
	Phone      string
	TaxID      pgtype.Text
	Street     string
	City       string
	Country    string
	IsDefault  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Plan is a sellable catalog entry with an annual base price. ProductType is
// what the plan sells; Family selects its discount table.
type Plan struct {
	ID          uuid.UUID
	Code        string
	Name        string
	ProductType string
	Family      string
	BasePrice   int64
	Description pgtype.Text
	Active      bool
	CreatedAt   time.Time
}

// Cart groups line items prior to checkout.
type Cart struct {
	ID               uuid.UUID
	CustomerID       uuid.UUID
	Status           string
	ContactProfileID pgtype.UUID
	ExpiresAt        time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CartItem is a priced line inside a cart. UnitPrice is the term-resolved
// total for the full contract length, not the annual price. RenewalPrice is
// the undiscounted price of the same term, charged when the contract renews.
// Details carries product-specific attributes (domain name, plan code) as JSON.
type CartItem struct {
	ID           uuid.UUID
	CartID       uuid.UUID
	PlanID       pgtype.UUID
	ProductType  string
	Label        string
	Family       string
	BasePrice    int64
	Years        int32
	UnitPrice    int64
	Qty          int32
	RenewalPrice int64
	Details      []byte
	CreatedAt    time.Time
}

// Order is an immutable snapshot of a checked-out cart.
type Order struct {
	ID               uuid.UUID
	CustomerID       uuid.UUID
	CartID           uuid.UUID
	ContactProfileID pgtype.UUID
	Status           string
	Total            int64
	Currency         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OrderItem is a settled order line, snapshotted from the cart at checkout.
type OrderItem struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	ProductType  string
	Label        string
	Years        int32
	UnitPrice    int64
	Qty          int32
	LineTotal    int64
	RenewalPrice int64
	Details      []byte
}

// Invoice is the payable document issued for an order.
type Invoice struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	CustomerID    uuid.UUID
	Number        string
	Status        string
	Amount        int64
	Currency      string
	DueAt         time.Time
	PaidAt        pgtype.Timestamptz
	PaymentMethod pgtype.Text
	CreatedAt     time.Time
}

// AccountTransaction is the audit record for every balance mutation.
type AccountTransaction struct {
	ID              uuid.UUID
	CustomerID      uuid.UUID
	InvoiceID       pgtype.UUID
	Kind            string
	Amount          int64
	PreviousBalance int64
	CurrentBalance  int64
	Description     string
	CreatedAt       time.Time
}

// Payment tracks a gateway or bank transfer attempt against an invoice.
type Payment struct {
	ID        uuid.UUID
	InvoiceID uuid.UUID
	Provider  string
	Method    string
	Reference string
	Status    string
	Amount    int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CheckoutRequest pins an idempotency key to the order it produced.
type CheckoutRequest struct {
	Key       string
	CartID    uuid.UUID
	OrderID   uuid.UUID
	CreatedAt time.Time
}
