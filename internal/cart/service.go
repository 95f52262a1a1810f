package cart

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zaida-dev/backend-hospeda/internal/common"
	"github.com/zaida-dev/backend-hospeda/internal/pricing"
	"github.com/zaida-dev/backend-hospeda/internal/store"
)

// Store defines the persistence operations the cart service depends on.
type Store interface {
	CreateCart(ctx context.Context, customerID uuid.UUID, ttl time.Duration) (store.Cart, error)
	GetOpenCart(ctx context.Context, customerID uuid.UUID) (store.Cart, error)
	GetCart(ctx context.Context, customerID, cartID uuid.UUID) (store.Cart, error)
	AddCartItem(ctx context.Context, cartID uuid.UUID, params store.CartItemParams) (store.CartItem, error)
	RemoveCartItem(ctx context.Context, cartID, itemID uuid.UUID) error
	ListCartItems(ctx context.Context, cartID uuid.UUID) ([]store.CartItem, error)
	AttachContactProfile(ctx context.Context, customerID, cartID, profileID uuid.UUID) error
	GetPlanByCode(ctx context.Context, code string) (store.Plan, error)
	GetContactProfile(ctx context.Context, customerID, id uuid.UUID) (store.ContactProfile, error)
}

// Service manages the shopping cart lifecycle.
type Service struct {
	store Store
	ttl   time.Duration
}

// NewService constructs a Service instance.
func NewService(st Store, ttl time.Duration) (*Service, error) {
	if st == nil {
		return nil, errors.New("cart: store is required")
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{store: st, ttl: ttl}, nil
}

// AddItemInput describes a line to add to the cart.
type AddItemInput struct {
	PlanCode   string `json:"plan_code"`
	Years      int    `json:"years"`
	Qty        int    `json:"qty"`
	DomainName string `json:"domain_name,omitempty"`
}

// ItemView is the public payload of a cart line. RenewalPrice is what the
// same term costs once the first-contract discount no longer applies.
type ItemView struct {
	ID           string          `json:"id"`
	ProductType  string          `json:"product_type"`
	Label        string          `json:"label"`
	BasePrice    int64           `json:"base_price"`
	Years        int             `json:"years"`
	UnitPrice    int64           `json:"unit_price"`
	Qty          int             `json:"qty"`
	LineTotal    int64           `json:"line_total"`
	Saving       int64           `json:"saving"`
	Annual       float64         `json:"annual"`
	RenewalPrice int64           `json:"renewal_price"`
	Details      json.RawMessage `json:"details,omitempty"`
}

// View is the public payload of a cart with its computed totals.
type View struct {
	ID               string     `json:"id"`
	Status           string     `json:"status"`
	ContactProfileID *string    `json:"contact_profile_id,omitempty"`
	ExpiresAt        time.Time  `json:"expires_at"`
	Items            []ItemView `json:"items"`
	Subtotal         int64      `json:"subtotal"`
	Total            int64      `json:"total"`
}

// Current returns the customer's open cart, creating one when absent.
func (s *Service) Current(ctx context.Context, customerID uuid.UUID) (View, error) {
	c, err := s.store.GetOpenCart(ctx, customerID)
	if errors.Is(err, store.ErrNotFound) {
		c, err = s.store.CreateCart(ctx, customerID, s.ttl)
	}
	if err != nil {
		return View{}, err
	}
	return s.buildView(ctx, c)
}

// AddItem resolves the plan, prices the requested contract length, and appends
// the line. Unsupported contract lengths fail before anything is written.
func (s *Service) AddItem(ctx context.Context, customerID uuid.UUID, input AddItemInput) (View, error) {
	if input.Qty <= 0 {
		input.Qty = 1
	}
	plan, err := s.store.GetPlanByCode(ctx, strings.TrimSpace(input.PlanCode))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return View{}, common.NewAppError("NOT_FOUND", "plan not found", http.StatusNotFound, err)
		}
		return View{}, err
	}

	family := pricing.Family(plan.Family)
	quote, err := pricing.PriceForTerm(family, plan.BasePrice, input.Years)
	if err != nil {
		return View{}, common.NewAppError("VALIDATION_ERROR", err.Error(), http.StatusBadRequest, err)
	}

	label := plan.Name
	details := map[string]string{"plan_code": plan.Code}
	if plan.ProductType == store.ProductDomain {
		domain := strings.ToLower(strings.TrimSpace(input.DomainName))
		if domain == "" {
			return View{}, common.NewAppError("VALIDATION_ERROR", "domain_name is required for domain registrations", http.StatusBadRequest, nil)
		}
		label = domain
		details["domain_name"] = domain
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return View{}, err
	}

	c, err := s.store.GetOpenCart(ctx, customerID)
	if errors.Is(err, store.ErrNotFound) {
		c, err = s.store.CreateCart(ctx, customerID, s.ttl)
	}
	if err != nil {
		return View{}, err
	}

	_, err = s.store.AddCartItem(ctx, c.ID, store.CartItemParams{
		PlanID:      store.NullUUID(plan.ID),
		ProductType: plan.ProductType,
		Label:       label,
		Family:      plan.Family,
		BasePrice:   plan.BasePrice,
		Years:       int32(input.Years),
		UnitPrice:   quote.Total,
		Qty:         int32(input.Qty),
		// Renewals pay the plain term price; the discount applies once.
		RenewalPrice: plan.BasePrice * int64(input.Years),
		Details:      detailsJSON,
	})
	if err != nil {
		if errors.Is(err, store.ErrCartNotOpen) {
			return View{}, common.NewAppError("CART_NOT_OPEN", "cart is no longer open", http.StatusConflict, err)
		}
		return View{}, err
	}
	return s.buildView(ctx, c)
}

// RemoveItem deletes a line from the open cart.
func (s *Service) RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (View, error) {
	c, err := s.store.GetOpenCart(ctx, customerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return View{}, common.NewAppError("NOT_FOUND", "no open cart", http.StatusNotFound, err)
		}
		return View{}, err
	}
	if err := s.store.RemoveCartItem(ctx, c.ID, itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return View{}, common.NewAppError("NOT_FOUND", "cart item not found", http.StatusNotFound, err)
		}
		return View{}, err
	}
	return s.buildView(ctx, c)
}

// AttachProfile binds one of the customer's registrant profiles to the cart.
func (s *Service) AttachProfile(ctx context.Context, customerID, profileID uuid.UUID) (View, error) {
	if _, err := s.store.GetContactProfile(ctx, customerID, profileID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return View{}, common.NewAppError("NOT_FOUND", "contact profile not found", http.StatusNotFound, err)
		}
		return View{}, err
	}
	c, err := s.store.GetOpenCart(ctx, customerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return View{}, common.NewAppError("NOT_FOUND", "no open cart", http.StatusNotFound, err)
		}
		return View{}, err
	}
	if err := s.store.AttachContactProfile(ctx, customerID, c.ID, profileID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return View{}, common.NewAppError("CART_NOT_OPEN", "cart is no longer open", http.StatusConflict, err)
		}
		return View{}, err
	}
	c, err = s.store.GetCart(ctx, customerID, c.ID)
	if err != nil {
		return View{}, err
	}
	return s.buildView(ctx, c)
}

func (s *Service) buildView(ctx context.Context, c store.Cart) (View, error) {
	items, err := s.store.ListCartItems(ctx, c.ID)
	if err != nil {
		return View{}, err
	}

	view := View{
		ID:        c.ID.String(),
		Status:    c.Status,
		ExpiresAt: c.ExpiresAt,
		Items:     make([]ItemView, 0, len(items)),
	}
	if c.ContactProfileID.Valid {
		id := uuid.UUID(c.ContactProfileID.Bytes).String()
		view.ContactProfileID = &id
	}

	lines := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		quote, err := pricing.PriceForTerm(pricing.Family(it.Family), it.BasePrice, int(it.Years))
		if err != nil {
			return View{}, err
		}
		view.Items = append(view.Items, ItemView{
			ID:           it.ID.String(),
			ProductType:  it.ProductType,
			Label:        it.Label,
			BasePrice:    it.BasePrice,
			Years:        int(it.Years),
			UnitPrice:    it.UnitPrice,
			Qty:          int(it.Qty),
			LineTotal:    it.UnitPrice * int64(it.Qty),
			Saving:       quote.Saving * int64(it.Qty),
			Annual:       quote.Annual,
			RenewalPrice: it.RenewalPrice,
			Details:      json.RawMessage(it.Details),
		})
		lines = append(lines, pricing.Item{Qty: int64(it.Qty), UnitPrice: it.UnitPrice})
	}

	summary := pricing.Compute(lines)
	view.Subtotal = summary.Subtotal
	view.Total = summary.Total
	return view, nil
}
