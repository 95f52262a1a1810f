package catalog

import (
	"context"
	"errors"
	"net/http"

	"github.com/zaida-dev/backend-hospeda/internal/common"
	"github.com/zaida-dev/backend-hospeda/internal/pricing"
	"github.com/zaida-dev/backend-hospeda/internal/store"
)

const plansCacheKey = "catalog:plans"

// PlanStore defines the persistence operations the catalog depends on.
type PlanStore interface {
	ListActivePlans(ctx context.Context) ([]store.Plan, error)
	GetPlanByCode(ctx context.Context, code string) (store.Plan, error)
}

// Service assembles the public catalog with per-term pricing.
type Service struct {
	plans PlanStore
	cache *Cache
}

// NewService constructs a Service instance.
func NewService(plans PlanStore, cache *Cache) (*Service, error) {
	if plans == nil {
		return nil, errors.New("catalog: plan store is required")
	}
	return &Service{plans: plans, cache: cache}, nil
}

// TermOption is one selectable contract length with its resolved price.
type TermOption struct {
	Years       int     `json:"years"`
	Total       int64   `json:"total"`
	Annual      float64 `json:"annual"`
	DiscountBps int     `json:"discount_bps"`
	Saving      int64   `json:"saving"`
}

// PlanView is the public catalog payload for one plan.
type PlanView struct {
	ID          string       `json:"id"`
	Code        string       `json:"code"`
	Name        string       `json:"name"`
	ProductType string       `json:"product_type"`
	Family      string       `json:"family"`
	BasePrice   int64        `json:"base_price"`
	Description *string      `json:"description,omitempty"`
	Terms       []TermOption `json:"terms"`
}

// ListPlans returns the active catalog, served from cache when warm.
func (s *Service) ListPlans(ctx context.Context) ([]PlanView, error) {
	var cached []PlanView
	if hit, err := s.cache.GetJSON(ctx, plansCacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	rows, err := s.plans.ListActivePlans(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]PlanView, 0, len(rows))
	for _, row := range rows {
		view, err := toPlanView(row)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	_ = s.cache.SetJSON(ctx, plansCacheKey, views)
	return views, nil
}

// GetPlan returns a single plan by its stable code.
func (s *Service) GetPlan(ctx context.Context, code string) (PlanView, error) {
	row, err := s.plans.GetPlanByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return PlanView{}, common.NewAppError("NOT_FOUND", "plan not found", http.StatusNotFound, err)
		}
		return PlanView{}, err
	}
	return toPlanView(row)
}

// QuotePlan prices a plan for a specific contract length. Unsupported lengths
// are rejected rather than silently coerced.
func (s *Service) QuotePlan(ctx context.Context, code string, years int) (TermOption, error) {
	row, err := s.plans.GetPlanByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TermOption{}, common.NewAppError("NOT_FOUND", "plan not found", http.StatusNotFound, err)
		}
		return TermOption{}, err
	}
	quote, err := pricing.PriceForTerm(pricing.Family(row.Family), row.BasePrice, years)
	if err != nil {
		return TermOption{}, common.NewAppError("VALIDATION_ERROR", err.Error(), http.StatusBadRequest, err)
	}
	return TermOption{
		Years:       years,
		Total:       quote.Total,
		Annual:      quote.Annual,
		DiscountBps: quote.DiscountBps,
		Saving:      quote.Saving,
	}, nil
}

func toPlanView(row store.Plan) (PlanView, error) {
	family := pricing.Family(row.Family)
	terms := make([]TermOption, 0, 3)
	for _, years := range pricing.ValidTerms(family) {
		quote, err := pricing.PriceForTerm(family, row.BasePrice, years)
		if err != nil {
			return PlanView{}, err
		}
		terms = append(terms, TermOption{
			Years:       years,
			Total:       quote.Total,
			Annual:      quote.Annual,
			DiscountBps: quote.DiscountBps,
			Saving:      quote.Saving,
		})
	}
	view := PlanView{
		ID:          row.ID.String(),
		Code:        row.Code,
		Name:        row.Name,
		ProductType: row.ProductType,
		Family:      row.Family,
		BasePrice:   row.BasePrice,
		Terms:       terms,
	}
	if row.Description.Valid {
		desc := row.Description.String
		view.Description = &desc
	}
	return view, nil
}
