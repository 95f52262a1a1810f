package pricing

import "errors"

// Family groups products that share a discount schedule.
type Family string

const (
	FamilyDomain  Family = "domain"
	FamilyHosting Family = "hosting"
)

var (
	// ErrInvalidTerm signals a contract length the family does not sell.
	ErrInvalidTerm = errors.New("pricing: unsupported contract length")
	// ErrUnknownFamily signals a product family without a discount schedule.
	ErrUnknownFamily = errors.New("pricing: unknown product family")
)

// termTables holds the multi-year discount in basis points per family and
// contract length. Changing commercial terms means editing this table, not
// the pricing code.
var termTables = map[Family]map[int]int64{
	FamilyDomain:  {1: 0, 2: 1000, 3: 1500},
	FamilyHosting: {1: 0, 2: 1000, 3: 2000},
}

// Quote is the price of one unit over a full contract term.
type Quote struct {
	Years       int
	Total       Money
	Annual      float64
	Saving      Money
	DiscountBps int
}

// PriceForTerm prices base (per year) over the given contract length, applying
// the family's discount with half-up rounding. Contract lengths outside the
// table are rejected outright.
func PriceForTerm(family Family, base Money, years int) (Quote, error) {
	table, ok := termTables[family]
	if !ok {
		return Quote{}, ErrUnknownFamily
	}
	bps, ok := table[years]
	if !ok {
		return Quote{}, ErrInvalidTerm
	}

	gross := base * Money(years)
	total := (gross*(10000-bps) + 5000) / 10000
	return Quote{
		Years:       years,
		Total:       total,
		Annual:      float64(total) / float64(years),
		Saving:      gross - total,
		DiscountBps: int(bps),
	}, nil
}

// ValidTerms lists the contract lengths a family sells, ascending. Returns nil
// for unknown families.
func ValidTerms(family Family) []int {
	table, ok := termTables[family]
	if !ok {
		return nil
	}
	terms := make([]int, 0, len(table))
	for years := range table {
		terms = append(terms, years)
	}
	for i := 0; i < len(terms); i++ {
		for j := i + 1; j < len(terms); j++ {
			if terms[j] < terms[i] {
				terms[i], terms[j] = terms[j], terms[i]
			}
		}
	}
	return terms
}
