package pricing

// Money represents a monetary value in whole kwanzas. The platform bills in a
// single currency, so no conversion happens anywhere in the pricing path.
type Money = int64

// Item describes a line item used for cart total calculation.
type Item struct {
	Qty       int64
	UnitPrice Money
}

// Summary aggregates computed cart totals.
type Summary struct {
	Subtotal Money
	Total    Money
}

// Compute sums cart line items. Prices are already term-resolved when items
// enter the cart, so the cart total is plain summation.
func Compute(items []Item) Summary {
	var subtotal Money
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal += Money(it.Qty) * it.UnitPrice
	}
	return Summary{Subtotal: subtotal, Total: subtotal}
}
