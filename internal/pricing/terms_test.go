package pricing

import (
	"errors"
	"testing"
)

func TestPriceForTermDomainTwoYears(t *testing.T) {
	// .co.ao registration at 35000 Kz/year over two years: 10% off 70000.
	q, err := PriceForTerm(FamilyDomain, 35_000, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Total != 63_000 {
		t.Fatalf("expected total 63000, got %d", q.Total)
	}
	if q.Annual != 31_500 {
		t.Fatalf("expected annual 31500, got %v", q.Annual)
	}
	if q.Saving != 7_000 {
		t.Fatalf("expected saving 7000, got %d", q.Saving)
	}
	if q.DiscountBps != 1000 {
		t.Fatalf("expected 1000 bps, got %d", q.DiscountBps)
	}
}

func TestPriceForTermHostingThreeYears(t *testing.T) {
	// Premium email at 12000 Kz/year over three years: 20% off 36000.
	q, err := PriceForTerm(FamilyHosting, 12_000, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Total != 28_800 {
		t.Fatalf("expected total 28800, got %d", q.Total)
	}
	if q.Saving != 7_200 {
		t.Fatalf("expected saving 7200, got %d", q.Saving)
	}
}

func TestPriceForTermSingleYearHasNoDiscount(t *testing.T) {
	for _, family := range []Family{FamilyDomain, FamilyHosting} {
		for _, base := range []Money{1, 999, 35_000, 1_250_000} {
			q, err := PriceForTerm(family, base, 1)
			if err != nil {
				t.Fatalf("family %s base %d: %v", family, base, err)
			}
			if q.DiscountBps != 0 || q.Saving != 0 {
				t.Fatalf("family %s base %d: expected zero discount, got %+v", family, base, q)
			}
			if q.Total != base {
				t.Fatalf("family %s base %d: expected total %d, got %d", family, base, base, q.Total)
			}
		}
	}
}

func TestPriceForTermIdentity(t *testing.T) {
	cases := []struct {
		family Family
		base   Money
		years  int
	}{
		{FamilyDomain, 25_000, 2},
		{FamilyDomain, 300_000, 3},
		{FamilyHosting, 7_500, 2},
		{FamilyHosting, 48_000, 3},
	}
	for _, tc := range cases {
		q, err := PriceForTerm(tc.family, tc.base, tc.years)
		if err != nil {
			t.Fatalf("%+v: %v", tc, err)
		}
		gross := tc.base * Money(tc.years)
		if q.Total+q.Saving != gross {
			t.Fatalf("%+v: total %d + saving %d != gross %d", tc, q.Total, q.Saving, gross)
		}
	}
}

func TestPriceForTermRejectsInvalidYears(t *testing.T) {
	for _, years := range []int{0, -1, 4, 10} {
		_, err := PriceForTerm(FamilyHosting, 10_000, years)
		if !errors.Is(err, ErrInvalidTerm) {
			t.Fatalf("years=%d: expected ErrInvalidTerm, got %v", years, err)
		}
	}
}

func TestPriceForTermRejectsUnknownFamily(t *testing.T) {
	_, err := PriceForTerm(Family("vps"), 10_000, 1)
	if !errors.Is(err, ErrUnknownFamily) {
		t.Fatalf("expected ErrUnknownFamily, got %v", err)
	}
}

func TestComputeSumsItems(t *testing.T) {
	summary := Compute([]Item{
		{Qty: 1, UnitPrice: 63_000},
		{Qty: 2, UnitPrice: 12_000},
		{Qty: 0, UnitPrice: 999_999},
	})
	if summary.Subtotal != 87_000 {
		t.Fatalf("expected subtotal 87000, got %d", summary.Subtotal)
	}
	if summary.Total != summary.Subtotal {
		t.Fatalf("total should equal subtotal, got %d vs %d", summary.Total, summary.Subtotal)
	}
}

func TestValidTerms(t *testing.T) {
	terms := ValidTerms(FamilyDomain)
	if len(terms) != 3 || terms[0] != 1 || terms[2] != 3 {
		t.Fatalf("unexpected terms: %v", terms)
	}
	if ValidTerms(Family("unknown")) != nil {
		t.Fatal("expected nil terms for unknown family")
	}
}
