package rates

import "github.com/shopspring/decimal"

// LineItem is one item's contribution to a quote.
type LineItem struct {
	ItemID string
	Amount decimal.Decimal
}

// Quote prices a selection at a single tier. It is recomputed whenever the
// selection or tier changes and is never stored.
type Quote struct {
	Tier      Tier
	Total     decimal.Decimal
	Breakdown []LineItem
}

// IsTierAvailable reports whether tier can be offered for the selection.
// A package needs its own rate for the tier; a group of spaces needs at
// least one member with a rate for it. An empty selection has no tiers.
func IsTierAvailable(sel Selection, tier Tier) bool {
	mustBeWellFormed(sel)
	for _, item := range sel.Items {
		if item.Rates.Has(tier) {
			return true
		}
	}
	return false
}

// ComputeTotal sums each selected item's rate for tier. Items without a rate
// for the tier contribute zero.
func ComputeTotal(sel Selection, tier Tier) decimal.Decimal {
	mustBeWellFormed(sel)
	total := decimal.Zero
	for _, item := range sel.Items {
		amount, _ := item.Rates.Rate(tier)
		total = total.Add(amount)
	}
	return total
}

// SelectDefaultTier returns the first available tier in display order. The
// boolean is false when no tier is available and tier-dependent actions
// must stay disabled.
func SelectDefaultTier(sel Selection) (Tier, bool) {
	for _, tier := range Tiers {
		if IsTierAvailable(sel, tier) {
			return tier, true
		}
	}
	return 0, false
}

// AvailableTiers returns every available tier in display order.
func AvailableTiers(sel Selection) []Tier {
	available := make([]Tier, 0, tierCount)
	for _, tier := range Tiers {
		if IsTierAvailable(sel, tier) {
			available = append(available, tier)
		}
	}
	return available
}

// BuildQuote prices the selection at tier with a per-item breakdown that
// sums to the total.
func BuildQuote(sel Selection, tier Tier) Quote {
	mustBeWellFormed(sel)
	quote := Quote{
		Tier:      tier,
		Total:     decimal.Zero,
		Breakdown: make([]LineItem, 0, len(sel.Items)),
	}
	for _, item := range sel.Items {
		amount, _ := item.Rates.Rate(tier)
		quote.Breakdown = append(quote.Breakdown, LineItem{ItemID: item.ID, Amount: amount})
		quote.Total = quote.Total.Add(amount)
	}
	return quote
}

// FormatAmount renders an amount with two fractional digits.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// mustBeWellFormed panics on selections no caller should ever build:
// mixed kinds or several packages.
func mustBeWellFormed(sel Selection) {
	if err := sel.shapeError(); err != nil {
		panic("rates: " + err.Error())
	}
}
