package rates

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeRate     = errors.New("rate must not be negative")
	ErrUnknownItemKind  = errors.New("unknown item kind")
	ErrEmptySelection   = errors.New("selection is empty")
	ErrMixedSelection   = errors.New("selection mixes spaces and packages")
	ErrMultiplePackages = errors.New("selection holds more than one package")
)

// ItemKind distinguishes individually rentable spaces from packages.
type ItemKind string

const (
	KindSpace   ItemKind = "space"
	KindPackage ItemKind = "package"
)

func (k ItemKind) Valid() bool {
	return k == KindSpace || k == KindPackage
}

// ParseItemKind accepts "space"/"spaces" and "package"/"packages".
func ParseItemKind(value string) (ItemKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "space", "spaces":
		return KindSpace, nil
	case "package", "packages":
		return KindPackage, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownItemKind, value)
	}
}

// RateCard holds one optional amount per tier. An unset tier means the item
// cannot be booked at that tier. The zero value has no rates.
type RateCard struct {
	rates [tierCount]decimal.NullDecimal
}

// NewRateCard builds a card from the given amounts. Tiers missing from the
// map stay unset.
func NewRateCard(amounts map[Tier]decimal.Decimal) (RateCard, error) {
	var card RateCard
	for tier, amount := range amounts {
		if !tier.Valid() {
			return RateCard{}, fmt.Errorf("%w: %d", ErrUnknownTier, int(tier))
		}
		if amount.IsNegative() {
			return RateCard{}, fmt.Errorf("%s rate %s: %w", tier, amount, ErrNegativeRate)
		}
		card.rates[tier] = decimal.NullDecimal{Decimal: amount, Valid: true}
	}
	return card, nil
}

// Rate returns the amount for tier and whether it is set.
func (c RateCard) Rate(tier Tier) (decimal.Decimal, bool) {
	if !tier.Valid() || !c.rates[tier].Valid {
		return decimal.Zero, false
	}
	return c.rates[tier].Decimal, true
}

// Has reports whether a rate is set for tier.
func (c RateCard) Has(tier Tier) bool {
	_, ok := c.Rate(tier)
	return ok
}

// With returns a copy of the card with tier set to amount.
func (c RateCard) With(tier Tier, amount decimal.Decimal) RateCard {
	if tier.Valid() {
		c.rates[tier] = decimal.NullDecimal{Decimal: amount, Valid: true}
	}
	return c
}

// Without returns a copy of the card with tier unset.
func (c RateCard) Without(tier Tier) RateCard {
	if tier.Valid() {
		c.rates[tier] = decimal.NullDecimal{}
	}
	return c
}

// Amounts returns the set rates keyed by tier.
func (c RateCard) Amounts() map[Tier]decimal.Decimal {
	amounts := make(map[Tier]decimal.Decimal, tierCount)
	for _, tier := range Tiers {
		if amount, ok := c.Rate(tier); ok {
			amounts[tier] = amount
		}
	}
	return amounts
}

// RentableItem is a space or package as supplied by the catalog.
type RentableItem struct {
	ID    string
	Kind  ItemKind
	Name  string
	Rates RateCard
}

// Selection is the set of items a booking is being priced for: any number
// of spaces, or exactly one package.
type Selection struct {
	Kind  ItemKind
	Items []RentableItem
}

// SpaceSelection selects the given spaces.
func SpaceSelection(spaces ...RentableItem) Selection {
	return Selection{Kind: KindSpace, Items: spaces}
}

// PackageSelection selects a single package.
func PackageSelection(pkg RentableItem) Selection {
	return Selection{Kind: KindPackage, Items: []RentableItem{pkg}}
}

func (s Selection) Empty() bool {
	return len(s.Items) == 0
}

// Validate checks the caller contract: non-empty, a single kind, and at
// most one package.
func (s Selection) Validate() error {
	if s.Empty() {
		return ErrEmptySelection
	}
	return s.shapeError()
}

// shapeError is Validate without the emptiness check. An empty selection is
// a legal resolver input; a malformed one is not.
func (s Selection) shapeError() error {
	if len(s.Items) == 0 {
		return nil
	}
	if !s.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownItemKind, s.Kind)
	}
	for _, item := range s.Items {
		if item.Kind != s.Kind {
			return fmt.Errorf("%w: %s %q in %s selection", ErrMixedSelection, item.Kind, item.ID, s.Kind)
		}
	}
	if s.Kind == KindPackage && len(s.Items) > 1 {
		return ErrMultiplePackages
	}
	return nil
}
