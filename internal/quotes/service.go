// Package quotes turns a booking dialog's selection into a priced quote.
// It owns the caller side of the resolver contract: selections are
// de-duplicated, checked for emptiness and shape, and resolved against the
// catalog before any rate is computed.
package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/codr1/sethouse/internal/catalog"
	"github.com/codr1/sethouse/internal/rates"
)

var (
	ErrEmptySelection   = errors.New("select at least one space or a package")
	ErrMultiplePackages = errors.New("only one package can be booked at a time")
	ErrInvalidKind      = errors.New("kind must be space or package")
)

// RequestError is a problem with the request itself rather than the catalog.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Request describes the dialog state: what is selected and, optionally,
// which tier the user picked.
type Request struct {
	Kind    rates.ItemKind
	ItemIDs []string
	Tier    *rates.Tier
}

// TierOption is one tier button: enabled when the tier is available.
type TierOption struct {
	Tier      rates.Tier
	Available bool
}

// Result is everything the dialog needs to redraw after a change.
type Result struct {
	Kind  rates.ItemKind
	Items []rates.RentableItem
	Tiers []TierOption
	// DefaultTier is nil when no tier is available for the selection.
	DefaultTier *rates.Tier
	// Quote is nil when no tier was requested and none is available.
	Quote *rates.Quote
	// Bookable is false when the quoted tier is not available; the
	// surrounding application must not create a booking from such a quote.
	Bookable bool
}

type Service struct {
	provider catalog.Provider
}

func NewService(provider catalog.Provider) *Service {
	return &Service{provider: provider}
}

// Quote validates the request, loads the selected items and prices them.
func (s *Service) Quote(ctx context.Context, req Request) (Result, error) {
	logger := log.Ctx(ctx)

	ids := normalizeIDs(req.ItemIDs)
	if len(ids) == 0 {
		return Result{}, &RequestError{Err: ErrEmptySelection}
	}
	if req.Tier != nil && !req.Tier.Valid() {
		return Result{}, &RequestError{Err: fmt.Errorf("%w: %d", rates.ErrUnknownTier, int(*req.Tier))}
	}

	var sel rates.Selection
	switch req.Kind {
	case rates.KindSpace:
		spaces, err := s.provider.Spaces(ctx, ids)
		if err != nil {
			return Result{}, fmt.Errorf("load spaces: %w", err)
		}
		sel = rates.SpaceSelection(spaces...)
	case rates.KindPackage:
		if len(ids) > 1 {
			return Result{}, &RequestError{Err: ErrMultiplePackages}
		}
		pkg, err := s.provider.Package(ctx, ids[0])
		if err != nil {
			return Result{}, fmt.Errorf("load package: %w", err)
		}
		sel = rates.PackageSelection(pkg)
	default:
		return Result{}, &RequestError{Err: fmt.Errorf("%w: %q", ErrInvalidKind, req.Kind)}
	}

	if err := sel.Validate(); err != nil {
		return Result{}, fmt.Errorf("catalog returned an invalid selection: %w", err)
	}

	result := Result{
		Kind:  sel.Kind,
		Items: sel.Items,
		Tiers: make([]TierOption, 0, len(rates.Tiers)),
	}
	for _, tier := range rates.Tiers {
		result.Tiers = append(result.Tiers, TierOption{Tier: tier, Available: rates.IsTierAvailable(sel, tier)})
	}
	if tier, ok := rates.SelectDefaultTier(sel); ok {
		result.DefaultTier = &tier
	}

	quoteTier := req.Tier
	if quoteTier == nil {
		quoteTier = result.DefaultTier
	}
	if quoteTier == nil {
		logger.Debug().
			Str("kind", string(sel.Kind)).
			Strs("item_ids", ids).
			Msg("No rate tier available for selection")
		return result, nil
	}

	quote := rates.BuildQuote(sel, *quoteTier)
	result.Quote = &quote
	result.Bookable = rates.IsTierAvailable(sel, *quoteTier)

	logger.Debug().
		Str("kind", string(sel.Kind)).
		Strs("item_ids", ids).
		Str("tier", quote.Tier.String()).
		Str("total", rates.FormatAmount(quote.Total)).
		Bool("bookable", result.Bookable).
		Msg("Quote computed")
	return result, nil
}

// normalizeIDs trims IDs and drops blanks and repeats, keeping first-seen
// order. Selecting the same space twice does not price it twice.
func normalizeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	normalized := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		normalized = append(normalized, id)
	}
	return normalized
}
