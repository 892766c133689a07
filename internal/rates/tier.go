// Package rates resolves which booking rate tier a selection of spaces or a
// package can use and what that selection costs at a tier.
//
// Everything in this package is pure: no I/O, no logging and no shared
// state. Callers pass the selection in by value on every recomputation.
package rates

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownTier = errors.New("unknown rate tier")

// Tier is a booking rate tier.
type Tier int

const (
	TierHourly Tier = iota
	TierHalfDay
	TierDaily
	TierWeekly
	TierMonthly

	tierCount = iota
)

// Tiers lists every tier in display order. The order is a UI convention,
// not a ranking by price or duration.
var Tiers = [tierCount]Tier{
	TierHourly,
	TierHalfDay,
	TierDaily,
	TierWeekly,
	TierMonthly,
}

var tierNames = [tierCount]string{
	TierHourly:  "hourly",
	TierHalfDay: "half_day",
	TierDaily:   "daily",
	TierWeekly:  "weekly",
	TierMonthly: "monthly",
}

// Valid reports whether t is one of the five known tiers.
func (t Tier) Valid() bool {
	return t >= 0 && t < tierCount
}

func (t Tier) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return tierNames[t]
}

// ParseTier parses the snake_case tier name ("half_day", "daily", ...).
func ParseTier(value string) (Tier, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for tier, name := range tierNames {
		if name == normalized {
			return Tier(tier), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTier, value)
}

func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTier, int(t))
	}
	return []byte(tierNames[t]), nil
}

func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
