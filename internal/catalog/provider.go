// Package catalog supplies rentable spaces and packages with their rate
// cards. The rate resolver reads from it but never writes to it.
package catalog

import (
	"context"
	"errors"

	"github.com/codr1/sethouse/internal/rates"
)

var (
	ErrItemNotFound = errors.New("rentable item not found")
	ErrNotLoaded    = errors.New("catalog cache not loaded")
	ErrInvalidItem  = errors.New("invalid rentable item")
)

// Provider looks up active rentable items.
type Provider interface {
	// Spaces returns the requested spaces in request order. Any unknown or
	// inactive ID fails the whole lookup with ErrItemNotFound.
	Spaces(ctx context.Context, ids []string) ([]rates.RentableItem, error)
	Package(ctx context.Context, id string) (rates.RentableItem, error)
	ListSpaces(ctx context.Context) ([]rates.RentableItem, error)
	ListPackages(ctx context.Context) ([]Package, error)
}

// Package is a bookable bundle. SpaceIDs lists the spaces it covers; the
// bundle is priced by its own rate card, not by its members.
type Package struct {
	rates.RentableItem
	SpaceIDs []string
}
