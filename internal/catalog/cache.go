package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/sethouse/internal/rates"
)

// Source is what the cache reloads from.
type Source interface {
	ListSpaces(ctx context.Context) ([]rates.RentableItem, error)
	ListPackages(ctx context.Context) ([]Package, error)
}

// Cache serves the catalog from an in-memory snapshot that Refresh swaps
// out wholesale. Readers never see a half-loaded catalog.
type Cache struct {
	source Source

	mu       sync.RWMutex
	snapshot *snapshot
}

type snapshot struct {
	spaces      []rates.RentableItem
	spacesByID  map[string]rates.RentableItem
	packages    []Package
	packageByID map[string]Package
	loadedAt    time.Time
}

func NewCache(source Source) *Cache {
	return &Cache{source: source}
}

// Refresh reloads every active space and package from the source. On error
// the previous snapshot stays in place.
func (c *Cache) Refresh(ctx context.Context) error {
	start := time.Now()

	spaces, err := c.source.ListSpaces(ctx)
	if err != nil {
		return fmt.Errorf("refresh spaces: %w", err)
	}
	packages, err := c.source.ListPackages(ctx)
	if err != nil {
		return fmt.Errorf("refresh packages: %w", err)
	}

	next := &snapshot{
		spaces:      spaces,
		spacesByID:  make(map[string]rates.RentableItem, len(spaces)),
		packages:    packages,
		packageByID: make(map[string]Package, len(packages)),
		loadedAt:    time.Now(),
	}
	for _, space := range spaces {
		next.spacesByID[space.ID] = space
	}
	for _, pkg := range packages {
		next.packageByID[pkg.ID] = pkg
	}

	c.mu.Lock()
	c.snapshot = next
	c.mu.Unlock()

	log.Ctx(ctx).Debug().
		Int("spaces", len(spaces)).
		Int("packages", len(packages)).
		Dur("duration", time.Since(start)).
		Msg("Catalog cache refreshed")
	return nil
}

// LoadedAt returns when the current snapshot was loaded, or the zero time.
func (c *Cache) LoadedAt() time.Time {
	snap := c.current()
	if snap == nil {
		return time.Time{}
	}
	return snap.loadedAt
}

func (c *Cache) current() *snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

func (c *Cache) Spaces(_ context.Context, ids []string) ([]rates.RentableItem, error) {
	snap := c.current()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	spaces := make([]rates.RentableItem, 0, len(ids))
	for _, id := range ids {
		space, ok := snap.spacesByID[id]
		if !ok {
			return nil, fmt.Errorf("space %q: %w", id, ErrItemNotFound)
		}
		spaces = append(spaces, space)
	}
	return spaces, nil
}

func (c *Cache) Package(_ context.Context, id string) (rates.RentableItem, error) {
	snap := c.current()
	if snap == nil {
		return rates.RentableItem{}, ErrNotLoaded
	}
	pkg, ok := snap.packageByID[id]
	if !ok {
		return rates.RentableItem{}, fmt.Errorf("package %q: %w", id, ErrItemNotFound)
	}
	return pkg.RentableItem, nil
}

func (c *Cache) ListSpaces(_ context.Context) ([]rates.RentableItem, error) {
	snap := c.current()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	spaces := make([]rates.RentableItem, len(snap.spaces))
	copy(spaces, snap.spaces)
	return spaces, nil
}

func (c *Cache) ListPackages(_ context.Context) ([]Package, error) {
	snap := c.current()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	packages := make([]Package, len(snap.packages))
	copy(packages, snap.packages)
	return packages, nil
}
