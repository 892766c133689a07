package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/codr1/sethouse/internal/rates"
	"github.com/codr1/sethouse/internal/testutil"
)

const seedRateCard = `spaces:
  - id: stage-a
    name: Stage A
    rates:
      hourly: "75.50"
      daily: "500.00"
  - id: stage-b
    name: Stage B
    rates:
      daily: "300"
  - id: green-room
    name: Green Room
packages:
  - id: full-lot
    name: Full Lot
    spaces: [stage-a, stage-b]
    rates:
      half_day: "1200"
`

func setupStore(t *testing.T) *Store {
	t.Helper()

	store := NewStore(testutil.NewTestDB(t))
	card, err := ParseRateCardFile([]byte(seedRateCard))
	if err != nil {
		t.Fatalf("ParseRateCardFile() error = %v", err)
	}
	if err := store.Import(context.Background(), card); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	return store
}

func TestStoreSpacesInRequestOrder(t *testing.T) {
	store := setupStore(t)

	spaces, err := store.Spaces(context.Background(), []string{"stage-b", "green-room", "stage-a"})
	if err != nil {
		t.Fatalf("Spaces() error = %v", err)
	}
	if len(spaces) != 3 {
		t.Fatalf("len(Spaces()) = %d, want 3", len(spaces))
	}
	wantIDs := []string{"stage-b", "green-room", "stage-a"}
	for i, space := range spaces {
		if space.ID != wantIDs[i] {
			t.Fatalf("spaces[%d].ID = %q, want %q", i, space.ID, wantIDs[i])
		}
		if space.Kind != rates.KindSpace {
			t.Fatalf("spaces[%d].Kind = %q, want space", i, space.Kind)
		}
	}

	hourly, ok := spaces[2].Rates.Rate(rates.TierHourly)
	if !ok || !hourly.Equal(decimal.RequireFromString("75.5")) {
		t.Fatalf("stage-a hourly = %s, %t, want 75.5, true", hourly, ok)
	}
	if spaces[1].Rates.Has(rates.TierDaily) {
		t.Fatalf("green-room has a daily rate, want none")
	}
}

func TestStoreSpacesUnknownID(t *testing.T) {
	store := setupStore(t)

	_, err := store.Spaces(context.Background(), []string{"stage-a", "backlot"})
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("Spaces(backlot) error = %v, want ErrItemNotFound", err)
	}
}

func TestStorePackage(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	pkg, err := store.Package(ctx, "full-lot")
	if err != nil {
		t.Fatalf("Package() error = %v", err)
	}
	if pkg.Kind != rates.KindPackage || pkg.Name != "Full Lot" {
		t.Fatalf("Package() = %+v", pkg)
	}
	if amount, ok := pkg.Rates.Rate(rates.TierHalfDay); !ok || !amount.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("half_day = %s, %t, want 1200, true", amount, ok)
	}

	if _, err := store.Package(ctx, "stage-a"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("Package(stage-a) error = %v, want ErrItemNotFound", err)
	}
}

func TestStoreListPackagesIncludesMembers(t *testing.T) {
	store := setupStore(t)

	packages, err := store.ListPackages(context.Background())
	if err != nil {
		t.Fatalf("ListPackages() error = %v", err)
	}
	if len(packages) != 1 {
		t.Fatalf("len(ListPackages()) = %d, want 1", len(packages))
	}
	got := packages[0].SpaceIDs
	if len(got) != 2 || got[0] != "stage-a" || got[1] != "stage-b" {
		t.Fatalf("SpaceIDs = %v, want [stage-a stage-b]", got)
	}
}

func TestStoreSetActiveHidesItem(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.SetActive(ctx, rates.KindSpace, "stage-b", false); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	if _, err := store.Spaces(ctx, []string{"stage-b"}); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("Spaces(inactive) error = %v, want ErrItemNotFound", err)
	}
	spaces, err := store.ListSpaces(ctx)
	if err != nil {
		t.Fatalf("ListSpaces() error = %v", err)
	}
	if len(spaces) != 2 {
		t.Fatalf("len(ListSpaces()) = %d, want 2", len(spaces))
	}

	if err := store.SetActive(ctx, rates.KindPackage, "missing", true); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("SetActive(missing) error = %v, want ErrItemNotFound", err)
	}
}

func TestStoreUpsertSpaceReplacesRates(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	card, err := rates.NewRateCard(map[rates.Tier]decimal.Decimal{
		rates.TierWeekly: decimal.RequireFromString("2500.25"),
	})
	if err != nil {
		t.Fatalf("NewRateCard() error = %v", err)
	}
	err = store.UpsertSpace(ctx, rates.RentableItem{ID: "stage-a", Name: "Stage A (renovated)", Rates: card})
	if err != nil {
		t.Fatalf("UpsertSpace() error = %v", err)
	}

	spaces, err := store.Spaces(ctx, []string{"stage-a"})
	if err != nil {
		t.Fatalf("Spaces() error = %v", err)
	}
	if spaces[0].Name != "Stage A (renovated)" {
		t.Fatalf("name = %q", spaces[0].Name)
	}
	if spaces[0].Rates.Has(rates.TierDaily) {
		t.Fatalf("daily rate survived upsert")
	}
	if amount, _ := spaces[0].Rates.Rate(rates.TierWeekly); !amount.Equal(decimal.RequireFromString("2500.25")) {
		t.Fatalf("weekly = %s, want 2500.25", amount)
	}

	err = store.UpsertSpace(ctx, rates.RentableItem{ID: "", Name: "Nameless"})
	if !errors.Is(err, ErrInvalidItem) {
		t.Fatalf("UpsertSpace(no id) error = %v, want ErrInvalidItem", err)
	}
}

func TestStoreUpsertPackageRejectsUnknownSpace(t *testing.T) {
	store := setupStore(t)

	err := store.UpsertPackage(context.Background(), Package{
		RentableItem: rates.RentableItem{ID: "night-shoot", Name: "Night Shoot"},
		SpaceIDs:     []string{"stage-z"},
	})
	if err == nil {
		t.Fatalf("UpsertPackage(unknown space) error = nil, want foreign key failure")
	}

	if _, err := store.Package(context.Background(), "night-shoot"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("Package(night-shoot) error = %v, want rollback to leave no package", err)
	}
}
