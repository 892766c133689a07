package rates

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func space(t *testing.T, id string, amounts map[Tier]string) RentableItem {
	t.Helper()
	return item(t, KindSpace, id, amounts)
}

func pkg(t *testing.T, id string, amounts map[Tier]string) RentableItem {
	t.Helper()
	return item(t, KindPackage, id, amounts)
}

func item(t *testing.T, kind ItemKind, id string, amounts map[Tier]string) RentableItem {
	t.Helper()
	parsed := make(map[Tier]decimal.Decimal, len(amounts))
	for tier, value := range amounts {
		parsed[tier] = decimal.RequireFromString(value)
	}
	card, err := NewRateCard(parsed)
	if err != nil {
		t.Fatalf("NewRateCard(%v) error = %v", amounts, err)
	}
	return RentableItem{ID: id, Kind: kind, Name: id, Rates: card}
}

func assertAmount(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s = %s, want %s", label, got, want)
	}
}

func TestTwoSpacesDailyOnly(t *testing.T) {
	sel := SpaceSelection(
		space(t, "stage-a", map[Tier]string{TierDaily: "500"}),
		space(t, "stage-b", map[Tier]string{TierDaily: "300"}),
	)

	if !IsTierAvailable(sel, TierDaily) {
		t.Fatalf("IsTierAvailable(daily) = false, want true")
	}
	if IsTierAvailable(sel, TierHourly) {
		t.Fatalf("IsTierAvailable(hourly) = true, want false")
	}
	assertAmount(t, "ComputeTotal(daily)", ComputeTotal(sel, TierDaily), "800")
}

func TestSpaceWithoutRatesContributesZero(t *testing.T) {
	sel := SpaceSelection(
		space(t, "stage-a", map[Tier]string{TierDaily: "500"}),
		space(t, "green-room", nil),
	)

	if !IsTierAvailable(sel, TierDaily) {
		t.Fatalf("IsTierAvailable(daily) = false, want true")
	}
	assertAmount(t, "ComputeTotal(daily)", ComputeTotal(sel, TierDaily), "500")

	quote := BuildQuote(sel, TierDaily)
	if len(quote.Breakdown) != 2 {
		t.Fatalf("breakdown length = %d, want 2", len(quote.Breakdown))
	}
	if quote.Breakdown[1].ItemID != "green-room" {
		t.Fatalf("breakdown[1].ItemID = %q, want green-room", quote.Breakdown[1].ItemID)
	}
	assertAmount(t, "breakdown[1].Amount", quote.Breakdown[1].Amount, "0")
}

func TestPackageHalfDayOnly(t *testing.T) {
	sel := PackageSelection(pkg(t, "full-lot", map[Tier]string{TierHalfDay: "1200"}))

	tier, ok := SelectDefaultTier(sel)
	if !ok || tier != TierHalfDay {
		t.Fatalf("SelectDefaultTier() = %s, %t, want half_day, true", tier, ok)
	}
	assertAmount(t, "ComputeTotal(half_day)", ComputeTotal(sel, TierHalfDay), "1200")
	assertAmount(t, "ComputeTotal(daily)", ComputeTotal(sel, TierDaily), "0")
	if IsTierAvailable(sel, TierDaily) {
		t.Fatalf("IsTierAvailable(daily) = true, want false")
	}
}

func TestEmptySelection(t *testing.T) {
	selections := map[string]Selection{
		"zero_value":      {},
		"empty_spaces":    SpaceSelection(),
		"empty_with_kind": {Kind: KindPackage},
	}

	for name, sel := range selections {
		t.Run(name, func(t *testing.T) {
			if tier, ok := SelectDefaultTier(sel); ok {
				t.Fatalf("SelectDefaultTier() = %s, true, want none", tier)
			}
			for _, tier := range Tiers {
				if IsTierAvailable(sel, tier) {
					t.Fatalf("IsTierAvailable(%s) = true, want false", tier)
				}
			}
			assertAmount(t, "ComputeTotal(daily)", ComputeTotal(sel, TierDaily), "0")
			if got := AvailableTiers(sel); len(got) != 0 {
				t.Fatalf("AvailableTiers() = %v, want none", got)
			}
		})
	}
}

func TestComputeTotalIsAdditive(t *testing.T) {
	spaces := []RentableItem{
		space(t, "a", map[Tier]string{TierHourly: "75.25", TierDaily: "500.10"}),
		space(t, "b", map[Tier]string{TierDaily: "300.05", TierWeekly: "1800"}),
		space(t, "c", map[Tier]string{TierHourly: "40.50", TierMonthly: "6000"}),
		space(t, "d", nil),
	}
	sel := SpaceSelection(spaces...)

	for _, tier := range Tiers {
		sum := decimal.Zero
		for _, s := range spaces {
			sum = sum.Add(ComputeTotal(SpaceSelection(s), tier))
		}
		if got := ComputeTotal(sel, tier); !got.Equal(sum) {
			t.Fatalf("ComputeTotal(%s) = %s, want sum of singles %s", tier, got, sum)
		}
		if got := ComputeTotal(sel, tier); got.IsNegative() {
			t.Fatalf("ComputeTotal(%s) = %s, want non-negative", tier, got)
		}
	}
}

func TestComputeTotalHasNoFloatDrift(t *testing.T) {
	items := make([]RentableItem, 0, 1000)
	for i := 0; i < 1000; i++ {
		items = append(items, space(t, "s", map[Tier]string{TierHourly: "0.10"}))
	}

	assertAmount(t, "ComputeTotal(hourly)", ComputeTotal(SpaceSelection(items...), TierHourly), "100")
}

func TestPackagePassthrough(t *testing.T) {
	amounts := map[Tier]string{
		TierHourly:  "150",
		TierDaily:   "2400.50",
		TierMonthly: "30000",
	}
	p := pkg(t, "studio-bundle", amounts)
	sel := PackageSelection(p)

	for _, tier := range Tiers {
		want := "0"
		if value, ok := amounts[tier]; ok {
			want = value
		}
		assertAmount(t, "ComputeTotal("+tier.String()+")", ComputeTotal(sel, tier), want)
		if got, want := IsTierAvailable(sel, tier), p.Rates.Has(tier); got != want {
			t.Fatalf("IsTierAvailable(%s) = %t, want %t", tier, got, want)
		}
	}
}

func TestSelectDefaultTierReturnsFirstAvailable(t *testing.T) {
	tests := []struct {
		name   string
		sel    Selection
		want   Tier
		wantOK bool
	}{
		{
			name:   "hourly_first",
			sel:    SpaceSelection(space(t, "a", map[Tier]string{TierMonthly: "1", TierHourly: "1"})),
			want:   TierHourly,
			wantOK: true,
		},
		{
			name: "weekly_from_second_space",
			sel: SpaceSelection(
				space(t, "a", map[Tier]string{TierMonthly: "9000"}),
				space(t, "b", map[Tier]string{TierWeekly: "2000"}),
			),
			want:   TierWeekly,
			wantOK: true,
		},
		{
			name:   "zero_rate_counts_as_set",
			sel:    PackageSelection(pkg(t, "p", map[Tier]string{TierDaily: "0"})),
			want:   TierDaily,
			wantOK: true,
		},
		{
			name:   "no_rates",
			sel:    SpaceSelection(space(t, "a", nil), space(t, "b", nil)),
			wantOK: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := SelectDefaultTier(test.sel)
			if ok != test.wantOK || (ok && got != test.want) {
				t.Fatalf("SelectDefaultTier() = %s, %t, want %s, %t", got, ok, test.want, test.wantOK)
			}
			if !ok {
				return
			}
			if !IsTierAvailable(test.sel, got) {
				t.Fatalf("default tier %s is not available", got)
			}
			for _, earlier := range Tiers[:got] {
				if IsTierAvailable(test.sel, earlier) {
					t.Fatalf("tier %s is available but precedes default %s", earlier, got)
				}
			}
		})
	}
}

func TestAvailableTiersInDisplayOrder(t *testing.T) {
	sel := SpaceSelection(
		space(t, "a", map[Tier]string{TierMonthly: "1", TierDaily: "1"}),
		space(t, "b", map[Tier]string{TierHalfDay: "1"}),
	)

	got := AvailableTiers(sel)
	want := []Tier{TierHalfDay, TierDaily, TierMonthly}
	if len(got) != len(want) {
		t.Fatalf("AvailableTiers() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("AvailableTiers() = %v, want %v", got, want)
		}
	}
}

func TestResolverIsIdempotent(t *testing.T) {
	sel := SpaceSelection(
		space(t, "a", map[Tier]string{TierDaily: "199.99"}),
		space(t, "b", map[Tier]string{TierDaily: "0.01", TierWeekly: "700"}),
	)

	for _, tier := range Tiers {
		if IsTierAvailable(sel, tier) != IsTierAvailable(sel, tier) {
			t.Fatalf("IsTierAvailable(%s) changed between calls", tier)
		}
		first, second := ComputeTotal(sel, tier), ComputeTotal(sel, tier)
		if !first.Equal(second) {
			t.Fatalf("ComputeTotal(%s) = %s then %s", tier, first, second)
		}
	}
}

func TestBuildQuoteBreakdownSumsToTotal(t *testing.T) {
	sel := SpaceSelection(
		space(t, "a", map[Tier]string{TierWeekly: "1234.56"}),
		space(t, "b", map[Tier]string{TierWeekly: "65.44"}),
		space(t, "c", map[Tier]string{TierDaily: "10"}),
	)

	quote := BuildQuote(sel, TierWeekly)
	if quote.Tier != TierWeekly {
		t.Fatalf("quote tier = %s, want weekly", quote.Tier)
	}
	sum := decimal.Zero
	for _, line := range quote.Breakdown {
		sum = sum.Add(line.Amount)
	}
	if !sum.Equal(quote.Total) {
		t.Fatalf("breakdown sum = %s, total = %s", sum, quote.Total)
	}
	assertAmount(t, "quote total", quote.Total, "1300")
	if got := FormatAmount(quote.Total); got != "1300.00" {
		t.Fatalf("FormatAmount(total) = %q, want 1300.00", got)
	}
}

func TestResolverPanicsOnMalformedSelection(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
	}{
		{
			name: "mixed_kinds",
			sel: SpaceSelection(
				space(t, "a", map[Tier]string{TierDaily: "1"}),
				pkg(t, "p", map[Tier]string{TierDaily: "1"}),
			),
		},
		{
			name: "two_packages",
			sel: Selection{Kind: KindPackage, Items: []RentableItem{
				pkg(t, "p1", nil),
				pkg(t, "p2", nil),
			}},
		},
		{
			name: "unknown_kind",
			sel:  Selection{Kind: "vehicle", Items: []RentableItem{{ID: "x", Kind: "vehicle"}}},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatalf("ComputeTotal() did not panic")
				}
			}()
			ComputeTotal(test.sel, TierDaily)
		})
	}
}

func TestSelectionValidate(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
		want error
	}{
		{name: "empty", sel: SpaceSelection(), want: ErrEmptySelection},
		{name: "spaces", sel: SpaceSelection(space(t, "a", nil), space(t, "b", nil)), want: nil},
		{name: "package", sel: PackageSelection(pkg(t, "p", nil)), want: nil},
		{name: "mixed", sel: SpaceSelection(space(t, "a", nil), pkg(t, "p", nil)), want: ErrMixedSelection},
		{
			name: "two_packages",
			sel:  Selection{Kind: KindPackage, Items: []RentableItem{pkg(t, "p1", nil), pkg(t, "p2", nil)}},
			want: ErrMultiplePackages,
		},
		{name: "unknown_kind", sel: Selection{Items: []RentableItem{{ID: "x"}}}, want: ErrUnknownItemKind},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.sel.Validate()
			if test.want == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, test.want) {
				t.Fatalf("Validate() error = %v, want %v", err, test.want)
			}
		})
	}
}
