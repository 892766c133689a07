package catalog

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/codr1/sethouse/internal/rates"
)

// RateCardFile is the YAML document used to seed or update the catalog:
//
//	spaces:
//	  - id: stage-a
//	    name: Stage A
//	    rates:
//	      daily: "500.00"
//	packages:
//	  - id: full-lot
//	    name: Full Lot
//	    spaces: [stage-a]
//	    rates:
//	      half_day: "1200"
type RateCardFile struct {
	Spaces   []RateCardEntry `yaml:"spaces"`
	Packages []RateCardEntry `yaml:"packages"`
}

type RateCardEntry struct {
	ID       string            `yaml:"id"`
	Name     string            `yaml:"name"`
	Rates    map[string]string `yaml:"rates"`
	SpaceIDs []string          `yaml:"spaces,omitempty"`
}

// LoadRateCardFile reads and parses a rate card file.
func LoadRateCardFile(path string) (*RateCardFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading rate card: %w", err)
	}
	return ParseRateCardFile(data)
}

// ParseRateCardFile parses and validates a rate card document.
func ParseRateCardFile(data []byte) (*RateCardFile, error) {
	var card RateCardFile
	if err := yaml.Unmarshal(data, &card); err != nil {
		return nil, fmt.Errorf("error parsing rate card: %w", err)
	}
	if _, _, err := card.Items(); err != nil {
		return nil, err
	}
	return &card, nil
}

// Items converts the document into catalog items.
func (f *RateCardFile) Items() ([]rates.RentableItem, []Package, error) {
	seen := make(map[string]bool)

	spaces := make([]rates.RentableItem, 0, len(f.Spaces))
	for _, entry := range f.Spaces {
		item, err := entry.item(rates.KindSpace)
		if err != nil {
			return nil, nil, err
		}
		if seen["space:"+item.ID] {
			return nil, nil, fmt.Errorf("%w: duplicate space %q", ErrInvalidItem, item.ID)
		}
		seen["space:"+item.ID] = true
		spaces = append(spaces, item)
	}

	packages := make([]Package, 0, len(f.Packages))
	for _, entry := range f.Packages {
		item, err := entry.item(rates.KindPackage)
		if err != nil {
			return nil, nil, err
		}
		if seen["package:"+item.ID] {
			return nil, nil, fmt.Errorf("%w: duplicate package %q", ErrInvalidItem, item.ID)
		}
		seen["package:"+item.ID] = true
		packages = append(packages, Package{RentableItem: item, SpaceIDs: entry.SpaceIDs})
	}

	return spaces, packages, nil
}

func (e RateCardEntry) item(kind rates.ItemKind) (rates.RentableItem, error) {
	item := rates.RentableItem{ID: e.ID, Kind: kind, Name: e.Name}
	if err := validateItem(item, kind); err != nil {
		return rates.RentableItem{}, err
	}

	amounts := make(map[rates.Tier]decimal.Decimal, len(e.Rates))
	for name, value := range e.Rates {
		tier, err := rates.ParseTier(name)
		if err != nil {
			return rates.RentableItem{}, fmt.Errorf("%s %q: %w", kind, e.ID, err)
		}
		if _, dup := amounts[tier]; dup {
			return rates.RentableItem{}, fmt.Errorf("%w: %s %q sets the %s rate twice", ErrInvalidItem, kind, e.ID, tier)
		}
		amount, err := decimal.NewFromString(value)
		if err != nil {
			return rates.RentableItem{}, fmt.Errorf("%s %q %s rate %q: %w", kind, e.ID, tier, value, err)
		}
		amounts[tier] = amount
	}

	card, err := rates.NewRateCard(amounts)
	if err != nil {
		return rates.RentableItem{}, fmt.Errorf("%s %q: %w", kind, e.ID, err)
	}
	item.Rates = card
	return item, nil
}
