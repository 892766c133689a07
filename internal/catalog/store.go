package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/codr1/sethouse/internal/db"
	"github.com/codr1/sethouse/internal/rates"
)

// rateColumns maps each tier to its column, in tier order.
var rateColumns = [...]string{
	rates.TierHourly:  "hourly_rate",
	rates.TierHalfDay: "half_day_rate",
	rates.TierDaily:   "daily_rate",
	rates.TierWeekly:  "weekly_rate",
	rates.TierMonthly: "monthly_rate",
}

var itemColumns = "id, name, " + strings.Join(rateColumns[:], ", ")

// Store is the SQLite-backed catalog.
type Store struct {
	db *db.DB
}

func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

func (s *Store) Spaces(ctx context.Context, ids []string) ([]rates.RentableItem, error) {
	if len(ids) == 0 {
		return []rates.RentableItem{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM spaces WHERE is_active = 1 AND id IN ("+placeholders+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query spaces: %w", err)
	}
	found, err := scanItems(rows, rates.KindSpace)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]rates.RentableItem, len(found))
	for _, item := range found {
		byID[item.ID] = item
	}

	spaces := make([]rates.RentableItem, 0, len(ids))
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("space %q: %w", id, ErrItemNotFound)
		}
		spaces = append(spaces, item)
	}
	return spaces, nil
}

func (s *Store) Package(ctx context.Context, id string) (rates.RentableItem, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM packages WHERE is_active = 1 AND id = ?",
		id,
	)
	item, err := scanItem(row, rates.KindPackage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rates.RentableItem{}, fmt.Errorf("package %q: %w", id, ErrItemNotFound)
		}
		return rates.RentableItem{}, err
	}
	return item, nil
}

func (s *Store) ListSpaces(ctx context.Context) ([]rates.RentableItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM spaces WHERE is_active = 1 ORDER BY name, id",
	)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	return scanItems(rows, rates.KindSpace)
}

func (s *Store) ListPackages(ctx context.Context) ([]Package, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM packages WHERE is_active = 1 ORDER BY name, id",
	)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	items, err := scanItems(rows, rates.KindPackage)
	if err != nil {
		return nil, err
	}

	members, err := s.packageMembers(ctx)
	if err != nil {
		return nil, err
	}

	packages := make([]Package, 0, len(items))
	for _, item := range items {
		spaceIDs := members[item.ID]
		if spaceIDs == nil {
			spaceIDs = []string{}
		}
		packages = append(packages, Package{RentableItem: item, SpaceIDs: spaceIDs})
	}
	return packages, nil
}

func (s *Store) packageMembers(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT package_id, space_id FROM package_spaces ORDER BY package_id, space_id",
	)
	if err != nil {
		return nil, fmt.Errorf("list package spaces: %w", err)
	}
	defer rows.Close()

	members := make(map[string][]string)
	for rows.Next() {
		var packageID, spaceID string
		if err := rows.Scan(&packageID, &spaceID); err != nil {
			return nil, fmt.Errorf("scan package space: %w", err)
		}
		members[packageID] = append(members[packageID], spaceID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate package spaces: %w", err)
	}
	return members, nil
}

// UpsertSpace creates or replaces a space and reactivates it.
func (s *Store) UpsertSpace(ctx context.Context, space rates.RentableItem) error {
	return upsertSpace(ctx, s.db, space)
}

// UpsertPackage creates or replaces a package and its member spaces.
func (s *Store) UpsertPackage(ctx context.Context, pkg Package) error {
	return s.db.RunInTx(ctx, func(q db.Querier) error {
		return upsertPackage(ctx, q, pkg)
	})
}

// SetActive hides or restores an item without deleting its rate card.
func (s *Store) SetActive(ctx context.Context, kind rates.ItemKind, id string, active bool) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE "+table+" SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		active, id,
	)
	if err != nil {
		return fmt.Errorf("update %s %q: %w", kind, id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s %q: %w", kind, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %q: %w", kind, id, ErrItemNotFound)
	}
	return nil
}

// Import writes a whole rate card in one transaction.
func (s *Store) Import(ctx context.Context, card *RateCardFile) error {
	spaces, packages, err := card.Items()
	if err != nil {
		return err
	}
	return s.db.RunInTx(ctx, func(q db.Querier) error {
		for _, space := range spaces {
			if err := upsertSpace(ctx, q, space); err != nil {
				return err
			}
		}
		for _, pkg := range packages {
			if err := upsertPackage(ctx, q, pkg); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertSpace(ctx context.Context, q db.Querier, space rates.RentableItem) error {
	if err := validateItem(space, rates.KindSpace); err != nil {
		return err
	}
	args := append([]any{space.ID, space.Name}, rateArgs(space.Rates)...)
	_, err := q.ExecContext(ctx, upsertStatement("spaces"), args...)
	if err != nil {
		return fmt.Errorf("upsert space %q: %w", space.ID, err)
	}
	return nil
}

func upsertPackage(ctx context.Context, q db.Querier, pkg Package) error {
	if err := validateItem(pkg.RentableItem, rates.KindPackage); err != nil {
		return err
	}
	args := append([]any{pkg.ID, pkg.Name}, rateArgs(pkg.Rates)...)
	if _, err := q.ExecContext(ctx, upsertStatement("packages"), args...); err != nil {
		return fmt.Errorf("upsert package %q: %w", pkg.ID, err)
	}

	if _, err := q.ExecContext(ctx, "DELETE FROM package_spaces WHERE package_id = ?", pkg.ID); err != nil {
		return fmt.Errorf("clear package %q spaces: %w", pkg.ID, err)
	}
	for _, spaceID := range pkg.SpaceIDs {
		_, err := q.ExecContext(ctx,
			"INSERT INTO package_spaces (package_id, space_id) VALUES (?, ?)",
			pkg.ID, spaceID,
		)
		if err != nil {
			return fmt.Errorf("add space %q to package %q: %w", spaceID, pkg.ID, err)
		}
	}
	return nil
}

func upsertStatement(table string) string {
	assignments := make([]string, 0, len(rateColumns)+3)
	assignments = append(assignments, "name = excluded.name")
	for _, column := range rateColumns {
		assignments = append(assignments, column+" = excluded."+column)
	}
	assignments = append(assignments, "is_active = 1", "updated_at = CURRENT_TIMESTAMP")

	return "INSERT INTO " + table + " (" + itemColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?) " +
		"ON CONFLICT(id) DO UPDATE SET " + strings.Join(assignments, ", ")
}

func validateItem(item rates.RentableItem, kind rates.ItemKind) error {
	if strings.TrimSpace(item.ID) == "" {
		return fmt.Errorf("%w: %s id is required", ErrInvalidItem, kind)
	}
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("%w: %s %q name is required", ErrInvalidItem, kind, item.ID)
	}
	if item.Kind != "" && item.Kind != kind {
		return fmt.Errorf("%w: %q is a %s, not a %s", ErrInvalidItem, item.ID, item.Kind, kind)
	}
	return nil
}

func tableFor(kind rates.ItemKind) (string, error) {
	switch kind {
	case rates.KindSpace:
		return "spaces", nil
	case rates.KindPackage:
		return "packages", nil
	default:
		return "", fmt.Errorf("%w: %q", rates.ErrUnknownItemKind, kind)
	}
}

func rateArgs(card rates.RateCard) []any {
	args := make([]any, len(rates.Tiers))
	for i, tier := range rates.Tiers {
		value := sql.NullString{}
		if amount, ok := card.Rate(tier); ok {
			value = sql.NullString{String: amount.String(), Valid: true}
		}
		args[i] = value
	}
	return args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner, kind rates.ItemKind) (rates.RentableItem, error) {
	var (
		item    rates.RentableItem
		columns [len(rateColumns)]sql.NullString
	)
	dest := []any{&item.ID, &item.Name}
	for i := range columns {
		dest = append(dest, &columns[i])
	}
	if err := row.Scan(dest...); err != nil {
		return rates.RentableItem{}, err
	}

	item.Kind = kind
	for i, tier := range rates.Tiers {
		if !columns[i].Valid {
			continue
		}
		amount, err := decimal.NewFromString(columns[i].String)
		if err != nil {
			return rates.RentableItem{}, fmt.Errorf("%s %q %s: %w", kind, item.ID, rateColumns[tier], err)
		}
		if amount.IsNegative() {
			return rates.RentableItem{}, fmt.Errorf("%s %q %s: %w", kind, item.ID, rateColumns[tier], rates.ErrNegativeRate)
		}
		item.Rates = item.Rates.With(tier, amount)
	}
	return item, nil
}

func scanItems(rows *sql.Rows, kind rates.ItemKind) ([]rates.RentableItem, error) {
	defer rows.Close()

	items := []rates.RentableItem{}
	for rows.Next() {
		item, err := scanItem(rows, kind)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", kind, err)
	}
	return items, nil
}
