package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/grocerytracker/internal/model"
)

// GroceryStore covers grocery_items and its child tables storage_locations
// and item_permissions. Each method is a single table operation; callers
// sequence them and there is no transaction spanning tables.
type GroceryStore struct {
	db *sql.DB
}

func NewGroceryStore(db *sql.DB) *GroceryStore {
	return &GroceryStore{db: db}
}

// ItemPatch holds the item columns to change. Nil fields are left alone.
type ItemPatch struct {
	Name          *string
	CategoryID    *int64
	ClearCategory bool
}

func (p ItemPatch) empty() bool {
	return p.Name == nil && p.CategoryID == nil && !p.ClearCategory
}

// --- Item methods ---

const itemCols = `i.id, i.name, i.category_id, i.added_date, i.created_at, i.updated_at,
	c.id, c.name, c.color, c.icon, c.created_at, c.updated_at`

const itemFrom = ` FROM grocery_items i LEFT JOIN categories c ON c.id = i.category_id`

func scanItem(scanner interface{ Scan(...any) error }) (*model.GroceryItem, error) {
	var item model.GroceryItem
	var categoryID sql.NullInt64
	var cID sql.NullInt64
	var cName, cColor, cIcon sql.NullString
	var cCreated, cUpdated sql.NullTime

	err := scanner.Scan(
		&item.ID, &item.Name, &categoryID, &item.AddedDate, &item.CreatedAt, &item.UpdatedAt,
		&cID, &cName, &cColor, &cIcon, &cCreated, &cUpdated,
	)
	if err != nil {
		return nil, err
	}

	if categoryID.Valid {
		item.CategoryID = &categoryID.Int64
	}
	if cID.Valid {
		item.Category = &model.Category{
			ID:        cID.Int64,
			Name:      cName.String,
			Color:     cColor.String,
			Icon:      cIcon.String,
			CreatedAt: cCreated.Time,
			UpdatedAt: cUpdated.Time,
		}
	}
	item.AllowedUsers = []int64{}
	item.StorageLocations = []model.StorageLocation{}
	return &item, nil
}

// CreateItem inserts the item row only. Locations and permissions are
// written by AddLocations and AddPermissions. An empty addedDate uses
// today's date.
func (s *GroceryStore) CreateItem(ctx context.Context, name string, categoryID *int64, addedDate string) (*model.GroceryItem, error) {
	var cID sql.NullInt64
	if categoryID != nil {
		cID = sql.NullInt64{Int64: *categoryID, Valid: true}
	}

	var (
		result sql.Result
		err    error
	)
	if addedDate == "" {
		result, err = s.db.ExecContext(ctx,
			`INSERT INTO grocery_items (name, category_id) VALUES (?, ?)`,
			name, cID,
		)
	} else {
		result, err = s.db.ExecContext(ctx,
			`INSERT INTO grocery_items (name, category_id, added_date) VALUES (?, ?, ?)`,
			name, cID, addedDate,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.getItemRow(ctx, id)
}

func (s *GroceryStore) getItemRow(ctx context.Context, id int64) (*model.GroceryItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemCols+itemFrom+` WHERE i.id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// GetItem returns the item with its locations, permissions and category.
func (s *GroceryStore) GetItem(ctx context.Context, id int64) (*model.GroceryItem, error) {
	item, err := s.getItemRow(ctx, id)
	if err != nil || item == nil {
		return item, err
	}

	locs, err := s.ListLocations(ctx, id)
	if err != nil {
		return nil, err
	}
	item.StorageLocations = locs

	users, err := s.ListPermissions(ctx, id)
	if err != nil {
		return nil, err
	}
	item.AllowedUsers = users
	return item, nil
}

// ListItems returns every item, newest first, with nested rows attached.
func (s *GroceryStore) ListItems(ctx context.Context) ([]model.GroceryItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemCols+itemFrom+` ORDER BY i.created_at DESC, i.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	var items []model.GroceryItem
	index := make(map[int64]int)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan item: %w", err)
		}
		index[item.ID] = len(items)
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(items) == 0 {
		return items, nil
	}

	if err := s.attachLocations(ctx, items, index); err != nil {
		return nil, err
	}
	if err := s.attachPermissions(ctx, items, index); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *GroceryStore) attachLocations(ctx context.Context, items []model.GroceryItem, index map[int64]int) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT grocery_item_id, id, location, quantity FROM storage_locations ORDER BY grocery_item_id, id`,
	)
	if err != nil {
		return fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID int64
		var loc model.StorageLocation
		if err := rows.Scan(&itemID, &loc.ID, &loc.Location, &loc.Quantity); err != nil {
			return fmt.Errorf("scan location: %w", err)
		}
		if i, ok := index[itemID]; ok {
			items[i].StorageLocations = append(items[i].StorageLocations, loc)
		}
	}
	return rows.Err()
}

func (s *GroceryStore) attachPermissions(ctx context.Context, items []model.GroceryItem, index map[int64]int) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT grocery_item_id, user_id FROM item_permissions ORDER BY grocery_item_id, id`,
	)
	if err != nil {
		return fmt.Errorf("list permissions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID, userID int64
		if err := rows.Scan(&itemID, &userID); err != nil {
			return fmt.Errorf("scan permission: %w", err)
		}
		if i, ok := index[itemID]; ok {
			items[i].AllowedUsers = append(items[i].AllowedUsers, userID)
		}
	}
	return rows.Err()
}

// UpdateItem applies the patch and bumps updated_at. An empty patch is a no-op.
func (s *GroceryStore) UpdateItem(ctx context.Context, id int64, patch ItemPatch) error {
	if patch.empty() {
		return nil
	}

	sets := []string{"updated_at = CURRENT_TIMESTAMP"}
	var args []any
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	switch {
	case patch.ClearCategory:
		sets = append(sets, "category_id = NULL")
	case patch.CategoryID != nil:
		sets = append(sets, "category_id = ?")
		args = append(args, *patch.CategoryID)
	}
	args = append(args, id)

	_, err := s.db.ExecContext(ctx,
		`UPDATE grocery_items SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

func (s *GroceryStore) DeleteItem(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM grocery_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// --- Storage location methods ---

func (s *GroceryStore) ListLocations(ctx context.Context, itemID int64) ([]model.StorageLocation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, location, quantity FROM storage_locations WHERE grocery_item_id = ? ORDER BY id`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	locs := []model.StorageLocation{}
	for rows.Next() {
		var loc model.StorageLocation
		if err := rows.Scan(&loc.ID, &loc.Location, &loc.Quantity); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locs = append(locs, loc)
	}
	return locs, rows.Err()
}

// AddLocations inserts the rows in order and returns all locations of the item.
func (s *GroceryStore) AddLocations(ctx context.Context, itemID int64, locs []model.LocationQuantity) ([]model.StorageLocation, error) {
	for _, loc := range locs {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO storage_locations (grocery_item_id, location, quantity) VALUES (?, ?, ?)`,
			itemID, loc.Location, loc.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("insert location %q: %w", loc.Location, err)
		}
	}
	return s.ListLocations(ctx, itemID)
}

func (s *GroceryStore) DeleteLocations(ctx context.Context, itemID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM storage_locations WHERE grocery_item_id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("delete locations: %w", err)
	}
	return nil
}

// --- Permission methods ---

func (s *GroceryStore) ListPermissions(ctx context.Context, itemID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM item_permissions WHERE grocery_item_id = ? ORDER BY id`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	defer rows.Close()

	users := []int64{}
	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		users = append(users, userID)
	}
	return users, rows.Err()
}

func (s *GroceryStore) AddPermissions(ctx context.Context, itemID int64, userIDs []int64) error {
	for _, userID := range userIDs {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO item_permissions (grocery_item_id, user_id) VALUES (?, ?)`,
			itemID, userID,
		)
		if err != nil {
			return fmt.Errorf("insert permission for user %d: %w", userID, err)
		}
	}
	return nil
}

func (s *GroceryStore) DeletePermissions(ctx context.Context, itemID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM item_permissions WHERE grocery_item_id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("delete permissions: %w", err)
	}
	return nil
}
