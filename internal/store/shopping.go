package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/grocerytracker/internal/model"
)

type ShoppingStore struct {
	db *sql.DB
}

func NewShoppingStore(db *sql.DB) *ShoppingStore {
	return &ShoppingStore{db: db}
}

// ShoppingPatch holds the columns to change. Nil fields are left alone.
type ShoppingPatch struct {
	Name        *string
	Quantity    *int
	Location    *string
	IsCompleted *bool
}

func scanShoppingItem(scanner interface{ Scan(...any) error }) (*model.ShoppingItem, error) {
	var item model.ShoppingItem
	var completed int
	err := scanner.Scan(
		&item.ID, &item.Name, &item.Quantity, &item.Location, &completed,
		&item.AddedDate, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.IsCompleted = completed != 0
	return &item, nil
}

const shoppingCols = `id, name, quantity, location, is_completed, added_date, created_at, updated_at`

// List returns the shopping list, newest first.
func (s *ShoppingStore) List(ctx context.Context) ([]model.ShoppingItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+shoppingCols+` FROM shopping_list ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list shopping items: %w", err)
	}
	defer rows.Close()

	var items []model.ShoppingItem
	for rows.Next() {
		item, err := scanShoppingItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shopping item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *ShoppingStore) GetByID(ctx context.Context, id int64) (*model.ShoppingItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+shoppingCols+` FROM shopping_list WHERE id = ?`, id)
	item, err := scanShoppingItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shopping item: %w", err)
	}
	return item, nil
}

// Create inserts a shopping item. An empty addedDate uses today's date.
func (s *ShoppingStore) Create(ctx context.Context, name string, quantity int, location string, completed bool, addedDate string) (*model.ShoppingItem, error) {
	var (
		result sql.Result
		err    error
	)
	if addedDate == "" {
		result, err = s.db.ExecContext(ctx,
			`INSERT INTO shopping_list (name, quantity, location, is_completed) VALUES (?, ?, ?, ?)`,
			name, quantity, location, boolToInt(completed),
		)
	} else {
		result, err = s.db.ExecContext(ctx,
			`INSERT INTO shopping_list (name, quantity, location, is_completed, added_date) VALUES (?, ?, ?, ?, ?)`,
			name, quantity, location, boolToInt(completed), addedDate,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("insert shopping item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ShoppingStore) Update(ctx context.Context, id int64, patch ShoppingPatch) (*model.ShoppingItem, error) {
	sets := []string{"updated_at = CURRENT_TIMESTAMP"}
	var args []any
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Quantity != nil {
		sets = append(sets, "quantity = ?")
		args = append(args, *patch.Quantity)
	}
	if patch.Location != nil {
		sets = append(sets, "location = ?")
		args = append(args, *patch.Location)
	}
	if patch.IsCompleted != nil {
		sets = append(sets, "is_completed = ?")
		args = append(args, boolToInt(*patch.IsCompleted))
	}
	args = append(args, id)

	_, err := s.db.ExecContext(ctx,
		`UPDATE shopping_list SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("update shopping item: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ShoppingStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM shopping_list WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete shopping item: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
