package tracker

import (
	"context"
	"strings"

	"github.com/dukerupert/grocerytracker/internal/inventory"
	"github.com/dukerupert/grocerytracker/internal/model"
)

const unknownLocation = "Unknown"

// AddLowStockToShoppingList puts every low-stock item on the shopping list
// unless an entry with the same name (ignoring case) is already there.
// Entries get quantity 1 and the item's first location. It stops at the
// first failure and returns what was added so far.
func (t *Tracker) AddLowStockToShoppingList(ctx context.Context) ([]model.ShoppingItem, error) {
	items := t.Items()
	seen := make(map[string]bool)
	for _, s := range t.ShoppingList() {
		seen[strings.ToLower(s.Name)] = true
	}

	added := []model.ShoppingItem{}
	for _, item := range items {
		if !inventory.IsLowStock(item) {
			continue
		}
		key := strings.ToLower(item.Name)
		if seen[key] {
			continue
		}
		seen[key] = true

		location := unknownLocation
		if len(item.StorageLocations) > 0 {
			location = item.StorageLocations[0].Location
		}
		s, err := t.CreateShoppingItem(ctx, NewShoppingItem{
			Name:     item.Name,
			Quantity: 1,
			Location: location,
		})
		if err != nil {
			return added, err
		}
		added = append(added, *s)
	}
	return added, nil
}

// Stats summarizes the mirror.
type Stats struct {
	Items             int           `json:"items"`
	LowStock          int           `json:"low_stock"`
	Critical          int           `json:"critical"`
	TotalUnits        int           `json:"total_units"`
	Categories        int           `json:"categories"`
	Users             int           `json:"users"`
	ShoppingPending   int           `json:"shopping_pending"`
	ShoppingCompleted int           `json:"shopping_completed"`
	ItemsPerUser      map[int64]int `json:"items_per_user"`
}

func (t *Tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Stats{
		Items:        len(t.itemList),
		Categories:   len(t.categoryList),
		Users:        len(t.userList),
		ItemsPerUser: make(map[int64]int),
	}
	for _, item := range t.itemList {
		s.TotalUnits += inventory.TotalQuantity(item)
		switch inventory.StockLevel(item) {
		case inventory.LevelCritical:
			s.Critical++
			s.LowStock++
		case inventory.LevelLow:
			s.LowStock++
		}
		for _, uid := range item.AllowedUsers {
			s.ItemsPerUser[uid]++
		}
	}
	for _, entry := range t.shoppingList {
		if entry.IsCompleted {
			s.ShoppingCompleted++
		} else {
			s.ShoppingPending++
		}
	}
	return s
}
