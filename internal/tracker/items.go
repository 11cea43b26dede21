package tracker

import (
	"context"
	"strings"

	"github.com/dukerupert/grocerytracker/internal/inventory"
	"github.com/dukerupert/grocerytracker/internal/model"
	"github.com/dukerupert/grocerytracker/internal/store"
)

// NewItem describes an item to create. Locations without a name or with a
// non-positive quantity are dropped; at least one must remain.
type NewItem struct {
	Name         string
	CategoryID   *int64
	Locations    []model.LocationQuantity
	AllowedUsers []int64
}

// ItemUpdate holds the changes to apply. A nil slice leaves that
// collection alone; a non-nil one replaces it.
type ItemUpdate struct {
	Name          *string
	CategoryID    *int64
	ClearCategory bool
	Locations     []model.LocationQuantity
	AllowedUsers  []int64
}

// CreateItem inserts the item, then its locations, then its permissions.
// A failure after the first insert leaves the rows written so far.
func (t *Tracker) CreateItem(ctx context.Context, in NewItem) (*model.GroceryItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	locs := inventory.ValidLocations(in.Locations)
	if len(locs) == 0 {
		return nil, ErrNoLocations
	}

	item, err := t.items.CreateItem(ctx, name, in.CategoryID, t.today())
	if err != nil {
		return nil, t.fail("Error creating item", "create item", err)
	}

	stored, err := t.items.AddLocations(ctx, item.ID, locs)
	if err != nil {
		return nil, t.fail("Error creating item", "create item locations", err)
	}

	if len(in.AllowedUsers) > 0 {
		if err := t.items.AddPermissions(ctx, item.ID, in.AllowedUsers); err != nil {
			return nil, t.fail("Error creating item", "create item permissions", err)
		}
	}

	item.StorageLocations = stored
	item.AllowedUsers = append([]int64{}, in.AllowedUsers...)
	if item.CategoryID != nil {
		if c := t.findCategory(*item.CategoryID); c != nil {
			item.Category = c
		}
	}

	t.mu.Lock()
	t.itemList = append(t.itemList, item.Clone())
	t.mu.Unlock()

	t.succeed("Item created successfully", entityItem, "created", item.ID)
	return item, nil
}

// UpdateItem writes the changes and then reloads every item, so the mirror
// reflects the store exactly afterwards.
func (t *Tracker) UpdateItem(ctx context.Context, id int64, upd ItemUpdate) (*model.GroceryItem, error) {
	existing, err := t.items.GetItem(ctx, id)
	if err != nil {
		return nil, t.fail("Error updating item", "update item", err)
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	patch := store.ItemPatch{CategoryID: upd.CategoryID, ClearCategory: upd.ClearCategory}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		patch.Name = &name
	}

	var locs []model.LocationQuantity
	if upd.Locations != nil {
		locs = inventory.ValidLocations(upd.Locations)
		if len(locs) == 0 {
			return nil, ErrNoLocations
		}
	}

	if err := t.items.UpdateItem(ctx, id, patch); err != nil {
		return nil, t.fail("Error updating item", "update item", err)
	}

	if upd.Locations != nil {
		if err := t.items.DeleteLocations(ctx, id); err != nil {
			return nil, t.fail("Error updating item", "replace item locations", err)
		}
		if _, err := t.items.AddLocations(ctx, id, locs); err != nil {
			return nil, t.fail("Error updating item", "replace item locations", err)
		}
	}

	if upd.AllowedUsers != nil {
		if err := t.items.DeletePermissions(ctx, id); err != nil {
			return nil, t.fail("Error updating item", "replace item permissions", err)
		}
		if err := t.items.AddPermissions(ctx, id, upd.AllowedUsers); err != nil {
			return nil, t.fail("Error updating item", "replace item permissions", err)
		}
	}

	if err := t.fetchItems(ctx); err != nil {
		return nil, err
	}

	item, ok := t.Item(id)
	if !ok {
		return nil, ErrNotFound
	}
	t.succeed("Item updated successfully", entityItem, "updated", id)
	return &item, nil
}

func (t *Tracker) DeleteItem(ctx context.Context, id int64) error {
	if err := t.items.DeleteItem(ctx, id); err != nil {
		return t.fail("Error deleting item", "delete item", err)
	}

	t.mu.Lock()
	t.itemList = filter(t.itemList, func(item model.GroceryItem) bool { return item.ID != id })
	t.mu.Unlock()

	t.succeed("Item deleted successfully", entityItem, "deleted", id)
	return nil
}

// SearchItems filters the mirror by item or location name.
func (t *Tracker) SearchItems(term string) []model.GroceryItem {
	return inventory.Search(t.Items(), term)
}

// SetLocationQuantity sets one location's quantity, clamped to the
// adjuster range. Zero removes the location, and removing the last
// location deletes the item, in which case the returned item is nil.
func (t *Tracker) SetLocationQuantity(ctx context.Context, itemID, locationID int64, quantity int) (*model.GroceryItem, error) {
	item, ok := t.Item(itemID)
	if !ok {
		return nil, ErrNotFound
	}

	quantity = inventory.Clamp(quantity, inventory.DefaultMin, inventory.DefaultMax)

	found := false
	remaining := make([]model.LocationQuantity, 0, len(item.StorageLocations))
	for _, loc := range item.StorageLocations {
		if loc.ID == locationID {
			found = true
			if quantity == 0 {
				continue
			}
			loc.Quantity = quantity
		}
		remaining = append(remaining, model.LocationQuantity{Location: loc.Location, Quantity: loc.Quantity})
	}
	if !found {
		return nil, ErrNotFound
	}

	if len(remaining) == 0 {
		return nil, t.DeleteItem(ctx, itemID)
	}
	return t.UpdateItem(ctx, itemID, ItemUpdate{Locations: remaining})
}
