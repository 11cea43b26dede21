package tracker

import (
	"context"
	"strings"

	"github.com/dukerupert/grocerytracker/internal/inventory"
	"github.com/dukerupert/grocerytracker/internal/model"
	"github.com/dukerupert/grocerytracker/internal/store"
)

// NewShoppingItem describes a shopping list entry. Quantity is clamped to
// [1, 999] and an empty AddedDate means today.
type NewShoppingItem struct {
	Name        string
	Quantity    int
	Location    string
	IsCompleted bool
	AddedDate   string
}

func (t *Tracker) CreateShoppingItem(ctx context.Context, in NewShoppingItem) (*model.ShoppingItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	quantity := inventory.Clamp(in.Quantity, 1, inventory.DefaultMax)
	addedDate := in.AddedDate
	if addedDate == "" {
		addedDate = t.today()
	}

	item, err := t.shopping.Create(ctx, name, quantity, strings.TrimSpace(in.Location), in.IsCompleted, addedDate)
	if err != nil {
		return nil, t.fail("Error adding shopping item", "create shopping item", err)
	}

	t.mu.Lock()
	t.shoppingList = append(t.shoppingList, *item)
	t.mu.Unlock()

	t.succeed("Shopping item added successfully", entityShopping, "created", item.ID)
	return item, nil
}

// UpdateShoppingItem applies a partial update. Success is not toasted.
func (t *Tracker) UpdateShoppingItem(ctx context.Context, id int64, patch store.ShoppingPatch) (*model.ShoppingItem, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		patch.Name = &name
	}
	if patch.Quantity != nil {
		q := inventory.Clamp(*patch.Quantity, 1, inventory.DefaultMax)
		patch.Quantity = &q
	}

	item, err := t.shopping.Update(ctx, id, patch)
	if err != nil {
		return nil, t.fail("Error updating shopping item", "update shopping item", err)
	}
	if item == nil {
		return nil, ErrNotFound
	}

	t.mu.Lock()
	for i := range t.shoppingList {
		if t.shoppingList[i].ID == id {
			t.shoppingList[i] = *item
		}
	}
	t.mu.Unlock()

	t.notify.Changed(entityShopping, "updated", id)
	return item, nil
}

// ToggleShoppingItem flips the completion flag of a mirrored entry.
func (t *Tracker) ToggleShoppingItem(ctx context.Context, id int64) (*model.ShoppingItem, error) {
	var (
		completed bool
		found     bool
	)
	t.mu.RLock()
	for _, item := range t.shoppingList {
		if item.ID == id {
			completed, found = item.IsCompleted, true
			break
		}
	}
	t.mu.RUnlock()
	if !found {
		return nil, ErrNotFound
	}

	next := !completed
	return t.UpdateShoppingItem(ctx, id, store.ShoppingPatch{IsCompleted: &next})
}

func (t *Tracker) DeleteShoppingItem(ctx context.Context, id int64) error {
	if err := t.shopping.Delete(ctx, id); err != nil {
		return t.fail("Error deleting shopping item", "delete shopping item", err)
	}

	t.mu.Lock()
	t.shoppingList = filter(t.shoppingList, func(item model.ShoppingItem) bool { return item.ID != id })
	t.mu.Unlock()

	t.succeed("Shopping item deleted successfully", entityShopping, "deleted", id)
	return nil
}
