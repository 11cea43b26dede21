package tracker

import (
	"context"
	"strings"

	"github.com/dukerupert/grocerytracker/internal/model"
)

const (
	DefaultCategoryColor = "bg-gray-500"
	DefaultCategoryIcon  = "📦"
)

// CategoryPatch holds the fields to change. Nil fields are left alone.
type CategoryPatch struct {
	Name  *string
	Color *string
	Icon  *string
}

func (t *Tracker) CreateCategory(ctx context.Context, name, color, icon string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if color == "" {
		color = DefaultCategoryColor
	}
	if icon == "" {
		icon = DefaultCategoryIcon
	}

	c, err := t.categories.Create(ctx, name, color, icon)
	if err != nil {
		return nil, t.fail("Error creating category", "create category", err)
	}

	t.mu.Lock()
	t.categoryList = append(t.categoryList, *c)
	t.mu.Unlock()

	t.succeed("Category created successfully", entityCategory, "created", c.ID)
	return c, nil
}

func (t *Tracker) UpdateCategory(ctx context.Context, id int64, patch CategoryPatch) (*model.Category, error) {
	cur, err := t.categories.GetByID(ctx, id)
	if err != nil {
		return nil, t.fail("Error updating category", "update category", err)
	}
	if cur == nil {
		return nil, ErrNotFound
	}

	name, color, icon := cur.Name, cur.Color, cur.Icon
	if patch.Name != nil {
		name = strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
	}
	if patch.Color != nil {
		color = *patch.Color
	}
	if patch.Icon != nil {
		icon = *patch.Icon
	}

	c, err := t.categories.Update(ctx, id, name, color, icon)
	if err != nil {
		return nil, t.fail("Error updating category", "update category", err)
	}
	if c == nil {
		return nil, ErrNotFound
	}

	t.mu.Lock()
	for i := range t.categoryList {
		if t.categoryList[i].ID == id {
			t.categoryList[i] = *c
		}
	}
	for i := range t.itemList {
		if t.itemList[i].CategoryID != nil && *t.itemList[i].CategoryID == id {
			cat := *c
			t.itemList[i].Category = &cat
		}
	}
	t.mu.Unlock()

	t.succeed("Category updated successfully", entityCategory, "updated", id)
	return c, nil
}

// DeleteCategory removes the category. Items keep existing without one.
func (t *Tracker) DeleteCategory(ctx context.Context, id int64) error {
	if err := t.categories.Delete(ctx, id); err != nil {
		return t.fail("Error deleting category", "delete category", err)
	}

	t.mu.Lock()
	t.categoryList = filter(t.categoryList, func(c model.Category) bool { return c.ID != id })
	for i := range t.itemList {
		if t.itemList[i].CategoryID != nil && *t.itemList[i].CategoryID == id {
			t.itemList[i].CategoryID = nil
			t.itemList[i].Category = nil
		}
	}
	t.mu.Unlock()

	t.succeed("Category deleted successfully", entityCategory, "deleted", id)
	return nil
}

func (t *Tracker) findCategory(id int64) *model.Category {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, c := range t.categoryList {
		if c.ID == id {
			cat := c
			return &cat
		}
	}
	return nil
}
