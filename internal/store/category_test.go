package store

import "testing"

func TestCategoryCRUD(t *testing.T) {
	cs := NewCategoryStore(setupTestDB(t))

	c, err := cs.Create(ctx, "Produce", "bg-green-500", "🍎")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if c.Name != "Produce" || c.Color != "bg-green-500" || c.Icon != "🍎" {
		t.Errorf("created = %+v", c)
	}

	updated, err := cs.Update(ctx, c.ID, "Fruit", "bg-red-500", "🍓")
	if err != nil {
		t.Fatalf("update category: %v", err)
	}
	if updated.Name != "Fruit" || updated.Icon != "🍓" {
		t.Errorf("updated = %+v", updated)
	}

	if err := cs.Delete(ctx, c.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	got, err := cs.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if got != nil {
		t.Error("expected nil for deleted category")
	}
}

func TestCategoryListByName(t *testing.T) {
	cs := NewCategoryStore(setupTestDB(t))

	cs.Create(ctx, "Snacks", "bg-pink-500", "🍪")
	cs.Create(ctx, "Dairy", "bg-blue-500", "🥛")
	cs.Create(ctx, "Meat", "bg-red-500", "🥩")

	categories, err := cs.List(ctx)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	want := []string{"Dairy", "Meat", "Snacks"}
	if len(categories) != len(want) {
		t.Fatalf("expected %d categories, got %d", len(want), len(categories))
	}
	for i, name := range want {
		if categories[i].Name != name {
			t.Errorf("categories[%d].Name = %q, want %q", i, categories[i].Name, name)
		}
	}
}
