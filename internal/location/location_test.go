package location

import "testing"

func TestAreas(t *testing.T) {
	got := Areas()
	if len(got) != 2 {
		t.Fatalf("expected 2 areas, got %d", len(got))
	}
	if got[0].ID != "lavadero" || got[0].Rows != 6 || got[0].Cols != 3 || len(got[0].Locations) != 10 {
		t.Errorf("lavadero = %+v", got[0])
	}
	if got[1].ID != "cocina" || got[1].Rows != 2 || got[1].Cols != 2 || len(got[1].Locations) != 4 {
		t.Errorf("cocina = %+v", got[1])
	}

	got[0].Locations[0].Name = "changed"
	if Areas()[0].Locations[0].Name != "Reservas 1" {
		t.Error("Areas must return a copy")
	}
}

func TestAll(t *testing.T) {
	all := All()
	if len(all) != 14 {
		t.Fatalf("expected 14 locations, got %d", len(all))
	}
	if all[0].Name != "Reservas 1" || all[13].Name != "Cocina 4" {
		t.Errorf("order = %q ... %q", all[0].Name, all[13].Name)
	}
}

func TestFind(t *testing.T) {
	tests := []struct {
		input    string
		wantName string
		wantArea string
		wantType Type
	}{
		{"Higiene", "Higiene", "lavadero", TypeShelf},
		{"cocina 3", "Cocina 3", "cocina", TypeCabinet},
		{" LAVARROPAS ", "Lavarropas", "lavadero", TypeAppliance},
		{"estante-grande", "Estante grande", "lavadero", TypeBigShelf},
	}
	for _, tt := range tests {
		loc, area, ok := Find(tt.input)
		if !ok {
			t.Errorf("Find(%q) not found", tt.input)
			continue
		}
		if loc.Name != tt.wantName || area.ID != tt.wantArea || loc.Type != tt.wantType {
			t.Errorf("Find(%q) = %+v in %s", tt.input, loc, area.ID)
		}
	}

	if _, _, ok := Find("Shopping List"); ok {
		t.Error("expected free-form name to be missing from catalog")
	}
}

func TestGrid(t *testing.T) {
	lavadero := Areas()[0]
	grid := lavadero.Grid()

	if len(grid) != 6 || len(grid[0]) != 3 {
		t.Fatalf("grid is %dx%d, want 6x3", len(grid), len(grid[0]))
	}
	if grid[0][0] == nil || grid[0][0].Name != "Reservas 1" {
		t.Errorf("grid[0][0] = %v", grid[0][0])
	}
	if grid[0][1] != nil {
		t.Errorf("grid[0][1] = %v, want empty", grid[0][1])
	}
	if grid[4][2] == nil || grid[4][2].Name != "Lavarropas" {
		t.Errorf("grid[4][2] = %v", grid[4][2])
	}
}
