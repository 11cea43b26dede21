// Package location is the catalog of named storage spots in the house.
package location

import "strings"

type Type string

const (
	TypeCabinet   Type = "cabinet"
	TypeShelf     Type = "shelf1"
	TypeBigShelf  Type = "shelf2"
	TypeAppliance Type = "appliance"
)

// Location is a storage spot placed on its area's grid.
type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Type Type   `json:"type"`
}

// Area is a room with a grid of storage spots.
type Area struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Rows      int        `json:"rows"`
	Cols      int        `json:"cols"`
	Locations []Location `json:"locations"`
}

var areas = []Area{
	{
		ID:   "lavadero",
		Name: "Lavadero",
		Rows: 6,
		Cols: 3,
		Locations: []Location{
			{ID: "upper-1", Name: "Reservas 1", Row: 0, Col: 0, Type: TypeCabinet},
			{ID: "upper-2", Name: "Reservas 2", Row: 0, Col: 2, Type: TypeCabinet},
			{ID: "upper-3", Name: "Diario 1", Row: 1, Col: 0, Type: TypeCabinet},
			{ID: "upper-4", Name: "Diario 2", Row: 1, Col: 2, Type: TypeCabinet},
			{ID: "estante-1", Name: "Higiene", Row: 2, Col: 1, Type: TypeShelf},
			{ID: "estante-2", Name: "Limpieza 1", Row: 3, Col: 1, Type: TypeShelf},
			{ID: "estante-3", Name: "Limpieza 2", Row: 4, Col: 1, Type: TypeShelf},
			{ID: "estante-4", Name: "Varios", Row: 5, Col: 1, Type: TypeShelf},
			{ID: "estante-grande", Name: "Estante grande", Row: 3, Col: 2, Type: TypeBigShelf},
			{ID: "lavarropas", Name: "Lavarropas", Row: 4, Col: 2, Type: TypeAppliance},
		},
	},
	{
		ID:   "cocina",
		Name: "Cocina",
		Rows: 2,
		Cols: 2,
		Locations: []Location{
			{ID: "cocina-1", Name: "Cocina 1", Row: 0, Col: 0, Type: TypeCabinet},
			{ID: "cocina-2", Name: "Cocina 2", Row: 0, Col: 1, Type: TypeCabinet},
			{ID: "cocina-3", Name: "Cocina 3", Row: 1, Col: 0, Type: TypeCabinet},
			{ID: "cocina-4", Name: "Cocina 4", Row: 1, Col: 1, Type: TypeCabinet},
		},
	},
}

// Areas returns a copy of the catalog.
func Areas() []Area {
	out := make([]Area, len(areas))
	for i, a := range areas {
		out[i] = a
		out[i].Locations = append([]Location(nil), a.Locations...)
	}
	return out
}

// All returns every location across areas, lavadero first.
func All() []Location {
	var out []Location
	for _, a := range areas {
		out = append(out, a.Locations...)
	}
	return out
}

// Find looks a stored location name or catalog id up, ignoring case.
// Free-form names that are not in the catalog return false.
func Find(name string) (Location, Area, bool) {
	name = strings.TrimSpace(name)
	for _, a := range areas {
		for _, loc := range a.Locations {
			if strings.EqualFold(loc.Name, name) || strings.EqualFold(loc.ID, name) {
				return loc, a, true
			}
		}
	}
	return Location{}, Area{}, false
}

// Grid lays an area's locations out by row and column. Empty cells are nil.
func (a Area) Grid() [][]*Location {
	grid := make([][]*Location, a.Rows)
	for r := range grid {
		grid[r] = make([]*Location, a.Cols)
	}
	for i := range a.Locations {
		loc := &a.Locations[i]
		if loc.Row < a.Rows && loc.Col < a.Cols {
			grid[loc.Row][loc.Col] = loc
		}
	}
	return grid
}
