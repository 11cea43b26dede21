// Package inventory holds the quantity and stock rules shared by the
// tracker and the API.
package inventory

import (
	"strings"

	"github.com/dukerupert/grocerytracker/internal/model"
)

const (
	DefaultMin  = 0
	DefaultMax  = 999
	DefaultStep = 1

	// LowStockThreshold and CriticalThreshold apply to an item's total
	// quantity across all locations.
	LowStockThreshold = 3
	CriticalThreshold = 1
)

func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Adjuster steps a quantity within [Min, Max].
type Adjuster struct {
	Min  int
	Max  int
	Step int
}

func DefaultAdjuster() Adjuster {
	return Adjuster{Min: DefaultMin, Max: DefaultMax, Step: DefaultStep}
}

func (a Adjuster) Increment(v int) int {
	return Clamp(v+a.Step, a.Min, a.Max)
}

func (a Adjuster) Decrement(v int) int {
	return Clamp(v-a.Step, a.Min, a.Max)
}

// Set returns next if it lies within [Min, Max]. Out-of-range input is
// ignored and current is returned with ok=false.
func (a Adjuster) Set(current, next int) (int, bool) {
	if next < a.Min || next > a.Max {
		return current, false
	}
	return next, true
}

func TotalQuantity(item model.GroceryItem) int {
	total := 0
	for _, loc := range item.StorageLocations {
		total += loc.Quantity
	}
	return total
}

func IsLowStock(item model.GroceryItem) bool {
	return TotalQuantity(item) <= LowStockThreshold
}

type Level string

const (
	LevelOK       Level = "ok"
	LevelLow      Level = "low"
	LevelCritical Level = "critical"
)

func StockLevel(item model.GroceryItem) Level {
	switch total := TotalQuantity(item); {
	case total <= CriticalThreshold:
		return LevelCritical
	case total <= LowStockThreshold:
		return LevelLow
	default:
		return LevelOK
	}
}

// Search keeps items whose name or any location name contains term,
// ignoring case. An empty term keeps everything.
func Search(items []model.GroceryItem, term string) []model.GroceryItem {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return items
	}

	var out []model.GroceryItem
	for _, item := range items {
		if matches(item, term) {
			out = append(out, item)
		}
	}
	return out
}

func matches(item model.GroceryItem, term string) bool {
	if strings.Contains(strings.ToLower(item.Name), term) {
		return true
	}
	for _, loc := range item.StorageLocations {
		if strings.Contains(strings.ToLower(loc.Location), term) {
			return true
		}
	}
	return false
}

// ValidLocations drops rows without a location name or with a
// non-positive quantity.
func ValidLocations(locs []model.LocationQuantity) []model.LocationQuantity {
	out := make([]model.LocationQuantity, 0, len(locs))
	for _, loc := range locs {
		name := strings.TrimSpace(loc.Location)
		if name == "" || loc.Quantity <= 0 {
			continue
		}
		out = append(out, model.LocationQuantity{Location: name, Quantity: loc.Quantity})
	}
	return out
}
