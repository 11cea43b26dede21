package product

import (
	"strings"

	"github.com/dukerupert/grocerytracker/internal/model"
)

// GroupOther is returned when no keyword matches.
const GroupOther = "Other"

// Group returns a broad grocery group for a product name or category hint.
// Matching is case-insensitive: exact keyword first, then substring.
func Group(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return GroupOther
	}
	if g, ok := exactGroups[s]; ok {
		return g
	}
	for _, kw := range groupKeywords {
		if strings.Contains(s, kw.keyword) {
			return kw.group
		}
	}
	return GroupOther
}

// Suggest picks the existing category that best fits the hints, which are
// tried in order (typically the looked-up category, then the product
// name). A category whose name appears in a hint wins; otherwise the
// hint's group is matched against category names. Returns nil when
// nothing fits.
func Suggest(categories []model.Category, hints ...string) *model.Category {
	for _, hint := range hints {
		h := strings.ToLower(strings.TrimSpace(hint))
		if h == "" {
			continue
		}
		for i := range categories {
			name := strings.ToLower(categories[i].Name)
			if name != "" && strings.Contains(h, name) {
				return &categories[i]
			}
		}
		group := Group(h)
		if group == GroupOther {
			continue
		}
		for i := range categories {
			if strings.EqualFold(categories[i].Name, group) {
				return &categories[i]
			}
		}
		for _, alias := range groupAliases[group] {
			for i := range categories {
				if strings.EqualFold(categories[i].Name, alias) {
					return &categories[i]
				}
			}
		}
	}
	return nil
}

var exactGroups = map[string]string{
	"milk":    "Dairy",
	"leche":   "Dairy",
	"cheese":  "Dairy",
	"queso":   "Dairy",
	"yogurt":  "Dairy",
	"butter":  "Dairy",
	"manteca": "Dairy",
	"eggs":    "Dairy",
	"huevos":  "Dairy",
	"beef":    "Meat",
	"carne":   "Meat",
	"chicken": "Meat",
	"pollo":   "Meat",
	"fish":    "Meat",
	"pescado": "Meat",
	"bread":   "Bakery",
	"pan":     "Bakery",
	"rice":    "Pantry",
	"arroz":   "Pantry",
	"pasta":   "Pantry",
	"fideos":  "Pantry",
	"flour":   "Pantry",
	"harina":  "Pantry",
	"sugar":   "Pantry",
	"azúcar":  "Pantry",
	"oil":     "Pantry",
	"aceite":  "Pantry",
	"coffee":  "Beverages",
	"café":    "Beverages",
	"tea":     "Beverages",
	"yerba":   "Beverages",
	"water":   "Beverages",
	"agua":    "Beverages",
	"chips":   "Snacks",
	"bleach":  "Cleaning",
	"shampoo": "Personal Care",
	"soap":    "Personal Care",
	"jabón":   "Personal Care",
}

type groupKeyword struct {
	keyword string
	group   string
}

// Longer keywords come first so they win over their substrings.
var groupKeywords = []groupKeyword{
	{"toilet paper", "Personal Care"},
	{"papel higiénico", "Personal Care"},
	{"toothpaste", "Personal Care"},
	{"pasta dental", "Personal Care"},
	{"dish soap", "Cleaning"},
	{"lavandina", "Cleaning"},
	{"detergente", "Cleaning"},
	{"detergent", "Cleaning"},
	{"limpiador", "Cleaning"},
	{"cleaner", "Cleaning"},
	{"suavizante", "Cleaning"},
	{"ice cream", "Frozen"},
	{"helado", "Frozen"},
	{"frozen", "Frozen"},
	{"congelad", "Frozen"},
	{"dairies", "Dairy"},
	{"dairy", "Dairy"},
	{"lácteo", "Dairy"},
	{"yogur", "Dairy"},
	{"cheese", "Dairy"},
	{"queso", "Dairy"},
	{"milk", "Dairy"},
	{"leche", "Dairy"},
	{"meats", "Meat"},
	{"meat", "Meat"},
	{"seafood", "Meat"},
	{"chicken", "Meat"},
	{"carne", "Meat"},
	{"fruits", "Produce"},
	{"vegetables", "Produce"},
	{"verdura", "Produce"},
	{"fruta", "Produce"},
	{"produce", "Produce"},
	{"breads", "Bakery"},
	{"bakery", "Bakery"},
	{"galletit", "Snacks"},
	{"cookies", "Snacks"},
	{"biscuits", "Snacks"},
	{"snacks", "Snacks"},
	{"chocolate", "Snacks"},
	{"beverages", "Beverages"},
	{"bebida", "Beverages"},
	{"drinks", "Beverages"},
	{"juice", "Beverages"},
	{"jugo", "Beverages"},
	{"soda", "Beverages"},
	{"gaseosa", "Beverages"},
	{"coffee", "Beverages"},
	{"cereals", "Pantry"},
	{"cereal", "Pantry"},
	{"canned", "Pantry"},
	{"enlatado", "Pantry"},
	{"sauce", "Pantry"},
	{"salsa", "Pantry"},
	{"pasta", "Pantry"},
	{"rice", "Pantry"},
	{"shampoo", "Personal Care"},
	{"hygiene", "Personal Care"},
	{"higiene", "Personal Care"},
	{"soap", "Personal Care"},
}

// groupAliases lists other category names a household might use for a group.
var groupAliases = map[string][]string{
	"Dairy":         {"Lácteos", "Lacteos"},
	"Meat":          {"Meat & Seafood", "Carnes"},
	"Produce":       {"Frutas y Verduras", "Verduras", "Frutas"},
	"Bakery":        {"Panadería", "Panaderia"},
	"Pantry":        {"Almacén", "Almacen", "Despensa"},
	"Frozen":        {"Congelados"},
	"Beverages":     {"Bebidas", "Drinks"},
	"Snacks":        {"Golosinas"},
	"Cleaning":      {"Limpieza", "Household"},
	"Personal Care": {"Higiene"},
}
