package handler

import (
	"net/http"
	"strings"

	"github.com/dukerupert/grocerytracker/internal/location"
	"github.com/dukerupert/grocerytracker/internal/product"
	"github.com/dukerupert/grocerytracker/internal/tracker"
)

// InfoHandler serves read-only helpers: stats, the location catalog and
// barcode lookups.
type InfoHandler struct {
	tracker  *tracker.Tracker
	products *product.Service
}

func NewInfoHandler(tr *tracker.Tracker, products *product.Service) *InfoHandler {
	return &InfoHandler{tracker: tr, products: products}
}

func (h *InfoHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Stats())
}

func (h *InfoHandler) Locations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, location.Areas())
}

// Product looks a barcode up and suggests one of the existing categories.
func (h *InfoHandler) Product(w http.ResponseWriter, r *http.Request) {
	barcode := strings.TrimSpace(r.PathValue("barcode"))
	if barcode == "" {
		writeError(w, http.StatusBadRequest, "barcode is required")
		return
	}

	info := h.products.Lookup(r.Context(), barcode)
	writeJSON(w, http.StatusOK, map[string]any{
		"product":            info,
		"suggested_category": product.Suggest(h.tracker.Categories(), info.Category, info.Name),
	})
}
