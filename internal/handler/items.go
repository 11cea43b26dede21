package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/grocerytracker/internal/auth"
	"github.com/dukerupert/grocerytracker/internal/inventory"
	"github.com/dukerupert/grocerytracker/internal/model"
	"github.com/dukerupert/grocerytracker/internal/tracker"
)

type ItemHandler struct {
	tracker *tracker.Tracker
	logger  *slog.Logger
}

func NewItemHandler(tr *tracker.Tracker, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{tracker: tr, logger: logger.With("component", "item_handler")}
}

type createItemRequest struct {
	Name             string                   `json:"name" validate:"required"`
	CategoryID       *int64                   `json:"category_id"`
	StorageLocations []model.LocationQuantity `json:"storage_locations" validate:"required,min=1"`
	AllowedUsers     []int64                  `json:"allowed_users"`
}

type updateItemRequest struct {
	Name             *string                  `json:"name"`
	CategoryID       *int64                   `json:"category_id"`
	ClearCategory    bool                     `json:"clear_category"`
	StorageLocations []model.LocationQuantity `json:"storage_locations"`
	AllowedUsers     []int64                  `json:"allowed_users"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// List returns the items, filtered by ?q= on item or location name. With
// ?stock=low only low-stock items are returned.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	var items []model.GroceryItem
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		items = h.tracker.SearchItems(q)
	} else {
		items = h.tracker.Items()
	}

	if r.URL.Query().Get("stock") == "low" {
		low := items[:0]
		for _, item := range items {
			if inventory.IsLowStock(item) {
				low = append(low, item)
			}
		}
		items = low
	}

	if items == nil {
		items = []model.GroceryItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	item, ok := h.tracker.Item(id)
	if !ok {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Create adds an item. Without allowed_users the caller is the only
// allowed user.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	allowed := req.AllowedUsers
	if len(allowed) == 0 {
		if uid := auth.UserID(r.Context()); uid != 0 {
			allowed = []int64{uid}
		}
	}

	item, err := h.tracker.CreateItem(r.Context(), tracker.NewItem{
		Name:         req.Name,
		CategoryID:   req.CategoryID,
		Locations:    req.StorageLocations,
		AllowedUsers: allowed,
	})
	if err != nil {
		writeDomainError(w, h.logger, "failed to create item", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req updateItemRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.tracker.UpdateItem(r.Context(), id, tracker.ItemUpdate{
		Name:          req.Name,
		CategoryID:    req.CategoryID,
		ClearCategory: req.ClearCategory,
		Locations:     req.StorageLocations,
		AllowedUsers:  req.AllowedUsers,
	})
	if err != nil {
		writeDomainError(w, h.logger, "failed to update item", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.tracker.DeleteItem(r.Context(), id); err != nil {
		writeDomainError(w, h.logger, "failed to delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetLocationQuantity sets the quantity at one storage location. When the
// last location drops to zero the item is deleted and the response says so.
func (h *ItemHandler) SetLocationQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	locationID, err := parseIDParam(r, "location_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid location_id")
		return
	}

	var req setQuantityRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.tracker.SetLocationQuantity(r.Context(), id, locationID, *req.Quantity)
	if err != nil {
		writeDomainError(w, h.logger, "failed to update quantity", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"item":    item,
		"deleted": item == nil,
	})
}
