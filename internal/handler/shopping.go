package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/grocerytracker/internal/model"
	"github.com/dukerupert/grocerytracker/internal/store"
	"github.com/dukerupert/grocerytracker/internal/tracker"
)

type ShoppingHandler struct {
	tracker *tracker.Tracker
	logger  *slog.Logger
}

func NewShoppingHandler(tr *tracker.Tracker, logger *slog.Logger) *ShoppingHandler {
	return &ShoppingHandler{tracker: tr, logger: logger.With("component", "shopping_handler")}
}

type createShoppingRequest struct {
	Name        string `json:"name" validate:"required"`
	Quantity    int    `json:"quantity"`
	Location    string `json:"location"`
	IsCompleted bool   `json:"is_completed"`
	AddedDate   string `json:"added_date" validate:"omitempty,datetime=2006-01-02"`
}

type updateShoppingRequest struct {
	Name        *string `json:"name"`
	Quantity    *int    `json:"quantity"`
	Location    *string `json:"location"`
	IsCompleted *bool   `json:"is_completed"`
}

func (h *ShoppingHandler) List(w http.ResponseWriter, r *http.Request) {
	items := h.tracker.ShoppingList()
	if items == nil {
		items = []model.ShoppingItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ShoppingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createShoppingRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.tracker.CreateShoppingItem(r.Context(), tracker.NewShoppingItem{
		Name:        req.Name,
		Quantity:    req.Quantity,
		Location:    req.Location,
		IsCompleted: req.IsCompleted,
		AddedDate:   req.AddedDate,
	})
	if err != nil {
		writeDomainError(w, h.logger, "failed to create shopping item", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *ShoppingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req updateShoppingRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.tracker.UpdateShoppingItem(r.Context(), id, store.ShoppingPatch{
		Name:        req.Name,
		Quantity:    req.Quantity,
		Location:    req.Location,
		IsCompleted: req.IsCompleted,
	})
	if err != nil {
		writeDomainError(w, h.logger, "failed to update shopping item", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ShoppingHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	item, err := h.tracker.ToggleShoppingItem(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, "failed to toggle shopping item", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ShoppingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.tracker.DeleteShoppingItem(r.Context(), id); err != nil {
		writeDomainError(w, h.logger, "failed to delete shopping item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddLowStock puts low-stock items on the list and returns what was added.
func (h *ShoppingHandler) AddLowStock(w http.ResponseWriter, r *http.Request) {
	added, err := h.tracker.AddLowStockToShoppingList(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, "failed to add low-stock items", err)
		return
	}
	writeJSON(w, http.StatusOK, added)
}
