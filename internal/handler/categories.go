package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/grocerytracker/internal/model"
	"github.com/dukerupert/grocerytracker/internal/product"
	"github.com/dukerupert/grocerytracker/internal/tracker"
)

type CategoryHandler struct {
	tracker *tracker.Tracker
	logger  *slog.Logger
}

func NewCategoryHandler(tr *tracker.Tracker, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{tracker: tr, logger: logger.With("component", "category_handler")}
}

type createCategoryRequest struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

type updateCategoryRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
	Icon  *string `json:"icon"`
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories := h.tracker.Categories()
	if categories == nil {
		categories = []model.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.tracker.CreateCategory(r.Context(), req.Name, req.Color, req.Icon)
	if err != nil {
		writeDomainError(w, h.logger, "failed to create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req updateCategoryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.tracker.UpdateCategory(r.Context(), id, tracker.CategoryPatch{
		Name:  req.Name,
		Color: req.Color,
		Icon:  req.Icon,
	})
	if err != nil {
		writeDomainError(w, h.logger, "failed to update category", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.tracker.DeleteCategory(r.Context(), id); err != nil {
		writeDomainError(w, h.logger, "failed to delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Suggest picks an existing category for ?name= and an optional ?hint=,
// typically the category reported by a barcode lookup. It answers with
// null when nothing matches.
func (h *CategoryHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hint, name := q.Get("hint"), q.Get("name")

	group := product.Group(hint)
	if group == product.GroupOther {
		group = product.Group(name)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"group":    group,
		"category": product.Suggest(h.tracker.Categories(), hint, name),
	})
}
