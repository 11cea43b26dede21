package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/grocerytracker/internal/auth"
	"github.com/dukerupert/grocerytracker/internal/model"
	"github.com/dukerupert/grocerytracker/internal/tracker"
)

type UserHandler struct {
	gate    *auth.Gate
	tracker *tracker.Tracker
	logger  *slog.Logger
}

func NewUserHandler(gate *auth.Gate, tr *tracker.Tracker, logger *slog.Logger) *UserHandler {
	return &UserHandler{gate: gate, tracker: tr, logger: logger.With("component", "user_handler")}
}

type createUserRequest struct {
	Name string `json:"name" validate:"required"`
}

type updateUserRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users := h.tracker.Users()
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Create adds a user who shares the caller's access key.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.gate.AddUser(r.Context(), req.Name, auth.AccessKey(r.Context()))
	if err != nil {
		writeDomainError(w, h.logger, "failed to create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req updateUserRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := h.tracker.GetUser(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, "failed to update user", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	name, color := existing.Name, existing.Color
	if req.Name != nil {
		name = *req.Name
		if h.renameClashes(id, name) {
			writeDomainError(w, h.logger, "failed to update user", auth.ErrDuplicateName)
			return
		}
	}
	if req.Color != nil && *req.Color != "" {
		color = *req.Color
	}

	user, err := h.tracker.UpdateUser(r.Context(), id, name, color)
	if err != nil {
		writeDomainError(w, h.logger, "failed to update user", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// renameClashes reports whether another user already has name.
func (h *UserHandler) renameClashes(id int64, name string) bool {
	var others []model.User
	for _, u := range h.tracker.Users() {
		if u.ID != id {
			others = append(others, u)
		}
	}
	return auth.SameName(others, name)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.gate.RemoveUser(r.Context(), auth.UserID(r.Context()), id); err != nil {
		writeDomainError(w, h.logger, "failed to delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
