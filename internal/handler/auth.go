package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/grocerytracker/internal/auth"
	"github.com/dukerupert/grocerytracker/internal/model"
	"github.com/dukerupert/grocerytracker/internal/tracker"
)

// Browsers cap cookie lifetimes at about 400 days. Sessions themselves
// never expire server-side.
const sessionCookieMaxAge = 400 * 24 * time.Hour

type AuthHandler struct {
	gate          *auth.Gate
	tracker       *tracker.Tracker
	secureCookies bool
	logger        *slog.Logger
}

func NewAuthHandler(gate *auth.Gate, tr *tracker.Tracker, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		gate:          gate,
		tracker:       tr,
		secureCookies: secureCookies,
		logger:        logger.With("component", "auth_handler"),
	}
}

type accessKeyRequest struct {
	AccessKey string `json:"access_key" validate:"required"`
}

type loginRequest struct {
	UserID    int64  `json:"user_id" validate:"required"`
	AccessKey string `json:"access_key" validate:"required"`
}

type registerRequest struct {
	Name      string `json:"name" validate:"required"`
	AccessKey string `json:"access_key" validate:"required"`
}

type sessionResponse struct {
	User      *model.User `json:"user"`
	AccessKey string      `json:"access_key"`
}

// Users lists users for the login picker.
func (h *AuthHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.tracker.ListUsers(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, "failed to list users", err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req accessKeyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": h.gate.ValidateAccessKey(r.Context(), req.AccessKey)})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, user, err := h.gate.Login(r.Context(), req.UserID, req.AccessKey)
	if err != nil {
		writeDomainError(w, h.logger, "failed to log in", err)
		return
	}
	h.setSessionCookie(w, sess.Token)
	writeJSON(w, http.StatusOK, sessionResponse{User: user, AccessKey: sess.AccessKey})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, user, err := h.gate.Register(r.Context(), req.Name, req.AccessKey)
	if err != nil {
		writeDomainError(w, h.logger, "failed to register", err)
		return
	}
	h.setSessionCookie(w, sess.Token)
	writeJSON(w, http.StatusCreated, sessionResponse{User: user, AccessKey: sess.AccessKey})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if err := h.gate.Logout(r.Context(), ac.SessionID); err != nil {
		h.logger.Error("logout", "error", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Session returns the current user and the key they are signed in with.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	user, err := h.tracker.GetUser(r.Context(), ac.UserID)
	if err != nil {
		writeDomainError(w, h.logger, "failed to load session", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: user, AccessKey: ac.AccessKey})
}

// RegenerateKey issues a new access key. Existing keys keep working.
func (h *AuthHandler) RegenerateKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.gate.RegenerateAccessKey(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeDomainError(w, h.logger, "failed to generate access key", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"access_key": key})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
