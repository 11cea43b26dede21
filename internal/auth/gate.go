package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"

	"github.com/dukerupert/grocerytracker/internal/model"
	"github.com/dukerupert/grocerytracker/internal/store"
)

var (
	ErrMissingInformation = errors.New("missing information")
	ErrInvalidAccessKey   = errors.New("invalid access key")
	ErrUserNotFound       = errors.New("user not found")
	ErrKeyMismatch        = errors.New("access key does not match the selected user")
	ErrDuplicateName      = errors.New("a user with this name already exists")
	ErrCannotRemoveSelf   = errors.New("cannot remove yourself")
)

// Palette is the set of color tags handed out to new users in rotation.
var Palette = []string{
	"bg-red-500",
	"bg-green-500",
	"bg-blue-500",
	"bg-yellow-500",
	"bg-purple-500",
	"bg-pink-500",
	"bg-indigo-500",
	"bg-orange-500",
	"bg-teal-500",
	"bg-cyan-500",
}

// ColorFor returns the palette color for the n-th user.
func ColorFor(n int) string {
	return Palette[n%len(Palette)]
}

// SameName reports whether name matches an existing user's name under
// Unicode case folding.
func SameName(users []model.User, name string) bool {
	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(name))
	for _, u := range users {
		if fold.String(u.Name) == want {
			return true
		}
	}
	return false
}

// UserDirectory is where the gate reads and writes users. The tracker
// implements it so that registrations show up in its mirror.
type UserDirectory interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	CreateUser(ctx context.Context, name, color, accessKey string) (*model.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// Gate admits users holding a valid access key.
type Gate struct {
	users    UserDirectory
	keys     *store.AccessKeyStore
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewGate(users UserDirectory, keys *store.AccessKeyStore, sessions *store.SessionStore, logger *slog.Logger) *Gate {
	return &Gate{
		users:    users,
		keys:     keys,
		sessions: sessions,
		logger:   logger.With("component", "auth"),
	}
}

// ValidateAccessKey reports whether key exists in access_keys. Lookup
// errors count as invalid.
func (g *Gate) ValidateAccessKey(ctx context.Context, key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	k, err := g.keys.GetByValue(ctx, key)
	if err != nil {
		g.logger.Error("validate access key", "error", err)
		return false
	}
	return k != nil
}

// Login opens a session for an existing user. The key must be valid and
// equal to the key the user registered with.
func (g *Gate) Login(ctx context.Context, userID int64, key string) (*model.Session, *model.User, error) {
	key = strings.TrimSpace(key)
	if key == "" || userID == 0 {
		return nil, nil, ErrMissingInformation
	}
	if !g.ValidateAccessKey(ctx, key) {
		return nil, nil, ErrInvalidAccessKey
	}

	user, err := g.users.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("login: %w", err)
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}
	if user.AccessKey != key {
		return nil, nil, ErrKeyMismatch
	}

	sess, err := g.sessions.Create(ctx, user.ID, key)
	if err != nil {
		return nil, nil, fmt.Errorf("login: %w", err)
	}
	g.logger.Info("user logged in", "user_id", user.ID)
	return sess, user, nil
}

// Register creates a user bound to key and opens a session for them.
func (g *Gate) Register(ctx context.Context, name, key string) (*model.Session, *model.User, error) {
	name = strings.TrimSpace(name)
	key = strings.TrimSpace(key)
	if name == "" || key == "" {
		return nil, nil, ErrMissingInformation
	}
	if !g.ValidateAccessKey(ctx, key) {
		return nil, nil, ErrInvalidAccessKey
	}

	users, err := g.users.ListUsers(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("register: %w", err)
	}
	if SameName(users, name) {
		return nil, nil, ErrDuplicateName
	}

	user, err := g.users.CreateUser(ctx, name, ColorFor(len(users)), key)
	if err != nil {
		return nil, nil, fmt.Errorf("register: %w", err)
	}
	sess, err := g.sessions.Create(ctx, user.ID, key)
	if err != nil {
		return nil, nil, fmt.Errorf("register: %w", err)
	}
	g.logger.Info("user registered", "user_id", user.ID, "name", user.Name)
	return sess, user, nil
}

// AddUser creates another user bound to key, the caller's own key. It
// applies the same name rules as Register but opens no session.
func (g *Gate) AddUser(ctx context.Context, name, key string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || key == "" {
		return nil, ErrMissingInformation
	}

	users, err := g.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("add user: %w", err)
	}
	if SameName(users, name) {
		return nil, ErrDuplicateName
	}

	user, err := g.users.CreateUser(ctx, name, ColorFor(len(users)), key)
	if err != nil {
		return nil, fmt.Errorf("add user: %w", err)
	}
	return user, nil
}

// Restore resolves a session token. It returns nil, nil, nil when the
// token is unknown or its user is gone.
func (g *Gate) Restore(ctx context.Context, token string) (*model.Session, *model.User, error) {
	if token == "" {
		return nil, nil, nil
	}
	sess, err := g.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, nil, fmt.Errorf("restore session: %w", err)
	}
	if sess == nil {
		return nil, nil, nil
	}
	user, err := g.users.GetUser(ctx, sess.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("restore session: %w", err)
	}
	if user == nil {
		return nil, nil, nil
	}
	return sess, user, nil
}

func (g *Gate) Logout(ctx context.Context, sessionID int64) error {
	if err := g.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// RegenerateAccessKey stores a fresh key. Previously issued keys stay valid.
func (g *Gate) RegenerateAccessKey(ctx context.Context, createdBy int64) (string, error) {
	var by *int64
	if createdBy != 0 {
		by = &createdBy
	}
	k, err := g.keys.Generate(ctx, by)
	if err != nil {
		return "", fmt.Errorf("regenerate access key: %w", err)
	}
	g.logger.Info("access key generated", "created_by", createdBy)
	return k.Value, nil
}

// RemoveUser deletes another user. Removing yourself is refused.
func (g *Gate) RemoveUser(ctx context.Context, currentUserID, userID int64) error {
	if currentUserID == userID {
		return ErrCannotRemoveSelf
	}
	return g.users.DeleteUser(ctx, userID)
}

// EnsureBootstrapKey makes sure at least one access key exists. A non-empty
// preset is stored as-is; otherwise a key is generated. It returns the key
// that was created, or "" when keys already existed.
func (g *Gate) EnsureBootstrapKey(ctx context.Context, preset string) (string, error) {
	n, err := g.keys.Count(ctx)
	if err != nil {
		return "", err
	}
	if n > 0 {
		return "", nil
	}
	if preset != "" {
		if _, err := g.keys.Create(ctx, preset, nil); err != nil {
			return "", err
		}
		return preset, nil
	}
	k, err := g.keys.Generate(ctx, nil)
	if err != nil {
		return "", err
	}
	return k.Value, nil
}
