package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/grocerytracker/internal/auth"
	"github.com/dukerupert/grocerytracker/internal/backup"
	"github.com/dukerupert/grocerytracker/internal/database"
	"github.com/dukerupert/grocerytracker/internal/model"
	"github.com/dukerupert/grocerytracker/internal/product"
	"github.com/dukerupert/grocerytracker/internal/store"
	"github.com/dukerupert/grocerytracker/internal/tracker"
)

type fixture struct {
	tracker  *tracker.Tracker
	gate     *auth.Gate
	key      string
	auth     *AuthHandler
	users    *UserHandler
	cats     *CategoryHandler
	items    *ItemHandler
	shopping *ShoppingHandler
	info     *InfoHandler
	backups  *BackupHandler
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.DiscardHandler)
	tr := tracker.New(store.NewUserStore(db), store.NewCategoryStore(db), store.NewGroceryStore(db), store.NewShoppingStore(db), nil, logger)
	gate := auth.NewGate(tr, store.NewAccessKeyStore(db), store.NewSessionStore(db), logger)
	key, err := gate.EnsureBootstrapKey(context.Background(), "PANTRY-KEY")
	require.NoError(t, err)

	return &fixture{
		tracker:  tr,
		gate:     gate,
		key:      key,
		auth:     NewAuthHandler(gate, tr, false, logger),
		users:    NewUserHandler(gate, tr, logger),
		cats:     NewCategoryHandler(tr, logger),
		items:    NewItemHandler(tr, logger),
		shopping: NewShoppingHandler(tr, logger),
		info:     NewInfoHandler(tr, product.NewService(false, logger)),
		backups:  NewBackupHandler(backup.NewManager(backup.Config{}, db, store.NewBackupStore(db), logger), logger),
	}
}

// login registers name and returns a context carrying the new session.
func (f *fixture) login(t *testing.T, name string) (context.Context, *model.User) {
	t.Helper()
	sess, user, err := f.gate.Register(context.Background(), name, f.key)
	require.NoError(t, err)
	return auth.WithAuth(context.Background(), auth.AuthContext{
		UserID:    user.ID,
		SessionID: sess.ID,
		AccessKey: sess.AccessKey,
	}), user
}

func request(ctx context.Context, method, target string, body any, params ...string) *http.Request {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, target, &buf).WithContext(ctx)
	for i := 0; i+1 < len(params); i += 2 {
		req.SetPathValue(params[i], params[i+1])
	}
	return req
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorText(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]string](t, rec)["error"]
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{auth.ErrMissingInformation, http.StatusBadRequest},
		{tracker.ErrNoLocations, http.StatusBadRequest},
		{backup.ErrNotConfigured, http.StatusBadRequest},
		{auth.ErrInvalidAccessKey, http.StatusUnauthorized},
		{auth.ErrKeyMismatch, http.StatusUnauthorized},
		{auth.ErrCannotRemoveSelf, http.StatusForbidden},
		{fmt.Errorf("wrapped: %w", tracker.ErrNotFound), http.StatusNotFound},
		{auth.ErrDuplicateName, http.StatusConflict},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestHealth(t *testing.T) {
	rec := serve(Health, request(context.Background(), "GET", "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, rec)["status"])
}

func TestRegisterAndLogin(t *testing.T) {
	f := setup(t)
	bg := context.Background()

	rec := serve(f.auth.Register, request(bg, "POST", "/api/auth/register", map[string]string{"name": "Marta", "access_key": f.key}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Len(t, cookies[0].Value, 64)

	body := decodeBody[struct {
		User      model.User `json:"user"`
		AccessKey string     `json:"access_key"`
	}](t, rec)
	assert.Equal(t, "Marta", body.User.Name)
	assert.Equal(t, f.key, body.AccessKey)

	rec = serve(f.auth.Register, request(bg, "POST", "/api/auth/register", map[string]string{"name": "MARTA", "access_key": f.key}))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(f.auth.Login, request(bg, "POST", "/api/auth/login", map[string]any{"user_id": body.User.ID, "access_key": "nope"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(f.auth.Login, request(bg, "POST", "/api/auth/login", map[string]any{"user_id": body.User.ID, "access_key": " " + f.key + " "}))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, rec.Result().Cookies(), 1)

	rec = serve(f.auth.Login, request(bg, "POST", "/api/auth/login", map[string]any{"user_id": 999, "access_key": f.key}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(f.auth.Users, request(bg, "GET", "/api/auth/users", nil))
	assert.Len(t, decodeBody[[]model.User](t, rec), 1)
}

func TestRegisterValidation(t *testing.T) {
	f := setup(t)
	bg := context.Background()

	rec := serve(f.auth.Register, request(bg, "POST", "/api/auth/register", `{"name":`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON", errorText(t, rec))

	rec = serve(f.auth.Register, request(bg, "POST", "/api/auth/register", map[string]string{"access_key": f.key}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name is required", errorText(t, rec))
}

func TestValidateKey(t *testing.T) {
	f := setup(t)
	bg := context.Background()

	rec := serve(f.auth.Validate, request(bg, "POST", "/api/auth/validate", map[string]string{"access_key": f.key}))
	assert.True(t, decodeBody[map[string]bool](t, rec)["valid"])

	rec = serve(f.auth.Validate, request(bg, "POST", "/api/auth/validate", map[string]string{"access_key": "other"}))
	assert.False(t, decodeBody[map[string]bool](t, rec)["valid"])
}

func TestSessionAndLogout(t *testing.T) {
	f := setup(t)
	sess, user, err := f.gate.Register(context.Background(), "Ines", f.key)
	require.NoError(t, err)
	ctx := auth.WithAuth(context.Background(), auth.AuthContext{UserID: user.ID, SessionID: sess.ID, AccessKey: sess.AccessKey})

	rec := serve(f.auth.Session, request(ctx, "GET", "/api/auth/session", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Ines"`)
	assert.Contains(t, rec.Body.String(), f.key)

	rec = serve(f.auth.Logout, request(ctx, "POST", "/api/auth/logout", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Negative(t, cookies[0].MaxAge)

	restored, _, err := f.gate.Restore(context.Background(), sess.Token)
	require.NoError(t, err)
	assert.Nil(t, restored, "session should be gone after logout")
}

func TestRegenerateKey(t *testing.T) {
	f := setup(t)
	ctx, _ := f.login(t, "Ines")

	rec := serve(f.auth.RegenerateKey, request(ctx, "POST", "/api/access-keys", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	key := decodeBody[map[string]string](t, rec)["access_key"]
	assert.NotEqual(t, f.key, key)
	assert.True(t, f.gate.ValidateAccessKey(ctx, key))
	assert.True(t, f.gate.ValidateAccessKey(ctx, f.key))
}

func TestUsers(t *testing.T) {
	f := setup(t)
	ctx, me := f.login(t, "Ana")

	rec := serve(f.users.Create, request(ctx, "POST", "/api/users", map[string]string{"name": "Luis"}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	luis := decodeBody[model.User](t, rec)

	rec = serve(f.users.Create, request(ctx, "POST", "/api/users", map[string]string{"name": "luis"}))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(f.users.Update, request(ctx, "PUT", "/api/users/x", map[string]string{"name": "ANA"}, "id", fmt.Sprint(luis.ID)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(f.users.Update, request(ctx, "PUT", "/api/users/x", map[string]string{"color": "bg-teal-500"}, "id", fmt.Sprint(luis.ID)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[model.User](t, rec)
	assert.Equal(t, "Luis", updated.Name)
	assert.Equal(t, "bg-teal-500", updated.Color)

	rec = serve(f.users.Delete, request(ctx, "DELETE", "/api/users/x", nil, "id", fmt.Sprint(me.ID)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(f.users.Delete, request(ctx, "DELETE", "/api/users/x", nil, "id", fmt.Sprint(luis.ID)))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(f.users.List, request(ctx, "GET", "/api/users", nil))
	users := decodeBody[[]model.User](t, rec)
	require.Len(t, users, 1)
	assert.Equal(t, me.ID, users[0].ID)

	rec = serve(f.users.Update, request(ctx, "PUT", "/api/users/x", map[string]string{"name": "Z"}, "id", "abc"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCategories(t *testing.T) {
	f := setup(t)
	ctx, _ := f.login(t, "Ana")

	rec := serve(f.cats.Create, request(ctx, "POST", "/api/categories", map[string]string{"name": "Dairy"}))
	require.Equal(t, http.StatusCreated, rec.Code)
	dairy := decodeBody[model.Category](t, rec)
	assert.Equal(t, tracker.DefaultCategoryColor, dairy.Color)
	assert.Equal(t, tracker.DefaultCategoryIcon, dairy.Icon)

	rec = serve(f.cats.Update, request(ctx, "PUT", "/api/categories/x", map[string]string{"icon": "🧀"}, "id", fmt.Sprint(dairy.ID)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "🧀", decodeBody[model.Category](t, rec).Icon)

	rec = serve(f.cats.Suggest, request(ctx, "GET", "/api/categories/suggest?name=Leche%20entera", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[struct {
		Group    string          `json:"group"`
		Category *model.Category `json:"category"`
	}](t, rec)
	assert.Equal(t, "Dairy", body.Group)
	require.NotNil(t, body.Category)
	assert.Equal(t, dairy.ID, body.Category.ID)

	rec = serve(f.cats.Update, request(ctx, "PUT", "/api/categories/x", map[string]string{"icon": "x"}, "id", "404"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(f.cats.Delete, request(ctx, "DELETE", "/api/categories/x", nil, "id", fmt.Sprint(dairy.ID)))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, f.tracker.Categories())
}

func TestItemsLifecycle(t *testing.T) {
	f := setup(t)
	ctx, me := f.login(t, "Ana")

	rec := serve(f.items.Create, request(ctx, "POST", "/api/items", map[string]any{
		"name": "Rice",
		"storage_locations": []map[string]any{
			{"location": "Reservas 1", "quantity": 2},
			{"location": "", "quantity": 5},
		},
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rice := decodeBody[model.GroceryItem](t, rec)
	assert.Equal(t, []int64{me.ID}, rice.AllowedUsers)
	require.Len(t, rice.StorageLocations, 1)

	rec = serve(f.items.Create, request(ctx, "POST", "/api/items", map[string]any{
		"name":              "Beans",
		"storage_locations": []map[string]any{{"location": "Alacena", "quantity": 0}},
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(f.items.List, request(ctx, "GET", "/api/items?q=reservas", nil))
	assert.Len(t, decodeBody[[]model.GroceryItem](t, rec), 1)
	rec = serve(f.items.List, request(ctx, "GET", "/api/items?q=pasta", nil))
	assert.Empty(t, decodeBody[[]model.GroceryItem](t, rec))
	rec = serve(f.items.List, request(ctx, "GET", "/api/items?stock=low", nil))
	assert.Len(t, decodeBody[[]model.GroceryItem](t, rec), 1)

	rec = serve(f.items.Update, request(ctx, "PUT", "/api/items/x", map[string]any{
		"name":              "Brown rice",
		"storage_locations": []map[string]any{{"location": "Reservas 1", "quantity": 8}},
	}, "id", fmt.Sprint(rice.ID)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[model.GroceryItem](t, rec)
	assert.Equal(t, "Brown rice", updated.Name)
	require.Len(t, updated.StorageLocations, 1)
	assert.Equal(t, 8, updated.StorageLocations[0].Quantity)

	locID := fmt.Sprint(updated.StorageLocations[0].ID)
	rec = serve(f.items.SetLocationQuantity, request(ctx, "PUT", "/", map[string]int{"quantity": 5000}, "id", fmt.Sprint(rice.ID), "location_id", locID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	clamped := decodeBody[struct {
		Item    *model.GroceryItem `json:"item"`
		Deleted bool               `json:"deleted"`
	}](t, rec)
	require.NotNil(t, clamped.Item)
	assert.Equal(t, 999, clamped.Item.StorageLocations[0].Quantity)

	locID = fmt.Sprint(clamped.Item.StorageLocations[0].ID)
	rec = serve(f.items.SetLocationQuantity, request(ctx, "PUT", "/", map[string]int{"quantity": 0}, "id", fmt.Sprint(rice.ID), "location_id", locID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decodeBody[map[string]any](t, rec)["deleted"].(bool))
	assert.Empty(t, f.tracker.Items())

	rec = serve(f.items.Get, request(ctx, "GET", "/", nil, "id", fmt.Sprint(rice.ID)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(f.items.Update, request(ctx, "PUT", "/", map[string]string{"name": "x"}, "id", fmt.Sprint(rice.ID)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetLocationQuantityRequiresQuantity(t *testing.T) {
	f := setup(t)
	ctx, _ := f.login(t, "Ana")

	rec := serve(f.items.SetLocationQuantity, request(ctx, "PUT", "/", map[string]any{}, "id", "1", "location_id", "1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "quantity is required", errorText(t, rec))
}

func TestShopping(t *testing.T) {
	f := setup(t)
	ctx, _ := f.login(t, "Ana")

	rec := serve(f.shopping.Create, request(ctx, "POST", "/api/shopping", map[string]any{"name": "Milk", "quantity": 0}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	milk := decodeBody[model.ShoppingItem](t, rec)
	assert.Equal(t, 1, milk.Quantity)
	assert.NotEmpty(t, milk.AddedDate)

	rec = serve(f.shopping.Create, request(ctx, "POST", "/api/shopping", map[string]any{"name": "Eggs", "added_date": "yesterday"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(f.shopping.Toggle, request(ctx, "POST", "/", nil, "id", fmt.Sprint(milk.ID)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[model.ShoppingItem](t, rec).IsCompleted)

	rec = serve(f.shopping.Update, request(ctx, "PUT", "/", map[string]any{"quantity": 3, "location": "Super"}, "id", fmt.Sprint(milk.ID)))
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[model.ShoppingItem](t, rec)
	assert.Equal(t, 3, got.Quantity)
	assert.Equal(t, "Super", got.Location)
	assert.True(t, got.IsCompleted)

	_, err := f.tracker.CreateItem(ctx, tracker.NewItem{
		Name:      "Coffee",
		Locations: []model.LocationQuantity{{Location: "Alacena", Quantity: 1}},
	})
	require.NoError(t, err)

	rec = serve(f.shopping.AddLowStock, request(ctx, "POST", "/api/shopping/low-stock", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	added := decodeBody[[]model.ShoppingItem](t, rec)
	require.Len(t, added, 1)
	assert.Equal(t, "Coffee", added[0].Name)
	assert.Equal(t, "Alacena", added[0].Location)

	rec = serve(f.shopping.AddLowStock, request(ctx, "POST", "/api/shopping/low-stock", nil))
	assert.Empty(t, decodeBody[[]model.ShoppingItem](t, rec))

	rec = serve(f.shopping.Delete, request(ctx, "DELETE", "/", nil, "id", fmt.Sprint(milk.ID)))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(f.shopping.List, request(ctx, "GET", "/api/shopping", nil))
	assert.Len(t, decodeBody[[]model.ShoppingItem](t, rec), 1)

	rec = serve(f.shopping.Toggle, request(ctx, "POST", "/", nil, "id", fmt.Sprint(milk.ID)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInfo(t *testing.T) {
	f := setup(t)
	ctx, me := f.login(t, "Ana")

	_, err := f.tracker.CreateItem(ctx, tracker.NewItem{
		Name:         "Pasta",
		Locations:    []model.LocationQuantity{{Location: "Alacena", Quantity: 6}},
		AllowedUsers: []int64{me.ID},
	})
	require.NoError(t, err)

	rec := serve(f.info.Stats, request(ctx, "GET", "/api/stats", nil))
	stats := decodeBody[tracker.Stats](t, rec)
	assert.Equal(t, 1, stats.Items)
	assert.Equal(t, 6, stats.TotalUnits)
	assert.Equal(t, 1, stats.Users)
	assert.Equal(t, 1, stats.ItemsPerUser[me.ID])

	rec = serve(f.info.Locations, request(ctx, "GET", "/api/locations", nil))
	assert.Contains(t, rec.Body.String(), `"id":"lavadero"`)

	rec = serve(f.info.Product, request(ctx, "GET", "/", nil, "barcode", "7790001"))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[struct {
		Product product.Info `json:"product"`
	}](t, rec)
	assert.Equal(t, "Product 7790001", body.Product.Name)
	assert.False(t, body.Product.Found)
}

func TestBackupsDisabled(t *testing.T) {
	f := setup(t)
	ctx, _ := f.login(t, "Ana")

	rec := serve(f.backups.Create, request(ctx, "POST", "/api/backups", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, backup.ErrNotConfigured.Error(), errorText(t, rec))

	rec = serve(f.backups.List, request(ctx, "GET", "/api/backups", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"disabled"`)

	rec = serve(f.backups.List, request(ctx, "GET", "/api/backups?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
