// Package tracker keeps an in-memory mirror of users, categories, grocery
// items and the shopping list, and is the single write path to the store.
//
// Each mutation runs its store calls in sequence and then patches the
// mirror with what the store returned. UpdateItem is the exception: it
// reloads the whole item collection. Multi-table writes are not atomic;
// a failure midway leaves earlier rows in place.
package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/grocerytracker/internal/model"
	"github.com/dukerupert/grocerytracker/internal/store"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrNoLocations  = errors.New("at least one storage location with a positive quantity is required")
	ErrNameRequired = errors.New("name is required")
)

const (
	entityUser     = "user"
	entityCategory = "category"
	entityItem     = "grocery_item"
	entityShopping = "shopping_item"
)

type UserStore interface {
	List(ctx context.Context) ([]model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	Create(ctx context.Context, name, color, accessKey string) (*model.User, error)
	Update(ctx context.Context, id int64, name, color string) (*model.User, error)
	Delete(ctx context.Context, id int64) error
}

type CategoryStore interface {
	List(ctx context.Context) ([]model.Category, error)
	GetByID(ctx context.Context, id int64) (*model.Category, error)
	Create(ctx context.Context, name, color, icon string) (*model.Category, error)
	Update(ctx context.Context, id int64, name, color, icon string) (*model.Category, error)
	Delete(ctx context.Context, id int64) error
}

type ItemStore interface {
	ListItems(ctx context.Context) ([]model.GroceryItem, error)
	GetItem(ctx context.Context, id int64) (*model.GroceryItem, error)
	CreateItem(ctx context.Context, name string, categoryID *int64, addedDate string) (*model.GroceryItem, error)
	UpdateItem(ctx context.Context, id int64, patch store.ItemPatch) error
	DeleteItem(ctx context.Context, id int64) error
	AddLocations(ctx context.Context, itemID int64, locs []model.LocationQuantity) ([]model.StorageLocation, error)
	DeleteLocations(ctx context.Context, itemID int64) error
	AddPermissions(ctx context.Context, itemID int64, userIDs []int64) error
	DeletePermissions(ctx context.Context, itemID int64) error
}

type ShoppingStore interface {
	List(ctx context.Context) ([]model.ShoppingItem, error)
	Create(ctx context.Context, name string, quantity int, location string, completed bool, addedDate string) (*model.ShoppingItem, error)
	Update(ctx context.Context, id int64, patch store.ShoppingPatch) (*model.ShoppingItem, error)
	Delete(ctx context.Context, id int64) error
}

// Notifier receives change events and user-facing notifications.
type Notifier interface {
	Changed(entity, action string, id int64)
	Toast(title, description string, failed bool)
}

type nopNotifier struct{}

func (nopNotifier) Changed(string, string, int64) {}
func (nopNotifier) Toast(string, string, bool)    {}

type Tracker struct {
	users      UserStore
	categories CategoryStore
	items      ItemStore
	shopping   ShoppingStore
	notify     Notifier
	logger     *slog.Logger
	now        func() time.Time

	mu           sync.RWMutex
	userList     []model.User
	categoryList []model.Category
	itemList     []model.GroceryItem
	shoppingList []model.ShoppingItem
}

// New builds a tracker with an empty mirror; call Load to fill it. A nil
// notifier discards notifications.
func New(users UserStore, categories CategoryStore, items ItemStore, shopping ShoppingStore, notify Notifier, logger *slog.Logger) *Tracker {
	if notify == nil {
		notify = nopNotifier{}
	}
	return &Tracker{
		users:      users,
		categories: categories,
		items:      items,
		shopping:   shopping,
		notify:     notify,
		logger:     logger.With("component", "tracker"),
		now:        time.Now,
	}
}

// Load fetches all four collections concurrently and replaces the mirror.
// The fetches are independent: collections that loaded are kept even when
// another one failed, and the first error is returned.
func (t *Tracker) Load(ctx context.Context) error {
	var g errgroup.Group

	g.Go(func() error {
		users, err := t.users.List(ctx)
		if err != nil {
			return t.fail("Error fetching users", "fetch users", err)
		}
		t.setUsers(users)
		return nil
	})
	g.Go(func() error {
		categories, err := t.categories.List(ctx)
		if err != nil {
			return t.fail("Error fetching categories", "fetch categories", err)
		}
		t.mu.Lock()
		t.categoryList = categories
		t.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		return t.fetchItems(ctx)
	})
	g.Go(func() error {
		list, err := t.shopping.List(ctx)
		if err != nil {
			return t.fail("Error fetching shopping list", "fetch shopping list", err)
		}
		t.mu.Lock()
		t.shoppingList = list
		t.mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	t.logger.Info("mirror loaded",
		"users", len(t.Users()),
		"categories", len(t.Categories()),
		"items", len(t.Items()),
		"shopping", len(t.ShoppingList()),
	)
	return nil
}

func (t *Tracker) fetchItems(ctx context.Context) error {
	items, err := t.items.ListItems(ctx)
	if err != nil {
		return t.fail("Error fetching grocery items", "fetch items", err)
	}
	t.mu.Lock()
	t.itemList = items
	t.mu.Unlock()
	return nil
}

func (t *Tracker) setUsers(users []model.User) {
	t.mu.Lock()
	t.userList = users
	t.mu.Unlock()
}

// fail logs err, shows title as a failed toast and returns err unchanged.
func (t *Tracker) fail(title, op string, err error) error {
	t.logger.Error(op, "error", err)
	t.notify.Toast(title, "", true)
	return err
}

func (t *Tracker) succeed(title, entity, action string, id int64) {
	t.notify.Toast(title, "", false)
	t.notify.Changed(entity, action, id)
}

func (t *Tracker) Users() []model.User {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]model.User(nil), t.userList...)
}

func (t *Tracker) Categories() []model.Category {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]model.Category(nil), t.categoryList...)
}

func (t *Tracker) Items() []model.GroceryItem {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]model.GroceryItem, len(t.itemList))
	for i, item := range t.itemList {
		out[i] = item.Clone()
	}
	return out
}

func (t *Tracker) ShoppingList() []model.ShoppingItem {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]model.ShoppingItem(nil), t.shoppingList...)
}

// Item returns a copy of the mirrored item.
func (t *Tracker) Item(id int64) (model.GroceryItem, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, item := range t.itemList {
		if item.ID == id {
			return item.Clone(), true
		}
	}
	return model.GroceryItem{}, false
}

func (t *Tracker) today() string {
	return t.now().Format(time.DateOnly)
}
