package tracker

import (
	"context"
	"strings"

	"github.com/dukerupert/grocerytracker/internal/model"
)

// ListUsers reloads users from the store, refreshing the mirror.
func (t *Tracker) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := t.users.List(ctx)
	if err != nil {
		return nil, t.fail("Error fetching users", "fetch users", err)
	}
	t.setUsers(users)
	return append([]model.User(nil), users...), nil
}

// GetUser reads a user from the store. It returns nil, nil when missing.
func (t *Tracker) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return t.users.GetByID(ctx, id)
}

func (t *Tracker) CreateUser(ctx context.Context, name, color, accessKey string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	u, err := t.users.Create(ctx, name, color, accessKey)
	if err != nil {
		return nil, t.fail("Error creating user", "create user", err)
	}

	t.mu.Lock()
	t.userList = append(t.userList, *u)
	t.mu.Unlock()

	t.succeed("User created successfully", entityUser, "created", u.ID)
	return u, nil
}

func (t *Tracker) UpdateUser(ctx context.Context, id int64, name, color string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	u, err := t.users.Update(ctx, id, name, color)
	if err != nil {
		return nil, t.fail("Error updating user", "update user", err)
	}
	if u == nil {
		return nil, ErrNotFound
	}

	t.mu.Lock()
	for i := range t.userList {
		if t.userList[i].ID == id {
			t.userList[i] = *u
		}
	}
	t.mu.Unlock()

	t.succeed("User updated successfully", entityUser, "updated", id)
	return u, nil
}

// DeleteUser removes the user. Their sessions and item permissions go with
// them, so the permission lists in the mirror are pruned too.
func (t *Tracker) DeleteUser(ctx context.Context, id int64) error {
	if err := t.users.Delete(ctx, id); err != nil {
		return t.fail("Error deleting user", "delete user", err)
	}

	t.mu.Lock()
	t.userList = filter(t.userList, func(u model.User) bool { return u.ID != id })
	for i := range t.itemList {
		t.itemList[i].AllowedUsers = filter(t.itemList[i].AllowedUsers, func(uid int64) bool { return uid != id })
	}
	t.mu.Unlock()

	t.succeed("User deleted successfully", entityUser, "deleted", id)
	return nil
}

func filter[T any](s []T, keep func(T) bool) []T {
	out := s[:0]
	for _, v := range s {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
