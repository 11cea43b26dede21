package model

import "time"

// User is a member of the tracker. AccessKey is the shared secret the user
// joined with; it is never serialized.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	AccessKey string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type AccessKey struct {
	ID        int64      `json:"id"`
	Value     string     `json:"key_value"`
	CreatedBy *int64     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type Session struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	AccessKey string    `json:"access_key"`
	CreatedAt time.Time `json:"created_at"`
}
