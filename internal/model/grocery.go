package model

import "time"

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type StorageLocation struct {
	ID       int64  `json:"id"`
	Location string `json:"location"`
	Quantity int    `json:"quantity"`
}

// LocationQuantity is a storage location that has not been written yet.
type LocationQuantity struct {
	Location string `json:"location"`
	Quantity int    `json:"quantity"`
}

type GroceryItem struct {
	ID               int64             `json:"id"`
	Name             string            `json:"name"`
	AddedDate        string            `json:"added_date"`
	CategoryID       *int64            `json:"category_id"`
	Category         *Category         `json:"category,omitempty"`
	AllowedUsers     []int64           `json:"allowed_users"`
	StorageLocations []StorageLocation `json:"storage_locations"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Clone returns a deep copy so callers can't mutate shared slices.
func (i GroceryItem) Clone() GroceryItem {
	c := i
	if i.CategoryID != nil {
		id := *i.CategoryID
		c.CategoryID = &id
	}
	if i.Category != nil {
		cat := *i.Category
		c.Category = &cat
	}
	c.AllowedUsers = append([]int64(nil), i.AllowedUsers...)
	c.StorageLocations = append([]StorageLocation(nil), i.StorageLocations...)
	return c
}

type ShoppingItem struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Quantity    int       `json:"quantity"`
	Location    string    `json:"location"`
	IsCompleted bool      `json:"is_completed"`
	AddedDate   string    `json:"added_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
