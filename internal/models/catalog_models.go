package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups menu items for display.
type Category struct {
	ID           int64     `json:"id"`
	RestaurantID int64     `json:"restaurant_id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	Position     int       `json:"position"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MenuItem is a sellable item on the menu. CategoryID is a weak back
// reference; an item may be uncategorized.
type MenuItem struct {
	ID           int64           `json:"id"`
	RestaurantID int64           `json:"restaurant_id"`
	CategoryID   *int64          `json:"category_id,omitempty"`
	Name         string          `json:"name"`
	Description  *string         `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	IsAvailable  bool            `json:"is_available"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	OptionGroups []OptionGroup `json:"option_groups,omitempty"`
}

// OptionGroup is a set of selectable modifiers (e.g. "Toppings").
type OptionGroup struct {
	ID           int64     `json:"id"`
	RestaurantID int64     `json:"restaurant_id"`
	Name         string    `json:"name"`
	MinSelect    int       `json:"min_select"`
	MaxSelect    int       `json:"max_select"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Options []Option `json:"options,omitempty"`

	// Position within a menu item association; populated when the group
	// is loaded through a menu item.
	Position *int `json:"position,omitempty"`
}

// Option is a single modifier choice within a group. PriceDelta may be
// negative, zero, or positive.
type Option struct {
	ID            int64           `json:"id"`
	OptionGroupID int64           `json:"option_group_id"`
	Name          string          `json:"name"`
	PriceDelta    decimal.Decimal `json:"price_delta"`
	IsAvailable   bool            `json:"is_available"`
	CreatedAt     time.Time       `json:"created_at"`
}

// MenuItemOptionGroup associates a menu item with an option group at a
// display position.
type MenuItemOptionGroup struct {
	MenuItemID    int64 `json:"menu_item_id"`
	OptionGroupID int64 `json:"option_group_id"`
	Position      int   `json:"position"`
}
