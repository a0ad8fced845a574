package models

import (
	"time"

	"github.com/shopspring/decimal"

	"dinehub_backend/internal/orderflow"
)

// OrderType is how an order is fulfilled. Wire values are persisted and
// must stay stable.
type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypeTakeout  OrderType = "takeout"
	OrderTypeDelivery OrderType = "delivery"
)

// IsValidOrderType reports whether t is a known fulfillment type.
func IsValidOrderType(t OrderType) bool {
	switch t {
	case OrderTypeDineIn, OrderTypeTakeout, OrderTypeDelivery:
		return true
	}
	return false
}

// Source channels an order can arrive through.
const (
	SourceWeb        = "web"
	SourceVoiceAgent = "voice_agent"
	SourcePhone      = "phone"
)

// Order represents a customer order within a restaurant.
type Order struct {
	ID               int64            `json:"id"`
	RestaurantID     int64            `json:"restaurant_id"`
	OrderNumber      string           `json:"order_number"`
	CustomerID       *int64           `json:"customer_id,omitempty"`
	CustomerName     *string          `json:"customer_name,omitempty"`
	CustomerPhone    *string          `json:"customer_phone,omitempty"`
	CustomerEmail    *string          `json:"customer_email,omitempty"`
	OrderType        OrderType        `json:"order_type"`
	Status           orderflow.Status `json:"status"`
	Subtotal         decimal.Decimal  `json:"subtotal"`
	TaxAmount        decimal.Decimal  `json:"tax_amount"`
	ServiceFee       decimal.Decimal  `json:"service_fee"`
	TotalAmount      decimal.Decimal  `json:"total_amount"`
	SpecialRequests  *string          `json:"special_requests,omitempty"`
	Source           string           `json:"source"`
	PlacedAt         time.Time        `json:"placed_at"`
	EstimatedReadyAt *time.Time       `json:"estimated_ready_at,omitempty"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`

	OrderItems []OrderItem `json:"order_items,omitempty"`

	// ActionLabel is the staff-facing affordance derived from Status.
	// Populated by the service for board views; never stored.
	ActionLabel *string `json:"action_label,omitempty"`
}

// OrderItem is a line item within an order. Name and description are
// snapshots taken from the menu item at order time so later menu edits
// do not rewrite history.
type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	MenuItemID  *int64          `json:"menu_item_id,omitempty"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Notes       *string         `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`

	Options []OrderItemOption `json:"options,omitempty"`
}

// OrderItemOption is a selected modifier on a line item. PriceDelta may be
// negative, zero, or positive.
type OrderItemOption struct {
	ID          int64           `json:"id"`
	OrderItemID int64           `json:"order_item_id"`
	OptionID    *int64          `json:"option_id,omitempty"`
	Name        string          `json:"name"`
	PriceDelta  decimal.Decimal `json:"price_delta"`
}

// OrderStatusEvent is an immutable audit record of a single status
// transition. Rows are only ever inserted.
type OrderStatusEvent struct {
	ID         int64            `json:"id"`
	OrderID    int64            `json:"order_id"`
	FromStatus orderflow.Status `json:"from_status"`
	ToStatus   orderflow.Status `json:"to_status"`
	StaffID    *int64           `json:"staff_id,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// OrderFilters defines the available filters for querying orders.
// Used by both the service and repository layers.
type OrderFilters struct {
	Status    *string `form:"status"`
	OrderType *string `form:"order_type"`
	Date      *string `form:"date"` // Expected format YYYY-MM-DD
	Page      int     `form:"page"`
	PageSize  int     `form:"page_size"`
}

// BoardColumn is one column of the order board: all orders currently in
// a status, plus the action that advances them.
type BoardColumn struct {
	Status      orderflow.Status `json:"status"`
	ActionLabel *string          `json:"action_label,omitempty"`
	Orders      []Order          `json:"orders"`
}
