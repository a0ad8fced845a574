package models

import "time"

// StaffRole is the role of a staff member within a restaurant.
type StaffRole string

const (
	RoleOwner   StaffRole = "owner"
	RoleManager StaffRole = "manager"
	RoleStaff   StaffRole = "staff"
)

// IsValidStaffRole reports whether r is a known role.
func IsValidStaffRole(r StaffRole) bool {
	switch r {
	case RoleOwner, RoleManager, RoleStaff:
		return true
	}
	return false
}

// InvitationStatus is the lifecycle of a staff invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
)

// Restaurant is the tenant root. All catalog, staff, and order data is
// scoped to a restaurant.
type Restaurant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	Timezone  string    `json:"timezone"`
	Currency  string    `json:"currency"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RestaurantStaff attaches a user to a restaurant with a role.
type RestaurantStaff struct {
	ID           int64     `json:"id"`
	RestaurantID int64     `json:"restaurant_id"`
	UserID       int64     `json:"user_id"`
	Role         StaffRole `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	User *User `json:"user,omitempty"` // joined user details
}

// StaffInvitation is a pending, token-bearing, time-limited email
// invitation to join a restaurant's staff.
type StaffInvitation struct {
	ID           int64            `json:"id"`
	RestaurantID int64            `json:"restaurant_id"`
	Email        string           `json:"email"`
	Role         StaffRole        `json:"role"`
	Token        string           `json:"token"`
	Status       InvitationStatus `json:"status"`
	InvitedBy    *int64           `json:"invited_by,omitempty"`
	ExpiresAt    time.Time        `json:"expires_at"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Customer is a known customer of a restaurant, matched by phone number
// when orders arrive through the voice agent.
type Customer struct {
	ID           int64     `json:"id"`
	RestaurantID int64     `json:"restaurant_id"`
	Name         *string   `json:"name,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	Email        *string   `json:"email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
