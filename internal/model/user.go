package model

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleVendor, RoleAdmin:
		return true
	}
	return false
}

type UserStatus string

const (
	StatusActive    UserStatus = "active"
	StatusSuspended UserStatus = "suspended"
)

func (s UserStatus) Valid() bool {
	return s == StatusActive || s == StatusSuspended
}

// PrefGeolocation is the notification preference key for geolocation events.
const PrefGeolocation = "geolocation"

// User is the principal making a request.
type User struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	Phone        string          `json:"phone,omitempty"`
	Role         Role            `json:"role"`
	Status       UserStatus      `json:"status"`
	Preferences  map[string]bool `json:"notification_preferences,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// VendorProfile is attached to a vendor-role user.
type VendorProfile struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	BusinessName string    `json:"business_name"`
	Description  string    `json:"description,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	IsVerified   bool      `json:"is_verified"`
	Rating       float64   `json:"rating"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
