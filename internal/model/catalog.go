package model

import "time"

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Dish prices are in minor currency units.
type Dish struct {
	ID              int64     `json:"id"`
	VendorID        int64     `json:"vendor_id"`
	CategoryID      *int64    `json:"category_id,omitempty"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Price           int64     `json:"price"`
	DiscountedPrice *int64    `json:"discounted_price,omitempty"`
	Stock           *int      `json:"stock,omitempty"` // portions left, nil means unlimited
	IsAvailable     bool      `json:"is_available"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EffectivePrice is the discounted price when present, else the list price.
func (d *Dish) EffectivePrice() int64 {
	if d.DiscountedPrice != nil {
		return *d.DiscountedPrice
	}
	return d.Price
}

// NearbyVendor is a vendor with its distance from a query point.
type NearbyVendor struct {
	VendorProfile
	DistanceKM float64 `json:"distance_km"`
}
