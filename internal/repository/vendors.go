package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fsanano/food-market/internal/apperr"
	"fsanano/food-market/internal/geo"
	"fsanano/food-market/internal/model"
)

const vendorColumns = `id, user_id, business_name, description, phone, address, latitude, longitude, is_verified, rating, created_at, updated_at`

func scanVendor(row pgx.Row) (*model.VendorProfile, error) {
	var v model.VendorProfile
	err := row.Scan(&v.ID, &v.UserID, &v.BusinessName, &v.Description, &v.Phone, &v.Address,
		&v.Latitude, &v.Longitude, &v.IsVerified, &v.Rating, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *Repository) queryVendors(ctx context.Context, sql string, args ...any) ([]model.VendorProfile, error) {
	rows, err := r.getExecutor(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	defer rows.Close()

	vendors := []model.VendorProfile{}
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		vendors = append(vendors, *v)
	}
	return vendors, rows.Err()
}

func (r *Repository) CreateVendorProfile(ctx context.Context, v *model.VendorProfile) error {
	err := r.getExecutor(ctx).QueryRow(ctx,
		`INSERT INTO vendor_profiles (user_id, business_name, description, phone, address, latitude, longitude)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, is_verified, rating, created_at, updated_at`,
		v.UserID, v.BusinessName, v.Description, v.Phone, v.Address, v.Latitude, v.Longitude,
	).Scan(&v.ID, &v.IsVerified, &v.Rating, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("vendor profile already exists")
		}
		return fmt.Errorf("failed to create vendor profile: %w", err)
	}
	return nil
}

func (r *Repository) GetVendorProfile(ctx context.Context, id int64) (*model.VendorProfile, error) {
	v, err := scanVendor(r.getExecutor(ctx).QueryRow(ctx, `SELECT `+vendorColumns+` FROM vendor_profiles WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "vendor", id)
	}
	return v, nil
}

func (r *Repository) GetVendorProfileByUserID(ctx context.Context, userID int64) (*model.VendorProfile, error) {
	v, err := scanVendor(r.getExecutor(ctx).QueryRow(ctx, `SELECT `+vendorColumns+` FROM vendor_profiles WHERE user_id = $1`, userID))
	if err != nil {
		return nil, notFound(err, "vendor profile", userID)
	}
	return v, nil
}

// UpdateVendorProfile saves the editable profile fields of v.
func (r *Repository) UpdateVendorProfile(ctx context.Context, v *model.VendorProfile) error {
	err := r.getExecutor(ctx).QueryRow(ctx,
		`UPDATE vendor_profiles
		 SET business_name = $1, description = $2, phone = $3, address = $4, latitude = $5, longitude = $6, updated_at = now()
		 WHERE id = $7
		 RETURNING updated_at`,
		v.BusinessName, v.Description, v.Phone, v.Address, v.Latitude, v.Longitude, v.ID,
	).Scan(&v.UpdatedAt)
	if err != nil {
		return notFound(err, "vendor", v.ID)
	}
	return nil
}

func (r *Repository) ListVendors(ctx context.Context, verifiedOnly bool, page Page) ([]model.VendorProfile, error) {
	page = page.normalized()
	return r.queryVendors(ctx,
		`SELECT `+vendorColumns+` FROM vendor_profiles
		 WHERE is_verified OR NOT $1
		 ORDER BY rating DESC, id
		 LIMIT $2 OFFSET $3`, verifiedOnly, page.Limit, page.Offset)
}

// ListVerifiedVendorsInBox returns verified vendors located inside box,
// including boxes that wrap around the antimeridian.
func (r *Repository) ListVerifiedVendorsInBox(ctx context.Context, box geo.Box) ([]model.VendorProfile, error) {
	return r.queryVendors(ctx,
		`SELECT `+vendorColumns+` FROM vendor_profiles
		 WHERE is_verified
		   AND latitude BETWEEN $1 AND $2
		   AND CASE WHEN $3::double precision <= $4::double precision
		            THEN longitude BETWEEN $3 AND $4
		            ELSE longitude >= $3 OR longitude <= $4
		       END`, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng)
}

func (r *Repository) SetVendorVerified(ctx context.Context, id int64, verified bool) error {
	tag, err := r.getExecutor(ctx).Exec(ctx,
		`UPDATE vendor_profiles SET is_verified = $1, updated_at = now() WHERE id = $2`, verified, id)
	if err != nil {
		return fmt.Errorf("failed to update vendor verification: %w", err)
	}
	return requireAffected(tag, "vendor", id)
}

// RefreshVendorRating recomputes the vendor's average review rating.
func (r *Repository) RefreshVendorRating(ctx context.Context, vendorID int64) error {
	_, err := r.getExecutor(ctx).Exec(ctx,
		`UPDATE vendor_profiles
		 SET rating = COALESCE((SELECT round(avg(rating)::numeric, 2) FROM reviews WHERE vendor_id = $1), 0)
		 WHERE id = $1`, vendorID)
	if err != nil {
		return fmt.Errorf("failed to refresh vendor rating: %w", err)
	}
	return nil
}
