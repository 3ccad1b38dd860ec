package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fsanano/food-market/internal/apperr"
	"fsanano/food-market/internal/model"
)

const reviewColumns = `id, order_id, customer_id, vendor_id, rating, comment, created_at`

func scanReview(row pgx.Row) (*model.Review, error) {
	var rv model.Review
	if err := row.Scan(&rv.ID, &rv.OrderID, &rv.CustomerID, &rv.VendorID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *Repository) CreateReview(ctx context.Context, rv *model.Review) error {
	err := r.getExecutor(ctx).QueryRow(ctx,
		`INSERT INTO reviews (order_id, customer_id, vendor_id, rating, comment)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		rv.OrderID, rv.CustomerID, rv.VendorID, rv.Rating, rv.Comment,
	).Scan(&rv.ID, &rv.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("order already reviewed")
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *Repository) GetReview(ctx context.Context, id int64) (*model.Review, error) {
	rv, err := scanReview(r.getExecutor(ctx).QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "review", id)
	}
	return rv, nil
}

// ListReviews returns newest first; a nil vendorID lists every vendor.
func (r *Repository) ListReviews(ctx context.Context, vendorID *int64, page Page) ([]model.Review, error) {
	page = page.normalized()
	rows, err := r.getExecutor(ctx).Query(ctx,
		`SELECT `+reviewColumns+` FROM reviews
		 WHERE ($1::bigint IS NULL OR vendor_id = $1)
		 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		vendorID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, *rv)
	}
	return reviews, rows.Err()
}

func (r *Repository) DeleteReview(ctx context.Context, id int64) error {
	tag, err := r.getExecutor(ctx).Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return requireAffected(tag, "review", id)
}
