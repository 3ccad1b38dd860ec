package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fsanano/food-market/internal/model"
)

const locationColumns = `id, user_id, label, address, latitude, longitude, is_default, created_at`

func scanLocation(row pgx.Row) (*model.UserLocation, error) {
	var l model.UserLocation
	if err := row.Scan(&l.ID, &l.UserID, &l.Label, &l.Address, &l.Latitude, &l.Longitude, &l.IsDefault, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateLocation stores l. A default location clears the user's previous default.
func (r *Repository) CreateLocation(ctx context.Context, l *model.UserLocation) error {
	return r.RunAtomic(ctx, func(ctx context.Context) error {
		exec := r.getExecutor(ctx)
		if l.IsDefault {
			if _, err := exec.Exec(ctx,
				`UPDATE user_locations SET is_default = false WHERE user_id = $1 AND is_default`, l.UserID); err != nil {
				return fmt.Errorf("failed to clear default location: %w", err)
			}
		}
		err := exec.QueryRow(ctx,
			`INSERT INTO user_locations (user_id, label, address, latitude, longitude, is_default)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
			l.UserID, l.Label, l.Address, l.Latitude, l.Longitude, l.IsDefault,
		).Scan(&l.ID, &l.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create location: %w", err)
		}
		return nil
	})
}

func (r *Repository) GetLocation(ctx context.Context, id int64) (*model.UserLocation, error) {
	l, err := scanLocation(r.getExecutor(ctx).QueryRow(ctx, `SELECT `+locationColumns+` FROM user_locations WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "location", id)
	}
	return l, nil
}

func (r *Repository) ListLocations(ctx context.Context, userID int64) ([]model.UserLocation, error) {
	rows, err := r.getExecutor(ctx).Query(ctx,
		`SELECT `+locationColumns+` FROM user_locations WHERE user_id = $1 ORDER BY is_default DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	out := []model.UserLocation{}
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}
