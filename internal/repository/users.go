package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fsanano/food-market/internal/apperr"
	"fsanano/food-market/internal/model"
)

const userColumns = `id, name, email, password_hash, phone, role, status, notification_preferences, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.Role, &u.Status, &u.Preferences, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts u and fills its id and timestamps.
func (r *Repository) CreateUser(ctx context.Context, u *model.User) error {
	if u.Preferences == nil {
		u.Preferences = map[string]bool{}
	}
	err := r.getExecutor(ctx).QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, phone, role, status, notification_preferences)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		u.Name, u.Email, u.PasswordHash, u.Phone, u.Role, u.Status, u.Preferences,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("email already registered")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(r.getExecutor(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return u, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.getExecutor(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return nil, notFound(err, "user", email)
	}
	return u, nil
}

func (r *Repository) ListUsers(ctx context.Context, page Page) ([]model.User, error) {
	page = page.normalized()
	rows, err := r.getExecutor(ctx).Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *Repository) UpdateUserStatus(ctx context.Context, id int64, status model.UserStatus) error {
	tag, err := r.getExecutor(ctx).Exec(ctx,
		`UPDATE users SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	return requireAffected(tag, "user", id)
}

// SetNotificationPreference stores one notification preference flag for a user.
func (r *Repository) SetNotificationPreference(ctx context.Context, userID int64, key string, enabled bool) error {
	tag, err := r.getExecutor(ctx).Exec(ctx,
		`UPDATE users
		 SET notification_preferences = notification_preferences || jsonb_build_object($1::text, $2::boolean),
		     updated_at = now()
		 WHERE id = $3`, key, enabled, userID)
	if err != nil {
		return fmt.Errorf("failed to update notification preferences: %w", err)
	}
	return requireAffected(tag, "user", userID)
}
