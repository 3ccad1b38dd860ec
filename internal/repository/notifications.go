package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fsanano/food-market/internal/model"
)

func (r *Repository) CreateNotification(ctx context.Context, n *model.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	data := n.Data
	if data == nil {
		data = map[string]any{}
	}
	_, err := r.getExecutor(ctx).Exec(ctx,
		`INSERT INTO notifications (id, user_id, type, title, body, data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.UserID, n.Type, n.Title, n.Body, data, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *Repository) ListNotifications(ctx context.Context, userID int64, page Page) ([]model.Notification, error) {
	page = page.normalized()
	rows, err := r.getExecutor(ctx).Query(ctx,
		`SELECT id, user_id, type, title, body, data, read_at, created_at FROM notifications
		 WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	out := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.Data, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationRead stamps read_at once; the owner check is part of the match.
func (r *Repository) MarkNotificationRead(ctx context.Context, userID int64, id uuid.UUID) error {
	tag, err := r.getExecutor(ctx).Exec(ctx,
		`UPDATE notifications SET read_at = COALESCE(read_at, now()) WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return requireAffected(tag, "notification", id)
}
