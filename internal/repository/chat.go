package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"fsanano/food-market/internal/model"
)

const conversationColumns = `id, user_id, subject, status, created_at, updated_at`

func scanConversation(row pgx.Row) (*model.Conversation, error) {
	var c model.Conversation
	if err := row.Scan(&c.ID, &c.UserID, &c.Subject, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateConversation assigns a new id when c.ID is zero.
func (r *Repository) CreateConversation(ctx context.Context, c *model.Conversation) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = model.ConversationOpen
	}
	err := r.getExecutor(ctx).QueryRow(ctx,
		`INSERT INTO conversations (id, user_id, subject, status)
		 VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at`,
		c.ID, c.UserID, c.Subject, c.Status,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

func (r *Repository) GetConversation(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	c, err := scanConversation(r.getExecutor(ctx).QueryRow(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "conversation", id)
	}
	return c, nil
}

// ListConversations returns the most recently active first; a nil userID lists all.
func (r *Repository) ListConversations(ctx context.Context, userID *int64, page Page) ([]model.Conversation, error) {
	page = page.normalized()
	rows, err := r.getExecutor(ctx).Query(ctx,
		`SELECT `+conversationColumns+` FROM conversations
		 WHERE ($1::bigint IS NULL OR user_id = $1)
		 ORDER BY updated_at DESC LIMIT $2 OFFSET $3`,
		userID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	out := []model.Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *Repository) SetConversationStatus(ctx context.Context, id uuid.UUID, status model.ConversationStatus) error {
	tag, err := r.getExecutor(ctx).Exec(ctx,
		`UPDATE conversations SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	return requireAffected(tag, "conversation", id)
}

// CreateMessage stores m and bumps the conversation's updated_at.
func (r *Repository) CreateMessage(ctx context.Context, m *model.Message) error {
	exec := r.getExecutor(ctx)
	err := exec.QueryRow(ctx,
		`INSERT INTO messages (conversation_id, sender_id, body)
		 VALUES ($1, $2, $3) RETURNING id, created_at`,
		m.ConversationID, m.SenderID, m.Body,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	if _, err := exec.Exec(ctx, `UPDATE conversations SET updated_at = now() WHERE id = $1`, m.ConversationID); err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return nil
}

func (r *Repository) ListMessages(ctx context.Context, conversationID uuid.UUID, page Page) ([]model.Message, error) {
	page = page.normalized()
	rows, err := r.getExecutor(ctx).Query(ctx,
		`SELECT id, conversation_id, sender_id, body, created_at FROM messages
		 WHERE conversation_id = $1 ORDER BY created_at, id LIMIT $2 OFFSET $3`,
		conversationID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	out := []model.Message{}
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
