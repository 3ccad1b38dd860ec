package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is the persisted record of a delivered notification.
type Notification struct {
	ID        uuid.UUID      `json:"id"`
	UserID    int64          `json:"user_id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Data      map[string]any `json:"data,omitempty"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
