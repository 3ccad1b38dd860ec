package service

import (
	"context"

	"github.com/google/uuid"

	"fsanano/food-market/internal/model"
)

type NotificationStore interface {
	ListNotifications(ctx context.Context, userID int64, page Page) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, userID int64, id uuid.UUID) error
	SetNotificationPreference(ctx context.Context, userID int64, key string, enabled bool) error
}

// NotificationService exposes a user's notification history and preferences.
type NotificationService struct {
	store NotificationStore
}

func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

func (s *NotificationService) List(ctx context.Context, userID int64, page Page) ([]model.Notification, error) {
	return s.store.ListNotifications(ctx, userID, page)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID int64, id uuid.UUID) error {
	return s.store.MarkNotificationRead(ctx, userID, id)
}

// SetGeolocation opts the user in or out of geolocation notifications.
func (s *NotificationService) SetGeolocation(ctx context.Context, userID int64, enabled bool) error {
	return s.store.SetNotificationPreference(ctx, userID, model.PrefGeolocation, enabled)
}
