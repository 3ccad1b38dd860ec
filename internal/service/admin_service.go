package service

import (
	"context"
	"errors"

	"fsanano/food-market/internal/apperr"
	"fsanano/food-market/internal/model"
	"fsanano/food-market/internal/notification"
)

type AdminStore interface {
	ListUsers(ctx context.Context, page Page) ([]model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	UpdateUserStatus(ctx context.Context, id int64, status model.UserStatus) error
}

type AdminService struct {
	store    AdminStore
	notifier Notifier
}

func NewAdminService(store AdminStore, notifier Notifier) *AdminService {
	return &AdminService{store: store, notifier: notifier}
}

func (s *AdminService) Users(ctx context.Context, page Page) ([]model.User, error) {
	return s.store.ListUsers(ctx, page)
}

// SetUserStatus suspends or reactivates a user. Admins cannot change their own status.
func (s *AdminService) SetUserStatus(ctx context.Context, actorID, id int64, status model.UserStatus) (*model.User, error) {
	if err := check(statusChange{Status: status}).OrNil(); err != nil {
		return nil, err
	}
	if actorID == id {
		return nil, apperr.Invalid("status", "you cannot change your own status")
	}
	if err := s.store.UpdateUserStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.store.GetUserByID(ctx, id)
}

type statusChange struct {
	Status model.UserStatus `json:"status" validate:"known"`
}

type BroadcastInput struct {
	Type    notification.EventType `json:"type" validate:"known"`
	Title   string                 `json:"title" validate:"notblank,max=255"`
	Body    string                 `json:"body" validate:"max=2000"`
	Payload map[string]any         `json:"payload"`
	UserIDs []int64                `json:"user_ids" validate:"required,min=1,max=500"`
}

// BroadcastResult counts recipients by outcome.
type BroadcastResult struct {
	Queued  int     `json:"queued"`
	Skipped int     `json:"skipped"`
	Missing []int64 `json:"missing,omitempty"`
}

// Broadcast queues one notification per eligible recipient. Suspended and
// opted-out users are skipped; unknown ids are reported back.
func (s *AdminService) Broadcast(ctx context.Context, in BroadcastInput) (*BroadcastResult, error) {
	if err := check(in).OrNil(); err != nil {
		return nil, err
	}

	res := &BroadcastResult{}
	seen := make(map[int64]bool, len(in.UserIDs))
	for _, id := range in.UserIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		u, err := s.store.GetUserByID(ctx, id)
		if err != nil {
			var nf *apperr.NotFoundError
			if errors.As(err, &nf) {
				res.Missing = append(res.Missing, id)
				continue
			}
			return nil, err
		}
		if !notification.ShouldSend(u) {
			res.Skipped++
			continue
		}

		s.notifier.Notify(ctx, notification.Event{
			Type:    in.Type,
			Title:   in.Title,
			Body:    in.Body,
			Payload: in.Payload,
			Target:  u,
		})
		res.Queued++
	}
	return res, nil
}
