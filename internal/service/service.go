// Package service holds the marketplace use cases. Each service depends on the
// narrow slice of storage it needs, so tests can substitute fakes.
package service

import (
	"context"

	"fsanano/food-market/internal/notification"
	"fsanano/food-market/internal/repository"
)

// Notifier delivers a notification event without blocking the caller.
type Notifier interface {
	Notify(ctx context.Context, ev notification.Event)
}

// Page bounds list queries.
type Page = repository.Page
