package usecase

import (
	"context"

	"linkapp/internal/shared/events"
)

// LinkRepository reads link records from the durable store.
type LinkRepository interface {
	// FindDestination returns the destination URL for a short code.
	// Returns domain.ErrLinkNotFound when the code is unknown.
	FindDestination(ctx context.Context, shortCode string) (string, error)

	// Exists reports whether a short code is present in the store.
	Exists(ctx context.Context, shortCode string) (bool, error)
}

// LinkCache caches resolved destinations. Implementations handle cache
// failures internally: a miss and an error both surface as "", nil.
type LinkCache interface {
	// GetDestination returns the cached destination, or "" on miss.
	GetDestination(ctx context.Context, shortCode string) (string, error)

	// SetDestination stores a destination under the short code with the
	// cache's configured TTL.
	SetDestination(ctx context.Context, shortCode, destination string) error
}

// ClickPublisher publishes click events to the event broker.
type ClickPublisher interface {
	PublishClick(ctx context.Context, event events.ClickEvent) error
}
