package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"linkapp/internal/link/domain"
	"linkapp/internal/shared/events"

	"go.uber.org/zap"
)

// Visitor carries the request attributes recorded with each click. Both
// fields are optional.
type Visitor struct {
	IP        string
	UserAgent string
}

// Resolver serves the redirect path: cache-aside lookup over the link store,
// then a fire-and-forget click event per successful resolution.
type Resolver struct {
	repo      LinkRepository
	cache     LinkCache
	publisher ClickPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewResolver creates a link resolver.
func NewResolver(repo LinkRepository, cache LinkCache, publisher ClickPublisher, logger *zap.Logger) *Resolver {
	return &Resolver{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Resolve returns the destination URL for a short code.
//
// Cache hit serves directly; on miss the store is read and the cache
// hydrated. Unknown codes return domain.ErrLinkNotFound without touching the
// cache or the broker. Neither the cache write nor the event publish can fail
// the resolution: both are best-effort enrichment of a response that is
// already correct.
func (r *Resolver) Resolve(ctx context.Context, shortCode string, visitor Visitor) (string, error) {
	destination, err := r.cache.GetDestination(ctx, shortCode)
	if err != nil {
		// Cache implementations swallow their own errors; treat anything
		// that leaks through as a miss.
		r.logger.Warn("link cache read failed",
			zap.String("short_code", shortCode),
			zap.Error(err),
		)
		destination = ""
	}

	if destination == "" {
		destination, err = r.repo.FindDestination(ctx, shortCode)
		if err != nil {
			if errors.Is(err, domain.ErrLinkNotFound) {
				return "", err
			}
			return "", fmt.Errorf("resolve %q: %w", shortCode, err)
		}

		if err := r.cache.SetDestination(ctx, shortCode, destination); err != nil {
			r.logger.Warn("link cache write failed",
				zap.String("short_code", shortCode),
				zap.Error(err),
			)
		}
	}

	r.publishClick(ctx, shortCode, visitor)

	return destination, nil
}

// publishClick emits the click event. Publish failure is logged and the
// click dropped; it never reaches the caller.
func (r *Resolver) publishClick(ctx context.Context, shortCode string, visitor Visitor) {
	event := events.NewClickEvent(shortCode, visitor.IP, visitor.UserAgent, r.now().UTC())

	if err := r.publisher.PublishClick(ctx, event); err != nil {
		r.logger.Warn("failed to publish click event",
			zap.String("short_code", shortCode),
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
	}
}
