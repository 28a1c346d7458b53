package usecase

import (
	"context"
	"time"
)

// LinkStore answers the existence check against the durable link store. The
// relational store is never queried for aggregates; that access pattern
// belongs to the analytics store.
type LinkStore interface {
	Exists(ctx context.Context, shortCode string) (bool, error)
}

// DayCount is one day of click history.
type DayCount struct {
	Day   time.Time
	Count int64
}

// ClickAggregate holds the pre-aggregated analytics for one short code.
// LastAccessed is nil when no clicks have been recorded.
type ClickAggregate struct {
	TotalClicks    int64
	UniqueVisitors int64
	LastAccessed   *time.Time
	Daily          []DayCount
}

// ClickAnalytics reads aggregates from the analytics store. Counts are exact
// over flushed batches; UniqueVisitors is an approximate distinct of client
// IPs.
type ClickAnalytics interface {
	Aggregate(ctx context.Context, shortCode string) (ClickAggregate, error)
}

// StatsCache memoizes serialized stats responses. Implementations handle
// cache failures internally: miss and error both surface as nil, nil.
type StatsCache interface {
	Get(ctx context.Context, shortCode string) ([]byte, error)
	Set(ctx context.Context, shortCode string, payload []byte) error
}
