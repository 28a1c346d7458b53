package usecase_test

import (
	"context"

	"linkapp/internal/stats/usecase"
)

// MockLinkStore is a test mock for the LinkStore interface.
type MockLinkStore struct {
	ExistsFunc func(ctx context.Context, shortCode string) (bool, error)
}

var _ usecase.LinkStore = (*MockLinkStore)(nil)

func (m *MockLinkStore) Exists(ctx context.Context, shortCode string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, shortCode)
	}
	panic("MockLinkStore.ExistsFunc not set")
}

// MockClickAnalytics is a test mock for the ClickAnalytics interface.
type MockClickAnalytics struct {
	AggregateFunc func(ctx context.Context, shortCode string) (usecase.ClickAggregate, error)
}

var _ usecase.ClickAnalytics = (*MockClickAnalytics)(nil)

func (m *MockClickAnalytics) Aggregate(ctx context.Context, shortCode string) (usecase.ClickAggregate, error) {
	if m.AggregateFunc != nil {
		return m.AggregateFunc(ctx, shortCode)
	}
	panic("MockClickAnalytics.AggregateFunc not set")
}

// MockStatsCache is a test mock for the StatsCache interface.
type MockStatsCache struct {
	GetFunc func(ctx context.Context, shortCode string) ([]byte, error)
	SetFunc func(ctx context.Context, shortCode string, payload []byte) error
}

var _ usecase.StatsCache = (*MockStatsCache)(nil)

func (m *MockStatsCache) Get(ctx context.Context, shortCode string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, shortCode)
	}
	panic("MockStatsCache.GetFunc not set")
}

func (m *MockStatsCache) Set(ctx context.Context, shortCode string, payload []byte) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, shortCode, payload)
	}
	panic("MockStatsCache.SetFunc not set")
}
