package usecase_test

import (
	"context"

	"linkapp/internal/link/usecase"
	"linkapp/internal/shared/events"
)

// MockLinkRepository is a test mock for the LinkRepository interface.
type MockLinkRepository struct {
	FindDestinationFunc func(ctx context.Context, shortCode string) (string, error)
	ExistsFunc          func(ctx context.Context, shortCode string) (bool, error)
}

var _ usecase.LinkRepository = (*MockLinkRepository)(nil)

func (m *MockLinkRepository) FindDestination(ctx context.Context, shortCode string) (string, error) {
	if m.FindDestinationFunc != nil {
		return m.FindDestinationFunc(ctx, shortCode)
	}
	panic("MockLinkRepository.FindDestinationFunc not set")
}

func (m *MockLinkRepository) Exists(ctx context.Context, shortCode string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, shortCode)
	}
	panic("MockLinkRepository.ExistsFunc not set")
}

// MockLinkCache is a test mock for the LinkCache interface.
type MockLinkCache struct {
	GetDestinationFunc func(ctx context.Context, shortCode string) (string, error)
	SetDestinationFunc func(ctx context.Context, shortCode, destination string) error
}

var _ usecase.LinkCache = (*MockLinkCache)(nil)

func (m *MockLinkCache) GetDestination(ctx context.Context, shortCode string) (string, error) {
	if m.GetDestinationFunc != nil {
		return m.GetDestinationFunc(ctx, shortCode)
	}
	panic("MockLinkCache.GetDestinationFunc not set")
}

func (m *MockLinkCache) SetDestination(ctx context.Context, shortCode, destination string) error {
	if m.SetDestinationFunc != nil {
		return m.SetDestinationFunc(ctx, shortCode, destination)
	}
	panic("MockLinkCache.SetDestinationFunc not set")
}

// MockClickPublisher is a test mock for the ClickPublisher interface.
type MockClickPublisher struct {
	PublishClickFunc func(ctx context.Context, event events.ClickEvent) error
}

var _ usecase.ClickPublisher = (*MockClickPublisher)(nil)

func (m *MockClickPublisher) PublishClick(ctx context.Context, event events.ClickEvent) error {
	if m.PublishClickFunc != nil {
		return m.PublishClickFunc(ctx, event)
	}
	panic("MockClickPublisher.PublishClickFunc not set")
}
