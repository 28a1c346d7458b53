package events

import (
	"time"

	"github.com/google/uuid"
)

// ClickEvent represents one visit to a short link. Published by the resolver
// after every successful resolution, consumed in batches by the analytics
// pipeline. ClientIP and UserAgent may be empty; sinks substitute sentinel
// values so aggregates never see nulls.
type ClickEvent struct {
	EventID   string    `json:"eventId"`
	ShortCode string    `json:"shortCode"`
	ClientIP  string    `json:"clientIp,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	ClickedAt time.Time `json:"occurredAt"`
}

// NewClickEvent builds a click event with a fresh event ID. The ID makes
// redelivered events identifiable downstream; delivery is at-least-once and
// aggregates tolerate duplicates.
func NewClickEvent(shortCode, clientIP, userAgent string, clickedAt time.Time) ClickEvent {
	return ClickEvent{
		EventID:   uuid.NewString(),
		ShortCode: shortCode,
		ClientIP:  clientIP,
		UserAgent: userAgent,
		ClickedAt: clickedAt,
	}
}
