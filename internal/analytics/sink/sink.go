package sink

import (
	"context"
	"errors"
	"time"

	"linkapp/internal/shared/events"
)

// Sentinel values recorded in place of missing visitor attributes so that
// downstream group-bys never deal with nulls.
const (
	UnknownIP        = "0.0.0.0"
	UnknownUserAgent = "Unknown"
)

// ErrSchemaMismatch indicates the sink's column contract does not match the
// target table. It is a startup-time, non-transient failure: the process must
// stop rather than spin on redelivery.
var ErrSchemaMismatch = errors.New("sink schema mismatch")

// ClickRow is the typed row descriptor written by both sinks. Field order is
// the column contract: short_code, ip_address, user_agent, event_id,
// clicked_at. The ClickHouse sink validates this contract against the target
// table at startup.
type ClickRow struct {
	ShortCode string
	IPAddress string
	UserAgent string
	EventID   string
	ClickedAt time.Time
}

// Sink persists a whole batch of click rows in one bulk operation.
type Sink interface {
	// Name identifies the sink in logs.
	Name() string
	// WriteBatch writes all rows or fails as a unit; partial writes are
	// never reported as success.
	WriteBatch(ctx context.Context, rows []ClickRow) error
}

// RowFromEvent converts a click event to a sink row, substituting sentinels
// for missing visitor attributes.
func RowFromEvent(event events.ClickEvent) ClickRow {
	row := ClickRow{
		ShortCode: event.ShortCode,
		IPAddress: event.ClientIP,
		UserAgent: event.UserAgent,
		EventID:   event.EventID,
		ClickedAt: event.ClickedAt,
	}
	if row.IPAddress == "" {
		row.IPAddress = UnknownIP
	}
	if row.UserAgent == "" {
		row.UserAgent = UnknownUserAgent
	}
	return row
}
