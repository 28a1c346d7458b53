package sink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var auditColumns = []string{"short_code", "ip_address", "user_agent", "event_id", "clicked_at"}

// AuditSink writes click rows to the relational audit table using the COPY
// protocol, one bulk statement per batch.
type AuditSink struct {
	pool *pgxpool.Pool
}

// NewAuditSink creates the Postgres audit sink.
func NewAuditSink(pool *pgxpool.Pool) *AuditSink {
	return &AuditSink{pool: pool}
}

// Name identifies the sink in logs.
func (s *AuditSink) Name() string { return "postgres" }

// WriteBatch bulk-inserts the rows into link_analytics. COPY is atomic: on
// error no rows of the batch are visible.
func (s *AuditSink) WriteBatch(ctx context.Context, rows []ClickRow) error {
	if len(rows) == 0 {
		return nil
	}

	_, err := s.pool.CopyFrom(
		ctx,
		pgx.Identifier{"link_analytics"},
		auditColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.ShortCode, r.IPAddress, r.UserAgent, r.EventID, r.ClickedAt}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy into link_analytics: %w", err)
	}
	return nil
}
