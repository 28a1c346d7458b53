package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/samber/lo"
)

// appendColumns is the column contract for the append log, in insert order.
// ValidateSchema checks it against the live table before the consumer starts.
var appendColumns = []string{"short_code", "ip_address", "user_agent", "event_id", "clicked_at"}

// AppendSink writes click rows to the ClickHouse append log through the
// native batch path with explicit column binding, avoiding per-row type
// inference.
type AppendSink struct {
	conn  driver.Conn
	table string
}

// NewAppendSink creates the ClickHouse append sink for the given table.
func NewAppendSink(conn driver.Conn, table string) *AppendSink {
	return &AppendSink{conn: conn, table: table}
}

// Name identifies the sink in logs.
func (s *AppendSink) Name() string { return "clickhouse" }

// ValidateSchema compares the declared column contract against the target
// table. A mismatch means inserts would bind values to the wrong columns, so
// it is fatal (ErrSchemaMismatch) rather than retriable.
func (s *AppendSink) ValidateSchema(ctx context.Context) error {
	rows, err := s.conn.Query(ctx,
		"SELECT name FROM system.columns WHERE database = currentDatabase() AND table = ? ORDER BY position",
		s.table,
	)
	if err != nil {
		return fmt.Errorf("describe %s: %w", s.table, err)
	}
	defer rows.Close()

	var actual []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("describe %s: %w", s.table, err)
		}
		actual = append(actual, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("describe %s: %w", s.table, err)
	}

	if len(actual) != len(appendColumns) || !lo.Every(actual, appendColumns) {
		return fmt.Errorf("%w: table %s has columns (%s), sink expects (%s)",
			ErrSchemaMismatch,
			s.table,
			strings.Join(actual, ", "),
			strings.Join(appendColumns, ", "),
		)
	}
	for i, name := range appendColumns {
		if actual[i] != name {
			return fmt.Errorf("%w: table %s column %d is %q, sink expects %q",
				ErrSchemaMismatch, s.table, i, actual[i], name)
		}
	}

	return nil
}

// WriteBatch appends the rows in one native batch. The batch is sent whole;
// ClickHouse applies it atomically per insert.
func (s *AppendSink) WriteBatch(ctx context.Context, rows []ClickRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := fmt.Sprintf("INSERT INTO %s (%s)", s.table, strings.Join(appendColumns, ", "))
	batch, err := s.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare batch for %s: %w", s.table, err)
	}

	for _, r := range rows {
		if err := batch.Append(r.ShortCode, r.IPAddress, r.UserAgent, r.EventID, r.ClickedAt); err != nil {
			return fmt.Errorf("append row to %s batch: %w", s.table, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch to %s: %w", s.table, err)
	}
	return nil
}
