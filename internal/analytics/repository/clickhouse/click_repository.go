package clickhouse

import (
	"context"
	"fmt"
	"time"

	"linkapp/internal/stats/usecase"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// historyWindowDays is the trailing window served by the click history.
const historyWindowDays = 7

// ClickRepository reads click aggregates from the ClickHouse append log.
type ClickRepository struct {
	conn  driver.Conn
	table string
}

// NewClickRepository creates a ClickHouse-backed aggregate reader.
func NewClickRepository(conn driver.Conn, table string) *ClickRepository {
	return &ClickRepository{conn: conn, table: table}
}

var _ usecase.ClickAnalytics = (*ClickRepository)(nil)

// Aggregate returns totals, approximate unique visitors (uniq over client
// IP), the most recent click, and per-day counts for the trailing window,
// newest day first.
func (r *ClickRepository) Aggregate(ctx context.Context, shortCode string) (usecase.ClickAggregate, error) {
	var (
		total    uint64
		visitors uint64
		last     time.Time
	)

	totalsQuery := fmt.Sprintf(
		"SELECT count(), uniq(ip_address), max(clicked_at) FROM %s WHERE short_code = ?",
		r.table,
	)
	if err := r.conn.QueryRow(ctx, totalsQuery, shortCode).Scan(&total, &visitors, &last); err != nil {
		return usecase.ClickAggregate{}, fmt.Errorf("click totals: %w", err)
	}

	agg := usecase.ClickAggregate{
		TotalClicks:    int64(total),
		UniqueVisitors: int64(visitors),
	}
	if total > 0 {
		lastUTC := last.UTC()
		agg.LastAccessed = &lastUTC
	}

	historyQuery := fmt.Sprintf(
		"SELECT toDate(clicked_at) AS day, count() AS clicks FROM %s "+
			"WHERE short_code = ? AND clicked_at > now() - INTERVAL %d DAY "+
			"GROUP BY day ORDER BY day DESC",
		r.table, historyWindowDays,
	)
	rows, err := r.conn.Query(ctx, historyQuery, shortCode)
	if err != nil {
		return usecase.ClickAggregate{}, fmt.Errorf("click history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			day    time.Time
			clicks uint64
		)
		if err := rows.Scan(&day, &clicks); err != nil {
			return usecase.ClickAggregate{}, fmt.Errorf("click history: %w", err)
		}
		agg.Daily = append(agg.Daily, usecase.DayCount{Day: day, Count: int64(clicks)})
	}
	if err := rows.Err(); err != nil {
		return usecase.ClickAggregate{}, fmt.Errorf("click history: %w", err)
	}

	return agg, nil
}
