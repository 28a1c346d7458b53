package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"linkapp/internal/link/domain"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// LinkStats is the read-side view served by the stats endpoint. It is never
// persisted durably; it is always reconstructible from the stores.
type LinkStats struct {
	ShortCode      string       `json:"shortCode"`
	TotalClicks    int64        `json:"totalClicks"`
	UniqueVisitors int64        `json:"uniqueVisitors"`
	LastAccessed   *time.Time   `json:"lastAccessed"`
	ClickHistory   []DailyCount `json:"clickHistory"`
}

// DailyCount is one entry in the trailing click history.
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

const historyDateLayout = "2006-01-02"

// StatsService answers aggregate queries by combining a fast existence check
// with pre-aggregated analytics, memoized in a short-TTL cache.
type StatsService struct {
	links     LinkStore
	analytics ClickAnalytics
	cache     StatsCache
	logger    *zap.Logger
}

// NewStatsService creates a stats service.
func NewStatsService(links LinkStore, analytics ClickAnalytics, cache StatsCache, logger *zap.Logger) *StatsService {
	return &StatsService{
		links:     links,
		analytics: analytics,
		cache:     cache,
		logger:    logger,
	}
}

// GetStats returns the stats view for a short code.
//
// Unknown codes short-circuit to domain.ErrLinkNotFound after the existence
// check, before any analytics query. A known code with zero recorded clicks
// returns zero counts and an empty history, not NotFound. Counts reflect only
// flushed batches; staleness is bounded by the flush interval plus the cache
// TTL.
func (s *StatsService) GetStats(ctx context.Context, shortCode string) (*LinkStats, error) {
	if payload, _ := s.cache.Get(ctx, shortCode); payload != nil {
		var cached LinkStats
		if err := json.Unmarshal(payload, &cached); err == nil {
			return &cached, nil
		}
		s.logger.Warn("discarding undecodable cached stats", zap.String("short_code", shortCode))
	}

	exists, err := s.links.Exists(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("stats existence check for %q: %w", shortCode, err)
	}
	if !exists {
		return nil, domain.ErrLinkNotFound
	}

	agg, err := s.analytics.Aggregate(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("stats aggregate for %q: %w", shortCode, err)
	}

	stats := &LinkStats{
		ShortCode:      shortCode,
		TotalClicks:    agg.TotalClicks,
		UniqueVisitors: agg.UniqueVisitors,
		LastAccessed:   agg.LastAccessed,
		ClickHistory: lo.Map(agg.Daily, func(d DayCount, _ int) DailyCount {
			return DailyCount{Date: d.Day.Format(historyDateLayout), Count: d.Count}
		}),
	}
	if stats.ClickHistory == nil {
		stats.ClickHistory = []DailyCount{}
	}

	if payload, err := json.Marshal(stats); err == nil {
		_ = s.cache.Set(ctx, shortCode, payload)
	}

	return stats, nil
}
