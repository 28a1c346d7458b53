package postgres

import (
	"context"
	"errors"
	"fmt"

	"linkapp/internal/link/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LinkRepository reads link records from PostgreSQL.
type LinkRepository struct {
	pool *pgxpool.Pool
}

// NewLinkRepository creates a Postgres-backed link repository.
func NewLinkRepository(pool *pgxpool.Pool) *LinkRepository {
	return &LinkRepository{pool: pool}
}

// FindDestination returns the destination URL for a short code.
func (r *LinkRepository) FindDestination(ctx context.Context, shortCode string) (string, error) {
	var destination string
	err := r.pool.QueryRow(ctx,
		"SELECT long_url FROM urls WHERE short_code = $1",
		shortCode,
	).Scan(&destination)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrLinkNotFound
		}
		return "", fmt.Errorf("find destination: %w", err)
	}
	return destination, nil
}

// Exists reports whether a short code is present. Used by the stats path as
// a cheap existence check; the relational store is not queried for
// aggregates.
func (r *LinkRepository) Exists(ctx context.Context, shortCode string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM urls WHERE short_code = $1)",
		shortCode,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("link exists: %w", err)
	}
	return exists, nil
}
