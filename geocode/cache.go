// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uber/h3-go/v4"

	"github.com/jcodagnone/geodist/spatial"
)

// cacheH3Resolution is the H3 resolution stored next to cached points,
// cells of roughly 0.7 km².
const cacheH3Resolution = 8

// CacheEntry is a remembered provider answer.
type CacheEntry struct {
	Found       bool
	Point       spatial.Point
	DisplayName string
	Confidence  string
	CreatedAt   time.Time
}

// Cache remembers deterministic provider answers keyed by provider and query.
type Cache interface {
	Get(ctx context.Context, provider, query string) (CacheEntry, bool, error)
	Put(ctx context.Context, provider, query string, entry CacheEntry) error
}

// SQLCache is a Cache stored in a DuckDB database.
type SQLCache struct {
	db *sql.DB
}

// NewSQLCache creates a cache on db. CreateSchema must be called once.
func NewSQLCache(db *sql.DB) *SQLCache {
	return &SQLCache{db: db}
}

// CreateSchema creates the geocode_cache table.
func (c *SQLCache) CreateSchema(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS geocode_cache (
			provider VARCHAR NOT NULL,
			query VARCHAR NOT NULL,
			found BOOLEAN NOT NULL,
			lat DOUBLE,
			lng DOUBLE,
			h3_res8 BIGINT,
			display_name VARCHAR,
			confidence VARCHAR,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (provider, query)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating geocode_cache: %w", err)
	}

	return nil
}

func (c *SQLCache) Get(ctx context.Context, provider, query string) (CacheEntry, bool, error) {
	var (
		entry       CacheEntry
		lat, lng    sql.NullFloat64
		displayName sql.NullString
		confidence  sql.NullString
	)

	err := c.db.QueryRowContext(ctx, `
		SELECT found, lat, lng, display_name, confidence, created_at
		FROM geocode_cache
		WHERE provider = ? AND query = ?
	`, provider, query).Scan(&entry.Found, &lat, &lng, &displayName, &confidence, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return CacheEntry{}, false, nil
	}

	if err != nil {
		return CacheEntry{}, false, fmt.Errorf("reading geocode cache: %w", err)
	}

	entry.Point = spatial.Point{Lat: lat.Float64, Lng: lng.Float64}
	entry.DisplayName = displayName.String
	entry.Confidence = confidence.String

	return entry, true, nil
}

func (c *SQLCache) Put(ctx context.Context, provider, query string, entry CacheEntry) error {
	var lat, lng sql.NullFloat64

	var cell sql.NullInt64

	if entry.Found {
		lat = sql.NullFloat64{Float64: entry.Point.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: entry.Point.Lng, Valid: true}

		if entry.Point.Valid() {
			h3Cell, err := h3.LatLngToCell(h3.NewLatLng(entry.Point.Lat, entry.Point.Lng), cacheH3Resolution)
			if err != nil {
				return fmt.Errorf("error converting to h3 cell at res %d: %w", cacheH3Resolution, err)
			}

			cell = sql.NullInt64{Int64: int64(h3Cell), Valid: true}
		}
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO geocode_cache (provider, query, found, lat, lng, h3_res8, display_name, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider, query) DO UPDATE SET
			found = EXCLUDED.found,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			h3_res8 = EXCLUDED.h3_res8,
			display_name = EXCLUDED.display_name,
			confidence = EXCLUDED.confidence,
			created_at = EXCLUDED.created_at
	`, provider, query, entry.Found, lat, lng, cell, entry.DisplayName, entry.Confidence, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("writing geocode cache: %w", err)
	}

	return nil
}

// Len returns how many answers are cached.
func (c *SQLCache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT count(*) FROM geocode_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting geocode cache: %w", err)
	}

	return n, nil
}
