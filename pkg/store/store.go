// Package store persists the tour journal and the HTTP response cache.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"ciceronego/pkg/db"
	"ciceronego/pkg/model"
)

// Store provides access to the persistent tour journal and cache tables.
type Store struct {
	db *db.DB
}

// New creates a new Store on an initialized database.
func New(d *db.DB) *Store {
	return &Store{db: d}
}

// SaveTour records a completed tour in the journal.
func (s *Store) SaveTour(ctx context.Context, rec *model.TourRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tours (id, landmark, description, story, source_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Landmark, rec.Description, rec.Story, rec.SourceCount,
		rec.CreatedAt.Format("2006-01-02 15:04:05"))
	if err != nil {
		return fmt.Errorf("failed to save tour: %w", err)
	}
	return nil
}

// ListTours returns the most recent journal entries, newest first.
func (s *Store) ListTours(ctx context.Context, limit int) ([]model.TourRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, landmark, description, story, source_count, created_at
		 FROM tours ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tours: %w", err)
	}
	defer rows.Close()

	var out []model.TourRecord
	for rows.Next() {
		var rec model.TourRecord
		var created string
		if err := rows.Scan(&rec.ID, &rec.Landmark, &rec.Description, &rec.Story, &rec.SourceCount, &created); err != nil {
			return nil, fmt.Errorf("failed to scan tour row: %w", err)
		}
		if ts, err := time.Parse("2006-01-02 15:04:05", created); err == nil {
			rec.CreatedAt = ts
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetCache returns the cached value for key, if present.
func (s *Store) GetCache(ctx context.Context, key string) ([]byte, bool) {
	var val []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM cache WHERE key = ?", key).Scan(&val)
	if err != nil {
		if err != sql.ErrNoRows {
			slog.Error("Store: cache lookup failed", "key", key, "error", err)
		}
		return nil, false
	}
	return val, true
}

// SetCache stores a value under key, replacing any previous entry.
func (s *Store) SetCache(ctx context.Context, key string, val []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO cache (key, value, created_at) VALUES (?, ?, CURRENT_TIMESTAMP)",
		key, val)
	if err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}
