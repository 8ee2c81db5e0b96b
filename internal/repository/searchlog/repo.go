// Package searchlog persists query telemetry and serves popularity reads.
package searchlog

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Entry is one telemetry record.
type Entry struct {
	Query           string
	QueryNormalized string
	ResultCount     int
	Fingerprint     string
	UserAgent       string
}

// PopularQuery is one aggregated row for the popularity endpoint.
type PopularQuery struct {
	QueryNormalized string `json:"query"`
	Searches        int    `json:"searches"`
	MaxResults      int    `json:"max_results"`
}

// Repository reads and writes the search_logs table.
type Repository struct {
	gdb *gorm.DB
}

// New creates a search log repository.
func New(gdb *gorm.DB) *Repository {
	return &Repository{gdb: gdb}
}

// LoggedRecently reports whether the same fingerprint already logged the
// same normalized query within the trailing window.
func (r *Repository) LoggedRecently(ctx context.Context, fingerprint, normalized string, window time.Duration) (bool, error) {
	var found int
	err := r.gdb.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM (
			SELECT 1 FROM search_logs
			WHERE ip_hash = ?
			  AND query_normalized = ?
			  AND created_at > DATE_SUB(NOW(), INTERVAL ? SECOND)
			LIMIT 1
		) recent
	`, fingerprint, normalized, int(window.Seconds())).Scan(&found).Error
	if err != nil {
		return false, fmt.Errorf("check recent search log: %w", err)
	}
	return found > 0, nil
}

// Insert writes one telemetry record.
func (r *Repository) Insert(ctx context.Context, e Entry) error {
	err := r.gdb.WithContext(ctx).Exec(`
		INSERT INTO search_logs (query, query_normalized, result_count, ip_hash, user_agent)
		VALUES (?, ?, ?, ?, ?)
	`, e.Query, e.QueryNormalized, e.ResultCount, e.Fingerprint, e.UserAgent).Error
	if err != nil {
		return fmt.Errorf("insert search log: %w", err)
	}
	return nil
}

// TopQueries aggregates the most-searched normalized queries since the given
// time. A zero time means all time.
func (r *Repository) TopQueries(ctx context.Context, since time.Time, limit int) ([]PopularQuery, error) {
	query := `
		SELECT query_normalized, COUNT(*) AS searches, MAX(result_count) AS max_results
		FROM search_logs
		WHERE query_normalized != ''
	`
	args := []any{}
	if !since.IsZero() {
		query += " AND created_at > ?"
		args = append(args, since)
	}
	query += `
		GROUP BY query_normalized
		ORDER BY searches DESC
		LIMIT ?
	`
	args = append(args, limit)

	var rows []PopularQuery
	if err := r.gdb.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("top queries: %w", err)
	}
	return rows, nil
}
