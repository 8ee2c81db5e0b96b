// Package flight implements the lexical searcher for the flight logs
// collection: containment matching across route fields and joined passenger
// names, deduplicated by flight.
package flight

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kailas-cloud/archivesearch/internal/domain"
)

// Repository searches the flight_logs collection.
type Repository struct {
	gdb   *gorm.DB
	limit int
}

// New creates a flight searcher.
func New(gdb *gorm.DB, limit int) *Repository {
	return &Repository{gdb: gdb, limit: limit}
}

// Search returns capped flight hits plus the independent total count. A
// flight with several matching passengers counts once: rows are grouped by
// flight id and the count query counts DISTINCT ids.
func (r *Repository) Search(ctx context.Context, q domain.Query, _ domain.Strategy) ([]domain.FlightHit, int, error) {
	like := q.Like()

	var hits []domain.FlightHit
	err := r.gdb.WithContext(ctx).Raw(`
		SELECT f.id, COALESCE(f.origin, '') AS origin, COALESCE(f.destination, '') AS destination,
		       f.flight_date, COALESCE(f.aircraft, '') AS aircraft, COALESCE(f.ai_summary, '') AS ai_summary,
		       COALESCE(GROUP_CONCAT(p.name SEPARATOR ', '), '') AS passenger_list
		FROM flight_logs f
		LEFT JOIN passengers p ON f.id = p.flight_id
		WHERE (
			f.origin LIKE ?
			OR f.destination LIKE ?
			OR f.aircraft LIKE ?
			OR p.name LIKE ?
		)
		GROUP BY f.id
		ORDER BY f.flight_date DESC
		LIMIT ?
	`, like, like, like, like, r.limit).Scan(&hits).Error
	if err != nil {
		return nil, 0, fmt.Errorf("search flights: %w", err)
	}

	var total int64
	err = r.gdb.WithContext(ctx).Raw(`
		SELECT COUNT(DISTINCT f.id)
		FROM flight_logs f
		LEFT JOIN passengers p ON f.id = p.flight_id
		WHERE (
			f.origin LIKE ?
			OR f.destination LIKE ?
			OR f.aircraft LIKE ?
			OR p.name LIKE ?
		)
	`, like, like, like, like).Scan(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("count flights: %w", err)
	}

	return hits, int(total), nil
}
