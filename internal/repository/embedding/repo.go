// Package embedding reads the precomputed embeddings table and resolves
// retained matches back to their parent documents or flights. The table is
// read-only to this service.
package embedding

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kailas-cloud/archivesearch/internal/domain"
)

// Repository streams embedding rows and hydrates semantic matches.
type Repository struct {
	gdb *gorm.DB
}

// New creates an embedding repository.
func New(gdb *gorm.DB) *Repository {
	return &Repository{gdb: gdb}
}

// Count returns the total number of embedding rows.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var total int64
	if err := r.gdb.WithContext(ctx).Raw(`SELECT COUNT(*) FROM embeddings`).Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return int(total), nil
}

// Batch returns one fixed-size window of embedding rows. Vectors stay
// serialized; the ranker parses them per record.
func (r *Repository) Batch(ctx context.Context, offset, limit int) ([]domain.EmbeddingRecord, error) {
	var rows []struct {
		ID          int64
		DocumentID  *int64
		FlightID    *int64
		ContentText string
		RawVector   []byte `gorm:"column:embedding_vector"`
	}
	err := r.gdb.WithContext(ctx).Raw(`
		SELECT id, document_id, flight_id, COALESCE(content_text, '') AS content_text, embedding_vector
		FROM embeddings
		LIMIT ? OFFSET ?
	`, limit, offset).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("batch embeddings: %w", err)
	}

	records := make([]domain.EmbeddingRecord, len(rows))
	for i, row := range rows {
		records[i] = domain.EmbeddingRecord{
			ID:          row.ID,
			DocumentID:  row.DocumentID,
			FlightID:    row.FlightID,
			ContentText: row.ContentText,
			RawVector:   row.RawVector,
		}
	}
	return records, nil
}

// DocumentsByIDs resolves documents for retained matches, keyed by id.
func (r *Repository) DocumentsByIDs(ctx context.Context, ids []int64) (map[int64]domain.DocumentHit, error) {
	if len(ids) == 0 {
		return map[int64]domain.DocumentHit{}, nil
	}
	var hits []domain.DocumentHit
	err := r.gdb.WithContext(ctx).Raw(`
		SELECT id, title, COALESCE(ai_summary, '') AS ai_summary, COALESCE(data_set, '') AS data_set,
		       COALESCE(file_type, '') AS file_type
		FROM documents
		WHERE id IN ?
	`, ids).Scan(&hits).Error
	if err != nil {
		return nil, fmt.Errorf("resolve documents: %w", err)
	}
	byID := make(map[int64]domain.DocumentHit, len(hits))
	for _, h := range hits {
		byID[h.ID] = h
	}
	return byID, nil
}

// FlightsByIDs resolves flight logs for retained matches, keyed by id.
func (r *Repository) FlightsByIDs(ctx context.Context, ids []int64) (map[int64]domain.FlightHit, error) {
	if len(ids) == 0 {
		return map[int64]domain.FlightHit{}, nil
	}
	var hits []domain.FlightHit
	err := r.gdb.WithContext(ctx).Raw(`
		SELECT id, COALESCE(origin, '') AS origin, COALESCE(destination, '') AS destination,
		       flight_date, COALESCE(aircraft, '') AS aircraft, COALESCE(ai_summary, '') AS ai_summary
		FROM flight_logs
		WHERE id IN ?
	`, ids).Scan(&hits).Error
	if err != nil {
		return nil, fmt.Errorf("resolve flights: %w", err)
	}
	byID := make(map[int64]domain.FlightHit, len(hits))
	for _, h := range hits {
		byID[h.ID] = h
	}
	return byID, nil
}
