// Package entity implements the lexical searcher for named entities:
// containment on the name plus a derived mention count used for ordering.
package entity

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kailas-cloud/archivesearch/internal/domain"
)

// Repository searches the entities collection.
type Repository struct {
	gdb      *gorm.DB
	limit    int
	docLimit int
}

// New creates an entity searcher. docLimit caps the cross-referenced
// documents returned for the top matched entities.
func New(gdb *gorm.DB, limit, docLimit int) *Repository {
	return &Repository{gdb: gdb, limit: limit, docLimit: docLimit}
}

// Search returns capped entity hits plus the independent total count. The
// mention count (distinct referencing documents) orders the list; the
// lexical match itself is a plain containment.
func (r *Repository) Search(ctx context.Context, q domain.Query, _ domain.Strategy) ([]domain.EntityHit, int, error) {
	var hits []domain.EntityHit
	err := r.gdb.WithContext(ctx).Raw(`
		SELECT e.id, e.name, COALESCE(e.type, '') AS type, COUNT(de.document_id) AS doc_count
		FROM entities e
		LEFT JOIN document_entities de ON de.entity_id = e.id
		WHERE e.name LIKE ?
		GROUP BY e.id, e.name, e.type
		ORDER BY doc_count DESC
		LIMIT ?
	`, q.Like(), r.limit).Scan(&hits).Error
	if err != nil {
		return nil, 0, fmt.Errorf("search entities: %w", err)
	}

	var total int64
	err = r.gdb.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM entities WHERE name LIKE ?
	`, q.Like()).Scan(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("count entities: %w", err)
	}

	return hits, int(total), nil
}

// DocumentsForEntities returns documents referencing any of the given
// entities, ordered by how many of them each document matches.
func (r *Repository) DocumentsForEntities(ctx context.Context, entityIDs []int64) ([]domain.EntityDocumentHit, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}

	var hits []domain.EntityDocumentHit
	err := r.gdb.WithContext(ctx).Raw(`
		SELECT DISTINCT d.id, d.title, COALESCE(d.file_type, '') AS file_type,
		       COALESCE(d.ai_summary, '') AS ai_summary, COALESCE(d.data_set, '') AS data_set,
		       COUNT(de.entity_id) AS entity_matches
		FROM documents d
		JOIN document_entities de ON de.document_id = d.id
		WHERE de.entity_id IN ?
		GROUP BY d.id
		ORDER BY entity_matches DESC
		LIMIT ?
	`, entityIDs, r.docLimit).Scan(&hits).Error
	if err != nil {
		return nil, fmt.Errorf("documents for entities: %w", err)
	}
	return hits, nil
}
