// Package photo implements the lexical searcher for photographic assets:
// the documents table pre-filtered to an image-file-type allowlist.
package photo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kailas-cloud/archivesearch/internal/domain"
)

// Repository searches image-typed documents.
type Repository struct {
	gdb   *gorm.DB
	limit int
}

// New creates a photo searcher.
func New(gdb *gorm.DB, limit int) *Repository {
	return &Repository{gdb: gdb, limit: limit}
}

// Search returns capped photo hits plus the independent total count.
func (r *Repository) Search(ctx context.Context, q domain.Query, strategy domain.Strategy) ([]domain.PhotoHit, int, error) {
	var hits []domain.PhotoHit
	var err error
	if strategy == domain.StrategyFulltext {
		err = r.gdb.WithContext(ctx).Raw(`
			SELECT id, title, COALESCE(description, '') AS description, COALESCE(file_type, '') AS file_type,
			       COALESCE(local_path, '') AS local_path, COALESCE(source_url, '') AS source_url, created_at
			FROM documents
			WHERE MATCH(title, description, ai_summary) AGAINST(? IN NATURAL LANGUAGE MODE)
			  AND file_type IN ?
			ORDER BY created_at DESC
			LIMIT ?
		`, q.Raw, domain.PhotoFileTypes, r.limit).Scan(&hits).Error
	} else {
		err = r.gdb.WithContext(ctx).Raw(`
			SELECT id, title, COALESCE(description, '') AS description, COALESCE(file_type, '') AS file_type,
			       COALESCE(local_path, '') AS local_path, COALESCE(source_url, '') AS source_url, created_at
			FROM documents
			WHERE title LIKE ?
			  AND file_type IN ?
			ORDER BY created_at DESC
			LIMIT ?
		`, q.Like(), domain.PhotoFileTypes, r.limit).Scan(&hits).Error
	}
	if err != nil {
		return nil, 0, fmt.Errorf("search photos: %w", err)
	}

	var total int64
	if strategy == domain.StrategyFulltext {
		err = r.gdb.WithContext(ctx).Raw(`
			SELECT COUNT(*) FROM documents
			WHERE MATCH(title, description, ai_summary) AGAINST(? IN NATURAL LANGUAGE MODE)
			  AND file_type IN ?
		`, q.Raw, domain.PhotoFileTypes).Scan(&total).Error
	} else {
		err = r.gdb.WithContext(ctx).Raw(`
			SELECT COUNT(*) FROM documents
			WHERE title LIKE ?
			  AND file_type IN ?
		`, q.Like(), domain.PhotoFileTypes).Scan(&total).Error
	}
	if err != nil {
		return nil, 0, fmt.Errorf("count photos: %w", err)
	}

	return hits, int(total), nil
}
