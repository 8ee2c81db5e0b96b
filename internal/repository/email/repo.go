// Package email implements the lexical searcher for the emails collection.
package email

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kailas-cloud/archivesearch/internal/domain"
)

// Repository searches the emails collection via the ft_email FULLTEXT index.
type Repository struct {
	gdb   *gorm.DB
	limit int
}

// New creates an email searcher.
func New(gdb *gorm.DB, limit int) *Repository {
	return &Repository{gdb: gdb, limit: limit}
}

// Search returns capped email hits plus the independent total count.
// Emails carry a FULLTEXT index unconditionally in the reference schema, so
// there is no fallback variant.
func (r *Repository) Search(ctx context.Context, q domain.Query, _ domain.Strategy) ([]domain.EmailHit, int, error) {
	var hits []domain.EmailHit
	err := r.gdb.WithContext(ctx).Raw(`
		SELECT id, document_id, COALESCE(sender, '') AS sender, COALESCE(recipient, '') AS recipient,
		       COALESCE(cc, '') AS cc, COALESCE(subject, '') AS subject, sent_at,
		       SUBSTRING(COALESCE(body, ''), 1, 200) AS body_preview,
		       MATCH(sender, recipient, subject, body) AGAINST(? IN NATURAL LANGUAGE MODE) AS score
		FROM emails
		WHERE MATCH(sender, recipient, subject, body) AGAINST(? IN NATURAL LANGUAGE MODE)
		ORDER BY score DESC, sent_at DESC
		LIMIT ?
	`, q.Raw, q.Raw, r.limit).Scan(&hits).Error
	if err != nil {
		return nil, 0, fmt.Errorf("search emails: %w", err)
	}

	var total int64
	err = r.gdb.WithContext(ctx).Raw(`
		SELECT COUNT(*)
		FROM emails
		WHERE MATCH(sender, recipient, subject, body) AGAINST(? IN NATURAL LANGUAGE MODE)
	`, q.Raw).Scan(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("count emails: %w", err)
	}

	return hits, int(total), nil
}
