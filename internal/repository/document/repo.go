// Package document implements the lexical searcher for the documents
// collection: full-text relevance over title/description/AI summary with an
// OCR-page bonus, or a title-containment fallback for short queries.
package document

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kailas-cloud/archivesearch/internal/domain"
)

// ocrBonusScore is the fixed additive bonus layered on the relevance score
// for documents whose OCR text matches. Changing it to a weighted blend
// would reorder results.
const ocrBonusScore = 20

// ocrMatchLimit caps the OCR id pre-scan.
const ocrMatchLimit = 1000

// Repository searches the documents collection.
type Repository struct {
	gdb           *gorm.DB
	perPage       int
	pagesFulltext bool
	logger        *zap.Logger
}

// New creates a document searcher. pagesFulltext enables the OCR-page
// secondary search when the pages table carries a FULLTEXT index.
func New(gdb *gorm.DB, perPage int, pagesFulltext bool, logger *zap.Logger) *Repository {
	return &Repository{gdb: gdb, perPage: perPage, pagesFulltext: pagesFulltext, logger: logger}
}

// Search returns one page of document hits plus the independent total count.
func (r *Repository) Search(ctx context.Context, q domain.Query, strategy domain.Strategy) ([]domain.DocumentHit, int, error) {
	if strategy == domain.StrategyFulltext {
		return r.searchFulltext(ctx, q)
	}
	return r.searchFallback(ctx, q)
}

func (r *Repository) searchFulltext(ctx context.Context, q domain.Query) ([]domain.DocumentHit, int, error) {
	ocrIDList := r.ocrDocumentIDs(ctx, q)

	ocrInClause := ""
	if ocrIDList != "0" {
		ocrInClause = fmt.Sprintf("OR d.id IN (%s)", ocrIDList)
	}

	offset := (q.Page - 1) * r.perPage

	var hits []domain.DocumentHit
	err := r.gdb.WithContext(ctx).Raw(fmt.Sprintf(`
		SELECT d.id, d.title, COALESCE(d.description, '') AS description,
		       COALESCE(d.source_url, '') AS source_url, COALESCE(d.local_path, '') AS local_path,
		       COALESCE(d.file_type, '') AS file_type, COALESCE(d.ai_summary, '') AS ai_summary,
		       COALESCE(d.data_set, '') AS data_set,
		       MATCH(d.title, d.description, d.ai_summary) AGAINST(? IN NATURAL LANGUAGE MODE) AS score,
		       IF(d.id IN (%s), ?, 0) AS ocr_score,
		       d.created_at
		FROM documents d
		WHERE MATCH(d.title, d.description, d.ai_summary) AGAINST(? IN NATURAL LANGUAGE MODE)
		   OR d.data_set LIKE ?
		   OR d.file_type = ?
		   %s
		ORDER BY (score + ocr_score) DESC, d.created_at DESC
		LIMIT ? OFFSET ?
	`, ocrIDList, ocrInClause),
		q.Raw, ocrBonusScore, q.Raw, q.Like(), q.FileType(), r.perPage, offset,
	).Scan(&hits).Error
	if err != nil {
		return nil, 0, fmt.Errorf("search documents: %w", err)
	}

	var total int64
	err = r.gdb.WithContext(ctx).Raw(fmt.Sprintf(`
		SELECT COUNT(*)
		FROM documents d
		WHERE MATCH(d.title, d.description, d.ai_summary) AGAINST(? IN NATURAL LANGUAGE MODE)
		   OR d.data_set LIKE ?
		   OR d.file_type = ?
		   %s
	`, ocrInClause),
		q.Raw, q.Like(), q.FileType(),
	).Scan(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	return hits, int(total), nil
}

func (r *Repository) searchFallback(ctx context.Context, q domain.Query) ([]domain.DocumentHit, int, error) {
	offset := (q.Page - 1) * r.perPage

	var hits []domain.DocumentHit
	err := r.gdb.WithContext(ctx).Raw(`
		SELECT d.id, d.title, COALESCE(d.description, '') AS description,
		       COALESCE(d.source_url, '') AS source_url, COALESCE(d.local_path, '') AS local_path,
		       COALESCE(d.file_type, '') AS file_type, COALESCE(d.ai_summary, '') AS ai_summary,
		       COALESCE(d.data_set, '') AS data_set,
		       IF(d.title LIKE ?, 50, 5) AS score,
		       0 AS ocr_score,
		       d.created_at
		FROM documents d
		WHERE d.title LIKE ? OR d.file_type = ?
		ORDER BY score DESC, d.created_at DESC
		LIMIT ? OFFSET ?
	`, q.Like(), q.Like(), q.FileType(), r.perPage, offset).Scan(&hits).Error
	if err != nil {
		return nil, 0, fmt.Errorf("search documents: %w", err)
	}

	var total int64
	err = r.gdb.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM documents WHERE title LIKE ? OR file_type = ?
	`, q.Like(), q.FileType()).Scan(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	return hits, int(total), nil
}

// ocrDocumentIDs pre-scans the pages table for documents whose OCR text
// matches. Returns a comma-joined integer id list, or "0" when the index is
// missing, the scan fails, or nothing matches. Failures only lose the bonus
// signal, never the search.
func (r *Repository) ocrDocumentIDs(ctx context.Context, q domain.Query) string {
	if !r.pagesFulltext {
		return "0"
	}

	var ids []int64
	err := r.gdb.WithContext(ctx).Raw(`
		SELECT DISTINCT document_id
		FROM pages
		WHERE MATCH(ocr_text) AGAINST(? IN NATURAL LANGUAGE MODE)
		LIMIT ?
	`, q.Raw, ocrMatchLimit).Scan(&ids).Error
	if err != nil {
		r.logger.Warn("OCR page scan failed, skipping bonus", zap.Error(err))
		return "0"
	}
	if len(ids) == 0 {
		return "0"
	}

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
