// Package news implements the lexical searcher for processed news articles,
// ordered by the precomputed editorial shock score.
package news

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kailas-cloud/archivesearch/internal/domain"
)

// Repository searches the news_articles collection via the ft_news index.
type Repository struct {
	gdb   *gorm.DB
	limit int
}

// New creates a news searcher.
func New(gdb *gorm.DB, limit int) *Repository {
	return &Repository{gdb: gdb, limit: limit}
}

// Search returns capped news hits plus the independent total count. Only
// articles in the processed state are searchable.
func (r *Repository) Search(ctx context.Context, q domain.Query, strategy domain.Strategy) ([]domain.NewsHit, int, error) {
	var hits []domain.NewsHit
	var err error
	if strategy == domain.StrategyFulltext {
		err = r.gdb.WithContext(ctx).Raw(`
			SELECT id, title, COALESCE(url, '') AS url, COALESCE(source_name, '') AS source_name,
			       published_at, COALESCE(ai_summary, '') AS ai_summary,
			       COALESCE(ai_headline, '') AS ai_headline, COALESCE(shock_score, 0) AS shock_score
			FROM news_articles
			WHERE status = 'processed'
			  AND MATCH(title, snippet, ai_summary) AGAINST(? IN NATURAL LANGUAGE MODE)
			ORDER BY shock_score DESC, published_at DESC
			LIMIT ?
		`, q.Raw, r.limit).Scan(&hits).Error
	} else {
		err = r.gdb.WithContext(ctx).Raw(`
			SELECT id, title, COALESCE(url, '') AS url, COALESCE(source_name, '') AS source_name,
			       published_at, COALESCE(ai_summary, '') AS ai_summary,
			       COALESCE(ai_headline, '') AS ai_headline, COALESCE(shock_score, 0) AS shock_score
			FROM news_articles
			WHERE status = 'processed' AND title LIKE ?
			ORDER BY shock_score DESC, published_at DESC
			LIMIT ?
		`, q.Like(), r.limit).Scan(&hits).Error
	}
	if err != nil {
		return nil, 0, fmt.Errorf("search news: %w", err)
	}

	var total int64
	if strategy == domain.StrategyFulltext {
		err = r.gdb.WithContext(ctx).Raw(`
			SELECT COUNT(*) FROM news_articles
			WHERE status = 'processed'
			  AND MATCH(title, snippet, ai_summary) AGAINST(? IN NATURAL LANGUAGE MODE)
		`, q.Raw).Scan(&total).Error
	} else {
		err = r.gdb.WithContext(ctx).Raw(`
			SELECT COUNT(*) FROM news_articles
			WHERE status = 'processed' AND title LIKE ?
		`, q.Like()).Scan(&total).Error
	}
	if err != nil {
		return nil, 0, fmt.Errorf("count news: %w", err)
	}

	return hits, int(total), nil
}
