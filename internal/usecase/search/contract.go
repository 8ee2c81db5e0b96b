package search

import (
	"context"

	"github.com/kailas-cloud/archivesearch/internal/domain"
	"github.com/kailas-cloud/archivesearch/internal/usecase/semantic"
)

// The six lexical collection searchers. Each returns its capped rows plus a
// total computed by an independent count query, never by counting the rows.

type DocumentSearcher interface {
	Search(ctx context.Context, q domain.Query, strategy domain.Strategy) ([]domain.DocumentHit, int, error)
}

type EmailSearcher interface {
	Search(ctx context.Context, q domain.Query, strategy domain.Strategy) ([]domain.EmailHit, int, error)
}

type FlightSearcher interface {
	Search(ctx context.Context, q domain.Query, strategy domain.Strategy) ([]domain.FlightHit, int, error)
}

type PhotoSearcher interface {
	Search(ctx context.Context, q domain.Query, strategy domain.Strategy) ([]domain.PhotoHit, int, error)
}

type EntitySearcher interface {
	Search(ctx context.Context, q domain.Query, strategy domain.Strategy) ([]domain.EntityHit, int, error)
	DocumentsForEntities(ctx context.Context, entityIDs []int64) ([]domain.EntityDocumentHit, error)
}

type NewsSearcher interface {
	Search(ctx context.Context, q domain.Query, strategy domain.Strategy) ([]domain.NewsHit, int, error)
}

// ResultCache short-circuits the fan-out when an unexpired bundle exists
// for the normalized query and page.
type ResultCache interface {
	Get(ctx context.Context, q domain.Query) (*domain.ResultBundle, bool)
	Set(ctx context.Context, q domain.Query, bundle *domain.ResultBundle)
}

// Ranker augments lexical results with embedding-similarity matches. It
// never fails the search.
type Ranker interface {
	Rank(ctx context.Context, rawQuery string) ([]domain.SemanticMatch, semantic.State)
}

// ActivityLogger records query telemetry. Fire-and-forget.
type ActivityLogger interface {
	LogSearch(ctx context.Context, q domain.Query, resultCount int, clientIP, userAgent string)
}
