package semantic

import (
	"context"

	"github.com/kailas-cloud/archivesearch/internal/domain"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Repository streams the embeddings table and resolves parents for retained
// matches.
type Repository interface {
	Count(ctx context.Context) (int, error)
	Batch(ctx context.Context, offset, limit int) ([]domain.EmbeddingRecord, error)
	DocumentsByIDs(ctx context.Context, ids []int64) (map[int64]domain.DocumentHit, error)
	FlightsByIDs(ctx context.Context, ids []int64) (map[int64]domain.FlightHit, error)
}
