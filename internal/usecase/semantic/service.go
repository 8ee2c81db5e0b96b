// Package semantic re-ranks search results by embedding similarity under a
// hard wall-clock budget. The embeddings table has no vector index, so the
// ranker streams it in fixed-size batches and keeps a bounded top-K; when
// the budget expires mid-scan it ranks whatever has been accumulated.
package semantic

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/archivesearch/internal/domain"
	"github.com/kailas-cloud/archivesearch/internal/metrics"
)

// State is the ranker's terminal state for one run.
type State string

const (
	StateRanked  State = "ranked"
	StateSkipped State = "skipped"
	StateFailed  State = "failed"
)

// Config holds the ranker's scan limits.
type Config struct {
	BatchSize  int
	TopK       int
	ScoreFloor float64
	TimeBudget time.Duration
}

// ApplyDefaults fills zero fields with the reference limits.
func (c *Config) ApplyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 500
	}
	if c.TopK <= 0 {
		c.TopK = 10
	}
	if c.ScoreFloor == 0 {
		c.ScoreFloor = 0.25
	}
	if c.TimeBudget <= 0 {
		c.TimeBudget = 8 * time.Second
	}
}

// Service is the semantic ranker.
type Service struct {
	repo   Repository
	embed  Embedder // nil when no provider credential is configured
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// New creates a semantic ranker. A nil embedder makes every run Skipped,
// which is the expected shape for deployments without a provider credential.
func New(repo Repository, embed Embedder, cfg Config, logger *zap.Logger) *Service {
	cfg.ApplyDefaults()
	return &Service{repo: repo, embed: embed, cfg: cfg, logger: logger, now: time.Now}
}

// WithClock overrides the wall clock. Test seam for the time budget.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Rank returns up to TopK semantic matches for the raw query text. It never
// returns an error: any failure degrades to an empty match list with the
// Failed state, and the caller's lexical results stand on their own.
func (s *Service) Rank(ctx context.Context, rawQuery string) ([]domain.SemanticMatch, State) {
	matches, state := s.rank(ctx, rawQuery)
	metrics.SemanticRankerStateTotal.WithLabelValues(string(state)).Inc()
	return matches, state
}

func (s *Service) rank(ctx context.Context, rawQuery string) ([]domain.SemanticMatch, State) {
	if s.embed == nil {
		return nil, StateSkipped
	}

	input := strings.ReplaceAll(rawQuery, "\n", " ")
	embResult, err := s.embed.Embed(ctx, input)
	if err != nil {
		s.logger.Warn("Query embedding failed", zap.Error(err))
		return nil, StateFailed
	}
	queryVec := embResult.Embedding
	if len(queryVec) == 0 {
		s.logger.Warn("Query embedding empty")
		return nil, StateFailed
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Warn("Embedding count failed", zap.Error(err))
		return nil, StateFailed
	}

	start := s.now()
	retained := newTopK(s.cfg.TopK)
	scanned := 0

	for offset := 0; offset < total; offset += s.cfg.BatchSize {
		if s.now().Sub(start) > s.cfg.TimeBudget {
			s.logger.Info("Semantic scan time budget exceeded, ranking partial results",
				zap.Int("scanned", scanned),
				zap.Int("total", total),
			)
			break
		}
		if ctx.Err() != nil {
			break
		}

		batch, err := s.repo.Batch(ctx, offset, s.cfg.BatchSize)
		if err != nil {
			s.logger.Warn("Embedding batch read failed", zap.Int("offset", offset), zap.Error(err))
			return nil, StateFailed
		}

		for i := range batch {
			vec, err := batch[i].Vector(len(queryVec))
			if err != nil {
				// Malformed rows are skipped, never fatal.
				continue
			}
			score := domain.DotProduct(queryVec, vec)
			if score < s.cfg.ScoreFloor {
				continue
			}
			retained.Add(batch[i], score)
		}
		scanned += len(batch)
	}

	metrics.SemanticScanDuration.Observe(s.now().Sub(start).Seconds())
	metrics.SemanticRowsScanned.Observe(float64(scanned))

	matches, err := s.hydrate(ctx, retained.Sorted())
	if err != nil {
		s.logger.Warn("Semantic match hydration failed", zap.Error(err))
		return nil, StateFailed
	}
	return matches, StateRanked
}

// hydrate resolves retained records back to their parent document or flight
// and attaches the content snippet. Records whose parent no longer exists
// are dropped silently.
func (s *Service) hydrate(ctx context.Context, hits []scored) ([]domain.SemanticMatch, error) {
	var docIDs, flightIDs []int64
	for _, h := range hits {
		switch {
		case h.record.DocumentID != nil:
			docIDs = append(docIDs, *h.record.DocumentID)
		case h.record.FlightID != nil:
			flightIDs = append(flightIDs, *h.record.FlightID)
		}
	}

	docs, err := s.repo.DocumentsByIDs(ctx, docIDs)
	if err != nil {
		return nil, err
	}
	flights, err := s.repo.FlightsByIDs(ctx, flightIDs)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.SemanticMatch, 0, len(hits))
	for _, h := range hits {
		switch {
		case h.record.DocumentID != nil:
			doc, ok := docs[*h.record.DocumentID]
			if !ok {
				continue
			}
			matches = append(matches, domain.SemanticMatch{
				Kind:     domain.SemanticMatchDocument,
				Score:    h.score,
				Snippet:  h.record.ContentText,
				Document: &doc,
			})
		case h.record.FlightID != nil:
			flight, ok := flights[*h.record.FlightID]
			if !ok {
				continue
			}
			matches = append(matches, domain.SemanticMatch{
				Kind:    domain.SemanticMatchFlight,
				Score:   h.score,
				Snippet: h.record.ContentText,
				Flight:  &flight,
			})
		}
	}
	return matches, nil
}
