// Package search is the query router: it normalizes the request, serves
// cached bundles, fans the query out to the six collection searchers,
// augments the miss path with semantic matches and records activity.
package search

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/archivesearch/internal/domain"
	"github.com/kailas-cloud/archivesearch/internal/metrics"
)

// activityLogTimeout bounds the detached telemetry write.
const activityLogTimeout = 5 * time.Second

// Service orchestrates one search request end to end.
type Service struct {
	documents DocumentSearcher
	emails    EmailSearcher
	flights   FlightSearcher
	photos    PhotoSearcher
	entities  EntitySearcher
	news      NewsSearcher

	cache    ResultCache    // nil disables caching
	ranker   Ranker         // nil disables semantic augmentation entirely
	activity ActivityLogger // nil disables telemetry

	fulltextAvailable bool
	entityDocTopN     int
	logger            *zap.Logger
}

// Deps bundles the router's collaborators.
type Deps struct {
	Documents DocumentSearcher
	Emails    EmailSearcher
	Flights   FlightSearcher
	Photos    PhotoSearcher
	Entities  EntitySearcher
	News      NewsSearcher
	Cache     ResultCache
	Ranker    Ranker
	Activity  ActivityLogger
}

// New creates the query router. fulltextAvailable comes from the startup
// index probe and is fixed for the process lifetime.
func New(deps Deps, fulltextAvailable bool, logger *zap.Logger) *Service {
	return &Service{
		documents:         deps.Documents,
		emails:            deps.Emails,
		flights:           deps.Flights,
		photos:            deps.Photos,
		entities:          deps.Entities,
		news:              deps.News,
		cache:             deps.Cache,
		ranker:            deps.Ranker,
		activity:          deps.Activity,
		fulltextAvailable: fulltextAvailable,
		entityDocTopN:     5,
		logger:            logger,
	}
}

// Search runs one query. Identical query and page within the cache TTL
// return the cached bundle byte for byte, with no searcher or ranker work
// and no activity record. Individual searcher failures degrade to empty
// collections; only all six failing is an error.
func (s *Service) Search(ctx context.Context, rawQuery string, page int, clientIP, userAgent string) (*domain.ResultBundle, error) {
	q := domain.NewQuery(rawQuery, page)
	if q.IsEmpty() {
		return &domain.ResultBundle{Strategy: domain.StrategyFallback}, nil
	}

	if s.cache != nil {
		if bundle, ok := s.cache.Get(ctx, q); ok {
			return bundle, nil
		}
	}

	strategy := domain.ChooseStrategy(q, s.fulltextAvailable)
	metrics.SearchRequestsTotal.WithLabelValues(string(strategy)).Inc()

	bundle, err := s.fanOut(ctx, q, strategy)
	if err != nil {
		return nil, err
	}

	bundle.Strategy = strategy
	bundle.ComputeExactMatch(q.Raw)

	bundle.SemanticMatches = []domain.SemanticMatch{}
	if s.ranker != nil {
		if matches, _ := s.ranker.Rank(ctx, q.Raw); matches != nil {
			bundle.SemanticMatches = matches
		}
	}

	if s.cache != nil {
		s.cache.Set(ctx, q, bundle)
	}

	s.logActivity(ctx, q, bundle.Total(), clientIP, userAgent)

	return bundle, nil
}

// fanOut runs the six collection searchers concurrently. Each failure is
// logged and counted, leaving that collection empty.
func (s *Service) fanOut(ctx context.Context, q domain.Query, strategy domain.Strategy) (*domain.ResultBundle, error) {
	bundle := &domain.ResultBundle{}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs int
	)

	fail := func(collection string, err error) {
		s.logger.Warn("Collection search failed",
			zap.String("collection", collection),
			zap.String("query", q.Normalized),
			zap.Error(err),
		)
		metrics.SearcherFailuresTotal.WithLabelValues(collection).Inc()
		mu.Lock()
		errs++
		mu.Unlock()
	}

	wg.Add(6)
	go func() {
		defer wg.Done()
		hits, total, err := s.documents.Search(ctx, q, strategy)
		if err != nil {
			fail("documents", err)
			return
		}
		bundle.Documents = domain.Documents{Hits: hits, Total: total}
	}()
	go func() {
		defer wg.Done()
		hits, total, err := s.emails.Search(ctx, q, strategy)
		if err != nil {
			fail("emails", err)
			return
		}
		bundle.Emails = domain.Emails{Hits: hits, Total: total}
	}()
	go func() {
		defer wg.Done()
		hits, total, err := s.flights.Search(ctx, q, strategy)
		if err != nil {
			fail("flights", err)
			return
		}
		bundle.Flights = domain.Flights{Hits: hits, Total: total}
	}()
	go func() {
		defer wg.Done()
		hits, total, err := s.photos.Search(ctx, q, strategy)
		if err != nil {
			fail("photos", err)
			return
		}
		bundle.Photos = domain.Photos{Hits: hits, Total: total}
	}()
	go func() {
		defer wg.Done()
		hits, total, err := s.entities.Search(ctx, q, strategy)
		if err != nil {
			fail("entities", err)
			return
		}
		bundle.Entities = domain.Entities{Hits: hits, Total: total}
	}()
	go func() {
		defer wg.Done()
		hits, total, err := s.news.Search(ctx, q, strategy)
		if err != nil {
			fail("news", err)
			return
		}
		bundle.News = domain.News{Hits: hits, Total: total}
	}()
	wg.Wait()

	if errs == 6 {
		return nil, domain.ErrSearchUnavailable
	}

	bundle.EntityDocuments = s.entityDocuments(ctx, bundle.Entities.Hits)

	return bundle, nil
}

// entityDocuments cross-references documents for the top matched entities.
// A failure here loses only the supplement.
func (s *Service) entityDocuments(ctx context.Context, entities []domain.EntityHit) []domain.EntityDocumentHit {
	if len(entities) == 0 {
		return nil
	}
	top := entities
	if len(top) > s.entityDocTopN {
		top = top[:s.entityDocTopN]
	}
	ids := make([]int64, len(top))
	for i, e := range top {
		ids[i] = e.ID
	}

	hits, err := s.entities.DocumentsForEntities(ctx, ids)
	if err != nil {
		s.logger.Warn("Entity document cross-reference failed", zap.Error(err))
		return nil
	}
	return hits
}

// logActivity records the search on a detached context so the response
// never waits on telemetry.
func (s *Service) logActivity(ctx context.Context, q domain.Query, resultCount int, clientIP, userAgent string) {
	if s.activity == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		logCtx, cancel := context.WithTimeout(detached, activityLogTimeout)
		defer cancel()
		s.activity.LogSearch(logCtx, q, resultCount, clientIP, userAgent)
	}()
}
