package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/archivesearch/internal/domain"
	"github.com/kailas-cloud/archivesearch/internal/usecase/semantic"
)

// --- Mocks ---

// counters records searcher invocations across the six mock searchers.
type counters struct {
	mu       sync.Mutex
	n        map[string]int
	query    domain.Query
	strategy domain.Strategy
}

func newCounters() *counters {
	return &counters{n: map[string]int{}}
}

func (c *counters) hit(name string, q domain.Query, strategy domain.Strategy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n[name]++
	c.query = q
	c.strategy = strategy
}

func (c *counters) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n[name]
}

type mockDocs struct {
	c    *counters
	err  error
	hits []domain.DocumentHit
	tot  int
}

func (m *mockDocs) Search(_ context.Context, q domain.Query, st domain.Strategy) ([]domain.DocumentHit, int, error) {
	m.c.hit("documents", q, st)
	return m.hits, m.tot, m.err
}

type mockEmails struct {
	c    *counters
	err  error
	hits []domain.EmailHit
	tot  int
}

func (m *mockEmails) Search(_ context.Context, q domain.Query, st domain.Strategy) ([]domain.EmailHit, int, error) {
	m.c.hit("emails", q, st)
	return m.hits, m.tot, m.err
}

type mockFlights struct {
	c   *counters
	err error
}

func (m *mockFlights) Search(_ context.Context, q domain.Query, st domain.Strategy) ([]domain.FlightHit, int, error) {
	m.c.hit("flights", q, st)
	return nil, 0, m.err
}

type mockPhotos struct {
	c   *counters
	err error
}

func (m *mockPhotos) Search(_ context.Context, q domain.Query, st domain.Strategy) ([]domain.PhotoHit, int, error) {
	m.c.hit("photos", q, st)
	return nil, 0, m.err
}

type mockEntities struct {
	c       *counters
	err     error
	hits    []domain.EntityHit
	tot     int
	docHits []domain.EntityDocumentHit
	docErr  error

	mu     sync.Mutex
	docIDs []int64
}

func (m *mockEntities) Search(_ context.Context, q domain.Query, st domain.Strategy) ([]domain.EntityHit, int, error) {
	m.c.hit("entities", q, st)
	return m.hits, m.tot, m.err
}

func (m *mockEntities) DocumentsForEntities(_ context.Context, ids []int64) ([]domain.EntityDocumentHit, error) {
	m.mu.Lock()
	m.docIDs = ids
	m.mu.Unlock()
	return m.docHits, m.docErr
}

type mockNews struct {
	c   *counters
	err error
}

func (m *mockNews) Search(_ context.Context, q domain.Query, st domain.Strategy) ([]domain.NewsHit, int, error) {
	m.c.hit("news", q, st)
	return nil, 0, m.err
}

// mockCache is an in-memory ResultCache keyed by normalized query and page.
type mockCache struct {
	mu      sync.Mutex
	entries map[string]*domain.ResultBundle
}

func newMockCache() *mockCache {
	return &mockCache{entries: map[string]*domain.ResultBundle{}}
}

func (m *mockCache) key(q domain.Query) string {
	return fmt.Sprintf("%s_p%d", q.Normalized, q.Page)
}

func (m *mockCache) Get(_ context.Context, q domain.Query) (*domain.ResultBundle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.entries[m.key(q)]
	return b, ok
}

func (m *mockCache) Set(_ context.Context, q domain.Query, bundle *domain.ResultBundle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.key(q)] = bundle
}

type mockRanker struct {
	mu      sync.Mutex
	calls   int
	matches []domain.SemanticMatch
	state   semantic.State
}

func (m *mockRanker) Rank(_ context.Context, _ string) ([]domain.SemanticMatch, semantic.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.matches, m.state
}

func (m *mockRanker) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type activityRecord struct {
	q           domain.Query
	resultCount int
	clientIP    string
	userAgent   string
}

type mockActivity struct {
	records chan activityRecord
}

func newMockActivity() *mockActivity {
	return &mockActivity{records: make(chan activityRecord, 8)}
}

func (m *mockActivity) LogSearch(_ context.Context, q domain.Query, resultCount int, clientIP, userAgent string) {
	m.records <- activityRecord{q: q, resultCount: resultCount, clientIP: clientIP, userAgent: userAgent}
}

// --- Fixture ---

type fixture struct {
	c        *counters
	docs     *mockDocs
	emails   *mockEmails
	flights  *mockFlights
	photos   *mockPhotos
	entities *mockEntities
	news     *mockNews
	cache    *mockCache
	ranker   *mockRanker
	activity *mockActivity
	svc      *Service
}

func newFixture(fulltextAvailable bool) *fixture {
	c := newCounters()
	f := &fixture{
		c:        c,
		docs:     &mockDocs{c: c},
		emails:   &mockEmails{c: c},
		flights:  &mockFlights{c: c},
		photos:   &mockPhotos{c: c},
		entities: &mockEntities{c: c},
		news:     &mockNews{c: c},
		cache:    newMockCache(),
		ranker:   &mockRanker{state: semantic.StateRanked},
		activity: newMockActivity(),
	}
	f.svc = New(Deps{
		Documents: f.docs,
		Emails:    f.emails,
		Flights:   f.flights,
		Photos:    f.photos,
		Entities:  f.entities,
		News:      f.news,
		Cache:     f.cache,
		Ranker:    f.ranker,
		Activity:  f.activity,
	}, fulltextAvailable, zap.NewNop())
	return f
}

func (f *fixture) waitActivity(t *testing.T) activityRecord {
	t.Helper()
	select {
	case rec := <-f.activity.records:
		return rec
	case <-time.After(2 * time.Second):
		t.Fatal("activity record never arrived")
		return activityRecord{}
	}
}

// --- Tests ---

func TestSearch_CacheShortCircuit(t *testing.T) {
	f := newFixture(true)
	f.docs.hits = []domain.DocumentHit{{ID: 1, Title: "Deposition Transcript"}}
	f.docs.tot = 37

	first, err := f.svc.Search(context.Background(), "deposition", 1, "10.0.0.1", "ua")
	if err != nil {
		t.Fatalf("first search: %v", err)
	}
	f.waitActivity(t)

	second, err := f.svc.Search(context.Background(), "  Deposition ", 1, "10.0.0.1", "ua")
	if err != nil {
		t.Fatalf("second search: %v", err)
	}

	if f.c.count("documents") != 1 {
		t.Errorf("documents searched %d times, want 1 (second hit served from cache)", f.c.count("documents"))
	}
	if f.ranker.callCount() != 1 {
		t.Errorf("ranker ran %d times, want 1", f.ranker.callCount())
	}
	if second.Documents.Total != first.Documents.Total || len(second.Documents.Hits) != 1 {
		t.Error("cached bundle differs from the original")
	}
	select {
	case <-f.activity.records:
		t.Error("cache hits must not be logged as activity")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSearch_DifferentPageMissesCache(t *testing.T) {
	f := newFixture(true)

	if _, err := f.svc.Search(context.Background(), "island", 1, "", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Search(context.Background(), "island", 2, "", ""); err != nil {
		t.Fatal(err)
	}

	if f.c.count("documents") != 2 {
		t.Errorf("documents searched %d times, want 2 (pages cache separately)", f.c.count("documents"))
	}
}

func TestSearch_StrategySelection(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		available bool
		want      domain.Strategy
	}{
		{"long query with index", "flight logs", true, domain.StrategyFulltext},
		{"long query without index", "flight logs", false, domain.StrategyFallback},
		{"short query with index", "ab", true, domain.StrategyFallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.available)
			if _, err := f.svc.Search(context.Background(), tt.raw, 1, "", ""); err != nil {
				t.Fatal(err)
			}
			if f.c.strategy != tt.want {
				t.Errorf("strategy = %s, want %s", f.c.strategy, tt.want)
			}
		})
	}
}

func TestSearch_SingleSearcherFailureDegrades(t *testing.T) {
	f := newFixture(true)
	f.docs.err = errors.New("table crashed")
	f.emails.hits = []domain.EmailHit{{ID: 4, Subject: "Re: schedule"}}
	f.emails.tot = 12

	bundle, err := f.svc.Search(context.Background(), "schedule", 1, "", "")
	if err != nil {
		t.Fatalf("one failing collection must not fail the search: %v", err)
	}
	if len(bundle.Documents.Hits) != 0 || bundle.Documents.Total != 0 {
		t.Error("failed collection should be empty")
	}
	if bundle.Emails.Total != 12 {
		t.Errorf("emails total = %d, want 12", bundle.Emails.Total)
	}
	if bundle.Total() != 12 {
		t.Errorf("bundle total = %d, want 12", bundle.Total())
	}
}

func TestSearch_AllSearchersFailed(t *testing.T) {
	f := newFixture(true)
	boom := errors.New("db gone")
	f.docs.err = boom
	f.emails.err = boom
	f.flights.err = boom
	f.photos.err = boom
	f.entities.err = boom
	f.news.err = boom

	_, err := f.svc.Search(context.Background(), "anything", 1, "", "")
	if !errors.Is(err, domain.ErrSearchUnavailable) {
		t.Fatalf("err = %v, want ErrSearchUnavailable", err)
	}
}

func TestSearch_RankerFailureDegrades(t *testing.T) {
	f := newFixture(true)
	f.ranker.matches = nil
	f.ranker.state = semantic.StateFailed
	f.docs.tot = 3

	bundle, err := f.svc.Search(context.Background(), "island", 1, "", "")
	if err != nil {
		t.Fatalf("ranker failure must not fail the search: %v", err)
	}
	if bundle.SemanticMatches == nil || len(bundle.SemanticMatches) != 0 {
		t.Errorf("semantic matches = %v, want empty non-nil slice", bundle.SemanticMatches)
	}
	if bundle.Total() != 3 {
		t.Error("lexical results must survive ranker failure")
	}
}

func TestSearch_EntityDocumentsFromTopEntities(t *testing.T) {
	f := newFixture(true)
	for i := 1; i <= 7; i++ {
		f.entities.hits = append(f.entities.hits, domain.EntityHit{ID: int64(i), Name: fmt.Sprintf("entity %d", i)})
	}
	f.entities.tot = 7
	f.entities.docHits = []domain.EntityDocumentHit{{ID: 42, Title: "Contact Book", EntityMatches: 2}}

	bundle, err := f.svc.Search(context.Background(), "maxwell", 1, "", "")
	if err != nil {
		t.Fatal(err)
	}

	f.entities.mu.Lock()
	gotIDs := f.entities.docIDs
	f.entities.mu.Unlock()
	if len(gotIDs) != 5 {
		t.Fatalf("cross-referenced %d entities, want top 5", len(gotIDs))
	}
	for i, id := range gotIDs {
		if id != int64(i+1) {
			t.Errorf("entity id[%d] = %d, want %d", i, id, i+1)
		}
	}
	if len(bundle.EntityDocuments) != 1 || bundle.EntityDocuments[0].ID != 42 {
		t.Errorf("entity documents = %+v", bundle.EntityDocuments)
	}
	// Supplements never count toward the total.
	if bundle.Total() != 7 {
		t.Errorf("total = %d, want 7", bundle.Total())
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	f := newFixture(true)

	bundle, err := f.svc.Search(context.Background(), "   ", 1, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if bundle.Total() != 0 {
		t.Error("empty query should return an empty bundle")
	}
	if f.c.count("documents") != 0 {
		t.Error("empty query must not reach the searchers")
	}
}

func TestSearch_ActivityRecord(t *testing.T) {
	f := newFixture(true)
	f.docs.tot = 9
	f.emails.tot = 1

	if _, err := f.svc.Search(context.Background(), " Black Book ", 1, "203.0.113.7", "curl/8"); err != nil {
		t.Fatal(err)
	}

	rec := f.waitActivity(t)
	if rec.q.Normalized != "black book" {
		t.Errorf("logged query = %q, want %q", rec.q.Normalized, "black book")
	}
	if rec.resultCount != 10 {
		t.Errorf("result count = %d, want 10", rec.resultCount)
	}
	if rec.clientIP != "203.0.113.7" || rec.userAgent != "curl/8" {
		t.Errorf("client fields = %q %q", rec.clientIP, rec.userAgent)
	}
}

func TestSearch_ExactMatchFlag(t *testing.T) {
	f := newFixture(true)
	f.docs.hits = []domain.DocumentHit{{ID: 1, Title: "Island Logistics Memo"}}
	f.docs.tot = 1

	bundle, err := f.svc.Search(context.Background(), "island", 1, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if !bundle.HasExactMatch {
		t.Error("whole-word title hit should set the exact match flag")
	}
}
