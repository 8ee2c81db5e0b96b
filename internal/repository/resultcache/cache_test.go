package resultcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/archivesearch/internal/db"
	"github.com/kailas-cloud/archivesearch/internal/domain"
)

type mockStore struct {
	data    map[string][]byte
	getErr  error
	setErr  error
	lastTTL time.Duration
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.lastTTL = ttl
	return nil
}

func newTestCache(s store) *Cache {
	return New(s, 2*time.Minute, nil, zap.NewNop())
}

func TestCache_RoundTrip(t *testing.T) {
	ms := newMockStore()
	c := newTestCache(ms)
	q := domain.NewQuery("island", 1)

	if _, ok := c.Get(context.Background(), q); ok {
		t.Fatal("cold cache must miss")
	}

	bundle := &domain.ResultBundle{
		Documents:       domain.Documents{Hits: []domain.DocumentHit{{ID: 1, Title: "Deed"}}, Total: 9},
		SemanticMatches: []domain.SemanticMatch{{Kind: domain.SemanticMatchDocument, Score: 0.8}},
		HasExactMatch:   true,
		Strategy:        domain.StrategyFulltext,
	}
	c.Set(context.Background(), q, bundle)

	if ms.lastTTL != 2*time.Minute {
		t.Errorf("ttl = %v, want 2m", ms.lastTTL)
	}

	got, ok := c.Get(context.Background(), q)
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if got.Documents.Total != 9 || !got.HasExactMatch || got.Strategy != domain.StrategyFulltext {
		t.Errorf("cached bundle = %+v", got)
	}
	// Semantic matches ride along in the cached payload.
	if len(got.SemanticMatches) != 1 || got.SemanticMatches[0].Score != 0.8 {
		t.Errorf("semantic matches = %+v", got.SemanticMatches)
	}
}

func TestCache_KeyCoversQueryAndPage(t *testing.T) {
	ms := newMockStore()
	c := newTestCache(ms)
	bundle := &domain.ResultBundle{Documents: domain.Documents{Total: 1}}

	c.Set(context.Background(), domain.NewQuery("island", 1), bundle)

	if _, ok := c.Get(context.Background(), domain.NewQuery("island", 2)); ok {
		t.Error("page 2 must not hit page 1's entry")
	}
	if _, ok := c.Get(context.Background(), domain.NewQuery("islander", 1)); ok {
		t.Error("different query must miss")
	}
	// Normalization folds case and whitespace into the same key.
	if _, ok := c.Get(context.Background(), domain.NewQuery("  ISLAND ", 1)); !ok {
		t.Error("normalized variants of the query must share an entry")
	}
}

func TestCache_StoreFailureIsMiss(t *testing.T) {
	ms := newMockStore()
	ms.getErr = errors.New("connection refused")
	c := newTestCache(ms)

	if _, ok := c.Get(context.Background(), domain.NewQuery("island", 1)); ok {
		t.Error("store read failure must degrade to a miss")
	}
}

func TestCache_CorruptPayloadIsMiss(t *testing.T) {
	ms := newMockStore()
	c := newTestCache(ms)
	q := domain.NewQuery("island", 1)

	ms.data[cacheKey(q)] = []byte(`{not json`)

	if _, ok := c.Get(context.Background(), q); ok {
		t.Error("unparseable payload must degrade to a miss")
	}
}

func TestCache_SetFailureIsSilent(t *testing.T) {
	ms := newMockStore()
	ms.setErr = errors.New("readonly replica")
	c := newTestCache(ms)

	c.Set(context.Background(), domain.NewQuery("island", 1), &domain.ResultBundle{})
}
