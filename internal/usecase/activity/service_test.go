package activity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/archivesearch/internal/domain"
	"github.com/kailas-cloud/archivesearch/internal/repository/searchlog"
)

type mockRepo struct {
	recent     bool
	recentErr  error
	insertErr  error
	inserted   []searchlog.Entry
	lastWindow time.Duration
	lastSince  time.Time
	popular    []searchlog.PopularQuery
}

func (m *mockRepo) LoggedRecently(_ context.Context, _, _ string, window time.Duration) (bool, error) {
	m.lastWindow = window
	return m.recent, m.recentErr
}

func (m *mockRepo) Insert(_ context.Context, e searchlog.Entry) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, e)
	return nil
}

func (m *mockRepo) TopQueries(_ context.Context, since time.Time, _ int) ([]searchlog.PopularQuery, error) {
	m.lastSince = since
	return m.popular, nil
}

func newTestService(repo *mockRepo) *Service {
	return New(repo, 5*time.Minute, zap.NewNop())
}

func TestLogSearch_InsertsWithFingerprint(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)

	q := domain.NewQuery(" Black Book ", 1)
	svc.LogSearch(context.Background(), q, 42, "203.0.113.7", "curl/8")

	if len(repo.inserted) != 1 {
		t.Fatalf("inserted %d entries, want 1", len(repo.inserted))
	}
	e := repo.inserted[0]
	if e.Query != "Black Book" || e.QueryNormalized != "black book" {
		t.Errorf("stored query = %q / %q", e.Query, e.QueryNormalized)
	}
	if e.ResultCount != 42 {
		t.Errorf("result count = %d, want 42", e.ResultCount)
	}
	if e.Fingerprint != Fingerprint("203.0.113.7") {
		t.Error("fingerprint does not match the address digest")
	}
	if e.Fingerprint == "203.0.113.7" || len(e.Fingerprint) != 64 {
		t.Errorf("fingerprint %q must be a hex digest, never the raw address", e.Fingerprint)
	}
	if repo.lastWindow != 5*time.Minute {
		t.Errorf("dedup window = %v, want 5m", repo.lastWindow)
	}
}

func TestLogSearch_DedupSuppressesRepeat(t *testing.T) {
	repo := &mockRepo{recent: true}
	svc := newTestService(repo)

	svc.LogSearch(context.Background(), domain.NewQuery("island", 1), 3, "10.0.0.1", "")

	if len(repo.inserted) != 0 {
		t.Errorf("inserted %d entries, want 0 within the dedup window", len(repo.inserted))
	}
}

func TestLogSearch_SwallowsFailures(t *testing.T) {
	// Neither the dedup check nor the insert failing may panic or propagate.
	for _, repo := range []*mockRepo{
		{recentErr: errors.New("db gone")},
		{insertErr: errors.New("db gone")},
	} {
		svc := newTestService(repo)
		svc.LogSearch(context.Background(), domain.NewQuery("island", 1), 3, "10.0.0.1", "")
	}
}

func TestLogSearch_TruncatesLongQuery(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)

	long := strings.Repeat("日", 300)
	svc.LogSearch(context.Background(), domain.NewQuery(long, 1), 0, "10.0.0.1", "")

	if len(repo.inserted) != 1 {
		t.Fatal("entry not inserted")
	}
	if got := len([]rune(repo.inserted[0].Query)); got != 255 {
		t.Errorf("stored query length = %d runes, want 255", got)
	}
}

func TestPopularQueries_Periods(t *testing.T) {
	repo := &mockRepo{popular: []searchlog.PopularQuery{{QueryNormalized: "island", Searches: 9}}}
	svc := newTestService(repo)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	tests := []struct {
		period string
		want   time.Time
	}{
		{"7d", base.AddDate(0, 0, -7)},
		{"30d", base.AddDate(0, 0, -30)},
		{"90d", base.AddDate(0, 0, -90)},
		{"all", time.Time{}},
		{"bogus", base.AddDate(0, 0, -30)},
	}
	for _, tt := range tests {
		rows, err := svc.PopularQueries(context.Background(), tt.period, 10)
		if err != nil {
			t.Fatalf("period %s: %v", tt.period, err)
		}
		if !repo.lastSince.Equal(tt.want) {
			t.Errorf("period %s: since = %v, want %v", tt.period, repo.lastSince, tt.want)
		}
		if len(rows) != 1 {
			t.Errorf("period %s: rows = %d, want 1", tt.period, len(rows))
		}
	}
}
