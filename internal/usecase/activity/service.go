// Package activity records search telemetry with a privacy-preserving
// client fingerprint and serves the popular-queries aggregation.
package activity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/archivesearch/internal/domain"
	"github.com/kailas-cloud/archivesearch/internal/repository/searchlog"
)

// maxQueryLen caps the stored query text, in runes, to fit the column.
const maxQueryLen = 255

// Repository is the persistence surface the logger needs.
type Repository interface {
	LoggedRecently(ctx context.Context, fingerprint, normalized string, window time.Duration) (bool, error)
	Insert(ctx context.Context, e searchlog.Entry) error
	TopQueries(ctx context.Context, since time.Time, limit int) ([]searchlog.PopularQuery, error)
}

// Service writes search telemetry and reads popularity aggregates.
type Service struct {
	repo        Repository
	dedupWindow time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// New creates the activity logger. dedupWindow suppresses repeat logs of
// the same query from the same client.
func New(repo Repository, dedupWindow time.Duration, logger *zap.Logger) *Service {
	return &Service{repo: repo, dedupWindow: dedupWindow, logger: logger, now: time.Now}
}

// Fingerprint derives the stored client identifier from the address. Raw
// addresses never reach the table.
func Fingerprint(clientIP string) string {
	sum := sha256.Sum256([]byte(clientIP))
	return hex.EncodeToString(sum[:])
}

// LogSearch records one search. Repeats of the same normalized query from
// the same fingerprint within the dedup window are dropped. Every failure
// is swallowed: telemetry never surfaces to the caller.
func (s *Service) LogSearch(ctx context.Context, q domain.Query, resultCount int, clientIP, userAgent string) {
	fingerprint := Fingerprint(clientIP)

	recent, err := s.repo.LoggedRecently(ctx, fingerprint, q.Normalized, s.dedupWindow)
	if err != nil {
		s.logger.Warn("Search log dedup check failed", zap.Error(err))
		return
	}
	if recent {
		return
	}

	entry := searchlog.Entry{
		Query:           truncate(q.Raw, maxQueryLen),
		QueryNormalized: truncate(q.Normalized, maxQueryLen),
		ResultCount:     resultCount,
		Fingerprint:     fingerprint,
		UserAgent:       truncate(userAgent, maxQueryLen),
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		s.logger.Warn("Search log insert failed", zap.Error(err))
	}
}

// PopularQueries aggregates the most-searched queries for a period. Period
// is one of "7d", "30d", "90d" or "all"; anything else falls back to "30d".
func (s *Service) PopularQueries(ctx context.Context, period string, limit int) ([]searchlog.PopularQuery, error) {
	var since time.Time
	switch period {
	case "7d":
		since = s.now().AddDate(0, 0, -7)
	case "90d":
		since = s.now().AddDate(0, 0, -90)
	case "all":
		// zero time, no lower bound
	default:
		since = s.now().AddDate(0, 0, -30)
	}
	return s.repo.TopQueries(ctx, since, limit)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
