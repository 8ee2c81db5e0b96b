// Package chi exposes the search API over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/archivesearch/internal/domain"
	"github.com/kailas-cloud/archivesearch/internal/repository/searchlog"
)

// SearchService runs one search request end to end.
type SearchService interface {
	Search(ctx context.Context, rawQuery string, page int, clientIP, userAgent string) (*domain.ResultBundle, error)
}

// PopularService serves the popular-queries aggregation.
type PopularService interface {
	PopularQueries(ctx context.Context, period string, limit int) ([]searchlog.PopularQuery, error)
}

// Pinger checks one backing store's liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the HTTP handlers.
type Server struct {
	search       SearchService
	popular      PopularService
	dbPing       Pinger
	cachePing    Pinger
	popularLimit int
	logger       *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(search SearchService, popular PopularService, dbPing, cachePing Pinger, popularLimit int, logger *zap.Logger) *Server {
	return &Server{
		search:       search,
		popular:      popular,
		dbPing:       dbPing,
		cachePing:    cachePing,
		popularLimit: popularLimit,
		logger:       logger,
	}
}

// Register mounts the API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/api/search", s.handleSearch)
	r.Get("/api/popular", s.handlePopular)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// searchResponse is the envelope for GET /api/search.
type searchResponse struct {
	Query   string               `json:"query"`
	Page    int                  `json:"page"`
	Total   int                  `json:"total"`
	Results *domain.ResultBundle `json:"results"`
}

// handleSearch handles GET /api/search?q=...&page=N.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	rawQuery := r.URL.Query().Get("q")

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_page", "Page must be an integer")
			return
		}
		page = parsed
	}

	q := domain.NewQuery(rawQuery, page)
	if q.IsEmpty() {
		writeError(w, http.StatusBadRequest, "empty_query", "Query parameter q is required")
		return
	}

	bundle, err := s.search.Search(r.Context(), rawQuery, page, clientIP(r), r.UserAgent())
	if err != nil {
		if errors.Is(err, domain.ErrSearchUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "search_unavailable", "Search is temporarily unavailable")
			return
		}
		s.logger.Error("Search request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:   q.Raw,
		Page:    q.Page,
		Total:   bundle.Total(),
		Results: bundle,
	})
}

// popularResponse is the envelope for GET /api/popular.
type popularResponse struct {
	Period  string                   `json:"period"`
	Queries []searchlog.PopularQuery `json:"queries"`
}

// handlePopular handles GET /api/popular?period=7d|30d|90d|all.
func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "30d"
	}

	rows, err := s.popular.PopularQueries(r.Context(), period, s.popularLimit)
	if err != nil {
		s.logger.Error("Popular queries failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}
	if rows == nil {
		rows = []searchlog.PopularQuery{}
	}

	writeJSON(w, http.StatusOK, popularResponse{Period: period, Queries: rows})
}

// handleHealth handles GET /healthz. The service is up when both backing
// stores answer; a degraded cache still reports which side failed.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	type componentStatus struct {
		Database string `json:"database"`
		Cache    string `json:"cache"`
	}

	status := componentStatus{Database: "ok", Cache: "ok"}
	healthy := true

	if err := s.dbPing.Ping(r.Context()); err != nil {
		status.Database = err.Error()
		healthy = false
	}
	if err := s.cachePing.Ping(r.Context()); err != nil {
		status.Cache = err.Error()
		healthy = false
	}

	code := http.StatusOK
	overall := "ok"
	if !healthy {
		code = http.StatusServiceUnavailable
		overall = "unavailable"
	}
	writeJSON(w, code, map[string]any{
		"status":     overall,
		"components": status,
	})
}

// clientIP extracts the peer address without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}
