package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kailas-cloud/archivesearch/internal/config"
	dbMySQL "github.com/kailas-cloud/archivesearch/internal/db/mysql"
	dbRedis "github.com/kailas-cloud/archivesearch/internal/db/redis"
	logpkg "github.com/kailas-cloud/archivesearch/internal/logger"
	"github.com/kailas-cloud/archivesearch/internal/metrics"
	documentrepo "github.com/kailas-cloud/archivesearch/internal/repository/document"
	emailrepo "github.com/kailas-cloud/archivesearch/internal/repository/email"
	embeddingrepo "github.com/kailas-cloud/archivesearch/internal/repository/embedding"
	entityrepo "github.com/kailas-cloud/archivesearch/internal/repository/entity"
	flightrepo "github.com/kailas-cloud/archivesearch/internal/repository/flight"
	newsrepo "github.com/kailas-cloud/archivesearch/internal/repository/news"
	photorepo "github.com/kailas-cloud/archivesearch/internal/repository/photo"
	"github.com/kailas-cloud/archivesearch/internal/repository/resultcache"
	searchlogrepo "github.com/kailas-cloud/archivesearch/internal/repository/searchlog"
	chiTransport "github.com/kailas-cloud/archivesearch/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/archivesearch/internal/transport/openai"
	activityuc "github.com/kailas-cloud/archivesearch/internal/usecase/activity"
	searchuc "github.com/kailas-cloud/archivesearch/internal/usecase/search"
	semanticuc "github.com/kailas-cloud/archivesearch/internal/usecase/semantic"
	"github.com/kailas-cloud/archivesearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting archive search API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
	)

	ctx := context.Background()

	// Relational store
	gdb, err := dbMySQL.Open(dbMySQL.Config{
		DSN:             cfg.Database.DSN,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetimeSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to open relational store", zap.Error(err))
	}
	if err := dbMySQL.WaitForReady(ctx, gdb, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Relational store not ready", zap.Error(err))
	}
	logger.Info("Connected to relational store")

	// Cache store
	kv, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Cache.Addrs,
		Password: cfg.Cache.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer kv.Close()
	if err := kv.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache store not ready", zap.Error(err))
	}
	logger.Info("Connected to cache store")

	// Register Prometheus metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Full-text index capability, probed once for the process lifetime.
	capability := dbMySQL.ProbeFulltext(ctx, gdb, logger)

	// Embedding provider. No API key means semantic ranking is skipped.
	var embedder semanticuc.Embedder
	if cfg.Embedding.APIKey != "" {
		embedder = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:   cfg.Embedding.APIKey,
			BaseURL:  cfg.Embedding.BaseURL,
			Model:    cfg.Embedding.Model,
			Provider: cfg.Embedding.Provider,
			Logger:   logger,
		})
		logger.Info("Embedding provider configured",
			zap.String("provider", cfg.Embedding.Provider),
			zap.String("model", cfg.Embedding.Model),
		)
	} else {
		logger.Info("No embedding API key, semantic ranking disabled")
	}

	// Repositories
	docRepo := documentrepo.New(gdb, cfg.Search.DocumentsPerPage, capability.Pages, logger)
	emailRepo := emailrepo.New(gdb, cfg.Search.EmailLimit)
	flightRepo := flightrepo.New(gdb, cfg.Search.FlightLimit)
	photoRepo := photorepo.New(gdb, cfg.Search.PhotoLimit)
	entityRepo := entityrepo.New(gdb, cfg.Search.EntityLimit, cfg.Search.EntityDocLimit)
	newsRepo := newsrepo.New(gdb, cfg.Search.NewsLimit)
	embRepo := embeddingrepo.New(gdb)
	logRepo := searchlogrepo.New(gdb)
	cache := resultcache.New(kv, time.Duration(cfg.Cache.TTLSec)*time.Second, metrics.SearchCacheTotal, logger)

	// Use case services
	semanticSvc := semanticuc.New(embRepo, embedder, semanticuc.Config{
		BatchSize:  cfg.Search.Semantic.BatchSize,
		TopK:       cfg.Search.Semantic.TopK,
		ScoreFloor: cfg.Search.Semantic.ScoreFloor,
		TimeBudget: time.Duration(cfg.Search.Semantic.TimeBudgetSec) * time.Second,
	}, logger)
	activitySvc := activityuc.New(logRepo, time.Duration(cfg.Search.DedupWindowSec)*time.Second, logger)
	searchSvc := searchuc.New(searchuc.Deps{
		Documents: docRepo,
		Emails:    emailRepo,
		Flights:   flightRepo,
		Photos:    photoRepo,
		Entities:  entityRepo,
		News:      newsRepo,
		Cache:     cache,
		Ranker:    semanticSvc,
		Activity:  activitySvc,
	}, capability.Available(), logger)

	// HTTP server
	server := chiTransport.NewServer(
		searchSvc, activitySvc, mysqlPinger{gdb: gdb}, kv, cfg.Search.PopularLimit, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// mysqlPinger adapts the package-level ping to the transport's Pinger.
type mysqlPinger struct {
	gdb *gorm.DB
}

func (p mysqlPinger) Ping(ctx context.Context) error {
	return dbMySQL.Ping(ctx, p.gdb)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
