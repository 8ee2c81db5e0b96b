package mysql

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config holds connection parameters for the relational store.
type Config struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to MySQL and configures the connection pool.
func Open(cfg Config) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}

	gdb, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return gdb, nil
}

// Ping checks connectivity.
func Ping(ctx context.Context, gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping mysql: %w", err)
	}
	return nil
}

// WaitForReady polls Ping until the store responds or timeout expires.
func WaitForReady(ctx context.Context, gdb *gorm.DB, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for relational store: %w", ctx.Err())
		case <-ticker.C:
			if err := Ping(ctx, gdb); err == nil {
				return nil
			}
		}
	}
}

// FulltextCapability reports which collections carry FULLTEXT indexes.
// Resolved once at startup and injected into the query router; index
// availability does not change at runtime.
type FulltextCapability struct {
	Documents bool
	Pages     bool
	Emails    bool
	News      bool
}

// Available reports whether the full-text strategy can serve the main
// collections. The OCR page index is a bonus signal and is checked
// separately by the document searcher.
func (c FulltextCapability) Available() bool {
	return c.Documents && c.Emails && c.News
}

// ProbeFulltext inspects schema metadata for FULLTEXT indexes on the
// searched tables. A probe failure degrades to "unavailable" and is logged,
// never fatal.
func ProbeFulltext(ctx context.Context, gdb *gorm.DB, logger *zap.Logger) FulltextCapability {
	var rows []struct {
		TableName string `gorm:"column:table_name"`
	}
	err := gdb.WithContext(ctx).Raw(`
		SELECT DISTINCT TABLE_NAME AS table_name
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = DATABASE()
		  AND INDEX_TYPE = 'FULLTEXT'
		  AND TABLE_NAME IN ('documents', 'pages', 'emails', 'news_articles')
	`).Scan(&rows).Error
	if err != nil {
		logger.Warn("Fulltext capability probe failed, using fallback strategy", zap.Error(err))
		return FulltextCapability{}
	}

	var capability FulltextCapability
	for _, r := range rows {
		switch r.TableName {
		case "documents":
			capability.Documents = true
		case "pages":
			capability.Pages = true
		case "emails":
			capability.Emails = true
		case "news_articles":
			capability.News = true
		}
	}
	logger.Info("Fulltext capability probed",
		zap.Bool("documents", capability.Documents),
		zap.Bool("pages", capability.Pages),
		zap.Bool("emails", capability.Emails),
		zap.Bool("news", capability.News),
	)
	return capability
}
