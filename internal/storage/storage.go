// Package storage persists dead-link records and per-URL scan history so a
// crawl can be interrupted and resumed within the rescan window.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yingtu35/site-deadlink-crawler/internal/config"
	"github.com/yingtu35/site-deadlink-crawler/pkg/domain"
)

// Sink is the durable store used by the crawler.
type Sink interface {
	// AppendDeadlink appends one dead-link occurrence.
	AppendDeadlink(ctx context.Context, record domain.DeadlinkRecord) error
	// UpsertHistory records the last time a URL was fetched.
	UpsertHistory(ctx context.Context, record domain.HistoryRecord) error
	LoadHistory(ctx context.Context) ([]domain.HistoryRecord, error)
	LoadExistingResults(ctx context.Context) ([]domain.DeadlinkRecord, error)
	Close() error
}

// StorageUnavailableError reports that the store could not be prepared or read.
type StorageUnavailableError struct {
	Backend string
	Err     error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("%s storage unavailable: %v", e.Backend, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error {
	return e.Err
}

// Open prepares the configured backend for site, the host of the seed URL.
func Open(ctx context.Context, cfg config.StorageConfig, site string, logger *zap.Logger) (Sink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Type {
	case config.StorageCSV, "":
		return NewCSVStore(cfg.Path, site, logger)
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, &StorageUnavailableError{Backend: config.StorageRedis, Err: err}
		}
		logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
		return NewRedisStore(client, cfg.KeyPrefix, site), nil
	case config.StoragePostgres:
		db, err := gorm.Open(postgres.Open(cfg.DSN), gormConfig())
		if err != nil {
			return nil, &StorageUnavailableError{Backend: config.StoragePostgres, Err: err}
		}
		store := NewPostgresStore(db, site)
		if cfg.AutoMigrate {
			if err := store.Migrate(); err != nil {
				_ = store.Close()
				return nil, &StorageUnavailableError{Backend: config.StoragePostgres, Err: err}
			}
		}
		logger.Info("connected to postgres", zap.String("dsn", config.RedactConnectionString(cfg.DSN)))
		return store, nil
	case config.StorageMemory:
		return NewMemoryStore(), nil
	default:
		return nil, &StorageUnavailableError{Backend: cfg.Type, Err: fmt.Errorf("unsupported storage type %q", cfg.Type)}
	}
}

// SiteName turns a host into a name usable as a directory or key segment.
func SiteName(host string) string {
	return strings.NewReplacer(":", "_", "/", "_").Replace(host)
}
