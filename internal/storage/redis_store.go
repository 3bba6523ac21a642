package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yingtu35/site-deadlink-crawler/internal/config"
	"github.com/yingtu35/site-deadlink-crawler/pkg/domain"
)

const (
	redisKeyHistory   = "%s:%s:history"
	redisKeyDeadlinks = "%s:%s:deadlinks"
)

type redisDeadlink struct {
	Source       string    `json:"source"`
	Deadlink     string    `json:"deadlink"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// RedisStore keeps history in a hash (URL -> RFC 3339 time) and dead links
// in a list, both namespaced by site.
type RedisStore struct {
	client       *redis.Client
	historyKey   string
	deadlinksKey string
}

func NewRedisStore(client *redis.Client, prefix, site string) *RedisStore {
	if prefix == "" {
		prefix = "deadlinks"
	}
	site = SiteName(site)
	return &RedisStore{
		client:       client,
		historyKey:   fmt.Sprintf(redisKeyHistory, prefix, site),
		deadlinksKey: fmt.Sprintf(redisKeyDeadlinks, prefix, site),
	}
}

func (r *RedisStore) AppendDeadlink(ctx context.Context, record domain.DeadlinkRecord) error {
	payload, err := json.Marshal(redisDeadlink{
		Source:       record.Source,
		Deadlink:     record.Deadlink,
		DiscoveredAt: record.DiscoveredAt.UTC(),
	})
	if err != nil {
		return err
	}
	if err := r.client.RPush(ctx, r.deadlinksKey, string(payload)).Err(); err != nil {
		return fmt.Errorf("redis rpush failure: %w", err)
	}
	return nil
}

func (r *RedisStore) UpsertHistory(ctx context.Context, record domain.HistoryRecord) error {
	value := record.LastScanned.UTC().Format(time.RFC3339Nano)
	if err := r.client.HSet(ctx, r.historyKey, record.URL, value).Err(); err != nil {
		return fmt.Errorf("redis hset failure: %w", err)
	}
	return nil
}

func (r *RedisStore) LoadHistory(ctx context.Context) ([]domain.HistoryRecord, error) {
	entries, err := r.client.HGetAll(ctx, r.historyKey).Result()
	if err != nil {
		return nil, &StorageUnavailableError{Backend: config.StorageRedis, Err: err}
	}

	records := make([]domain.HistoryRecord, 0, len(entries))
	for u, raw := range entries {
		scanned, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, &StorageUnavailableError{Backend: config.StorageRedis, Err: fmt.Errorf("history entry %s: %w", u, err)}
		}
		records = append(records, domain.HistoryRecord{URL: u, LastScanned: scanned})
	}
	return records, nil
}

func (r *RedisStore) LoadExistingResults(ctx context.Context) ([]domain.DeadlinkRecord, error) {
	entries, err := r.client.LRange(ctx, r.deadlinksKey, 0, -1).Result()
	if err != nil {
		return nil, &StorageUnavailableError{Backend: config.StorageRedis, Err: err}
	}

	records := make([]domain.DeadlinkRecord, 0, len(entries))
	for _, raw := range entries {
		var entry redisDeadlink
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, &StorageUnavailableError{Backend: config.StorageRedis, Err: err}
		}
		records = append(records, domain.DeadlinkRecord{
			Source:       entry.Source,
			Deadlink:     entry.Deadlink,
			DiscoveredAt: entry.DiscoveredAt,
		})
	}
	return records, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
