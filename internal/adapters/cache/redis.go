package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pelyams/sneaker_house_service/internal/domain"
)

const (
	keyPrefix  = "catalog:"
	clearBatch = 100
)

// redisEntry is what gets written under a key. Redis expires the key on its
// own; storedAt and ttl are kept so stats can report age.
type redisEntry struct {
	Data     json.RawMessage `json:"data"`
	StoredAt time.Time       `json:"storedAt"`
	TTL      time.Duration   `json:"ttl"`
}

type RedisCache struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, now: time.Now}
}

func createKey(key string) string {
	return keyPrefix + key
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := r.client.Get(ctx, createKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: failed to get %s from cache: %s", domain.ErrInternalCache, key, err.Error())
	}
	var ent redisEntry
	if err := json.Unmarshal(raw, &ent); err != nil {
		_ = r.client.Del(ctx, createKey(key)).Err()
		return nil, false, fmt.Errorf("%w: corrupted entry %s dropped: %s", domain.ErrInternalCache, key, err.Error())
	}
	if r.now().Sub(ent.StoredAt) > ent.TTL {
		if err := r.client.Del(ctx, createKey(key)).Err(); err != nil {
			return nil, false, fmt.Errorf("%w: failed to drop expired %s: %s", domain.ErrInternalCache, key, err.Error())
		}
		return nil, false, nil
	}
	return ent.Data, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	raw, err := json.Marshal(redisEntry{Data: data, StoredAt: r.now(), TTL: ttl})
	if err != nil {
		return fmt.Errorf("%w: error marshalling entry %s: %s", domain.ErrInternalCache, key, err.Error())
	}
	if err := r.client.Set(ctx, createKey(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("%w: failed to store %s to cache: %s", domain.ErrInternalCache, key, err.Error())
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, createKey(key)).Err(); err != nil {
		return fmt.Errorf("%w: failed to delete %s from cache: %s", domain.ErrInternalCache, key, err)
	}
	return nil
}

// Clear drops every catalog key and leaves the rest of the database alone.
func (r *RedisCache) Clear(ctx context.Context) error {
	batch := make([]string, 0, clearBatch)
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", clearBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == clearBatch {
			if err := r.client.Unlink(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("%w: failed to clear cache: %s", domain.ErrInternalCache, err.Error())
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: failed to clear cache: %s", domain.ErrInternalCache, err.Error())
	}
	if len(batch) > 0 {
		if err := r.client.Unlink(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("%w: failed to clear cache: %s", domain.ErrInternalCache, err.Error())
		}
	}
	return nil
}

func (r *RedisCache) Stats(ctx context.Context) (domain.CacheStats, error) {
	stats := domain.CacheStats{Entries: make([]domain.CacheEntryStats, 0)}
	now := r.now()

	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		fullKey := iter.Val()
		raw, err := r.client.Get(ctx, fullKey).Bytes()
		if errors.Is(err, redis.Nil) {
			// expired between SCAN and GET
			continue
		}
		if err != nil {
			return domain.CacheStats{}, fmt.Errorf("%w: failed to read %s: %s", domain.ErrInternalCache, fullKey, err.Error())
		}
		var ent redisEntry
		if err := json.Unmarshal(raw, &ent); err != nil {
			continue
		}
		stats.Entries = append(stats.Entries, domain.CacheEntryStats{
			Key:      strings.TrimPrefix(fullKey, keyPrefix),
			DataSize: len(ent.Data),
			Age:      now.Sub(ent.StoredAt),
			TTL:      ent.TTL,
		})
	}
	if err := iter.Err(); err != nil {
		return domain.CacheStats{}, fmt.Errorf("%w: failed to scan cache: %s", domain.ErrInternalCache, err.Error())
	}
	sort.Slice(stats.Entries, func(i, j int) bool {
		return stats.Entries[i].Key < stats.Entries[j].Key
	})
	stats.Size = len(stats.Entries)
	return stats, nil
}
