package ports

import (
	"context"
	"time"

	"github.com/pelyams/sneaker_house_service/internal/domain"
)

// Cache stores serialized payloads keyed by resource identifier. Get reports a
// miss with ok == false; an expired entry is a miss and is dropped.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (domain.CacheStats, error)
}
