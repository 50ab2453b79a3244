package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/KarenSyu/travel/internal/domain"
)

// redisSnapshotRepo stores each snapshot as one JSON string value with no expiry.
type redisSnapshotRepo struct {
	client redis.Cmdable
}

// NewRedisSnapshotRepo constructs a Redis-backed SnapshotRepo.
// Accepts redis.Cmdable so a *redis.Client, a cluster client, or a pipeline works.
func NewRedisSnapshotRepo(client redis.Cmdable) SnapshotRepo {
	return &redisSnapshotRepo{client: client}
}

// NewRedisClient parses a redis:// URL and returns a connected client.
// The caller owns the client and must Close it.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("repo.NewRedisClient: parse url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("repo.NewRedisClient: ping: %w", err)
	}
	return client, nil
}

func (r *redisSnapshotRepo) Get(ctx context.Context, key string) (domain.Itinerary, error) {
	body, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Itinerary{}, fmt.Errorf("repo.RedisSnapshotRepo.Get: %w", domain.ErrNotFound)
		}
		return domain.Itinerary{}, fmt.Errorf("repo.RedisSnapshotRepo.Get: %w", err)
	}

	it, err := decodeSnapshot(body)
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("repo.RedisSnapshotRepo.Get: %w", err)
	}
	return it, nil
}

func (r *redisSnapshotRepo) Put(ctx context.Context, key string, it domain.Itinerary) error {
	body, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("repo.RedisSnapshotRepo.Put: encode: %w", err)
	}
	if err := r.client.Set(ctx, key, body, 0).Err(); err != nil {
		return fmt.Errorf("repo.RedisSnapshotRepo.Put: %w", err)
	}
	return nil
}
