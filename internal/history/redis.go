package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/piwi3910/LotiSmart/internal/model"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the list key used when none is configured.
const DefaultRedisKey = "lotismart:runs"

// RedisLog pushes JSON-encoded records onto a Redis list.
type RedisLog struct {
	client *redis.Client
	key    string
}

// NewRedisLog wraps an existing client.
func NewRedisLog(client *redis.Client, key string) *RedisLog {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisLog{client: client, key: key}
}

// OpenRedis connects to addr and checks the server answers.
func OpenRedis(ctx context.Context, addr, key string) (*RedisLog, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis history needs an address")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	return NewRedisLog(client, key), nil
}

func (l *RedisLog) Append(ctx context.Context, rec model.RunRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode run: %w", err)
	}
	if err := l.client.RPush(ctx, l.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push run %s: %w", rec.ID, err)
	}
	return nil
}

func (l *RedisLog) List(ctx context.Context) ([]model.RunRecord, error) {
	items, err := l.client.LRange(ctx, l.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	records := make([]model.RunRecord, 0, len(items))
	for i, item := range items {
		var rec model.RunRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return records, fmt.Errorf("run %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (l *RedisLog) Close() error { return l.client.Close() }
