package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisCache shares quotes between tracker processes. Values are JSON
// encoded entries stored without a Redis TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (r *RedisCache) key(symbol string) string {
	return r.prefix + symbol
}

func (r *RedisCache) Get(ctx context.Context, symbol string) (Entry, bool, error) {
	data, err := r.client.Get(ctx, r.key(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get %s: %w", symbol, err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decode cached %s: %w", symbol, err)
	}
	return e, true, nil
}

func (r *RedisCache) Set(ctx context.Context, symbol string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", symbol, err)
	}
	if err := r.client.Set(ctx, r.key(symbol), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", symbol, err)
	}
	return nil
}

func (r *RedisCache) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}

func (r *RedisCache) All(ctx context.Context) (map[string]Entry, error) {
	keys, err := r.keys(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]Entry, len(keys))
	for _, k := range keys {
		symbol := strings.TrimPrefix(k, r.prefix)
		e, ok, err := r.Get(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if ok {
			out[symbol] = e
		}
	}
	return out, nil
}

func (r *RedisCache) Clear(ctx context.Context) error {
	keys, err := r.keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
