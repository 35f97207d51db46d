package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store wraps the Redis operations the service needs: JSON values with a TTL
// and an append-only list for dead letters.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// GetJSON decodes the value at key into dst. found is false on a cache miss.
func (s *Store) GetJSON(ctx context.Context, key string, dst any) (found bool, err error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Version reads the invalidation counter at versionKey; a missing counter is 0.
func (s *Store) Version(ctx context.Context, versionKey string) (int64, error) {
	v, err := s.client.Get(ctx, versionKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get %s: %w", versionKey, err)
	}
	return v, nil
}

// Invalidate bumps the counter of every key and then deletes the keys, so a
// writer that read an older counter can no longer store its value.
func (s *Store) Invalidate(ctx context.Context, counterTTL time.Duration, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(ctx, VersionKey(key))
			pipe.Expire(ctx, VersionKey(key), counterTTL)
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate keys: %w", err)
	}
	return nil
}

// SetJSONIfVersion stores value only while the counter of key still equals
// version. stored is false when an invalidation happened in between.
func (s *Store) SetJSONIfVersion(ctx context.Context, key string, value any, ttl time.Duration, version int64) (stored bool, err error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	versionKey := VersionKey(key)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, versionKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to set %s: %w", key, err)
	}
	return stored, nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

// PushJSON appends value to the list at key.
func (s *Store) PushJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal list entry: %w", err)
	}

	if err := s.client.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to push to %s: %w", key, err)
	}
	return nil
}

// Len returns the length of the list at key.
func (s *Store) Len(ctx context.Context, key string) (int64, error) {
	n, err := s.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read length of %s: %w", key, err)
	}
	return n, nil
}
