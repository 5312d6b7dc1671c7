// Package cache wraps the Redis client used across the engine: key-value
// state, pub/sub snapshot ingestion, event and alert streams, and the
// trigger registry hashes.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Imaddindepf/tradeul-sub005/market"
)

// eventStreamMaxLen bounds the shared event stream. Consumers track
// their own offsets, so trimming old entries only limits replay depth.
const eventStreamMaxLen = 100_000

// RedisClient wraps redis.Client
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a new Redis client
func NewRedisClient(host, port, password string) *RedisClient {
	addr := fmt.Sprintf("%s:%s", host, port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0, // use default DB
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️  Failed to connect to Redis at %s: %v", addr, err)
		return nil
	}

	log.Printf("✅ Connected to Redis at %s", addr)
	return &RedisClient{client: client}
}

// Set stores a value in Redis with expiration
func (r *RedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	jsonBytes, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, key, jsonBytes, expiration).Err()
}

// Get retrieves a value from Redis
func (r *RedisClient) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(val), dest)
}

// Delete removes a key from Redis
func (r *RedisClient) Delete(ctx context.Context, key string) error {
	if r.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return r.client.Del(ctx, key).Err()
}

// Ping checks connection liveness, for health reporting.
func (r *RedisClient) Ping(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Publish sends a message to a channel
func (r *RedisClient) Publish(ctx context.Context, channel string, message interface{}) error {
	if r.client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	jsonBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	return r.client.Publish(ctx, channel, jsonBytes).Err()
}

// Subscribe subscribes to a channel
func (r *RedisClient) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	if r.client == nil {
		return nil
	}
	return r.client.Subscribe(ctx, channel)
}

// AppendEvent appends a fired event to the shared event stream. Field
// order comes from StreamValues so downstream parsers stay stable.
func (r *RedisClient) AppendEvent(ctx context.Context, ev *market.EventRecord) error {
	if r.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: market.EventStream,
		MaxLen: eventStreamMaxLen,
		Approx: true,
		Values: ev.StreamValues(),
	}).Err()
}

// XAdd appends raw field/value pairs to a stream, trimming it to maxLen
// approximately when maxLen is positive.
func (r *RedisClient) XAdd(ctx context.Context, stream string, maxLen int64, values []interface{}) error {
	if r.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	args := &redis.XAddArgs{Stream: stream, Values: values}
	if maxLen > 0 {
		args.MaxLen = maxLen
		args.Approx = true
	}
	return r.client.XAdd(ctx, args).Err()
}

// EnsureGroup creates a consumer group at the head of a stream, creating
// the stream itself if needed. An already-existing group is not an error.
func (r *RedisClient) EnsureGroup(ctx context.Context, stream, group string) error {
	if r.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	err := r.client.XGroupCreateMkStream(ctx, stream, group, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s on %s: %w", group, stream, err)
	}
	return nil
}

// ReadGroup blocks up to the given duration for new stream entries on
// behalf of a consumer group member.
func (r *RedisClient) ReadGroup(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]redis.XMessage, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}
	streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(streams) == 0 {
		return nil, nil
	}
	return streams[0].Messages, nil
}

// Ack acknowledges processed stream entries for a consumer group.
func (r *RedisClient) Ack(ctx context.Context, stream, group string, ids ...string) error {
	if r.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return r.client.XAck(ctx, stream, group, ids...).Err()
}

// RevRangeN returns the newest n entries of a stream, newest first.
func (r *RedisClient) RevRangeN(ctx context.Context, stream string, n int64) ([]redis.XMessage, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}
	return r.client.XRevRangeN(ctx, stream, "+", "-", n).Result()
}

// HSet writes one field of a hash.
func (r *RedisClient) HSet(ctx context.Context, key, field string, value interface{}) error {
	if r.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return r.client.HSet(ctx, key, field, value).Err()
}

// HGetAll returns every field of a hash.
func (r *RedisClient) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}
	return r.client.HGetAll(ctx, key).Result()
}

// HDel removes fields from a hash.
func (r *RedisClient) HDel(ctx context.Context, key string, fields ...string) error {
	if r.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return r.client.HDel(ctx, key, fields...).Err()
}

// ScanKeys walks the keyspace for keys matching a pattern. Intended for
// startup hydration, not hot paths.
func (r *RedisClient) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}

	var keys []string
	var cursor uint64
	for {
		batch, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}
