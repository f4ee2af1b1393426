package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Default timeouts for Redis operations.
const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultReadTimeout  = 3 * time.Second
	DefaultWriteTimeout = 3 * time.Second
)

// RedisOptions holds connection settings for Dial.
type RedisOptions struct {
	Addr     string
	Username string
	Password string
	DB       int
}

// Dial connects to Redis and verifies the connection with a PING.
func Dial(ctx context.Context, opts RedisOptions) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.Username,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  DefaultDialTimeout,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		// Close the client to prevent resource leak
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

// RedisBackend stores stats in the key layout shared with the other
// services: hashes for counters and patterns, lists for complementary nodes
// and usage examples.
type RedisBackend struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisBackend wraps a connected client. keyPrefix is prepended to every
// key and may be empty.
func NewRedisBackend(client redis.UniversalClient, keyPrefix string) *RedisBackend {
	return &RedisBackend{client: client, keyPrefix: keyPrefix}
}

func (r *RedisBackend) key(name string) string {
	return r.keyPrefix + name
}

func (r *RedisBackend) UsageCounts(ctx context.Context) (map[string]int64, error) {
	return r.counts(ctx, UsageKey)
}

func (r *RedisBackend) ComboCounts(ctx context.Context) (map[string]int64, error) {
	return r.counts(ctx, ComboKey)
}

func (r *RedisBackend) counts(ctx context.Context, key string) (map[string]int64, error) {
	raw, err := r.client.HGetAll(ctx, r.key(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	out := make(map[string]int64, len(raw))
	for field, value := range raw {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			continue
		}
		out[field] = n
	}
	return out, nil
}

func (r *RedisBackend) Patterns(ctx context.Context) (map[string][]string, error) {
	raw, err := r.client.HGetAll(ctx, r.key(PatternsKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", PatternsKey, err)
	}
	out := make(map[string][]string, len(raw))
	for key, value := range raw {
		var nodes []string
		if err := json.Unmarshal([]byte(value), &nodes); err != nil {
			continue
		}
		out[key] = nodes
	}
	return out, nil
}

func (r *RedisBackend) Complementary(ctx context.Context, name string, limit int) ([]string, error) {
	return r.client.LRange(ctx, r.key(ComplementaryKey+name), 0, int64(limit-1)).Result()
}

func (r *RedisBackend) Examples(ctx context.Context, name string, limit int) ([]string, error) {
	return r.client.LRange(ctx, r.key(ExamplesKey+name), 0, int64(limit-1)).Result()
}

func (r *RedisBackend) IncrUsage(ctx context.Context, name string, delta int64) error {
	return r.client.HIncrBy(ctx, r.key(UsageKey), name, delta).Err()
}

// IncrCombo bumps the pair counter and the partner ranking of a, then
// rewrites a's complementary list from the ranking.
func (r *RedisBackend) IncrCombo(ctx context.Context, a, b string, delta int64) error {
	rankKey := r.key(ComboRankKey + a)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, r.key(ComboKey), ComboPair(a, b), delta)
		pipe.ZIncrBy(ctx, rankKey, float64(delta), b)
		return nil
	})
	if err != nil {
		return fmt.Errorf("incrementing combo %s: %w", ComboPair(a, b), err)
	}

	ranked, err := r.client.ZRangeWithScores(ctx, rankKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("reading %s: %w", rankKey, err)
	}
	partners := make([]partner, 0, len(ranked))
	for _, z := range ranked {
		member, ok := z.Member.(string)
		if !ok || z.Score <= 0 {
			continue
		}
		partners = append(partners, partner{name: member, count: int64(z.Score)})
	}
	top := topPartners(partners, MaxComplementary)

	listKey := r.key(ComplementaryKey + a)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, listKey)
		if len(top) > 0 {
			values := make([]any, len(top))
			for i, n := range top {
				values[i] = n
			}
			pipe.RPush(ctx, listKey, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("rewriting %s: %w", listKey, err)
	}
	return nil
}

func (r *RedisBackend) AddExample(ctx context.Context, name, example string) error {
	key := r.key(ExamplesKey + name)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, example)
		pipe.LTrim(ctx, key, 0, maxStoredExamples-1)
		return nil
	})
	return err
}

func (r *RedisBackend) SetPattern(ctx context.Context, key string, nodes []string) error {
	data, err := json.Marshal(nodes)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, r.key(PatternsKey), key, string(data)).Err()
}

// Close closes the underlying client.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
