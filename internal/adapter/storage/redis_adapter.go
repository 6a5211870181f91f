package storage

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/voice-pos/internal/core/domain"
)

const (
	DefaultKeyPrefix      = "pos:"
	DefaultIdempotencyTTL = 24 * time.Hour
)

// KEYS: cart hash, stock hash, meta hash.
// ARGV: revision, saved_at, cart field count, cart pairs..., stock pairs...
var saveCheckpointScript = redis.NewScript(`
redis.call('DEL', KEYS[1], KEYS[2])
redis.call('HSET', KEYS[3], 'revision', ARGV[1])
redis.call('HSET', KEYS[3], 'saved_at', ARGV[2])

local n = tonumber(ARGV[3])
local i = 4
for _ = 1, n do
	redis.call('HSET', KEYS[1], ARGV[i], ARGV[i + 1])
	i = i + 2
end
while i <= #ARGV do
	redis.call('HSET', KEYS[2], ARGV[i], ARGV[i + 1])
	i = i + 2
end

return 1
`)

type RedisAdapter struct {
	client         *redis.Client
	prefix         string
	idempotencyTTL time.Duration
}

func NewRedisAdapter(client *redis.Client, prefix string, idempotencyTTL time.Duration) *RedisAdapter {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if idempotencyTTL <= 0 {
		idempotencyTTL = DefaultIdempotencyTTL
	}
	return &RedisAdapter{client: client, prefix: prefix, idempotencyTTL: idempotencyTTL}
}

func (r *RedisAdapter) keys(sessionID string) []string {
	base := r.prefix + "checkpoint:" + sessionID
	return []string{base + ":cart", base + ":stock", base + ":meta"}
}

// SaveCheckpoint replaces cart and stock in a single script run, so readers
// never see one without the other.
func (r *RedisAdapter) SaveCheckpoint(ctx context.Context, cp domain.Checkpoint) error {
	args := []interface{}{cp.Revision, cp.SavedAt.UTC().Format(time.RFC3339Nano), len(cp.Cart)}
	args = appendPairs(args, cp.Cart)
	args = appendPairs(args, cp.Stock)

	if err := saveCheckpointScript.Run(ctx, r.client, r.keys(cp.SessionID), args...).Err(); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func appendPairs(args []interface{}, m map[string]int) []interface{} {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, k, m[k])
	}
	return args
}

func (r *RedisAdapter) LoadCheckpoint(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	keys := r.keys(sessionID)

	var cart, stock, meta *redis.MapStringStringCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		cart = pipe.HGetAll(ctx, keys[0])
		stock = pipe.HGetAll(ctx, keys[1])
		meta = pipe.HGetAll(ctx, keys[2])
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	m := meta.Val()
	if len(m) == 0 {
		return nil, nil
	}

	cp := &domain.Checkpoint{SessionID: sessionID, Revision: m["revision"]}
	if cp.SavedAt, err = time.Parse(time.RFC3339Nano, m["saved_at"]); err != nil {
		return nil, fmt.Errorf("checkpoint saved_at: %w", err)
	}
	if cp.Cart, err = parseCounts(cart.Val()); err != nil {
		return nil, fmt.Errorf("checkpoint cart: %w", err)
	}
	if cp.Stock, err = parseCounts(stock.Val()); err != nil {
		return nil, fmt.Errorf("checkpoint stock: %w", err)
	}
	return cp, nil
}

func parseCounts(fields map[string]string) (map[string]int, error) {
	out := make(map[string]int, len(fields))
	for k, v := range fields {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = n
	}
	return out, nil
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.prefix+key, 1, r.idempotencyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
