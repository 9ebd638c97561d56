package payments

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
)

const voucherKeyPrefix = "transfer:outstanding:"

// ErrTransferNotIssued is returned when a scanned payload has no unredeemed transfer behind it.
var ErrTransferNotIssued = errors.New("transfer code was not issued or is already redeemed")

// Registry counts debited-but-unredeemed transfers per payload.
type Registry interface {
	// Issue records one more outstanding transfer for payload.
	Issue(ctx context.Context, payload string) error
	// Consume takes one outstanding transfer for payload or fails with ErrTransferNotIssued.
	Consume(ctx context.Context, payload string) error
}

var consumeScript = redis.NewScript(`
local n = tonumber(redis.call('GET', KEYS[1]) or '0')
if n <= 0 then
  return 0
end
if n == 1 then
  redis.call('DEL', KEYS[1])
else
  redis.call('DECR', KEYS[1])
end
return 1
`)

// RedisRegistry keeps outstanding counts in Redis.
type RedisRegistry struct {
	client *redis.Client
}

// NewRedisRegistry builds a Redis-backed registry.
func NewRedisRegistry(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client}
}

func (r *RedisRegistry) Issue(ctx context.Context, payload string) error {
	return r.client.Incr(ctx, voucherKeyPrefix+payload).Err()
}

func (r *RedisRegistry) Consume(ctx context.Context, payload string) error {
	taken, err := consumeScript.Run(ctx, r.client, []string{voucherKeyPrefix + payload}).Int()
	if err != nil {
		return err
	}
	if taken == 0 {
		return ErrTransferNotIssued
	}
	return nil
}

// MemoryRegistry is the in-process Registry used without Redis.
type MemoryRegistry struct {
	mu          sync.Mutex
	outstanding map[string]int
}

// NewMemoryRegistry builds an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{outstanding: make(map[string]int)}
}

func (r *MemoryRegistry) Issue(_ context.Context, payload string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outstanding[payload]++
	return nil
}

func (r *MemoryRegistry) Consume(_ context.Context, payload string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.outstanding[payload]
	if n <= 0 {
		return ErrTransferNotIssued
	}
	if n == 1 {
		delete(r.outstanding, payload)
	} else {
		r.outstanding[payload] = n - 1
	}
	return nil
}
