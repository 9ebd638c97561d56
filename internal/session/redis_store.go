package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

var takeScript = redis.NewScript(`
local v = redis.call('HGET', KEYS[1], ARGV[1])
if v then
  redis.call('HDEL', KEYS[1], ARGV[1])
end
return v
`)

var appendScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], ARGV[1])
local v = ARGV[2]
if cur and cur ~= '' then
  v = cur .. ARGV[3] .. ARGV[2]
end
redis.call('HSET', KEYS[1], ARGV[1], v)
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 1
`)

// RedisStore keeps each session in a Redis hash with a key-level TTL.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, token, field string) (string, bool, error) {
	v, err := s.client.HGet(ctx, redisKeyPrefix+token, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, token string, values map[string]string, ttl time.Duration) error {
	key := redisKeyPrefix + token
	fields := make(map[string]any, len(values))
	for k, v := range values {
		fields[k] = v
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

func (s *RedisStore) Take(ctx context.Context, token, field string) (string, bool, error) {
	v, err := takeScript.Run(ctx, s.client, []string{redisKeyPrefix + token}, field).Text()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisStore) Append(ctx context.Context, token, field, value, sep string, ttl time.Duration) error {
	return appendScript.Run(ctx, s.client, []string{redisKeyPrefix + token}, field, value, sep, ttl.Milliseconds()).Err()
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, redisKeyPrefix+token).Err()
}

func (s *RedisStore) Touch(ctx context.Context, token string, ttl time.Duration) error {
	return s.client.Expire(ctx, redisKeyPrefix+token, ttl).Err()
}
