package throttle

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript runs server-side so read, reset and increment happen atomically.
// KEYS[1] window hash; ARGV now ms, window ms, limit.
var hitScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local start = tonumber(redis.call('HGET', KEYS[1], 'start'))
if start == nil or start + window <= now then
	redis.call('HSET', KEYS[1], 'start', now, 'count', 1)
	redis.call('PEXPIRE', KEYS[1], window)
	return {now, 1}
end
local count = tonumber(redis.call('HGET', KEYS[1], 'count')) or 0
if count < limit then
	count = redis.call('HINCRBY', KEYS[1], 'count', 1)
end
return {start, count}
`)

// RedisStore keeps windows in Redis hashes that expire with the window, so
// every API instance shares one counter.
type RedisStore struct {
	client redis.Scripter
	prefix string
}

// NewRedisStore constructs a RedisStore. An empty prefix defaults to "throttle".
func NewRedisStore(client redis.Scripter, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "throttle"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(caller, endpoint string) string {
	return s.prefix + ":" + endpoint + ":" + caller
}

// Hit implements Store.
func (s *RedisStore) Hit(ctx context.Context, caller, endpoint string, now time.Time, window time.Duration, limit int) (Window, error) {
	if s == nil || s.client == nil {
		return Window{}, errors.New("redis not configured")
	}
	vals, err := hitScript.Run(ctx, s.client, []string{s.key(caller, endpoint)},
		now.UnixMilli(), window.Milliseconds(), limit).Int64Slice()
	if err != nil {
		return Window{}, err
	}
	if len(vals) != 2 {
		return Window{}, errors.New("unexpected throttle script reply")
	}
	return Window{Start: time.UnixMilli(vals[0]).UTC(), Count: int(vals[1])}, nil
}
