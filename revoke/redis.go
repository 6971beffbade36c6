package revoke

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokeScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("SET", KEYS[1], ARGV[1])
redis.call("ZADD", KEYS[2], ARGV[2], ARGV[3])
return 1
`

const sweepScript = `
local expired = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
for _, digest in ipairs(expired) do
  redis.call("DEL", ARGV[2] .. digest)
end
if #expired > 0 then
  redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
end
return #expired
`

var (
	revokeLua = redis.NewScript(revokeScript)
	sweepLua  = redis.NewScript(sweepScript)
)

// RedisLedger persists revocation entries in Redis: one string key per entry
// (digest -> principal id) plus a sorted-set index scored by expiry, kept in
// step by small Lua scripts so revoke-once stays atomic under concurrency.
type RedisLedger struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLedger returns a ledger backed by client. prefix namespaces all
// keys; it defaults to "authcore" when empty.
func NewRedisLedger(client redis.UniversalClient, prefix string) *RedisLedger {
	if prefix == "" {
		prefix = "authcore"
	}
	return &RedisLedger{client: client, prefix: prefix}
}

// Revoke implements Ledger.
func (l *RedisLedger) Revoke(ctx context.Context, token, principalID string, expiresAt time.Time) error {
	digest := Digest(token)
	res, err := revokeLua.Run(ctx, l.client,
		[]string{l.entryKey(digest), l.indexKey()},
		principalID, strconv.FormatInt(expiresAt.Unix(), 10), digest,
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res == 0 {
		return ErrAlreadyRevoked
	}
	return nil
}

// IsRevoked implements Ledger.
func (l *RedisLedger) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := l.client.Exists(ctx, l.entryKey(Digest(token))).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// Sweep implements Ledger.
func (l *RedisLedger) Sweep(ctx context.Context, now time.Time) (int, error) {
	removed, err := sweepLua.Run(ctx, l.client,
		[]string{l.indexKey()},
		strconv.FormatInt(now.Unix(), 10), l.entryPrefix(),
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return int(removed), nil
}

func (l *RedisLedger) entryPrefix() string {
	return l.prefix + ":revoked:"
}

func (l *RedisLedger) entryKey(digest string) string {
	return l.entryPrefix() + digest
}

func (l *RedisLedger) indexKey() string {
	return l.prefix + ":revoked:index"
}

var _ Ledger = (*RedisLedger)(nil)
