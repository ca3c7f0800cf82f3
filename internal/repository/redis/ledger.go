package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// bindScript writes the forward and reverse entries in one step. NX
// semantics on the forward key keep the first binding when two requests
// race on the same idempotency key; the reverse entry always follows the
// winning forward entry.
var bindScript = redis.NewScript(`
local forward = KEYS[1]
local reverse = KEYS[2]
local id = ARGV[1]
local key = ARGV[2]
local ttl_ms = tonumber(ARGV[3])

if redis.call("SET", forward, id, "NX", "PX", ttl_ms) then
  redis.call("SET", reverse, key, "PX", ttl_ms)
  return 1
end
return 0
`)

var unbindScript = redis.NewScript(`
local reverse = KEYS[1]
local prefix = ARGV[1]

local key = redis.call("GET", reverse)
if key then
  redis.call("DEL", prefix .. key)
  redis.call("DEL", reverse)
  return 1
end
return 0
`)

// Ledger binds idempotency keys to resource ids with a shared expiry.
type Ledger struct {
	client redis.UniversalClient
	prefix string
}

func NewLedger(client redis.UniversalClient, prefix string) *Ledger {
	if prefix == "" {
		prefix = "idempotency"
	}
	return &Ledger{client: client, prefix: prefix}
}

func (l *Ledger) forwardPrefix(scope string) string {
	return fmt.Sprintf("%s:%s:key:", l.prefix, scope)
}

func (l *Ledger) forwardKey(scope, key string) string {
	return l.forwardPrefix(scope) + key
}

func (l *Ledger) reverseKey(scope, resourceID string) string {
	return fmt.Sprintf("%s:%s:id:%s", l.prefix, scope, resourceID)
}

func (l *Ledger) Bind(ctx context.Context, scope, key, resourceID string, ttl time.Duration) error {
	return bindScript.Run(
		ctx,
		l.client,
		[]string{l.forwardKey(scope, key), l.reverseKey(scope, resourceID)},
		resourceID,
		key,
		ttl.Milliseconds(),
	).Err()
}

func (l *Ledger) Resolve(ctx context.Context, scope, key string) (string, bool, error) {
	val, err := l.client.Get(ctx, l.forwardKey(scope, key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (l *Ledger) Unbind(ctx context.Context, scope, resourceID string) error {
	return unbindScript.Run(
		ctx,
		l.client,
		[]string{l.reverseKey(scope, resourceID)},
		l.forwardPrefix(scope),
	).Err()
}
