package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisConfig controls redis client behavior.
// Keep it config-driven; defaults should be safe and conservative.
type RedisConfig struct {
	Addr string

	// Basic timeouts
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Pool tuning
	PoolSize        int
	MinIdleConns    int
	PoolTimeout     time.Duration
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	PingTimeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	out := c
	if out.DialTimeout <= 0 {
		out.DialTimeout = 3 * time.Second
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = 2 * time.Second
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = 2 * time.Second
	}
	if out.PoolSize <= 0 {
		out.PoolSize = 20
	}
	if out.MinIdleConns < 0 {
		out.MinIdleConns = 0
	}
	if out.PoolTimeout <= 0 {
		out.PoolTimeout = 4 * time.Second
	}
	if out.ConnMaxIdleTime <= 0 {
		out.ConnMaxIdleTime = 5 * time.Minute
	}
	if out.ConnMaxLifetime <= 0 {
		out.ConnMaxLifetime = 30 * time.Minute
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = 2 * time.Second
	}
	return out
}

// OpenRedis initializes a Redis client and validates connectivity via PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	cfg = cfg.withDefaults()
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		PoolTimeout:     cfg.PoolTimeout,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

var leadLockAcquireScript = redis.NewScript(`
-- KEYS[1] = lock key
-- ARGV[1] = owner token
-- ARGV[2] = ttl_ms (int)
--
-- Returns:
--  1 if acquired
--  0 if held by someone else
if redis.call('SET', KEYS[1], ARGV[1], 'NX', 'PX', ARGV[2]) then
  return 1
end
return 0
`)

var leadLockReleaseScript = redis.NewScript(`
-- KEYS[1] = lock key
-- ARGV[1] = owner token
-- Only the owner may release.
if redis.call('GET', KEYS[1]) == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 1
end
return 0
`)

// LeadLocker serializes disposition processing per lead.
//
// Two dispositions for the same lead (e.g., duplicate webhook delivery) would
// otherwise interleave their before/after snapshots. The lock is advisory:
// callers that cannot acquire it within the retry window proceed anyway, and
// a nil Redis client disables locking entirely.
//
// Safety properties:
// - Atomic acquire/release using Lua.
// - TTL prevents leaked locks on process crash.
// - Owner tokens prevent releasing a lock we lost to TTL expiry.
type LeadLocker struct {
	rdb *redis.Client

	TTL        time.Duration
	RetryEvery time.Duration
	MaxWait    time.Duration
}

func NewLeadLocker(rdb *redis.Client) *LeadLocker {
	return &LeadLocker{
		rdb:        rdb,
		TTL:        30 * time.Second,
		RetryEvery: 100 * time.Millisecond,
		MaxWait:    3 * time.Second,
	}
}

// Acquire blocks until the per-lead lock is obtained, the wait window
// elapses, or ctx is done. It returns a release func and whether the lock
// was actually held. Callers must call release() regardless.
func (l *LeadLocker) Acquire(ctx context.Context, userID, leadID string) (release func(), held bool, err error) {
	noop := func() {}
	if l == nil || l.rdb == nil {
		return noop, false, nil
	}
	if userID == "" || leadID == "" {
		return noop, false, fmt.Errorf("storage: user and lead ids required for lead lock")
	}

	key := "disposition:lock:" + userID + ":" + leadID
	token := uuid.NewString()
	deadline := time.Now().Add(l.MaxWait)

	for {
		ok, err := leadLockAcquireScript.Run(ctx, l.rdb, []string{key}, token, l.TTL.Milliseconds()).Int()
		if err != nil {
			// Redis unavailable: degrade to unlocked operation.
			return noop, false, nil
		}
		if ok == 1 {
			return func() {
				relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_, _ = leadLockReleaseScript.Run(relCtx, l.rdb, []string{key}, token).Result()
			}, true, nil
		}
		if time.Now().After(deadline) {
			return noop, false, nil
		}
		select {
		case <-ctx.Done():
			return noop, false, ctx.Err()
		case <-time.After(l.RetryEvery):
		}
	}
}
