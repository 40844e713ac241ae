package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/quillhq/rfpdesk-backend/internal/logger"
)

// RateLimiter is a fixed-window admission counter keyed by caller. The
// in-memory implementation covers single-instance deployments; the Redis one
// shares the window across instances.
type RateLimiter interface {
	Allow(ctx context.Context, key string, window time.Duration, max int) (bool, error)
}

type fixedWindow struct {
	start  time.Time
	window time.Duration
	count  int
}

// sweepInterval bounds how often elapsed windows are pruned from the map.
const sweepInterval = time.Minute

type memoryRateLimiter struct {
	mu        sync.Mutex
	windows   map[string]*fixedWindow
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryRateLimiter() RateLimiter {
	return &memoryRateLimiter{
		windows: make(map[string]*fixedWindow),
		now:     time.Now,
	}
}

func (l *memoryRateLimiter) Allow(_ context.Context, key string, window time.Duration, max int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= window {
		w = &fixedWindow{start: now, window: window}
		l.windows[key] = w
	}
	w.count++
	return w.count <= max, nil
}

// sweep drops elapsed windows so the map does not accumulate an entry for
// every key ever seen. Called under the mutex.
func (l *memoryRateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < sweepInterval {
		return
	}
	l.lastSweep = now
	for key, w := range l.windows {
		if now.Sub(w.start) >= w.window {
			delete(l.windows, key)
		}
	}
}

type redisRateLimiter struct {
	log *logger.Logger
	rdb *goredis.Client
}

// Counter bump and TTL arm in one atomic unit; a separate PEXPIRE could fail
// after the INCR and leave the key without expiry.
var rateLimitScript = goredis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// NewRedisRateLimiter connects using REDIS_ADDR.
func NewRedisRateLimiter(log *logger.Logger) (RateLimiter, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisRateLimiter{
		log: log.With("service", "RedisRateLimiter"),
		rdb: rdb,
	}, nil
}

func (l *redisRateLimiter) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, error) {
	redisKey := "ratelimit:" + key
	count, err := rateLimitScript.Run(ctx, l.rdb, []string{redisKey}, window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("ratelimit incr: %w", err)
	}
	return count <= int64(max), nil
}
