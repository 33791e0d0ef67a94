package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// RedisLimiter shares the fixed window across every server instance. It
// fails open when Redis is unreachable.
type RedisLimiter struct {
	client  redis.Scripter
	limit   int
	window  time.Duration
	prefix  string
	timeout time.Duration
	script  *redis.Script
	log     *slog.Logger
}

type RedisOption func(*RedisLimiter)

// WithLogger sets the logger used to report Redis failures.
func WithLogger(log *slog.Logger) RedisOption {
	return func(l *RedisLimiter) {
		if log != nil {
			l.log = log
		}
	}
}

func NewRedisLimiter(client redis.Scripter, limit int, window time.Duration, prefix string, opts ...RedisOption) *RedisLimiter {
	if client == nil {
		return nil
	}
	l := &RedisLimiter{
		client:  client,
		limit:   limit,
		window:  window,
		prefix:  prefix,
		timeout: 250 * time.Millisecond,
		script:  redis.NewScript(rateLimitScript),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow runs the window script under ctx, bounded by the limiter's own
// timeout.
func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	if l.limit <= 0 || l.window <= 0 || key == "" {
		return true
	}
	redisKey := key
	if l.prefix != "" {
		redisKey = l.prefix + ":" + key
	}
	ttl := l.window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	allowed, err := l.script.Run(ctx, l.client, []string{redisKey}, ttl, l.limit).Int64()
	if err != nil {
		l.log.WarnContext(ctx, "rate limiter unavailable, allowing request", "key", redisKey, "error", err)
		return true
	}
	return allowed == 1
}
