package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/juparave/commitcast/internal/logging"
)

const redisKeyPrefix = "commitcast:rl"

// RedisStore is a fixed-window store backed by a shared Redis instance, for
// deployments running more than one replica. Windows are aligned to wall
// clock multiples of the configured duration, so every replica agrees on
// bucket boundaries without coordination.
type RedisStore struct {
	cfg    Config
	client *redis.Client
	now    func() time.Time
}

// RedisConfig defines the connection settings for a RedisStore
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	Database int
}

// NewRedisStore connects to Redis and verifies the connection before
// returning a usable store.
func NewRedisStore(rcfg RedisConfig, cfg Config) (*RedisStore, error) {
	addr := rcfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: rcfg.Username,
		Password: rcfg.Password,
		DB:       rcfg.Database,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{cfg: cfg, client: client, now: time.Now}, nil
}

// Consume spends one unit of key's budget. INCR is atomic on the Redis
// side, so concurrent replicas never over-approve a window. If Redis is
// unreachable the store fails open: losing a rate-limit decision must not
// take down the generation path.
func (s *RedisStore) Consume(ctx context.Context, key string) Decision {
	now := s.now()
	windowIdx := now.UnixMilli() / s.cfg.Window.Milliseconds()
	windowStart := time.UnixMilli(windowIdx * s.cfg.Window.Milliseconds())
	resetAt := windowStart.Add(s.cfg.Window)

	rkey := fmt.Sprintf("%s:%s:%d", redisKeyPrefix, key, windowIdx)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, rkey)
	// Expire a full window after the boundary so late stragglers still see
	// the counter; the window index keeps old counters out of new decisions.
	pipe.PExpire(ctx, rkey, 2*s.cfg.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		logging.Warnf("redis rate-limit unavailable, allowing request: %v", err)
		return Decision{Allowed: true, Remaining: s.cfg.Limit - 1, Limit: s.cfg.Limit, ResetAt: resetAt}
	}

	count := int(incr.Val())
	remaining := s.cfg.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   count <= s.cfg.Limit,
		Remaining: remaining,
		Limit:     s.cfg.Limit,
		ResetAt:   resetAt,
	}
}

// Close releases the underlying connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}
