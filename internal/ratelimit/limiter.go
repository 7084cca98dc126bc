package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lexlab-ai/funnel/internal/adapter"
	"github.com/lexlab-ai/funnel/internal/domain"
	"github.com/lexlab-ai/funnel/internal/logger"
)

const (
	// redisRetryInterval is how long the limiter stays local after a Redis error
	redisRetryInterval = 30 * time.Second
	// maxLocalKeys bounds the local limiter table before idle keys are pruned
	maxLocalKeys = 4096
)

// Limiter throttles attempts per client key
//
//go:generate mockgen -source=limiter.go -destination=../mocks/ratelimit.go -package=mocks -mock_names=Limiter=MockRateLimiter
type Limiter interface {
	// Allow records one attempt for key. It returns a *LimitError when the
	// budget for the current window is spent.
	Allow(ctx context.Context, key string) error
}

// Config holds the limiter settings
type Config struct {
	PerMinute int
	KeyPrefix string
}

// LimitError reports a rejected attempt and when the next one may succeed
type LimitError struct {
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s: retry after %s", domain.ErrRateLimited, e.RetryAfter.Round(time.Second))
}

func (e *LimitError) Unwrap() error {
	return domain.ErrRateLimited
}

type limiter struct {
	config      Config
	distributed adapter.RedisRateLimiter
	clock       adapter.Clock

	// unix nanos before which Redis is skipped
	redisRetryAt atomic.Int64

	mu    sync.Mutex
	local map[string]*rate.Limiter
}

// NewLimiter creates a limiter. With a Redis client the budget is shared
// by all instances and the local table is only used while Redis is failing.
// A nil client gives a process-local limiter.
func NewLimiter(cfg Config, rc adapter.RedisClient, clock adapter.Clock) (Limiter, error) {
	if cfg.PerMinute <= 0 {
		return nil, fmt.Errorf("invalid rate limit: %d per minute", cfg.PerMinute)
	}

	l := &limiter{
		config: cfg,
		clock:  clock,
		local:  make(map[string]*rate.Limiter),
	}

	if rc != nil {
		l.distributed = rc.NewRateLimiter()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rc.Ping(ctx); err != nil {
			logger.Warn("Redis unavailable, will use local rate limiter", zap.Error(err))
			l.markRedisDown()
		}
	}

	logger.Info("Rate limiter initialized",
		zap.Int("per_minute", cfg.PerMinute),
		zap.Bool("distributed", rc != nil))

	return l, nil
}

func (l *limiter) Allow(ctx context.Context, key string) error {
	if l.distributed != nil && l.clock.Now().UnixNano() >= l.redisRetryAt.Load() {
		res, err := l.distributed.Allow(ctx, l.config.KeyPrefix+key, redis_rate.PerMinute(l.config.PerMinute))
		if err == nil {
			if res.Allowed == 0 {
				return &LimitError{RetryAfter: res.RetryAfter}
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		logger.WarnCtx(ctx, "Redis rate limiter error, falling back to local", zap.Error(err))
		l.markRedisDown()
	}

	return l.allowLocal(key)
}

func (l *limiter) markRedisDown() {
	l.redisRetryAt.Store(l.clock.Now().Add(redisRetryInterval).UnixNano())
}

func (l *limiter) allowLocal(key string) error {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.local[key]
	if !ok {
		if len(l.local) >= maxLocalKeys {
			l.prune(now)
		}
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.config.PerMinute)), l.config.PerMinute)
		l.local[key] = lim
	}

	reservation := lim.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return &LimitError{RetryAfter: delay}
	}
	return nil
}

// prune drops keys whose bucket has refilled. Caller holds mu.
func (l *limiter) prune(now time.Time) {
	for key, lim := range l.local {
		if lim.TokensAt(now) >= float64(lim.Burst()) {
			delete(l.local, key)
		}
	}
}
