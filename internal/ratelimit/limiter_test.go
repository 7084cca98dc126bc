package ratelimit_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexlab-ai/funnel/internal/domain"
	"github.com/lexlab-ai/funnel/internal/logger"
	"github.com/lexlab-ai/funnel/internal/mocks"
	"github.com/lexlab-ai/funnel/internal/ratelimit"
)

func TestMain(m *testing.M) {
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// testLimiterMocks contains all the mocks needed for testing the limiter
type testLimiterMocks struct {
	ctrl             *gomock.Controller
	redisClient      *mocks.MockRedisClient
	redisRateLimiter *mocks.MockRedisRateLimiter
	clock            *mocks.MockClock

	mu  sync.Mutex
	now time.Time
}

func setupTestLimiter(t *testing.T) *testLimiterMocks {
	ctrl := gomock.NewController(t)
	tm := &testLimiterMocks{
		ctrl:             ctrl,
		redisClient:      mocks.NewMockRedisClient(ctrl),
		redisRateLimiter: mocks.NewMockRedisRateLimiter(ctrl),
		clock:            mocks.NewMockClock(ctrl),
		now:              time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	tm.clock.EXPECT().Now().DoAndReturn(func() time.Time {
		tm.mu.Lock()
		defer tm.mu.Unlock()
		return tm.now
	}).AnyTimes()
	return tm
}

func (tm *testLimiterMocks) advance(d time.Duration) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.now = tm.now.Add(d)
}

func (tm *testLimiterMocks) expectRedis(pingErr error) {
	tm.redisClient.EXPECT().NewRateLimiter().Return(tm.redisRateLimiter)
	tm.redisClient.EXPECT().Ping(gomock.Any()).Return(pingErr)
}

func TestNewLimiter_InvalidConfig(t *testing.T) {
	tm := setupTestLimiter(t)
	_, err := ratelimit.NewLimiter(ratelimit.Config{PerMinute: 0}, nil, tm.clock)
	assert.Error(t, err)
}

func TestLimiter_Local(t *testing.T) {
	tm := setupTestLimiter(t)
	ctx := context.Background()

	limiter, err := ratelimit.NewLimiter(ratelimit.Config{PerMinute: 3}, nil, tm.clock)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Allow(ctx, "10.0.0.1"), "attempt %d", i+1)
	}

	err = limiter.Allow(ctx, "10.0.0.1")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	var limitErr *ratelimit.LimitError
	require.True(t, errors.As(err, &limitErr))
	assert.InDelta(t, float64(20*time.Second), float64(limitErr.RetryAfter), float64(time.Millisecond))

	// other clients keep their own budget
	assert.NoError(t, limiter.Allow(ctx, "10.0.0.2"))

	// a rejected attempt does not consume a token
	tm.advance(21 * time.Second)
	assert.NoError(t, limiter.Allow(ctx, "10.0.0.1"))
	assert.ErrorIs(t, limiter.Allow(ctx, "10.0.0.1"), domain.ErrRateLimited)
}

func TestLimiter_Distributed(t *testing.T) {
	tm := setupTestLimiter(t)
	ctx := context.Background()
	tm.expectRedis(nil)

	limiter, err := ratelimit.NewLimiter(ratelimit.Config{PerMinute: 5, KeyPrefix: "funnel:login:"}, tm.redisClient, tm.clock)
	require.NoError(t, err)

	gomock.InOrder(
		tm.redisRateLimiter.EXPECT().
			Allow(gomock.Any(), "funnel:login:10.0.0.1", redis_rate.PerMinute(5)).
			Return(&redis_rate.Result{Allowed: 1, Remaining: 4}, nil),
		tm.redisRateLimiter.EXPECT().
			Allow(gomock.Any(), "funnel:login:10.0.0.1", redis_rate.PerMinute(5)).
			Return(&redis_rate.Result{Allowed: 0, RetryAfter: 10 * time.Second}, nil),
	)

	assert.NoError(t, limiter.Allow(ctx, "10.0.0.1"))

	err = limiter.Allow(ctx, "10.0.0.1")
	var limitErr *ratelimit.LimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 10*time.Second, limitErr.RetryAfter)
}

func TestLimiter_FallsBackWhenRedisFails(t *testing.T) {
	tm := setupTestLimiter(t)
	ctx := context.Background()
	tm.expectRedis(nil)

	limiter, err := ratelimit.NewLimiter(ratelimit.Config{PerMinute: 1, KeyPrefix: "funnel:login:"}, tm.redisClient, tm.clock)
	require.NoError(t, err)

	tm.redisRateLimiter.EXPECT().
		Allow(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection reset"))

	// served by the local limiter, and Redis is not asked again for a while
	assert.NoError(t, limiter.Allow(ctx, "10.0.0.1"))
	assert.ErrorIs(t, limiter.Allow(ctx, "10.0.0.1"), domain.ErrRateLimited)

	tm.advance(31 * time.Second)
	tm.redisRateLimiter.EXPECT().
		Allow(gomock.Any(), "funnel:login:10.0.0.1", gomock.Any()).
		Return(&redis_rate.Result{Allowed: 1}, nil)
	assert.NoError(t, limiter.Allow(ctx, "10.0.0.1"))
}

func TestLimiter_RedisDownAtStartup(t *testing.T) {
	tm := setupTestLimiter(t)
	ctx := context.Background()
	tm.expectRedis(errors.New("connection refused"))

	limiter, err := ratelimit.NewLimiter(ratelimit.Config{PerMinute: 2}, tm.redisClient, tm.clock)
	require.NoError(t, err)

	// no Allow expectation on the Redis limiter
	assert.NoError(t, limiter.Allow(ctx, "a"))
	assert.NoError(t, limiter.Allow(ctx, "a"))
	assert.ErrorIs(t, limiter.Allow(ctx, "a"), domain.ErrRateLimited)
}

func TestLimiter_ContextCanceled(t *testing.T) {
	tm := setupTestLimiter(t)
	tm.expectRedis(nil)

	limiter, err := ratelimit.NewLimiter(ratelimit.Config{PerMinute: 2}, tm.redisClient, tm.clock)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tm.redisRateLimiter.EXPECT().
		Allow(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, context.Canceled)

	assert.ErrorIs(t, limiter.Allow(ctx, "a"), context.Canceled)
}
