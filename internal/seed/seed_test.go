package seed_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexlab-ai/funnel/internal/activity"
	"github.com/lexlab-ai/funnel/internal/adapter"
	"github.com/lexlab-ai/funnel/internal/domain"
	"github.com/lexlab-ai/funnel/internal/leads"
	"github.com/lexlab-ai/funnel/internal/logger"
	"github.com/lexlab-ai/funnel/internal/mocks"
	"github.com/lexlab-ai/funnel/internal/seed"
	"github.com/lexlab-ai/funnel/internal/store"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// firedAfter returns a channel that is already ready
func firedAfter(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func TestSampleLeads(t *testing.T) {
	samples := seed.SampleLeads()
	require.Len(t, samples, 8)

	counts := map[domain.Stage]int{}
	for _, s := range samples {
		assert.True(t, s.Stage.Valid())
		assert.NotEmpty(t, s.FirmName)
		assert.Contains(t, s.Email, "@")
		counts[s.Stage]++
	}
	assert.Equal(t, map[domain.Stage]int{
		domain.StageCustomer:    1,
		domain.StageOpportunity: 2,
		domain.StageProspect:    3,
		domain.StageSuspect:     2,
	}, counts)
}

func TestSeed(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(time.Now()).AnyTimes()
	clock.EXPECT().After(500 * time.Millisecond).DoAndReturn(firedAfter).Times(7)

	s := store.NewMemoryStore(store.NewBroker(2, nil), adapter.NewClock())
	t.Cleanup(func() { _ = s.Close() })
	log := activity.NewLog(s)
	svc := leads.NewService(s, log, clock)
	ctx := context.Background()

	created, err := seed.Seed(ctx, svc, clock, 500*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 8, created)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 8)

	entries, err := log.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 8)
}

func TestSeed_StopsAtFirstError(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := mocks.NewMockClock(ctrl)
	svc := mocks.NewMockLeadService(ctrl)

	gomock.InOrder(
		svc.EXPECT().Create(gomock.Any(), gomock.Any()).Return("a", nil),
		svc.EXPECT().Create(gomock.Any(), gomock.Any()).Return("b", nil),
		svc.EXPECT().Create(gomock.Any(), gomock.Any()).Return("", domain.ErrStoreUnavailable),
	)

	created, err := seed.Seed(context.Background(), svc, clock, 0)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, 2, created)
}

func TestSeed_Canceled(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := mocks.NewMockClock(ctrl)
	svc := mocks.NewMockLeadService(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	svc.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, domain.LeadInput) (string, error) {
		cancel()
		return "a", nil
	})
	clock.EXPECT().After(time.Second).DoAndReturn(func(time.Duration) <-chan time.Time {
		return make(chan time.Time)
	})

	created, err := seed.Seed(ctx, svc, clock, time.Second)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, created)
}
