package traction_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexlab-ai/funnel/internal/adapter"
	"github.com/lexlab-ai/funnel/internal/domain"
	"github.com/lexlab-ai/funnel/internal/logger"
	"github.com/lexlab-ai/funnel/internal/mocks"
	"github.com/lexlab-ai/funnel/internal/store"
	"github.com/lexlab-ai/funnel/internal/traction"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func setupTestBoard(t *testing.T) (*traction.Service, store.Store) {
	s := store.NewMemoryStore(store.NewBroker(2, nil), adapter.NewClock())
	t.Cleanup(func() { _ = s.Close() })
	return traction.NewService(s), s
}

func TestService_EmptyBoard(t *testing.T) {
	service, _ := setupTestBoard(t)

	board, err := service.Board(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.TractionMetrics{}, board.Metrics)
	assert.NotNil(t, board.Firms)
	assert.Empty(t, board.Firms)
	assert.Empty(t, board.Commitments)
	assert.Empty(t, board.Insights)
	assert.Empty(t, board.Milestones)
}

func TestService_SaveMetrics(t *testing.T) {
	service, s := setupTestBoard(t)
	ctx := context.Background()

	first := domain.TractionMetrics{FirmsContacted: 40, ActiveConversations: 12, NDAsExecuted: 3, LOIsSigned: 2, UpcomingMeetings: 5}
	require.NoError(t, service.SaveMetrics(ctx, first))

	second := first
	second.LOIsSigned = 4
	require.NoError(t, service.SaveMetrics(ctx, second))

	// saving again overwrites the single metrics document
	docs, err := s.Query(ctx, store.Query{Collection: store.CollectionMetrics})
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	board, err := service.Board(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, board.Metrics)
}

func TestService_ReadsExistingMetricsDocument(t *testing.T) {
	service, s := setupTestBoard(t)
	ctx := context.Background()

	_, err := s.Add(ctx, store.CollectionMetrics, map[string]any{
		"firms_contacted": 25,
		"lois_signed":     1,
	})
	require.NoError(t, err)

	board, err := service.Board(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, board.Metrics.FirmsContacted)
	assert.Equal(t, 1, board.Metrics.LOIsSigned)
	assert.Zero(t, board.Metrics.UpcomingMeetings)
}

func TestService_FirmLifecycle(t *testing.T) {
	service, _ := setupTestBoard(t)
	ctx := context.Background()

	id, err := service.AddFirm(ctx, domain.Firm{Name: "Mehta & Associates", Region: "Mumbai", FocusArea: "Corporate", Stage: "NDA"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, service.UpdateFirm(ctx, domain.Firm{ID: id, Name: "Mehta & Associates", Region: "Pune", FocusArea: "Litigation", Stage: "LOI"}))

	board, err := service.Board(ctx)
	require.NoError(t, err)
	require.Len(t, board.Firms, 1)
	assert.Equal(t, domain.Firm{ID: id, Name: "Mehta & Associates", Region: "Pune", FocusArea: "Litigation", Stage: "LOI"}, board.Firms[0])

	require.NoError(t, service.DeleteFirm(ctx, id))
	board, err = service.Board(ctx)
	require.NoError(t, err)
	assert.Empty(t, board.Firms)

	// deleting twice is not an error
	require.NoError(t, service.DeleteFirm(ctx, id))
}

func TestService_UpdateMissingItem(t *testing.T) {
	service, _ := setupTestBoard(t)
	ctx := context.Background()

	err := service.UpdateFirm(ctx, domain.Firm{ID: "missing", Name: "x", Region: "x", FocusArea: "x", Stage: "x"})
	assert.ErrorIs(t, err, domain.ErrBoardItemNotFound)

	err = service.UpdateCommitment(ctx, domain.Commitment{ID: "missing", Type: "NDA", Description: "x"})
	assert.ErrorIs(t, err, domain.ErrBoardItemNotFound)

	err = service.UpdateInsight(ctx, domain.Insight{ID: "missing", Text: "x", Order: 1})
	assert.ErrorIs(t, err, domain.ErrBoardItemNotFound)

	err = service.UpdateMilestone(ctx, domain.Milestone{ID: "missing", Goal: "x", TargetDate: "Q1", Order: 1})
	assert.ErrorIs(t, err, domain.ErrBoardItemNotFound)
}

func TestService_InsightsAndMilestonesSortedByOrder(t *testing.T) {
	service, s := setupTestBoard(t)
	ctx := context.Background()

	for _, insight := range []domain.Insight{
		{Text: "third", Order: 3},
		{Text: "first", Order: 1},
		{Text: "second", Order: 2},
	} {
		_, err := service.AddInsight(ctx, insight)
		require.NoError(t, err)
	}
	// a document without an order sorts first
	_, err := s.Add(ctx, store.CollectionInsights, map[string]any{"text": "unordered"})
	require.NoError(t, err)

	lateID, err := service.AddMilestone(ctx, domain.Milestone{Goal: "10 paid pilots", TargetDate: "June 2026", Order: 2})
	require.NoError(t, err)
	_, err = service.AddMilestone(ctx, domain.Milestone{Goal: "First paid pilot", TargetDate: "March 2026", Order: 1})
	require.NoError(t, err)

	board, err := service.Board(ctx)
	require.NoError(t, err)

	texts := make([]string, 0, len(board.Insights))
	for _, insight := range board.Insights {
		texts = append(texts, insight.Text)
	}
	assert.Equal(t, []string{"unordered", "first", "second", "third"}, texts)

	require.Len(t, board.Milestones, 2)
	assert.Equal(t, "First paid pilot", board.Milestones[0].Goal)
	assert.Equal(t, "10 paid pilots", board.Milestones[1].Goal)

	// moving a milestone to the front
	require.NoError(t, service.UpdateMilestone(ctx, domain.Milestone{ID: lateID, Goal: "10 paid pilots", TargetDate: "June 2026", Order: 0}))
	board, err = service.Board(ctx)
	require.NoError(t, err)
	assert.Equal(t, lateID, board.Milestones[0].ID)
}

func TestService_Commitments(t *testing.T) {
	service, _ := setupTestBoard(t)
	ctx := context.Background()

	id, err := service.AddCommitment(ctx, domain.Commitment{Type: "LOI", Description: "Tier-1 firm, 50 seats"})
	require.NoError(t, err)
	require.NoError(t, service.UpdateCommitment(ctx, domain.Commitment{ID: id, Type: "Paid pilot", Description: "Tier-1 firm, 50 seats"}))

	board, err := service.Board(ctx)
	require.NoError(t, err)
	require.Len(t, board.Commitments, 1)
	assert.Equal(t, "Paid pilot", board.Commitments[0].Type)

	require.NoError(t, service.DeleteCommitment(ctx, id))
	require.NoError(t, service.DeleteInsight(ctx, "missing"))
	require.NoError(t, service.DeleteMilestone(ctx, "missing"))
}

func TestService_StoreUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockStore(ctrl)
	service := traction.NewService(mockStore)
	ctx := context.Background()

	unavailable := errors.Join(domain.ErrStoreUnavailable, errors.New("connection refused"))
	mockStore.EXPECT().Query(gomock.Any(), gomock.Any()).Return(nil, unavailable).AnyTimes()
	mockStore.EXPECT().Add(gomock.Any(), store.CollectionFirms, gomock.Any()).Return("", unavailable)

	_, err := service.Board(ctx)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	err = service.SaveMetrics(ctx, domain.TractionMetrics{})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	_, err = service.AddFirm(ctx, domain.Firm{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
