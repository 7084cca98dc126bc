package intake_test

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
	"github.com/lexlab-ai/funnel/internal/intake"
	"github.com/lexlab-ai/funnel/internal/leads"
	"github.com/lexlab-ai/funnel/internal/logger"
	"github.com/lexlab-ai/funnel/internal/mocks"
	"github.com/lexlab-ai/funnel/internal/store"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func sampleSubmission() domain.LOISubmission {
	return domain.LOISubmission{
		FirmName:            "Mehta & Associates",
		City:                "Mumbai",
		TeamSize:            "11-50",
		PracticeFocus:       "Corporate",
		Email:               "r@mehta.in",
		Name:                "R Mehta",
		Mobile:              "+91 98200 00000",
		Workflows:           []string{"Contract summarization", "Clause extraction"},
		WorkflowsOther:      "Board minutes",
		DocumentsPerMonth:   "100-500",
		PaidPilotReadiness:  "Yes",
		ShareSamples:        "Redacted only",
		ParticipationChoice: "Pilot partner",
	}
}

func TestNotes(t *testing.T) {
	want := "Workflows: Contract summarization, Clause extraction (Other: Board minutes)\n" +
		"Documents/Month: 100-500\n" +
		"Paid Pilot: Yes\n" +
		"Samples: Redacted only\n" +
		"Choice: Pilot partner\n" +
		"Practice: Corporate\n" +
		"Team Size: 11-50\n" +
		"City: Mumbai"
	assert.Equal(t, want, intake.Notes(sampleSubmission()))

	s := sampleSubmission()
	s.WorkflowsOther = ""
	assert.Contains(t, intake.Notes(s), "Workflows: Contract summarization, Clause extraction\n")
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()
	clock := adapter.NewClock()
	s := store.NewMemoryStore(store.NewBroker(2, nil), clock)
	t.Cleanup(func() { _ = s.Close() })
	leadService := leads.NewService(s, activity.NewLog(s), clock)
	service := intake.NewService(s, leadService, clock)

	result, err := service.Submit(ctx, sampleSubmission())
	require.NoError(t, err)
	assert.NotEmpty(t, result.EntryID)
	assert.NotEmpty(t, result.LeadID)

	lead, err := leadService.Get(ctx, result.LeadID)
	require.NoError(t, err)
	assert.Equal(t, "Mehta & Associates", lead.FirmName)
	assert.Equal(t, "R Mehta", lead.ContactName)
	assert.Equal(t, "r@mehta.in", lead.Email)
	assert.Equal(t, "+91 98200 00000", lead.Phone)
	assert.Equal(t, domain.StageSuspect, lead.Stage)
	assert.Equal(t, intake.Notes(sampleSubmission()), lead.Notes)

	entries, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, result.EntryID, entries[0].ID)
	assert.Equal(t, domain.LOIStageProspect, entries[0].Stage)
	assert.Equal(t, domain.LOISourcePilotForm, entries[0].Source)
	assert.Equal(t, sampleSubmission(), entries[0].Submission)
	assert.WithinDuration(t, time.Now(), entries[0].Timestamp, time.Minute)

	// the entry is stored flat
	doc, err := s.Get(ctx, store.CollectionLOIEntries, result.EntryID)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, doc.DataTo(&raw))
	assert.Equal(t, "Mehta & Associates", raw["firmName"])
	assert.Equal(t, "pilot_form_v2", raw["source"])
}

func TestService_SubmitLeadFailure(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	clock := adapter.NewClock()
	s := store.NewMemoryStore(store.NewBroker(2, nil), clock)
	t.Cleanup(func() { _ = s.Close() })
	leadService := mocks.NewMockLeadService(ctrl)
	service := intake.NewService(s, leadService, clock)

	leadService.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input domain.LeadInput) (string, error) {
			assert.Equal(t, domain.StageSuspect, input.Stage)
			return "", domain.ErrStoreUnavailable
		})

	result, err := service.Submit(ctx, sampleSubmission())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.EntryID)
	assert.Empty(t, result.LeadID)

	entries, err := service.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "the entry is kept")
}

func TestService_SubmitEntryFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := mocks.NewMockStore(ctrl)
	leadService := mocks.NewMockLeadService(ctrl)
	service := intake.NewService(mockStore, leadService, adapter.NewClock())

	mockStore.EXPECT().
		Add(gomock.Any(), store.CollectionLOIEntries, gomock.Any()).
		Return("", errors.Join(domain.ErrStoreUnavailable, errors.New("timeout")))

	result, err := service.Submit(context.Background(), sampleSubmission())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Nil(t, result)
}

func TestService_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	clock := mocks.NewMockClock(ctrl)
	s := store.NewMemoryStore(store.NewBroker(2, nil), adapter.NewClock())
	t.Cleanup(func() { _ = s.Close() })
	leadService := mocks.NewMockLeadService(ctrl)
	service := intake.NewService(s, leadService, clock)

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	gomock.InOrder(
		clock.EXPECT().Now().Return(base),
		clock.EXPECT().Now().Return(base.Add(time.Hour)),
	)
	leadService.EXPECT().Create(gomock.Any(), gomock.Any()).Return("lead", nil).Times(2)

	first := sampleSubmission()
	second := sampleSubmission()
	second.FirmName = "Later Firm"
	_, err := service.Submit(ctx, first)
	require.NoError(t, err)
	_, err = service.Submit(ctx, second)
	require.NoError(t, err)

	entries, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Later Firm", entries[0].Submission.FirmName)
	assert.True(t, entries[0].Timestamp.Equal(base.Add(time.Hour)))
}
