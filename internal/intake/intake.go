package intake

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lexlab-ai/funnel/internal/adapter"
	"github.com/lexlab-ai/funnel/internal/domain"
	"github.com/lexlab-ai/funnel/internal/leads"
	"github.com/lexlab-ai/funnel/internal/logger"
	"github.com/lexlab-ai/funnel/internal/store"
)

// entryDocument is the persisted form of an intake entry.
// The submission fields are stored flat next to the pipeline fields.
type entryDocument struct {
	domain.LOISubmission
	Stage     string          `json:"stage"`
	Source    string          `json:"source"`
	Timestamp store.Timestamp `json:"timestamp"`
}

// SubmitResult identifies the documents written for one submission
type SubmitResult struct {
	EntryID string `json:"entry_id"`
	LeadID  string `json:"lead_id"`
}

// Service stores Letter of Intent submissions and turns each into a Suspect lead
type Service struct {
	store store.Store
	leads leads.Service
	clock adapter.Clock
}

// NewService creates the intake service
func NewService(s store.Store, leadService leads.Service, clock adapter.Clock) *Service {
	return &Service{store: s, leads: leadService, clock: clock}
}

// Submit writes the intake entry and then creates the lead. The writes are
// independent: when the lead cannot be created the stored entry id is still returned.
func (s *Service) Submit(ctx context.Context, submission domain.LOISubmission) (*SubmitResult, error) {
	entryID, err := s.store.Add(ctx, store.CollectionLOIEntries, entryDocument{
		LOISubmission: submission,
		Stage:         domain.LOIStageProspect,
		Source:        domain.LOISourcePilotForm,
		Timestamp:     store.NewTimestamp(s.clock.Now()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store intake entry: %w", err)
	}

	result := &SubmitResult{EntryID: entryID}

	leadID, err := s.leads.Create(ctx, domain.LeadInput{
		FirmName:    submission.FirmName,
		ContactName: submission.Name,
		Email:       submission.Email,
		Phone:       submission.Mobile,
		Stage:       domain.StageSuspect,
		Notes:       Notes(submission),
	})
	result.LeadID = leadID
	if err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("message", "Intake entry stored without complete lead"),
			zap.String("entry_id", entryID),
			zap.String("lead_id", leadID))
		return result, fmt.Errorf("intake entry %s: %w", entryID, err)
	}

	logger.InfoCtx(ctx, "Intake submitted",
		zap.String("entry_id", entryID),
		zap.String("lead_id", leadID),
		zap.String("firm_name", submission.FirmName))

	return result, nil
}

// List returns all intake entries, newest first
func (s *Service) List(ctx context.Context) ([]domain.LOIEntry, error) {
	docs, err := s.store.Query(ctx, store.Query{
		Collection: store.CollectionLOIEntries,
		OrderBy:    &store.OrderBy{Field: "timestamp", Desc: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list intake entries: %w", err)
	}

	entries := make([]domain.LOIEntry, 0, len(docs))
	for _, doc := range docs {
		var d entryDocument
		if err := doc.DataTo(&d); err != nil {
			logger.WarnCtx(ctx, "Skipping malformed intake entry", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		entries = append(entries, domain.LOIEntry{
			ID:         doc.ID,
			Submission: d.LOISubmission,
			Stage:      d.Stage,
			Source:     d.Source,
			Timestamp:  d.Timestamp.Time(),
		})
	}
	return entries, nil
}

// Notes renders a submission into the free-text notes of its lead
func Notes(s domain.LOISubmission) string {
	workflows := strings.Join(s.Workflows, ", ")
	if s.WorkflowsOther != "" {
		workflows += fmt.Sprintf(" (Other: %s)", s.WorkflowsOther)
	}

	lines := []string{
		"Workflows: " + workflows,
		"Documents/Month: " + s.DocumentsPerMonth,
		"Paid Pilot: " + s.PaidPilotReadiness,
		"Samples: " + s.ShareSamples,
		"Choice: " + s.ParticipationChoice,
		"Practice: " + s.PracticeFocus,
		"Team Size: " + s.TeamSize,
		"City: " + s.City,
	}
	return strings.Join(lines, "\n")
}
