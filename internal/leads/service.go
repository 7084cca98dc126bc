package leads

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/lexlab-ai/funnel/internal/activity"
	"github.com/lexlab-ai/funnel/internal/adapter"
	"github.com/lexlab-ai/funnel/internal/domain"
	"github.com/lexlab-ai/funnel/internal/logger"
	"github.com/lexlab-ai/funnel/internal/store"
)

const (
	// CreatedNote is the note on the first history entry of every lead
	CreatedNote = "Lead created"
	// UnknownFirmName is logged for field updates that do not carry a firm name
	UnknownFirmName = "Unknown"
)

// Service owns lead identity, attributes and stage history.
// Every create, field update and stage change appends one activity entry.
// The lead write and the activity append are independent: a failed append
// is returned to the caller but the lead write is not undone.
//
//go:generate mockgen -source=service.go -destination=../mocks/leads.go -package=mocks -mock_names=Service=MockLeadService
type Service interface {
	// Create stores a new lead and returns its id
	Create(ctx context.Context, input domain.LeadInput) (string, error)
	// UpdateFields merges the non-nil fields and refreshes lastUpdated
	UpdateFields(ctx context.Context, id string, update domain.LeadUpdate) error
	// ChangeStage appends a transition from oldStage to newStage. oldStage is
	// taken from the caller and is not compared with the stored stage.
	ChangeStage(ctx context.Context, id string, newStage, oldStage domain.Stage, firmName, note string) error
	// Delete removes the lead. Its activity entries are kept.
	Delete(ctx context.Context, id string) error
	// Get returns a single lead
	Get(ctx context.Context, id string) (*domain.Lead, error)
	// List returns all leads, most recently updated first
	List(ctx context.Context) ([]domain.Lead, error)
	// ListByStage returns the leads currently in stage, most recently updated first
	ListByStage(ctx context.Context, stage domain.Stage) ([]domain.Lead, error)
	// Subscribe delivers the full ordered lead list now and after every change
	Subscribe(ctx context.Context, fn func([]domain.Lead)) (store.Unsubscribe, error)
}

type service struct {
	store store.Store
	log   activity.Appender
	clock adapter.Clock
}

// NewService creates the lead service
func NewService(s store.Store, log activity.Appender, clock adapter.Clock) Service {
	return &service{store: s, log: log, clock: clock}
}

func (s *service) Create(ctx context.Context, input domain.LeadInput) (string, error) {
	if !input.Stage.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidStage, input.Stage)
	}

	now := s.clock.Now()
	ts := store.NewTimestamp(now)
	doc := leadDocument{
		FirmName:    input.FirmName,
		ContactName: input.ContactName,
		Email:       input.Email,
		Phone:       input.Phone,
		Stage:       input.Stage,
		Notes:       input.Notes,
		CreatedAt:   ts,
		LastUpdated: ts,
		StageHistory: []transitionDocument{
			{From: nil, To: input.Stage, Timestamp: ts, Note: CreatedNote},
		},
	}

	id, err := s.store.Add(ctx, store.CollectionLeads, doc)
	if err != nil {
		return "", fmt.Errorf("failed to create lead: %w", err)
	}

	logger.InfoCtx(ctx, "Lead created",
		zap.String("lead_id", id),
		zap.String("firm_name", input.FirmName),
		zap.String("stage", string(input.Stage)))

	err = s.log.Append(ctx, domain.ActivityLogEntry{
		LeadID:    id,
		FirmName:  input.FirmName,
		Action:    domain.ActivityActionCreated,
		To:        domain.StagePtr(input.Stage),
		Timestamp: now,
	})
	if err != nil {
		return id, fmt.Errorf("lead %s created without activity entry: %w", id, err)
	}

	return id, nil
}

func (s *service) UpdateFields(ctx context.Context, id string, update domain.LeadUpdate) error {
	now := s.clock.Now()

	fields := map[string]any{
		"lastUpdated": store.NewTimestamp(now),
	}
	if update.FirmName != nil {
		fields["firmName"] = *update.FirmName
	}
	if update.ContactName != nil {
		fields["contactName"] = *update.ContactName
	}
	if update.Email != nil {
		fields["email"] = *update.Email
	}
	if update.Phone != nil {
		fields["phone"] = *update.Phone
	}
	if update.Notes != nil {
		fields["notes"] = *update.Notes
	}

	if err := s.store.Update(ctx, store.CollectionLeads, id, fields); err != nil {
		return mapNotFound(id, err)
	}

	firmName := UnknownFirmName
	if update.FirmName != nil && *update.FirmName != "" {
		firmName = *update.FirmName
	}

	err := s.log.Append(ctx, domain.ActivityLogEntry{
		LeadID:    id,
		FirmName:  firmName,
		Action:    domain.ActivityActionUpdated,
		Timestamp: now,
	})
	if err != nil {
		return fmt.Errorf("lead %s updated without activity entry: %w", id, err)
	}

	return nil
}

func (s *service) ChangeStage(ctx context.Context, id string, newStage, oldStage domain.Stage, firmName, note string) error {
	if !newStage.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStage, newStage)
	}
	if !oldStage.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStage, oldStage)
	}

	now := s.clock.Now()

	// Read-modify-write without a version check: two concurrent changes on
	// the same lead both append to the history they read and the last write wins.
	doc, err := s.store.Get(ctx, store.CollectionLeads, id)
	if err != nil {
		return mapNotFound(id, err)
	}
	var current leadDocument
	if err := doc.DataTo(&current); err != nil {
		return err
	}

	history := append(current.StageHistory, toTransitionDocument(domain.StageTransition{
		From:      domain.StagePtr(oldStage),
		To:        newStage,
		Timestamp: now,
		Note:      note,
	}))

	err = s.store.Update(ctx, store.CollectionLeads, id, map[string]any{
		"stage":        newStage,
		"lastUpdated":  store.NewTimestamp(now),
		"stageHistory": history,
	})
	if err != nil {
		return mapNotFound(id, err)
	}

	logger.InfoCtx(ctx, "Lead stage changed",
		zap.String("lead_id", id),
		zap.String("from", string(oldStage)),
		zap.String("to", string(newStage)))

	err = s.log.Append(ctx, domain.ActivityLogEntry{
		LeadID:    id,
		FirmName:  firmName,
		Action:    domain.ActivityActionStageChanged,
		From:      domain.StagePtr(oldStage),
		To:        domain.StagePtr(newStage),
		Timestamp: now,
		Note:      note,
	})
	if err != nil {
		return fmt.Errorf("lead %s stage changed without activity entry: %w", id, err)
	}

	return nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, store.CollectionLeads, id); err != nil {
		return fmt.Errorf("failed to delete lead %s: %w", id, err)
	}
	logger.InfoCtx(ctx, "Lead deleted", zap.String("lead_id", id))
	return nil
}

func (s *service) Get(ctx context.Context, id string) (*domain.Lead, error) {
	doc, err := s.store.Get(ctx, store.CollectionLeads, id)
	if err != nil {
		return nil, mapNotFound(id, err)
	}
	lead, err := toLead(*doc)
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (s *service) List(ctx context.Context) ([]domain.Lead, error) {
	return s.query(ctx, recentQuery(nil))
}

func (s *service) ListByStage(ctx context.Context, stage domain.Stage) ([]domain.Lead, error) {
	if !stage.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStage, stage)
	}
	return s.query(ctx, recentQuery(&stage))
}

func (s *service) Subscribe(ctx context.Context, fn func([]domain.Lead)) (store.Unsubscribe, error) {
	return s.store.Subscribe(ctx, recentQuery(nil), func(docs []store.Document) {
		fn(toLeads(ctx, docs))
	})
}

func (s *service) query(ctx context.Context, q store.Query) ([]domain.Lead, error) {
	docs, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return toLeads(ctx, docs), nil
}

func recentQuery(stage *domain.Stage) store.Query {
	q := store.Query{
		Collection: store.CollectionLeads,
		OrderBy:    &store.OrderBy{Field: "lastUpdated", Desc: true},
	}
	if stage != nil {
		q.Filters = []store.Filter{{Field: "stage", Value: string(*stage)}}
	}
	return q
}

// toLeads converts documents, skipping any that cannot be decoded
func toLeads(ctx context.Context, docs []store.Document) []domain.Lead {
	leads := make([]domain.Lead, 0, len(docs))
	for _, doc := range docs {
		lead, err := toLead(doc)
		if err != nil {
			logger.WarnCtx(ctx, "Skipping malformed lead", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		leads = append(leads, lead)
	}
	sortRecentFirst(leads)
	return leads
}

// sortRecentFirst orders by decoded LastUpdated. The store orders by the raw
// field, which misplaces legacy documents holding epoch milliseconds.
// Ties keep the store order.
func sortRecentFirst(leads []domain.Lead) {
	slices.SortStableFunc(leads, func(a, b domain.Lead) int {
		return b.LastUpdated.Compare(a.LastUpdated)
	})
}

func mapNotFound(id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrLeadNotFound, id)
	}
	return err
}
