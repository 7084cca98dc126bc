package traction

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/lexlab-ai/funnel/internal/domain"
	"github.com/lexlab-ai/funnel/internal/logger"
	"github.com/lexlab-ai/funnel/internal/store"
)

type firmDocument struct {
	Name      string `json:"name"`
	Region    string `json:"region"`
	FocusArea string `json:"focus_area"`
	Stage     string `json:"stage"`
}

type commitmentDocument struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type insightDocument struct {
	Text  string `json:"text"`
	Order int    `json:"order"`
}

type milestoneDocument struct {
	Goal       string `json:"goal"`
	TargetDate string `json:"target_date"`
	Order      int    `json:"order"`
}

// Service manages the public traction board. Items are replaced as a whole on
// update, the metrics collection holds a single document.
type Service struct {
	store store.Store
}

// NewService creates the traction board service
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// Board reads the metrics and every board item. Metrics read as zero until first saved.
func (s *Service) Board(ctx context.Context) (*domain.TractionBoard, error) {
	metrics, _, err := s.metrics(ctx)
	if err != nil {
		return nil, err
	}

	firms, err := list(ctx, s.store, store.CollectionFirms, func(id string, d firmDocument) domain.Firm {
		return domain.Firm{ID: id, Name: d.Name, Region: d.Region, FocusArea: d.FocusArea, Stage: d.Stage}
	})
	if err != nil {
		return nil, err
	}

	commitments, err := list(ctx, s.store, store.CollectionCommitments, func(id string, d commitmentDocument) domain.Commitment {
		return domain.Commitment{ID: id, Type: d.Type, Description: d.Description}
	})
	if err != nil {
		return nil, err
	}

	insights, err := list(ctx, s.store, store.CollectionInsights, func(id string, d insightDocument) domain.Insight {
		return domain.Insight{ID: id, Text: d.Text, Order: d.Order}
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(insights, func(a, b domain.Insight) int { return cmp.Compare(a.Order, b.Order) })

	milestones, err := list(ctx, s.store, store.CollectionMilestones, func(id string, d milestoneDocument) domain.Milestone {
		return domain.Milestone{ID: id, Goal: d.Goal, TargetDate: d.TargetDate, Order: d.Order}
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(milestones, func(a, b domain.Milestone) int { return cmp.Compare(a.Order, b.Order) })

	return &domain.TractionBoard{
		Metrics:     metrics,
		Firms:       firms,
		Commitments: commitments,
		Insights:    insights,
		Milestones:  milestones,
	}, nil
}

// SaveMetrics overwrites the board counters
func (s *Service) SaveMetrics(ctx context.Context, m domain.TractionMetrics) error {
	_, id, err := s.metrics(ctx)
	if err != nil {
		return err
	}

	if id == "" {
		if _, err := s.store.Add(ctx, store.CollectionMetrics, m); err != nil {
			return fmt.Errorf("failed to save metrics: %w", err)
		}
		return nil
	}

	err = s.store.Update(ctx, store.CollectionMetrics, id, map[string]any{
		"firms_contacted":      m.FirmsContacted,
		"active_conversations": m.ActiveConversations,
		"ndas_executed":        m.NDAsExecuted,
		"lois_signed":          m.LOIsSigned,
		"upcoming_meetings":    m.UpcomingMeetings,
	})
	if err != nil {
		return fmt.Errorf("failed to save metrics: %w", err)
	}
	return nil
}

// metrics returns the first metrics document and its id, or zero values when there is none
func (s *Service) metrics(ctx context.Context) (domain.TractionMetrics, string, error) {
	docs, err := s.store.Query(ctx, store.Query{Collection: store.CollectionMetrics, Limit: 1})
	if err != nil {
		return domain.TractionMetrics{}, "", fmt.Errorf("failed to read metrics: %w", err)
	}
	if len(docs) == 0 {
		return domain.TractionMetrics{}, "", nil
	}

	var m domain.TractionMetrics
	if err := docs[0].DataTo(&m); err != nil {
		logger.WarnCtx(ctx, "Ignoring malformed metrics document", zap.String("id", docs[0].ID), zap.Error(err))
		return domain.TractionMetrics{}, docs[0].ID, nil
	}
	return m, docs[0].ID, nil
}

func (s *Service) AddFirm(ctx context.Context, f domain.Firm) (string, error) {
	return s.add(ctx, store.CollectionFirms, firmDocument{Name: f.Name, Region: f.Region, FocusArea: f.FocusArea, Stage: f.Stage})
}

func (s *Service) UpdateFirm(ctx context.Context, f domain.Firm) error {
	return s.replace(ctx, store.CollectionFirms, f.ID, map[string]any{
		"name":       f.Name,
		"region":     f.Region,
		"focus_area": f.FocusArea,
		"stage":      f.Stage,
	})
}

func (s *Service) DeleteFirm(ctx context.Context, id string) error {
	return s.delete(ctx, store.CollectionFirms, id)
}

func (s *Service) AddCommitment(ctx context.Context, c domain.Commitment) (string, error) {
	return s.add(ctx, store.CollectionCommitments, commitmentDocument{Type: c.Type, Description: c.Description})
}

func (s *Service) UpdateCommitment(ctx context.Context, c domain.Commitment) error {
	return s.replace(ctx, store.CollectionCommitments, c.ID, map[string]any{
		"type":        c.Type,
		"description": c.Description,
	})
}

func (s *Service) DeleteCommitment(ctx context.Context, id string) error {
	return s.delete(ctx, store.CollectionCommitments, id)
}

func (s *Service) AddInsight(ctx context.Context, i domain.Insight) (string, error) {
	return s.add(ctx, store.CollectionInsights, insightDocument{Text: i.Text, Order: i.Order})
}

func (s *Service) UpdateInsight(ctx context.Context, i domain.Insight) error {
	return s.replace(ctx, store.CollectionInsights, i.ID, map[string]any{
		"text":  i.Text,
		"order": i.Order,
	})
}

func (s *Service) DeleteInsight(ctx context.Context, id string) error {
	return s.delete(ctx, store.CollectionInsights, id)
}

func (s *Service) AddMilestone(ctx context.Context, m domain.Milestone) (string, error) {
	return s.add(ctx, store.CollectionMilestones, milestoneDocument{Goal: m.Goal, TargetDate: m.TargetDate, Order: m.Order})
}

func (s *Service) UpdateMilestone(ctx context.Context, m domain.Milestone) error {
	return s.replace(ctx, store.CollectionMilestones, m.ID, map[string]any{
		"goal":        m.Goal,
		"target_date": m.TargetDate,
		"order":       m.Order,
	})
}

func (s *Service) DeleteMilestone(ctx context.Context, id string) error {
	return s.delete(ctx, store.CollectionMilestones, id)
}

func (s *Service) add(ctx context.Context, collection string, doc any) (string, error) {
	id, err := s.store.Add(ctx, collection, doc)
	if err != nil {
		return "", fmt.Errorf("failed to add %s item: %w", collection, err)
	}

	logger.InfoCtx(ctx, "Board item added", zap.String("collection", collection), zap.String("id", id))
	return id, nil
}

// replace writes every field of an existing item
func (s *Service) replace(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := s.store.Update(ctx, collection, id, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s/%s", domain.ErrBoardItemNotFound, collection, id)
		}
		return fmt.Errorf("failed to update %s item: %w", collection, err)
	}
	return nil
}

func (s *Service) delete(ctx context.Context, collection, id string) error {
	if err := s.store.Delete(ctx, collection, id); err != nil {
		return fmt.Errorf("failed to delete %s item: %w", collection, err)
	}
	return nil
}

// list decodes every document of a collection, skipping malformed ones
func list[D, T any](ctx context.Context, s store.Store, collection string, convert func(id string, d D) T) ([]T, error) {
	docs, err := s.Query(ctx, store.Query{Collection: collection})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}

	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		var d D
		if err := doc.DataTo(&d); err != nil {
			logger.WarnCtx(ctx, "Skipping malformed board item", zap.String("collection", collection), zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		items = append(items, convert(doc.ID, d))
	}
	return items, nil
}
