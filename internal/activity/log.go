package activity

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lexlab-ai/funnel/internal/domain"
	"github.com/lexlab-ai/funnel/internal/logger"
	"github.com/lexlab-ai/funnel/internal/store"
)

// DefaultLimit is the size of the activity window when no limit is given
const DefaultLimit = 50

// Appender records lead mutations. Only the lead service writes to the log.
type Appender interface {
	Append(ctx context.Context, entry domain.ActivityLogEntry) error
}

// Reader reads the most recent entries, newest first
type Reader interface {
	List(ctx context.Context, limit int) ([]domain.ActivityLogEntry, error)
	ListByLead(ctx context.Context, leadID string) ([]domain.ActivityLogEntry, error)
	Subscribe(ctx context.Context, limit int, fn func([]domain.ActivityLogEntry)) (store.Unsubscribe, error)
}

// entryDocument is the persisted form of an activity entry
type entryDocument struct {
	LeadID    string                `json:"leadId"`
	FirmName  string                `json:"firmName"`
	Action    domain.ActivityAction `json:"action"`
	From      *domain.Stage         `json:"from,omitempty"`
	To        *domain.Stage         `json:"to,omitempty"`
	Timestamp store.Timestamp       `json:"timestamp"`
	Note      string                `json:"note,omitempty"`
}

// Log is the activity log backed by the activity_log collection
type Log struct {
	store store.Store
}

// NewLog creates an activity log on the given document store
func NewLog(s store.Store) *Log {
	return &Log{store: s}
}

// Append writes one entry. Entries are never updated or deleted afterwards.
func (l *Log) Append(ctx context.Context, entry domain.ActivityLogEntry) error {
	doc := entryDocument{
		LeadID:    entry.LeadID,
		FirmName:  entry.FirmName,
		Action:    entry.Action,
		From:      entry.From,
		To:        entry.To,
		Timestamp: store.NewTimestamp(entry.Timestamp),
		Note:      entry.Note,
	}

	if _, err := l.store.Add(ctx, store.CollectionActivityLog, doc); err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

// List returns the latest limit entries. A non-positive limit means DefaultLimit.
func (l *Log) List(ctx context.Context, limit int) ([]domain.ActivityLogEntry, error) {
	docs, err := l.store.Query(ctx, recentQuery(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return toEntries(ctx, docs), nil
}

// ListByLead returns every entry recorded for a lead, newest first.
// Entries of deleted leads stay readable.
func (l *Log) ListByLead(ctx context.Context, leadID string) ([]domain.ActivityLogEntry, error) {
	docs, err := l.store.Query(ctx, store.Query{
		Collection: store.CollectionActivityLog,
		Filters:    []store.Filter{{Field: "leadId", Value: leadID}},
		OrderBy:    &store.OrderBy{Field: "timestamp", Desc: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list activity for lead %s: %w", leadID, err)
	}
	return toEntries(ctx, docs), nil
}

// Subscribe delivers the latest limit entries now and after every change to the log
func (l *Log) Subscribe(ctx context.Context, limit int, fn func([]domain.ActivityLogEntry)) (store.Unsubscribe, error) {
	return l.store.Subscribe(ctx, recentQuery(limit), func(docs []store.Document) {
		fn(toEntries(ctx, docs))
	})
}

func recentQuery(limit int) store.Query {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return store.Query{
		Collection: store.CollectionActivityLog,
		OrderBy:    &store.OrderBy{Field: "timestamp", Desc: true},
		Limit:      limit,
	}
}

// toEntries converts documents, skipping any that cannot be decoded
func toEntries(ctx context.Context, docs []store.Document) []domain.ActivityLogEntry {
	entries := make([]domain.ActivityLogEntry, 0, len(docs))
	for _, doc := range docs {
		var d entryDocument
		if err := doc.DataTo(&d); err != nil {
			logger.WarnCtx(ctx, "Skipping malformed activity entry", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		entries = append(entries, domain.ActivityLogEntry{
			ID:        doc.ID,
			LeadID:    d.LeadID,
			FirmName:  d.FirmName,
			Action:    d.Action,
			From:      d.From,
			To:        d.To,
			Timestamp: d.Timestamp.Time(),
			Note:      d.Note,
		})
	}
	return entries
}
