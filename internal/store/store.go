package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"
)

const (
	// CollectionLeads holds one document per lead
	CollectionLeads = "leads"
	// CollectionActivityLog holds the append-only audit entries
	CollectionActivityLog = "activity_log"
	// CollectionLOIEntries holds raw intake form submissions
	CollectionLOIEntries = "loi_entries"

	// Traction board collections
	CollectionMetrics     = "metrics"
	CollectionFirms       = "firms"
	CollectionCommitments = "commitments"
	CollectionInsights    = "insights"
	CollectionMilestones  = "milestones"
)

// ErrNotFound is returned when a document does not exist in the collection
var ErrNotFound = errors.New("document not found")

// ErrInvalidField is returned when a query references a field name that cannot be addressed
var ErrInvalidField = errors.New("invalid field name")

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Document is a stored JSON document identified by collection and id
type Document struct {
	ID         string
	Collection string
	Data       json.RawMessage
	CreateTime time.Time
	UpdateTime time.Time
}

// DataTo decodes the document body into v
func (d Document) DataTo(v any) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("failed to decode %s/%s: %w", d.Collection, d.ID, err)
	}
	return nil
}

// Filter is an equality match on a top-level document field
type Filter struct {
	Field string
	Value string
}

// OrderBy sorts query results by a top-level document field
type OrderBy struct {
	Field string
	Desc  bool
}

// Query selects documents from a collection
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    *OrderBy
	// Limit caps the number of results; zero means no limit
	Limit int
}

// Validate checks the query references only addressable field names
func (q Query) Validate() error {
	if q.Collection == "" {
		return errors.New("collection is required")
	}
	for _, f := range q.Filters {
		if !fieldNamePattern.MatchString(f.Field) {
			return fmt.Errorf("%w: %q", ErrInvalidField, f.Field)
		}
	}
	if q.OrderBy != nil && !fieldNamePattern.MatchString(q.OrderBy.Field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, q.OrderBy.Field)
	}
	if q.Limit < 0 {
		return fmt.Errorf("invalid limit: %d", q.Limit)
	}
	return nil
}

// Unsubscribe cancels a subscription. It is safe to call more than once.
type Unsubscribe func()

// Store is the document database boundary. Every write to a collection
// triggers a fresh snapshot for that collection's subscribers.
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// Add inserts a new document and returns its generated id
	Add(ctx context.Context, collection string, data any) (string, error)
	// Get retrieves a single document
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Update merges the given top-level fields into an existing document
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
	// Query returns the documents matching q
	Query(ctx context.Context, q Query) ([]Document, error)
	// Subscribe calls fn with the current result of q, then again with the full
	// result after every change to q.Collection until the returned func is called
	Subscribe(ctx context.Context, q Query, fn func([]Document)) (Unsubscribe, error)
	// Close releases the resources held by the store
	Close() error
}

// marshalFields encodes each field value to its JSON form
func marshalFields(fields map[string]any) (map[string]json.RawMessage, error) {
	encoded := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		if !fieldNamePattern.MatchString(k) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidField, k)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode field %s: %w", k, err)
		}
		encoded[k] = b
	}
	return encoded, nil
}

// mergeDocument applies a shallow merge of fields onto the JSON object in data
func mergeDocument(data []byte, fields map[string]json.RawMessage) ([]byte, error) {
	body := map[string]json.RawMessage{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
	}
	for k, v := range fields {
		body[k] = v
	}
	return json.Marshal(body)
}

// encodeDocument marshals data and checks that it is a JSON object
func encodeDocument(data any) ([]byte, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var object map[string]json.RawMessage
	if err := json.Unmarshal(b, &object); err != nil || object == nil {
		return nil, errors.New("document must be a JSON object")
	}
	return b, nil
}
