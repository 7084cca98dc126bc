package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/lexlab-ai/funnel/internal/adapter"
)

type memoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*Document
	broker      *Broker
	clock       adapter.Clock
}

// NewMemoryStore creates an in-process document store. Contents are lost on exit.
func NewMemoryStore(broker *Broker, clock adapter.Clock) Store {
	return &memoryStore{
		collections: make(map[string]map[string]*Document),
		broker:      broker,
		clock:       clock,
	}
}

func (s *memoryStore) Add(ctx context.Context, collection string, data any) (string, error) {
	body, err := encodeDocument(data)
	if err != nil {
		return "", err
	}

	now := s.clock.Now()
	id := ulid.MustNewDefault(now).String()

	s.mu.Lock()
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]*Document)
	}
	s.collections[collection][id] = &Document{
		ID:         id,
		Collection: collection,
		Data:       body,
		CreateTime: now,
		UpdateTime: now,
	}
	s.mu.Unlock()

	s.broker.Changed(ctx, collection)
	return id, nil
}

func (s *memoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *doc
	return &clone, nil
}

func (s *memoryStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	encoded, err := marshalFields(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	doc, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	merged, err := mergeDocument(doc.Data, encoded)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	doc.Data = merged
	doc.UpdateTime = s.clock.Now()
	s.mu.Unlock()

	s.broker.Changed(ctx, collection)
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	delete(s.collections[collection], id)
	s.mu.Unlock()

	s.broker.Changed(ctx, collection)
	return nil
}

func (s *memoryStore) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	docs := make([]Document, 0, len(s.collections[q.Collection]))
	for _, doc := range s.collections[q.Collection] {
		if matches(doc.Data, q.Filters) {
			docs = append(docs, *doc)
		}
	}
	s.mu.RUnlock()

	sortDocuments(docs, q.OrderBy)
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func (s *memoryStore) Subscribe(ctx context.Context, q Query, fn func([]Document)) (Unsubscribe, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return s.broker.subscribe(ctx, q.Collection, func(ctx context.Context) ([]Document, error) {
		return s.Query(ctx, q)
	}, fn)
}

func (s *memoryStore) Close() error {
	s.broker.Close()
	return nil
}

// fieldText returns the text form of a top-level field, matching what
// the SQL stores extract: strings unquoted, other values as JSON
func fieldText(data json.RawMessage, field string) (string, bool) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return "", false
	}
	raw, ok := body[field]
	if !ok || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(raw), true
}

func matches(data json.RawMessage, filters []Filter) bool {
	for _, f := range filters {
		v, ok := fieldText(data, f.Field)
		if !ok || v != f.Value {
			return false
		}
	}
	return true
}

// sortDocuments orders by the given field, ties broken by id. Missing fields sort first.
// Without an order, documents are returned in id (insertion) order.
func sortDocuments(docs []Document, order *OrderBy) {
	sort.SliceStable(docs, func(i, j int) bool {
		c := 0
		if order != nil {
			c = compareField(docs[i].Data, docs[j].Data, order.Field)
		}
		if c == 0 {
			c = strings.Compare(docs[i].ID, docs[j].ID)
		}
		if order != nil && order.Desc {
			return c > 0
		}
		return c < 0
	})
}

func compareField(a, b json.RawMessage, field string) int {
	av, aok := fieldText(a, field)
	bv, bok := fieldText(b, field)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}

	var an, bn json.Number
	if json.Unmarshal([]byte(av), &an) == nil && json.Unmarshal([]byte(bv), &bn) == nil {
		af, aerr := an.Float64()
		bf, berr := bn.Float64()
		if aerr == nil && berr == nil {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(av, bv)
}
