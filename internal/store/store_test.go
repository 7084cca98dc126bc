package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexlab-ai/funnel/internal/store"
)

// storeFactory returns a fresh, empty store and the broker it publishes to
type storeFactory func(t *testing.T) (store.Store, *store.Broker)

type record struct {
	Name  string          `json:"name"`
	Stage string          `json:"stage"`
	At    store.Timestamp `json:"at"`
	Notes string          `json:"notes,omitempty"`
}

// snapshotRecorder keeps the latest snapshot delivered to a subscriber
type snapshotRecorder struct {
	mu     sync.Mutex
	calls  int
	latest []store.Document
}

func (r *snapshotRecorder) record(docs []store.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.latest = docs
}

func (r *snapshotRecorder) snapshot() (int, []store.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls, r.latest
}

func names(t *testing.T, docs []store.Document) []string {
	t.Helper()
	result := make([]string, 0, len(docs))
	for _, doc := range docs {
		var r record
		require.NoError(t, doc.DataTo(&r))
		result = append(result, r.Name)
	}
	return result
}

// runStoreTests exercises the Store contract against any implementation
func runStoreTests(t *testing.T, newStore storeFactory) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	t.Run("AddAndGet", func(t *testing.T) {
		s, _ := newStore(t)
		ctx := context.Background()

		id, err := s.Add(ctx, "leads", record{Name: "Acme Legal", Stage: "Suspect", At: store.NewTimestamp(base)})
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		doc, err := s.Get(ctx, "leads", id)
		require.NoError(t, err)
		assert.Equal(t, id, doc.ID)
		assert.Equal(t, "leads", doc.Collection)

		var got record
		require.NoError(t, doc.DataTo(&got))
		assert.Equal(t, "Acme Legal", got.Name)
		assert.True(t, base.Equal(got.At.Time()))
	})

	t.Run("GetMissing", func(t *testing.T) {
		s, _ := newStore(t)

		_, err := s.Get(context.Background(), "leads", "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("GetIsScopedToCollection", func(t *testing.T) {
		s, _ := newStore(t)
		ctx := context.Background()

		id, err := s.Add(ctx, "leads", record{Name: "Acme Legal"})
		require.NoError(t, err)

		_, err = s.Get(ctx, "activity_log", id)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("UpdateMergesTopLevelFields", func(t *testing.T) {
		s, _ := newStore(t)
		ctx := context.Background()

		id, err := s.Add(ctx, "leads", record{Name: "Acme Legal", Stage: "Suspect", Notes: "first"})
		require.NoError(t, err)

		err = s.Update(ctx, "leads", id, map[string]any{"notes": "second", "stage": "Prospect"})
		require.NoError(t, err)

		doc, err := s.Get(ctx, "leads", id)
		require.NoError(t, err)
		var got record
		require.NoError(t, doc.DataTo(&got))
		assert.Equal(t, "Acme Legal", got.Name)
		assert.Equal(t, "Prospect", got.Stage)
		assert.Equal(t, "second", got.Notes)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		s, _ := newStore(t)

		err := s.Update(context.Background(), "leads", "missing", map[string]any{"notes": "called twice"})
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("UpdateRejectsInvalidField", func(t *testing.T) {
		s, _ := newStore(t)
		ctx := context.Background()

		id, err := s.Add(ctx, "leads", record{Name: "Acme Legal"})
		require.NoError(t, err)

		err = s.Update(ctx, "leads", id, map[string]any{"notes'; drop": "x"})
		assert.ErrorIs(t, err, store.ErrInvalidField)
	})

	t.Run("AddRejectsNonObject", func(t *testing.T) {
		s, _ := newStore(t)

		_, err := s.Add(context.Background(), "leads", []string{"not", "an", "object"})
		assert.Error(t, err)
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		s, _ := newStore(t)
		ctx := context.Background()

		id, err := s.Add(ctx, "leads", record{Name: "Acme Legal"})
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, "leads", id))
		require.NoError(t, s.Delete(ctx, "leads", id))

		_, err = s.Get(ctx, "leads", id)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("QueryFiltersAndOrders", func(t *testing.T) {
		s, _ := newStore(t)
		ctx := context.Background()

		fixtures := []record{
			{Name: "Acme", Stage: "Suspect", At: store.NewTimestamp(base.Add(1 * time.Hour))},
			{Name: "Globex", Stage: "Prospect", At: store.NewTimestamp(base.Add(2 * time.Hour))},
			{Name: "Stark", Stage: "Suspect", At: store.NewTimestamp(base.Add(3 * time.Hour))},
			{Name: "Wayne", Stage: "Suspect", At: store.NewTimestamp(base.Add(90 * time.Second))},
		}
		for _, f := range fixtures {
			_, err := s.Add(ctx, "leads", f)
			require.NoError(t, err)
		}

		docs, err := s.Query(ctx, store.Query{
			Collection: "leads",
			Filters:    []store.Filter{{Field: "stage", Value: "Suspect"}},
			OrderBy:    &store.OrderBy{Field: "at", Desc: true},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Stark", "Acme", "Wayne"}, names(t, docs))

		docs, err = s.Query(ctx, store.Query{
			Collection: "leads",
			OrderBy:    &store.OrderBy{Field: "at"},
			Limit:      2,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Wayne", "Acme"}, names(t, docs))
	})

	t.Run("QueryWithoutOrderReturnsInsertionOrder", func(t *testing.T) {
		s, _ := newStore(t)
		ctx := context.Background()

		for _, name := range []string{"first", "second", "third"} {
			_, err := s.Add(ctx, "activity_log", record{Name: name})
			require.NoError(t, err)
		}

		docs, err := s.Query(ctx, store.Query{Collection: "activity_log"})
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second", "third"}, names(t, docs))
	})

	t.Run("QueryRejectsInvalidField", func(t *testing.T) {
		s, _ := newStore(t)

		_, err := s.Query(context.Background(), store.Query{
			Collection: "leads",
			OrderBy:    &store.OrderBy{Field: "at desc; --"},
		})
		assert.ErrorIs(t, err, store.ErrInvalidField)
	})

	t.Run("SubscribeDeliversFullSnapshots", func(t *testing.T) {
		s, _ := newStore(t)
		ctx := context.Background()

		_, err := s.Add(ctx, "leads", record{Name: "Acme", At: store.NewTimestamp(base)})
		require.NoError(t, err)

		rec := &snapshotRecorder{}
		unsubscribe, err := s.Subscribe(ctx, store.Query{
			Collection: "leads",
			OrderBy:    &store.OrderBy{Field: "at", Desc: true},
		}, rec.record)
		require.NoError(t, err)
		defer unsubscribe()

		calls, latest := rec.snapshot()
		assert.Equal(t, 1, calls, "first snapshot is delivered before Subscribe returns")
		assert.Equal(t, []string{"Acme"}, names(t, latest))

		_, err = s.Add(ctx, "leads", record{Name: "Globex", At: store.NewTimestamp(base.Add(time.Hour))})
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			_, latest := rec.snapshot()
			return len(latest) == 2
		}, 5*time.Second, 10*time.Millisecond)

		_, latest = rec.snapshot()
		assert.Equal(t, []string{"Globex", "Acme"}, names(t, latest))
	})

	t.Run("SubscribeIgnoresOtherCollections", func(t *testing.T) {
		s, _ := newStore(t)
		ctx := context.Background()

		rec := &snapshotRecorder{}
		unsubscribe, err := s.Subscribe(ctx, store.Query{Collection: "leads"}, rec.record)
		require.NoError(t, err)
		defer unsubscribe()

		_, err = s.Add(ctx, "activity_log", record{Name: "entry"})
		require.NoError(t, err)

		time.Sleep(100 * time.Millisecond)
		calls, _ := rec.snapshot()
		assert.Equal(t, 1, calls)
	})

	t.Run("UnsubscribeStopsDelivery", func(t *testing.T) {
		s, broker := newStore(t)
		ctx := context.Background()

		rec := &snapshotRecorder{}
		unsubscribe, err := s.Subscribe(ctx, store.Query{Collection: "leads"}, rec.record)
		require.NoError(t, err)
		assert.Equal(t, 1, broker.Subscribers("leads"))

		unsubscribe()
		unsubscribe()
		assert.Equal(t, 0, broker.Subscribers("leads"))

		_, err = s.Add(ctx, "leads", record{Name: "Acme"})
		require.NoError(t, err)

		time.Sleep(100 * time.Millisecond)
		calls, _ := rec.snapshot()
		assert.Equal(t, 1, calls)
	})

	t.Run("SubscriptionEndsWithContext", func(t *testing.T) {
		s, broker := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())

		_, err := s.Subscribe(ctx, store.Query{Collection: "leads"}, func([]store.Document) {})
		require.NoError(t, err)
		assert.Equal(t, 1, broker.Subscribers("leads"))

		cancel()
		require.Eventually(t, func() bool {
			return broker.Subscribers("leads") == 0
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("BurstsConvergeToLatestSnapshot", func(t *testing.T) {
		s, _ := newStore(t)
		ctx := context.Background()

		rec := &snapshotRecorder{}
		unsubscribe, err := s.Subscribe(ctx, store.Query{Collection: "leads"}, rec.record)
		require.NoError(t, err)
		defer unsubscribe()

		const writes = 20
		for i := 0; i < writes; i++ {
			_, err := s.Add(ctx, "leads", record{Name: "lead"})
			require.NoError(t, err)
		}

		require.Eventually(t, func() bool {
			_, latest := rec.snapshot()
			return len(latest) == writes
		}, 5*time.Second, 10*time.Millisecond)

		calls, _ := rec.snapshot()
		assert.LessOrEqual(t, calls, writes+1)
	})
}
