package store_test

import (
	"testing"

	"github.com/lexlab-ai/funnel/internal/adapter"
	"github.com/lexlab-ai/funnel/internal/store"
)

func newMemoryStore(t *testing.T) (store.Store, *store.Broker) {
	broker := store.NewBroker(4, nil)
	s := store.NewMemoryStore(broker, adapter.NewClock())
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s, broker
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, newMemoryStore)
}
