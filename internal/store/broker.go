package store

import (
	"context"
	"errors"
	"sync"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/lexlab-ai/funnel/internal/logger"
	"github.com/lexlab-ai/funnel/internal/messaging"
)

// DefaultBrokerWorkers is the number of concurrent snapshot deliveries
const DefaultBrokerWorkers = 8

type fetchFunc func(ctx context.Context) ([]Document, error)

// subscription is one registered snapshot listener.
// running and dirty coalesce bursts of changes: while a delivery is in
// flight further changes only mark the subscription dirty, and the worker
// re-queries once more before going idle.
type subscription struct {
	id         uint64
	collection string
	ctx        context.Context
	fetch      fetchFunc
	fn         func([]Document)

	running bool
	dirty   bool
	closed  bool
}

// Broker keeps the snapshot subscribers of every collection and re-delivers
// full query results to them after each write
type Broker struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string]map[uint64]*subscription

	pool     pond.Pool
	notifier messaging.Notifier
}

// NewBroker creates a broker delivering snapshots on a pool of the given size.
// A nil notifier restricts change propagation to this process.
func NewBroker(workers int, notifier messaging.Notifier) *Broker {
	if workers <= 0 {
		workers = DefaultBrokerWorkers
	}
	if notifier == nil {
		notifier = messaging.NewLocalNotifier()
	}

	return &Broker{
		subs:     make(map[string]map[uint64]*subscription),
		pool:     pond.NewPool(workers),
		notifier: notifier,
	}
}

// Start begins listening for changes announced by other instances
func (b *Broker) Start(ctx context.Context) error {
	return b.notifier.Listen(ctx, func(collection string) {
		logger.DebugCtx(ctx, "Remote change received", zap.String("collection", collection))
		b.fanout(collection)
	})
}

// Changed is called by stores after a successful write to collection.
// A failed remote announcement is logged and does not fail the write.
func (b *Broker) Changed(ctx context.Context, collection string) {
	b.fanout(collection)

	if err := b.notifier.Notify(ctx, collection); err != nil {
		logger.WarnCtx(ctx, "Failed to announce collection change",
			zap.String("collection", collection),
			zap.Error(err))
	}
}

// subscribe registers fn and delivers the first snapshot before returning
func (b *Broker) subscribe(ctx context.Context, collection string, fetch fetchFunc, fn func([]Document)) (Unsubscribe, error) {
	b.mu.Lock()
	b.nextID++
	sub := &subscription{
		id:         b.nextID,
		collection: collection,
		ctx:        ctx,
		fetch:      fetch,
		fn:         fn,
		running:    true,
	}
	if b.subs[collection] == nil {
		b.subs[collection] = make(map[uint64]*subscription)
	}
	b.subs[collection][sub.id] = sub
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		sub.closed = true
		if subs, ok := b.subs[collection]; ok {
			delete(subs, sub.id)
			if len(subs) == 0 {
				delete(b.subs, collection)
			}
		}
	}

	docs, err := fetch(ctx)
	if err != nil {
		unsubscribe()
		return nil, err
	}
	fn(docs)

	b.mu.Lock()
	again := sub.dirty && !sub.closed
	sub.dirty = false
	sub.running = again
	b.mu.Unlock()
	if again {
		b.submit(sub)
	}

	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			unsubscribe()
		}()
	}

	return unsubscribe, nil
}

func (b *Broker) fanout(collection string) {
	b.mu.Lock()
	var ready []*subscription
	for _, sub := range b.subs[collection] {
		if sub.running {
			sub.dirty = true
			continue
		}
		sub.running = true
		ready = append(ready, sub)
	}
	b.mu.Unlock()

	for _, sub := range ready {
		b.submit(sub)
	}
}

func (b *Broker) submit(sub *subscription) {
	b.pool.Submit(func() {
		b.deliver(sub)
	})
}

// deliver re-queries until no change arrived during the last delivery
func (b *Broker) deliver(sub *subscription) {
	for {
		b.mu.Lock()
		if sub.closed {
			sub.running = false
			b.mu.Unlock()
			return
		}
		sub.dirty = false
		b.mu.Unlock()

		docs, err := sub.fetch(sub.ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.ErrorCtx(sub.ctx, err,
					zap.String("message", "Failed to refresh subscription"),
					zap.String("collection", sub.collection))
			}
		} else {
			b.mu.Lock()
			closed := sub.closed
			b.mu.Unlock()
			if !closed {
				sub.fn(docs)
			}
		}

		b.mu.Lock()
		if sub.dirty && !sub.closed {
			b.mu.Unlock()
			continue
		}
		sub.running = false
		b.mu.Unlock()
		return
	}
}

// Subscribers returns the number of active subscriptions on collection
func (b *Broker) Subscribers(collection string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[collection])
}

// Close waits for in-flight deliveries and closes the notifier
func (b *Broker) Close() {
	b.pool.StopAndWait()
	b.notifier.Close()
}
