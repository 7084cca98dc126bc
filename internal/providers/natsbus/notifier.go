package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/lexlab-ai/funnel/internal/adapter"
	"github.com/lexlab-ai/funnel/internal/logger"
	"github.com/lexlab-ai/funnel/internal/messaging"
)

const (
	// DefaultSubjectPrefix is the subject root for change announcements
	DefaultSubjectPrefix = "funnel.changes"
	// DefaultMaxRetries caps publish attempts after the first failure
	DefaultMaxRetries = 3
)

// Config holds the configuration for the NATS change notifier
type Config struct {
	URL            string
	SubjectPrefix  string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	MaxRetries     uint64
}

// changeMessage is the payload published for every collection write
type changeMessage struct {
	Collection string `json:"collection"`
	Origin     string `json:"origin"`
}

type notifier struct {
	nc         adapter.NatsConn
	prefix     string
	origin     string
	maxRetries uint64

	mu   sync.Mutex
	subs []adapter.NatsSubscription
}

// NewNotifier connects to NATS and returns a notifier that fans collection changes out
// to every instance subscribed to the same subject prefix
func NewNotifier(cfg Config, connector adapter.NatsConnector) (messaging.Notifier, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := connector.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return newNotifier(nc, cfg), nil
}

func newNotifier(nc adapter.NatsConn, cfg Config) *notifier {
	prefix := strings.TrimSuffix(cfg.SubjectPrefix, ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}

	return &notifier{
		nc:         nc,
		prefix:     prefix,
		origin:     uuid.NewString(),
		maxRetries: maxRetries,
	}
}

// Notify publishes a change announcement for collection, retrying with exponential backoff
func (n *notifier) Notify(ctx context.Context, collection string) error {
	data, err := json.Marshal(changeMessage{Collection: collection, Origin: n.origin})
	if err != nil {
		return fmt.Errorf("failed to marshal change message: %w", err)
	}
	subject := n.subject(collection)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second

	operation := func() error {
		return n.nc.Publish(subject, data)
	}

	notifyOnError := func(err error, d time.Duration) {
		logger.WarnCtx(ctx, "Change publish failed, retrying",
			zap.Error(err),
			zap.String("subject", subject),
			zap.Duration("next_retry_in", d))
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, n.maxRetries), ctx)
	if err := backoff.RetryNotify(operation, policy, notifyOnError); err != nil {
		return fmt.Errorf("failed to publish change for %s: %w", collection, err)
	}

	return nil
}

// Listen subscribes to announcements from other instances. Messages published
// by this notifier and malformed payloads are dropped.
func (n *notifier) Listen(ctx context.Context, handler messaging.ChangeHandler) error {
	sub, err := n.nc.Subscribe(n.prefix+".>", func(msg *nats.Msg) {
		var change changeMessage
		if err := json.Unmarshal(msg.Data, &change); err != nil {
			logger.WarnCtx(ctx, "Ignoring malformed change message",
				zap.String("subject", msg.Subject),
				zap.Error(err))
			return
		}
		if change.Origin == n.origin || change.Collection == "" {
			return
		}
		handler(change.Collection)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", n.prefix, err)
	}

	n.mu.Lock()
	n.subs = append(n.subs, sub)
	n.mu.Unlock()

	logger.InfoCtx(ctx, "Listening for remote changes", zap.String("subject", n.prefix+".>"))
	return nil
}

func (n *notifier) subject(collection string) string {
	return n.prefix + "." + collection
}

// Close unsubscribes and closes the NATS connection
func (n *notifier) Close() {
	n.mu.Lock()
	subs := n.subs
	n.subs = nil
	n.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil {
			logger.Warn("Failed to unsubscribe from NATS", zap.Error(err))
		}
	}

	if n.nc != nil {
		n.nc.Close()
	}
}
