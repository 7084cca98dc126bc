package messaging

import (
	"context"
)

// Notifier carries collection change announcements between instances sharing a database
//
//go:generate mockgen -source=notifier.go -destination=../mocks/notifier.go -package=mocks -mock_names=Notifier=MockNotifier
type Notifier interface {
	Publisher
	Subscriber
	// Close closes the underlying connection
	Close()
}

type localNotifier struct{}

// NewLocalNotifier returns a notifier for a single instance deployment.
// Local subscribers are already served by the store's broker, so it publishes nothing.
func NewLocalNotifier() Notifier {
	return localNotifier{}
}

func (localNotifier) Notify(ctx context.Context, collection string) error {
	return nil
}

func (localNotifier) Listen(ctx context.Context, handler ChangeHandler) error {
	return nil
}

func (localNotifier) Close() {}
