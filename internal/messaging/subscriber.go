package messaging

import (
	"context"
)

// ChangeHandler is called with the name of a collection changed by another instance
type ChangeHandler func(collection string)

// Subscriber receives change announcements from other instances
type Subscriber interface {
	// Listen registers handler for remote changes. It returns once the subscription is active.
	Listen(ctx context.Context, handler ChangeHandler) error
}
