package messaging

import (
	"context"
)

// Publisher announces that a document collection has changed
type Publisher interface {
	// Notify tells other instances that collection was written to
	Notify(ctx context.Context, collection string) error
}
