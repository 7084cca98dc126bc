package adapter

import (
	"github.com/nats-io/nats.go"
)

// NatsConn is the subset of a core NATS connection used for change fan-out
//
//go:generate mockgen -source=nats.go -destination=../mocks/nats.go -package=mocks -mock_names=NatsConn=MockNatsConn,NatsSubscription=MockNatsSubscription,NatsConnector=MockNatsConnector
type NatsConn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler nats.MsgHandler) (NatsSubscription, error)
	Close()
}

// NatsSubscription is an active NATS subscription
type NatsSubscription interface {
	Unsubscribe() error
}

// NatsConnector opens NATS connections
type NatsConnector interface {
	Connect(url string, options ...nats.Option) (NatsConn, error)
}

// RealNatsConnector implements NatsConnector using the nats package
type RealNatsConnector struct{}

// NewNatsConnector creates a new real NATS connector
func NewNatsConnector() NatsConnector {
	return &RealNatsConnector{}
}

func (n *RealNatsConnector) Connect(url string, options ...nats.Option) (NatsConn, error) {
	nc, err := nats.Connect(url, options...)
	if err != nil {
		return nil, err
	}
	return &natsConnAdapter{nc: nc}, nil
}

// natsConnAdapter adapts *nats.Conn to NatsConn.
// nats.Conn.Subscribe returns a concrete *nats.Subscription, which is why the wrapper exists.
type natsConnAdapter struct {
	nc *nats.Conn
}

func (a *natsConnAdapter) Publish(subject string, data []byte) error {
	return a.nc.Publish(subject, data)
}

func (a *natsConnAdapter) Subscribe(subject string, handler nats.MsgHandler) (NatsSubscription, error) {
	sub, err := a.nc.Subscribe(subject, handler)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (a *natsConnAdapter) Close() {
	a.nc.Close()
}
