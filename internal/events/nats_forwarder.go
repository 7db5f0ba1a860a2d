package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher is the subset of *nats.Conn the forwarder needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSForwarder republishes dispatcher events on <prefix>.<event type> subjects.
type NATSForwarder struct {
	publisher Publisher
	prefix    string
	logger    *zap.Logger
}

// NewNATSForwarder wraps an existing publisher.
func NewNATSForwarder(publisher Publisher, prefix string, logger *zap.Logger) *NATSForwarder {
	if prefix == "" {
		prefix = "helpdesk"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSForwarder{publisher: publisher, prefix: prefix, logger: logger}
}

// ConnectNATS dials the server with reconnect settings suitable for a long-lived API process.
func ConnectNATS(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// Register subscribes the forwarder to every ticket event.
func (f *NATSForwarder) Register(dispatcher Dispatcher) {
	dispatcher.SubscribeAll(f.forward)
}

// Subject returns the subject an event type is published on.
func (f *NATSForwarder) Subject(eventType EventType) string {
	return f.prefix + "." + string(eventType)
}

func (f *NATSForwarder) forward(_ context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := f.publisher.Publish(f.Subject(event.Type), payload); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	f.logger.Debug("event forwarded", zap.String("subject", f.Subject(event.Type)), zap.String("ticket_id", event.TicketID))
	return nil
}
