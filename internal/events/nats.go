package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	clientName    = "agent-directory"
	reconnectWait = 2 * time.Second
)

// NATSBus is a Bus on top of a NATS connection. Changes are published as
// JSON on "<subject>.<reason>".
type NATSBus struct {
	conn    *nats.Conn
	subject string
}

var _ Bus = (*NATSBus)(nil)

// Connect dials the NATS server at url
func Connect(url, subject string, opts ...nats.Option) (*NATSBus, error) {
	opts = append([]nats.Option{
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("Disconnected from NATS", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
	}, opts...)

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	return NewNATSBus(conn, subject), nil
}

// NewNATSBus wraps an existing connection
func NewNATSBus(conn *nats.Conn, subject string) *NATSBus {
	return &NATSBus{
		conn:    conn,
		subject: subject,
	}
}

// Publish implements Publisher
func (b *NATSBus) Publish(ctx context.Context, change Change) error {
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}

	subject := b.subject + "." + string(change.Reason)
	if err := b.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish change on %s: %w", subject, err)
	}

	slog.DebugContext(ctx, "Published change",
		"subject", subject,
		"entry_id", change.EntryID)
	return nil
}

// Subscribe implements Bus
func (b *NATSBus) Subscribe(handler Handler) (func() error, error) {
	sub, err := b.conn.Subscribe(b.subject+".>", func(msg *nats.Msg) {
		var change Change
		if err := json.Unmarshal(msg.Data, &change); err != nil {
			slog.Warn("Dropping malformed change event",
				"subject", msg.Subject,
				"error", err)
			return
		}
		handler(context.Background(), change)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s.>: %w", b.subject, err)
	}

	return sub.Unsubscribe, nil
}

// Flush waits until the server has processed all published messages
func (b *NATSBus) Flush() error {
	return b.conn.Flush()
}

// Close implements Bus
func (b *NATSBus) Close() error {
	if b.conn.IsClosed() {
		return nil
	}
	return b.conn.Drain()
}
