package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	connectTimeout = 2 * time.Second
	flushTimeout   = 2 * time.Second
)

// NATSPublisher publishes events as JSON on core NATS subjects.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

// ConnectNATS dials url and returns a publisher using prefix for subjects.
func ConnectNATS(url, prefix string) (*NATSPublisher, error) {
	if url == "" {
		return nil, errors.New("nats url required")
	}
	conn, err := nats.Connect(url,
		nats.Name("subburn"),
		nats.Timeout(connectTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NATSPublisher{conn: conn, prefix: prefix}, nil
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	subject := Subject(p.prefix, event.Type)
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close flushes buffered events and closes the connection.
func (p *NATSPublisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	defer p.conn.Close()
	if err := p.conn.FlushTimeout(flushTimeout); err != nil {
		return fmt.Errorf("flush nats: %w", err)
	}
	return nil
}
