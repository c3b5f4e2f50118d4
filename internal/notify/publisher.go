// Package notify publishes repository cache snapshots to NATS so other
// processes can follow the list without polling the backend.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"

	"todo/internal/logfields"
	"todo/internal/service"
)

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Snapshot is the message body published after every cache change.
type Snapshot struct {
	Count     int            `json:"count"`
	Todos     []service.Todo `json:"todos"`
	Timestamp time.Time      `json:"timestamp"`
}

// Publisher sends Snapshots to one subject.
type Publisher struct {
	conn    Conn
	subject string
	logger  *slog.Logger
	clock   clockwork.Clock
	close   func()
}

// Connect dials url and returns a Publisher that owns the connection.
func Connect(url, subject string, logger *slog.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("todo"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	p := New(nc, subject, logger)
	p.close = func() {
		if err := nc.Drain(); err != nil {
			nc.Close()
		}
	}
	p.logger.Debug("NATS publisher connected", "url", url, "subject", subject)
	return p, nil
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithClock sets the clock used for Snapshot timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(p *Publisher) { p.clock = c }
}

// New wraps an existing connection. Close does not close conn.
func New(conn Conn, subject string, logger *slog.Logger, opts ...Option) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		conn:    conn,
		subject: subject,
		logger:  logger,
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Subscriber is anything that streams cache snapshots.
type Subscriber interface {
	Subscribe(fn func([]service.Todo)) func()
}

// Attach publishes every snapshot src emits until the returned func is called.
func (p *Publisher) Attach(src Subscriber) func() {
	return src.Subscribe(func(todos []service.Todo) {
		if err := p.Publish(todos); err != nil {
			p.logger.Warn("Failed to publish snapshot", logfields.Error(err))
		}
	})
}

// Publish sends one snapshot.
func (p *Publisher) Publish(todos []service.Todo) error {
	if todos == nil {
		todos = []service.Todo{}
	}
	data, err := json.Marshal(Snapshot{
		Count:     len(todos),
		Todos:     todos,
		Timestamp: p.clock.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}
	p.logger.Debug("Published snapshot", logfields.Count(len(todos)))
	return nil
}

// Close flushes and closes a connection opened by Connect.
func (p *Publisher) Close() {
	if p.close != nil {
		p.close()
	}
}
