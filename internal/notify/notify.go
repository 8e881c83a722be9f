// Package notify publishes build lifecycle events to NATS.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	foundationerrors "git.home.luguber.info/inful/akini/internal/foundation/errors"
	"git.home.luguber.info/inful/akini/internal/isolate"
	"git.home.luguber.info/inful/akini/internal/logfields"
)

// Message is the JSON payload published for every lifecycle event.
type Message struct {
	Kind     string    `json:"kind"`
	BuildID  string    `json:"build_id"`
	Page     string    `json:"page"`
	ExitCode int       `json:"exit_code"`
	Error    string    `json:"error,omitempty"`
	Time     time.Time `json:"time"`
	Duration int64     `json:"duration_ms,omitempty"`
}

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher sends events on "<subject>.<kind>".
type Publisher struct {
	conn    Conn
	subject string
	logger  *slog.Logger
	closer  func()
}

// Connect dials url and returns a Publisher for subject.
func Connect(url, subject string, logger *slog.Logger) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("akini"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryNotify, "failed to connect to NATS").
			WithContext("url", url).
			Build()
	}
	p := NewPublisher(conn, subject, logger)
	p.closer = func() {
		if err := conn.Drain(); err != nil {
			conn.Close()
		}
	}
	if logger != nil {
		logger.Info("Publishing build events to NATS", slog.String("url", url), slog.String("subject", subject))
	}
	return p, nil
}

// NewPublisher wraps an existing connection.
func NewPublisher(conn Conn, subject string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, subject: subject, logger: logger}
}

// Subject returns the subject an event kind is published on.
func (p *Publisher) Subject(kind isolate.EventKind) string {
	return fmt.Sprintf("%s.%s", p.subject, kind)
}

// Observe implements isolate.Observer. Publish failures are logged only.
func (p *Publisher) Observe(e isolate.Event) {
	msg := Message{
		Kind:     string(e.Kind),
		BuildID:  e.BuildID,
		Page:     e.Page,
		ExitCode: e.ExitCode,
		Time:     e.Time,
		Duration: e.Duration.Milliseconds(),
	}
	if e.Err != nil {
		msg.Error = e.Err.Error()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		p.logger.Warn("Failed to encode build event", logfields.BuildID(e.BuildID), logfields.Error(err))
		return
	}
	if err := p.conn.Publish(p.Subject(e.Kind), data); err != nil {
		p.logger.Warn("Failed to publish build event",
			logfields.BuildID(e.BuildID),
			logfields.Error(foundationerrors.WrapError(err, foundationerrors.CategoryNotify, "publish").Build()))
		return
	}
	p.logger.Debug("Published build event", logfields.BuildID(e.BuildID), slog.String("kind", msg.Kind))
}

// Close drains the connection opened by Connect.
func (p *Publisher) Close() {
	if p.closer != nil {
		p.closer()
	}
}
