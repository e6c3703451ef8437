// Package notify tells the serving layer that new content was published, so
// it can refresh caches. Notification failures are never fatal to a batch.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"blogpress/internal/config"
	"blogpress/internal/pipeline"
)

// PublishedEvent is the wire payload emitted after a successful batch.
type PublishedEvent struct {
	BatchID    string    `json:"batch_id"`
	Outcome    string    `json:"outcome"`
	Converted  int       `json:"converted"`
	Skipped    int       `json:"skipped"`
	FinishedAt time.Time `json:"finished_at"`
}

// Notifier publishes batch events to NATS.
type Notifier struct {
	conn    *nats.Conn
	subject string
}

// New connects to the configured NATS server.
func New(cfg *config.NotifyConfig) (*Notifier, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("blogpress"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("Notification client connected", slog.String("url", cfg.URL), slog.String("subject", cfg.Subject))
	return &Notifier{conn: conn, subject: cfg.Subject}, nil
}

// Published emits an event for a completed batch.
func (n *Notifier) Published(report *pipeline.BatchReport) error {
	event := PublishedEvent{
		BatchID:    report.ID,
		Outcome:    report.Outcome,
		Converted:  report.Converted(),
		Skipped:    report.Skipped(),
		FinishedAt: report.FinishedAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal publish event: %w", err)
	}

	if err := n.conn.Publish(n.subject, payload); err != nil {
		return fmt.Errorf("publish event to %s: %w", n.subject, err)
	}
	return nil
}

// Close drains and closes the connection.
func (n *Notifier) Close() {
	if n.conn != nil {
		_ = n.conn.Drain()
	}
}
