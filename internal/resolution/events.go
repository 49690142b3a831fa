package resolution

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	id "plancheck/pkg/domain"
)

// EventType names a tracker lifecycle event.
type EventType string

const (
	EventIssueResolved     EventType = "issue.resolved"
	EventChangeSetComputed EventType = "changeset.computed"
)

// Event is one engine lifecycle notification. Cascades consume issue
// resolutions asynchronously: a resolution is never blocked by its downstream
// effects. Other event types are mirror-only.
type Event struct {
	Type          EventType        `json:"type"`
	IssueID       id.IssueID       `json:"issue_id,omitempty"`
	ApplicationID id.ApplicationID `json:"application_id"`
	RuleID        id.RuleID        `json:"rule_id,omitempty"`
	ChangeSetID   id.ChangeSetID   `json:"change_set_id,omitempty"`
	At            time.Time        `json:"at"`
}

// CascadeWorker consumes resolution events from a channel and runs the
// dependency cascade for each. Failures are logged, never propagated back to
// the resolving writer: cascades are best-effort notifications, not atomic
// multi-issue transactions.
type CascadeWorker struct {
	service *Service
	inbox   <-chan Event
	mirror  *KafkaPublisher
	logger  *slog.Logger
}

// NewCascadeWorker wires the worker to the service and its inbox. mirror may
// be nil when no broker is configured.
func NewCascadeWorker(service *Service, inbox <-chan Event, mirror *KafkaPublisher, logger *slog.Logger) *CascadeWorker {
	return &CascadeWorker{service: service, inbox: inbox, mirror: mirror, logger: logger}
}

// Run processes events until the context is cancelled.
func (w *CascadeWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if event.Type == EventIssueResolved {
				if err := w.service.Cascade(ctx, event.IssueID); err != nil && w.logger != nil {
					w.logger.ErrorContext(ctx, "cascade failed",
						"issue_id", event.IssueID.Int64(),
						"error", err,
					)
				}
			}
			if w.mirror != nil {
				w.mirror.Publish(ctx, event)
			}
		}
	}
}

// KafkaPublisher mirrors tracker events to a broker for downstream consumers
// (dashboards, notification services). Publishing is fire-and-forget.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaPublisher connects to the brokers. Returns nil when no brokers are
// configured so callers can wire it unconditionally.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaPublisher{client: client, topic: topic, logger: logger}, nil
}

// Publish mirrors one event. Errors are logged and swallowed.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "event marshal failed", "error", err)
		}
		return
	}
	record := &kgo.Record{Topic: p.topic, Value: payload}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil && p.logger != nil {
			p.logger.WarnContext(ctx, "event mirror publish failed",
				"topic", p.topic,
				"error", err,
			)
		}
	})
}

// Close flushes and releases the broker connection.
func (p *KafkaPublisher) Close() {
	if p == nil {
		return
	}
	p.client.Close()
}
