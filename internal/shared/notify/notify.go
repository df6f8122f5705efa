package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Event kinds published after committed workflow transitions.
const (
	KindLineActivated    = "line_activated"
	KindDocumentApproved = "document_approved"
	KindDocumentRejected = "document_rejected"
	KindDocumentRecalled = "document_recalled"
)

// Event describes one committed transition. Key is stable per
// (document, kind, line) so consumers can deduplicate at-least-once delivery.
type Event struct {
	Key        string    `json:"key"`
	Kind       string    `json:"kind"`
	DocumentID string    `json:"document_id"`
	LineID     string    `json:"line_id,omitempty"`
	EmployeeID string    `json:"employee_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent builds an event with its idempotency key filled in.
func NewEvent(kind, documentID, lineID, employeeID string) Event {
	return Event{
		Key:        fmt.Sprintf("%s:%s:%s", documentID, kind, lineID),
		Kind:       kind,
		DocumentID: documentID,
		LineID:     lineID,
		EmployeeID: employeeID,
		OccurredAt: time.Now(),
	}
}

// Dispatcher pushes workflow events to the notification transport. Called
// strictly after a successful commit; a dispatch failure never rolls back the
// decision.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}

// RedisDispatcher publishes events as JSON on a redis channel. The actual
// delivery (mail, messenger, push) is consumed downstream.
type RedisDispatcher struct {
	rdb     *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisDispatcher(rdb *redis.Client, channel string, logger *zap.Logger) *RedisDispatcher {
	return &RedisDispatcher{rdb: rdb, channel: channel, logger: logger}
}

func (d *RedisDispatcher) Dispatch(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := d.rdb.Publish(ctx, d.channel, payload).Err(); err != nil {
		d.logger.Error("Failed to publish workflow event",
			zap.String("key", event.Key),
			zap.String("kind", event.Kind),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// NopDispatcher drops events. Used in tests and when redis is not configured.
type NopDispatcher struct{}

func (NopDispatcher) Dispatch(ctx context.Context, event Event) error {
	return nil
}
