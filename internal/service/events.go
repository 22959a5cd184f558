package service

import (
	"context"

	"github.com/google/uuid"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/ledger"
	"fuelanchor/internal/logger"
	"fuelanchor/internal/metrics"
	"fuelanchor/internal/redis"
	"fuelanchor/internal/repository"
)

// EventPublisher delivers committed events to the Redis stream and the log.
type EventPublisher struct {
	stream redis.StreamInterface
}

// NewEventPublisher creates a new EventPublisher. stream may be nil, in which case
// events are only logged.
func NewEventPublisher(stream redis.StreamInterface) *EventPublisher {
	return &EventPublisher{stream: stream}
}

// Publish delivers events in order. The events are already committed to the event
// log, so delivery failures are logged and never returned.
func (p *EventPublisher) Publish(ctx context.Context, events []*domain.Event) {
	if p == nil {
		return
	}

	for _, e := range events {
		logger.L().Info("event",
			"type", e.Type,
			"seq", e.Seq,
			"actor", e.Actor,
			"topics", e.Topics,
			"ledger", e.Ledger,
		)

		if p.stream == nil {
			continue
		}
		if err := p.stream.Publish(ctx, e); err != nil {
			logger.L().Warn("event_publish_failed", "type", e.Type, "seq", e.Seq, "err", err)
			metrics.EventsPublishedTotal.WithLabelValues(string(e.Type), "failed").Inc()
			continue
		}
		metrics.EventsPublishedTotal.WithLabelValues(string(e.Type), "ok").Inc()
	}
}

// eventBatch collects the events appended inside one transaction so they can be
// published after commit.
type eventBatch struct {
	clock  ledger.Clock
	events []*domain.Event
}

func newEventBatch(clock ledger.Clock) *eventBatch {
	return &eventBatch{clock: clock}
}

// record appends an event to the log inside the current transaction.
func (b *eventBatch) record(
	ctx context.Context,
	repo repository.EventRepository,
	typ domain.EventType,
	actor domain.Address,
	topics []string,
	data map[string]any,
) error {
	e := &domain.Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Actor:     actor,
		Topics:    topics,
		Data:      data,
		Ledger:    b.clock.Sequence(),
		CreatedAt: b.clock.Now(),
	}
	if err := repo.Append(ctx, e); err != nil {
		return err
	}
	b.events = append(b.events, e)
	return nil
}
