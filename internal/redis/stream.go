package redis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"fuelanchor/internal/domain"
)

const (
	// EventStreamKey is the Redis stream collaborators consume events from.
	EventStreamKey = "events:stream"

	eventStreamMaxLen = 100_000
)

// StreamStore publishes committed events to a Redis stream.
type StreamStore struct {
	client *redis.Client
}

// NewStreamStore creates a new StreamStore.
func NewStreamStore(client *redis.Client) *StreamStore {
	return &StreamStore{client: client}
}

// Publish appends the event to the stream with XADD, trimming old entries.
func (s *StreamStore) Publish(ctx context.Context, e *domain.Event) error {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return err
	}

	return s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: EventStreamKey,
		MaxLen: eventStreamMaxLen,
		Approx: true,
		Values: map[string]any{
			"id":         e.ID,
			"seq":        e.Seq,
			"type":       string(e.Type),
			"actor":      string(e.Actor),
			"topics":     strings.Join(e.Topics, ","),
			"data":       data,
			"ledger":     e.Ledger,
			"created_at": e.CreatedAt.Format(time.RFC3339Nano),
		},
	}).Err()
}
