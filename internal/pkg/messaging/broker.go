package messaging

import (
	"context"
	"time"
)

// Dead-letter reason used when the transport gives up on a message.
const ReasonMaxDeliveries = "MaxDeliveryCountExceeded"

// Dead-letter reason used when the envelope itself cannot be decoded.
const ReasonInvalidPayload = "InvalidPayload"

// Delivery is one transport-level attempt of a message. The body holds
// the serialized envelope; delivery accounting belongs to the
// transport, not the envelope.
type Delivery struct {
	ID            string     `json:"id"`
	Queue         string     `json:"queue"`
	Body          []byte     `json:"body"`
	DeliveryCount int        `json:"delivery_count"`
	Reason        string     `json:"reason,omitempty"`
	EnqueuedAt    time.Time  `json:"enqueued_at"`
	LastDelivery  *time.Time `json:"last_delivery,omitempty"`
}

// QueueStats is the operational view of a single queue.
type QueueStats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Dead       int64 `json:"dead"`
}

// Broker is the at-least-once queue transport contract. Receive blocks
// up to its internal poll timeout and returns (nil, nil) when the queue
// is idle. A received delivery stays on the processing list until the
// consumer resolves it through exactly one of Ack, Abandon or
// DeadLetter.
type Broker interface {
	Publish(ctx context.Context, queue string, envelope *Envelope) error
	Receive(ctx context.Context, queue string) (*Delivery, error)
	Ack(ctx context.Context, d *Delivery) error
	Abandon(ctx context.Context, d *Delivery) error
	DeadLetter(ctx context.Context, d *Delivery, reason string) error
	Stats(ctx context.Context, queue string) (QueueStats, error)
	RecoverStuck(ctx context.Context, queue string, maxAge time.Duration) (int, error)
}
