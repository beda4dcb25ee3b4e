package messaging

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"billhive/internal/pkg/tenantcontext"
)

// Handler processes one envelope. Returning nil acknowledges the
// message; returning a PermanentError dead-letters it; any other error
// abandons it for transport-level redelivery.
type Handler func(ctx context.Context, envelope *Envelope) error

// Consumer drives exactly one named queue, one message in flight at a
// time. The next receive does not start until the current outcome is
// resolved.
type Consumer struct {
	broker  Broker
	queue   string
	handler Handler
	feature string
}

// NewConsumer binds a handler to a queue. The feature tag shows up in
// every structured log line for the queue.
func NewConsumer(broker Broker, queue, feature string, handler Handler) *Consumer {
	return &Consumer{
		broker:  broker,
		queue:   queue,
		handler: handler,
		feature: feature,
	}
}

// Queue returns the queue this consumer drives.
func (c *Consumer) Queue() string {
	return c.queue
}

// Run blocks consuming the queue until ctx is cancelled. The in-flight
// handler always finishes before Run returns; cancellation is only
// observed between deliveries.
func (c *Consumer) Run(ctx context.Context) {
	log.Infof("[Consumer] Starting loop for queue %s", c.queue)

	for {
		select {
		case <-ctx.Done():
			log.Infof("[Consumer] Stopping loop for queue %s", c.queue)
			return
		default:
		}

		d, err := c.broker.Receive(ctx, c.queue)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Errorw("Receive failed", "queue", c.queue, "error", err)
			continue
		}
		if d == nil {
			// Queue idle
			continue
		}

		c.process(d)
	}
}

// process resolves one delivery. It deliberately runs on a fresh
// context so an in-flight handler is never interrupted mid-commit by
// shutdown.
func (c *Consumer) process(d *Delivery) {
	ctx := context.Background()

	var envelope Envelope
	if err := json.Unmarshal(d.Body, &envelope); err != nil {
		log.Errorw("Failed to deserialize envelope, dead-lettering",
			"feature", c.feature, "queue", c.queue, "error", err)
		if dlErr := c.broker.DeadLetter(ctx, d, ReasonInvalidPayload); dlErr != nil {
			log.Errorw("Dead-letter failed", "queue", c.queue, "error", dlErr)
		}
		return
	}

	if _, err := uuid.Parse(envelope.TenantID); err == nil {
		ctx = tenantcontext.With(ctx, envelope.TenantID)
	}

	log.Infow("Processing message",
		"feature", c.feature,
		"operation", envelope.MessageType,
		"tenant_id", envelope.TenantID,
		"correlation_id", envelope.CorrelationID,
		"message_type", envelope.MessageType,
		"queue", c.queue,
		"delivery_count", d.DeliveryCount)

	err := c.handler(ctx, &envelope)
	switch {
	case err == nil:
		if ackErr := c.broker.Ack(ctx, d); ackErr != nil {
			log.Errorw("Ack failed", "queue", c.queue, "error", ackErr)
			return
		}
		log.Infow("Completed message",
			"feature", c.feature,
			"operation", envelope.MessageType,
			"tenant_id", envelope.TenantID,
			"correlation_id", envelope.CorrelationID,
			"message_type", envelope.MessageType,
			"queue", c.queue)

	default:
		if reason, permanent := AsPermanent(err); permanent {
			log.Warnw("Dead-lettering message",
				"feature", c.feature,
				"operation", envelope.MessageType,
				"tenant_id", envelope.TenantID,
				"correlation_id", envelope.CorrelationID,
				"message_type", envelope.MessageType,
				"queue", c.queue,
				"reason", reason)
			if dlErr := c.broker.DeadLetter(ctx, d, reason); dlErr != nil {
				log.Errorw("Dead-letter failed", "queue", c.queue, "error", dlErr)
			}
			return
		}

		log.Errorw("Transient failure, abandoning for redelivery",
			"feature", c.feature,
			"operation", envelope.MessageType,
			"tenant_id", envelope.TenantID,
			"correlation_id", envelope.CorrelationID,
			"message_type", envelope.MessageType,
			"queue", c.queue,
			"delivery_count", d.DeliveryCount,
			"error", err)
		if abErr := c.broker.Abandon(ctx, d); abErr != nil {
			log.Errorw("Abandon failed", "queue", c.queue, "error", abErr)
		}
	}
}
