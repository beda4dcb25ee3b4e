package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"billhive/internal/pkg/env"
)

const (
	// Redis key layout per queue
	queueKeyPrefix       = "queue:"
	processingKeySuffix  = ":processing"
	deadLetterKeySuffix  = ":dead"
	messageKeyPart       = ":msg:"
	receiveTimeout       = 1 * time.Second
	DefaultMaxDeliveries = 10

	messageTTL    = 24 * time.Hour
	deadLetterTTL = 7 * 24 * time.Hour
)

// RedisBroker implements the Broker contract on Redis lists. A message
// lives as a JSON delivery record under a TTL'd key; the pending,
// processing and dead-letter lists hold message ids. BRPopLPush moves
// an id from pending to processing atomically, so a crashed consumer
// leaves the id recoverable on the processing list.
type RedisBroker struct {
	client        *redis.Client
	maxDeliveries int
}

// NewRedisBroker creates a broker on the given Redis client. The
// delivery ceiling comes from QUEUE_MAX_DELIVERIES.
func NewRedisBroker(client *redis.Client) *RedisBroker {
	maxDeliveries := DefaultMaxDeliveries
	if v, err := strconv.Atoi(env.GetEnv("QUEUE_MAX_DELIVERIES", "")); err == nil && v > 0 {
		maxDeliveries = v
	}

	return &RedisBroker{
		client:        client,
		maxDeliveries: maxDeliveries,
	}
}

func pendingKey(queue string) string {
	return queueKeyPrefix + queue
}

func processingKey(queue string) string {
	return queueKeyPrefix + queue + processingKeySuffix
}

func deadLetterKey(queue string) string {
	return queueKeyPrefix + queue + deadLetterKeySuffix
}

func messageKey(queue, id string) string {
	return queueKeyPrefix + queue + messageKeyPart + id
}

// Publish enqueues an envelope on the named queue.
func (b *RedisBroker) Publish(ctx context.Context, queue string, envelope *Envelope) error {
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	d := &Delivery{
		ID:         uuid.New().String(),
		Queue:      queue,
		Body:       body,
		EnqueuedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery: %w", err)
	}

	// Pipeline so the message record and its list entry appear together
	pipe := b.client.Pipeline()
	pipe.Set(ctx, messageKey(queue, d.ID), data, messageTTL)
	pipe.LPush(ctx, pendingKey(queue), d.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queue, err)
	}

	log.Debugf("[Broker] Published %s message %s", queue, d.ID)
	return nil
}

// Receive blocks up to the poll timeout for the next delivery, moving
// it onto the processing list. Returns (nil, nil) when the queue is
// idle so callers can check for shutdown between polls.
func (b *RedisBroker) Receive(ctx context.Context, queue string) (*Delivery, error) {
	id, err := b.client.BRPopLPush(ctx, pendingKey(queue), processingKey(queue), receiveTimeout).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	data, err := b.client.Get(ctx, messageKey(queue, id)).Result()
	if err != nil {
		// Message record expired or missing; drop the orphaned id
		b.client.LRem(ctx, processingKey(queue), 1, id)
		return nil, fmt.Errorf("message data not found for id %s on %s", id, queue)
	}

	var d Delivery
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		b.client.LRem(ctx, processingKey(queue), 1, id)
		return nil, fmt.Errorf("failed to unmarshal delivery %s: %w", id, err)
	}

	now := time.Now().UTC()
	d.DeliveryCount++
	d.LastDelivery = &now
	b.updateDelivery(ctx, &d, messageTTL)

	return &d, nil
}

// Ack removes a handled delivery from the transport entirely.
func (b *RedisBroker) Ack(ctx context.Context, d *Delivery) error {
	pipe := b.client.Pipeline()
	pipe.LRem(ctx, processingKey(d.Queue), 1, d.ID)
	pipe.Del(ctx, messageKey(d.Queue, d.ID))
	_, err := pipe.Exec(ctx)
	return err
}

// Abandon releases the delivery for another attempt. Once the delivery
// count reaches the ceiling the message is dead-lettered instead, so a
// poison message cannot cycle forever.
func (b *RedisBroker) Abandon(ctx context.Context, d *Delivery) error {
	if d.DeliveryCount >= b.maxDeliveries {
		log.Warnf("[Broker] Message %s on %s exceeded %d deliveries, dead-lettering",
			d.ID, d.Queue, b.maxDeliveries)
		return b.DeadLetter(ctx, d, ReasonMaxDeliveries)
	}

	b.updateDelivery(ctx, d, messageTTL)

	pipe := b.client.Pipeline()
	pipe.LRem(ctx, processingKey(d.Queue), 1, d.ID)
	pipe.RPush(ctx, pendingKey(d.Queue), d.ID)
	_, err := pipe.Exec(ctx)
	return err
}

// DeadLetter permanently parks the delivery with a reason string for
// the operational surface to inspect.
func (b *RedisBroker) DeadLetter(ctx context.Context, d *Delivery, reason string) error {
	d.Reason = reason
	b.updateDelivery(ctx, d, deadLetterTTL)

	pipe := b.client.Pipeline()
	pipe.LRem(ctx, processingKey(d.Queue), 1, d.ID)
	pipe.LPush(ctx, deadLetterKey(d.Queue), d.ID)
	_, err := pipe.Exec(ctx)
	return err
}

// Stats returns pending/processing/dead depths for a queue.
func (b *RedisBroker) Stats(ctx context.Context, queue string) (QueueStats, error) {
	pipe := b.client.Pipeline()
	pending := pipe.LLen(ctx, pendingKey(queue))
	processing := pipe.LLen(ctx, processingKey(queue))
	dead := pipe.LLen(ctx, deadLetterKey(queue))
	if _, err := pipe.Exec(ctx); err != nil {
		return QueueStats{}, err
	}

	return QueueStats{
		Pending:    pending.Val(),
		Processing: processing.Val(),
		Dead:       dead.Val(),
	}, nil
}

// RecoverStuck requeues deliveries that have sat on the processing list
// longer than maxAge, typically after a consumer crash. The delivery
// count is preserved so the ceiling still applies.
func (b *RedisBroker) RecoverStuck(ctx context.Context, queue string, maxAge time.Duration) (int, error) {
	ids, err := b.client.LRange(ctx, processingKey(queue), 0, -1).Result()
	if err != nil {
		return 0, err
	}

	recovered := 0
	now := time.Now().UTC()
	for _, id := range ids {
		data, err := b.client.Get(ctx, messageKey(queue, id)).Result()
		if err != nil {
			if err != redis.Nil {
				log.Errorf("[Broker] Sweeper Get error for %s: %v", id, err)
			}
			_ = b.client.LRem(ctx, processingKey(queue), 1, id).Err()
			continue
		}

		var d Delivery
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			log.Errorf("[Broker] Sweeper unmarshal error for %s: %v", id, err)
			_ = b.client.LRem(ctx, processingKey(queue), 1, id).Err()
			continue
		}

		started := d.LastDelivery
		if started == nil {
			started = &d.EnqueuedAt
		}
		if now.Sub(*started) <= maxAge {
			continue
		}

		log.Warnf("[Broker] Recovering stuck delivery %s on %s, age=%s", id, queue, now.Sub(*started))
		_ = b.client.LRem(ctx, processingKey(queue), 1, id).Err()
		_ = b.client.RPush(ctx, pendingKey(queue), id).Err()
		recovered++
	}

	return recovered, nil
}

func (b *RedisBroker) updateDelivery(ctx context.Context, d *Delivery, ttl time.Duration) {
	data, err := json.Marshal(d)
	if err != nil {
		log.Errorf("[Broker] Failed to marshal delivery %s: %v", d.ID, err)
		return
	}
	if err := b.client.Set(ctx, messageKey(d.Queue, d.ID), data, ttl).Err(); err != nil {
		log.Errorf("[Broker] Failed to update delivery %s: %v", d.ID, err)
	}
}
