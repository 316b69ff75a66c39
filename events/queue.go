package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"PropertySearchSys/models"
)

// Queue is the engagement event transport: a single durable RabbitMQ queue
// with JSON bodies. Publishing is fire-and-forget from the caller's point
// of view; consuming applies events against the store.
type Queue struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func Dial(url, queueName string) (*Queue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queueName, err)
	}
	return &Queue{conn: conn, ch: ch, queue: queueName}, nil
}

func (q *Queue) Publish(ctx context.Context, event models.EngagementEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Consume feeds queued events through apply until the context is cancelled
// or the connection drops. Malformed messages and apply failures are
// dropped with a log entry: engagement loss is tolerated by contract, a
// poison message blocking the queue is not.
func (q *Queue) Consume(ctx context.Context, apply func(context.Context, models.EngagementEvent) error) error {
	msgs, err := q.ch.Consume(q.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume queue %s: %w", q.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", q.queue)
			}
			var event models.EngagementEvent
			if err := json.Unmarshal(d.Body, &event); err != nil {
				log.Printf("events: dropping malformed message %s: %v", d.MessageId, err)
				_ = d.Ack(false)
				continue
			}
			if err := apply(ctx, event); err != nil {
				log.Printf("events: dropping %s event %s: %v", event.Type, event.ID, err)
			}
			if err := d.Ack(false); err != nil {
				log.Printf("events: ack failed for %s: %v", event.ID, err)
			}
		}
	}
}

func (q *Queue) Close() error {
	var firstErr error
	if q.ch != nil {
		if err := q.ch.Close(); err != nil {
			firstErr = err
		}
	}
	if q.conn != nil {
		if err := q.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
