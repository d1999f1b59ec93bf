package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Video2Frames/video-processor/internal/domain/event"
	"github.com/Video2Frames/video-processor/internal/domain/port"
	amqp "github.com/rabbitmq/amqp091-go"
)

// EventPublisher implements the EventPublisher port over a topic exchange.
// Events go out as persistent JSON messages routed to the status queue.
type EventPublisher struct {
	channel    *amqp.Channel
	exchange   string
	routingKey string
}

func NewEventPublisher(conn *amqp.Connection, exchange, routingKey string) (*EventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open publisher channel: %w", err)
	}
	return &EventPublisher{channel: ch, exchange: exchange, routingKey: routingKey}, nil
}

func (p *EventPublisher) Publish(ctx context.Context, ev event.DomainEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return &port.PublishError{EventType: ev.EventType(), Err: err}
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		p.routingKey,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         ev.EventType(),
			MessageId:    ev.EventID().String(),
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
		},
	)
	if err != nil {
		return &port.PublishError{EventType: ev.EventType(), Err: err}
	}
	return nil
}

// DLQPublisher parks undecodable inbound messages on a dead letter queue.
type DLQPublisher struct {
	channel *amqp.Channel
	queue   string
}

func NewDLQPublisher(conn *amqp.Connection, queue string) (*DLQPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open dlq channel: %w", err)
	}
	return &DLQPublisher{channel: ch, queue: queue}, nil
}

func (p *DLQPublisher) PublishToDLQ(ctx context.Context, msg []byte, reason string) error {
	return p.channel.PublishWithContext(ctx,
		"",
		p.queue,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         msg,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Headers: amqp.Table{
				"x-dlq-reason": reason,
			},
		},
	)
}
