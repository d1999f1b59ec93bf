// Package rabbitmq carries the inbound upload-notification consumer and the
// outbound event publishers.
package rabbitmq

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// MessageHandler processes one delivery body. A nil return acks the message;
// an error nacks it back onto the queue.
type MessageHandler func(ctx context.Context, body []byte) error

type Consumer struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	queue       string
	workerCount int
	baseDelay   time.Duration
	handler     MessageHandler
	logger      *zap.Logger
	wg          sync.WaitGroup
}

type ConsumerConfig struct {
	URL         string
	Exchange    string
	UploadQueue string
	StatusQueue string
	DLQ         string
	Prefetch    int
	WorkerCount int
	BaseDelayMs int
}

func NewConsumer(cfg ConsumerConfig, handler MessageHandler, logger *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	cleanup := func() {
		ch.Close()
		conn.Close()
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		cleanup()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	for _, q := range []string{cfg.UploadQueue, cfg.StatusQueue, cfg.DLQ} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			cleanup()
			return nil, fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	if err := ch.QueueBind(cfg.UploadQueue, cfg.UploadQueue, cfg.Exchange, false, nil); err != nil {
		cleanup()
		return nil, fmt.Errorf("bind upload queue: %w", err)
	}
	if err := ch.QueueBind(cfg.StatusQueue, cfg.StatusQueue, cfg.Exchange, false, nil); err != nil {
		cleanup()
		return nil, fmt.Errorf("bind status queue: %w", err)
	}

	if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
		cleanup()
		return nil, fmt.Errorf("set qos: %w", err)
	}

	return &Consumer{
		conn:        conn,
		channel:     ch,
		queue:       cfg.UploadQueue,
		workerCount: cfg.WorkerCount,
		baseDelay:   time.Duration(cfg.BaseDelayMs) * time.Millisecond,
		handler:     handler,
		logger:      logger,
	}, nil
}

// Start consumes the upload queue with a pool of workers until ctx is
// cancelled, then waits for in-flight runs to finish.
func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.channel.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	c.logger.Info("starting worker pool",
		zap.Int("workers", c.workerCount),
		zap.String("queue", c.queue),
	)

	for i := 0; i < c.workerCount; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, deliveries)
	}

	<-ctx.Done()
	c.logger.Info("context cancelled, waiting for workers to finish")
	c.wg.Wait()
	return nil
}

func (c *Consumer) worker(ctx context.Context, id int, deliveries <-chan amqp.Delivery) {
	defer c.wg.Done()
	log := c.logger.With(zap.Int("worker_id", id))
	log.Info("worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			return
		case d, ok := <-deliveries:
			if !ok {
				log.Info("delivery channel closed")
				return
			}
			c.processDelivery(ctx, d, log)
		}
	}
}

func (c *Consumer) processDelivery(ctx context.Context, d amqp.Delivery, log *zap.Logger) {
	err := c.handler(ctx, d.Body)
	if err == nil {
		_ = d.Ack(false)
		return
	}

	attempt := attemptFromHeaders(d)
	delay := c.backoff(attempt)
	log.Warn("message processing failed, scheduling retry",
		zap.Error(err),
		zap.Uint64("delivery_tag", d.DeliveryTag),
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay),
	)

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		// shutdown mid-backoff: requeue so the message survives and another
		// consumer picks it up
		_ = d.Nack(false, true)
		return
	}

	// broker redelivery carries no attempt count, so retries go back onto
	// the queue as a fresh publish with the count in a header
	if pubErr := c.republish(ctx, d, attempt+1); pubErr != nil {
		log.Error("republish for retry failed, requeueing as-is", zap.Error(pubErr))
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

func (c *Consumer) republish(ctx context.Context, d amqp.Delivery, attempt int) error {
	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers["x-attempt"] = int32(attempt)

	return c.channel.PublishWithContext(ctx,
		"",
		c.queue,
		false, false,
		amqp.Publishing{
			ContentType:  d.ContentType,
			Type:         d.Type,
			MessageId:    d.MessageId,
			Body:         d.Body,
			DeliveryMode: amqp.Persistent,
			Headers:      headers,
		},
	)
}

func attemptFromHeaders(d amqp.Delivery) int {
	if d.Headers == nil {
		return 1
	}
	switch n := d.Headers["x-attempt"].(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	case int:
		return n
	}
	return 1
}

func (c *Consumer) backoff(attempt int) time.Duration {
	delay := c.baseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > 60*time.Second {
		delay = 60 * time.Second
	}
	return delay
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
