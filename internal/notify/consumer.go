package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EventHandler processes one catalog event. Returning an error requeues
// the message once.
type EventHandler func(ctx context.Context, event *CatalogPublished) error

// Consumer consumes catalog events from the work queue, or from a private
// subscription queue when configured to subscribe.
type Consumer struct {
	conn       *Connection
	handler    EventHandler
	workers    int
	prefetch   int
	subscribe  bool
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	done       chan struct{}
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Workers  int // Number of concurrent workers
	Prefetch int // Prefetch count per worker

	// Subscribe reads every event from an exclusive, auto-delete queue
	// instead of competing for messages on the work queue.
	Subscribe bool
}

// DefaultConsumerConfig returns sensible defaults
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Workers:  1,
		Prefetch: 1,
	}
}

// NewConsumer creates a new queue consumer
func NewConsumer(conn *Connection, handler EventHandler, cfg ConsumerConfig) *Consumer {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}

	return &Consumer{
		conn:      conn,
		handler:   handler,
		workers:   cfg.Workers,
		prefetch:  cfg.Prefetch,
		subscribe: cfg.Subscribe,
		done:      make(chan struct{}),
	}
}

// Start begins consuming messages
func (c *Consumer) Start(ctx context.Context) error {
	ch := c.conn.Channel()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	queue := CatalogQueueName
	if c.subscribe {
		name, err := c.conn.declareSubscription()
		if err != nil {
			return err
		}
		queue = name
	}

	msgs, err := ch.Consume(
		queue,
		"",          // consumer tag (auto-generated)
		false,       // auto-ack
		c.subscribe, // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	slog.Info("starting catalog event consumer",
		"queue", queue,
		"workers", c.workers,
		"prefetch", c.prefetch,
	)

	c.run(ctx, msgs)
	return nil
}

// run starts the workers on msgs. Done is closed once all of them exit.
func (c *Consumer) run(ctx context.Context, msgs <-chan amqp.Delivery) {
	ctx, c.cancelFunc = context.WithCancel(ctx)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, msgs)
	}

	go func() {
		c.wg.Wait()
		close(c.done)
	}()
}

// Done is closed when every worker has stopped, either through Stop or
// because the delivery channel closed.
func (c *Consumer) Done() <-chan struct{} {
	return c.done
}

func (c *Consumer) worker(ctx context.Context, id int, msgs <-chan amqp.Delivery) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-msgs:
			if !ok {
				slog.Info("message channel closed", "worker_id", id)
				return
			}

			c.processMessage(ctx, id, msg)
		}
	}
}

// processMessage decodes and handles a single delivery. Malformed messages
// are dropped. A failed handler requeues the message unless it was already
// redelivered.
func (c *Consumer) processMessage(ctx context.Context, workerID int, msg amqp.Delivery) {
	event, err := decodeEvent(msg.Body)
	if err != nil {
		slog.Error("failed to unmarshal catalog event",
			"worker_id", workerID,
			"error", err,
		)
		_ = msg.Reject(false)
		return
	}

	if err := c.handler(ctx, event); err != nil {
		slog.Error("catalog event handler failed",
			"worker_id", workerID,
			"event_id", event.ID,
			"digest", event.Digest,
			"error", err,
		)
		_ = msg.Nack(false, !msg.Redelivered)
		return
	}

	if err := msg.Ack(false); err != nil {
		slog.Error("failed to ack message",
			"worker_id", workerID,
			"event_id", event.ID,
			"error", err,
		)
	}
}

func decodeEvent(body []byte) (*CatalogPublished, error) {
	var event CatalogPublished
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}
	if event.Digest == "" {
		return nil, fmt.Errorf("catalog event without digest")
	}
	return &event, nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
	slog.Info("consumer stopped")
}
