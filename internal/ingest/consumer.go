package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/matheus3301/guestfeed/internal/bus"
)

// Config selects the broker topology the consumer declares.
type Config struct {
	URL               string
	Exchange          string
	Queue             string
	RoutingKey        string
	BookingRoutingKey string
	Prefetch          int
	RetryAttempts     int
	RetryDelay        time.Duration
}

const maxRetryDelay = 60 * time.Second

// Consumer receives inbound messages from AMQP and publishes them on the bus.
// A Consumer with an empty URL is disabled.
type Consumer struct {
	cfg    Config
	bus    *bus.Bus
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewConsumer builds a consumer; it does not connect until Start.
func NewConsumer(cfg Config, b *bus.Bus, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 10
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 5
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &Consumer{cfg: cfg, bus: b, logger: logger, now: time.Now}
}

// Enabled reports whether a broker URL is configured.
func (c *Consumer) Enabled() bool { return c.cfg.URL != "" }

// Start connects, declares the topology and consumes in the background.
func (c *Consumer) Start(ctx context.Context) error {
	if !c.Enabled() {
		c.logger.Info("ingest consumer disabled")
		return nil
	}
	conn, err := dialWithRetry(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	deliveries, err := c.setup(ch)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	c.run(conn, ch, deliveries)
	c.logger.Info("ingest consumer started",
		zap.String("exchange", c.cfg.Exchange),
		zap.String("queue", c.cfg.Queue))
	return nil
}

// run consumes deliveries in the background until Stop. The context given
// to Start only bounds connecting.
func (c *Consumer) run(conn *amqp.Connection, ch *amqp.Channel, deliveries <-chan amqp.Delivery) {
	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.conn, c.ch, c.cancel = conn, ch, cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.consume(ctx, deliveries)
	}()
}

func (c *Consumer) setup(ch *amqp.Channel) (<-chan amqp.Delivery, error) {
	if err := ch.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	q, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	for _, key := range []string{c.cfg.RoutingKey, c.cfg.BookingRoutingKey} {
		if key == "" {
			continue
		}
		if err := ch.QueueBind(q.Name, key, c.cfg.Exchange, false, nil); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	return deliveries, nil
}

func (c *Consumer) consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				c.logger.Warn("ingest delivery channel closed")
				return
			}
			c.handle(d)
		}
	}
}

// handle publishes a decoded delivery and acknowledges it. Undecodable
// deliveries are rejected without requeue.
func (c *Consumer) handle(d amqp.Delivery) {
	evt, err := Decode(d.Body, c.now())
	if err != nil {
		c.logger.Warn("dropping undecodable delivery",
			zap.String("routing_key", d.RoutingKey),
			zap.String("message_id", d.MessageId),
			zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	c.bus.Publish(evt)
	if err := d.Ack(false); err != nil {
		c.logger.Warn("ack failed", zap.Error(err))
	}
}

// Stop cancels consumption and closes the broker connection.
func (c *Consumer) Stop() error {
	c.mu.Lock()
	cancel, ch, conn := c.cancel, c.ch, c.conn
	c.cancel, c.ch, c.conn = nil, nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	c.wg.Wait()
	if ch != nil {
		_ = ch.Close()
	}
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// dialWithRetry connects with exponential backoff, honoring ctx.
func dialWithRetry(ctx context.Context, cfg Config, logger *zap.Logger) (*amqp.Connection, error) {
	var lastErr error
	delay := cfg.RetryDelay
	for attempt := 1; attempt <= cfg.RetryAttempts; attempt++ {
		conn, err := amqp.Dial(cfg.URL)
		if err == nil {
			if attempt > 1 {
				logger.Info("broker connected", zap.Int("attempt", attempt))
			}
			return conn, nil
		}
		lastErr = err
		if attempt == cfg.RetryAttempts {
			break
		}

		logger.Warn("broker dial failed",
			zap.Int("attempt", attempt),
			zap.Duration("sleep", delay),
			zap.Error(err))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(errors.New("dial cancelled"), ctx.Err())
		case <-timer.C:
		}
		delay = min(delay*2, maxRetryDelay)
	}
	return nil, fmt.Errorf("connect to broker after %d attempts: %w", cfg.RetryAttempts, lastErr)
}
