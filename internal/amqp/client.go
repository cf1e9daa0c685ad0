package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"expensebook/internal/log"
	"expensebook/internal/store"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	maxBackoff     = 30 * time.Second
	publishTimeout = 5 * time.Second
)

// Client publishes and consumes StateSavedMessages on a direct exchange.
// Publishing trips a circuit breaker after repeated failures; consuming
// reconnects with exponential backoff.
type Client struct {
	url          string
	exchangeName string
	queueName    string
	logger       *log.Logger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	lastFailure  time.Time
}

// NewClient connects to url and declares the exchange and queue.
func NewClient(url, exchangeName, queueName string, logger *log.Logger) (*Client, error) {
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       log.OrDiscard(logger).WithComponent(log.ComponentAMQP),
	}
	if _, err := c.ensureChannel(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) ensureChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil && !c.channel.IsClosed() {
		return c.channel, nil
	}
	if c.conn == nil || c.conn.IsClosed() {
		conn, err := amqp091.Dial(c.url)
		if err != nil {
			return nil, fmt.Errorf("dial AMQP: %w", err)
		}
		c.conn = conn
	}
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := c.setup(ch); err != nil {
		ch.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	c.channel = ch
	return ch, nil
}

func (c *Client) setup(ch *amqp091.Channel) error {
	err := ch.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key is the queue name.
	if err := ch.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// dropChannel forgets the current channel so the next call reconnects.
func (c *Client) dropChannel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	if time.Since(c.lastFailure) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	n := atomic.AddInt64(&c.failureCount, 1)
	c.lastFailure = time.Now()
	if n >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// NotifySaved publishes a StateSavedMessage for ev.
func (c *Client) NotifySaved(ctx context.Context, ev store.SavedEvent) error {
	return c.PublishStateSaved(ctx, NewStateSavedMessage(ev))
}

// PublishStateSaved publishes msg as a persistent JSON message.
func (c *Client) PublishStateSaved(ctx context.Context, msg *StateSavedMessage) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("circuit breaker is open, last failure at %s", c.lastFailure.Format(time.RFC3339))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ch, err := c.ensureChannel()
	if err != nil {
		c.recordFailure()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.ID.String(),
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.dropChannel()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	c.logger.DebugContext(ctx, "Published state saved message",
		"id", msg.ID,
		log.FieldRevision, msg.Revision,
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// ConsumeStateSaved delivers messages to handler until ctx is done. A
// failed handler requeues the message; an undecodable one is dropped.
// Lost connections are re-established with exponential backoff.
func (c *Client) ConsumeStateSaved(ctx context.Context, handler func(context.Context, *StateSavedMessage) error) error {
	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ch, err := c.ensureChannel()
		if err == nil {
			attempt = 0
			err = c.consume(ctx, ch, handler)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !isConnectionError(err) {
				return err
			}
			c.dropChannel()
		}

		wait := exponentialBackoff(attempt)
		attempt++
		c.logger.WarnContext(ctx, "AMQP connection lost, retrying",
			log.FieldError, err, "attempt", attempt, "wait", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) consume(ctx context.Context, ch *amqp091.Channel, handler func(context.Context, *StateSavedMessage) error) error {
	msgs, err := ch.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.InfoContext(ctx, "Started consuming state saved messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return amqp091.ErrClosed
			}

			msg, err := StateSavedMessageFromJSON(delivery.Body)
			if err != nil {
				c.logger.ErrorContext(ctx, "Failed to unmarshal message", log.FieldError, err)
				_ = delivery.Nack(false, false)
				continue
			}

			if err := handler(ctx, msg); err != nil {
				c.logger.ErrorContext(ctx, "Failed to handle message",
					log.FieldError, err, "id", msg.ID, log.FieldRevision, msg.Revision)
				_ = delivery.Nack(false, true)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// exponentialBackoff returns 1s, 2s, 4s... capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

var connectionErrorHints = []string{
	"connection refused",
	"connection closed",
	"connection reset",
	"eof",
	"broken pipe",
	"use of closed network connection",
	"channel/connection is not open",
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range connectionErrorHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}
