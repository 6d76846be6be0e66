package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrBrokerUnavailable is returned while the broker connection is down.
var ErrBrokerUnavailable = errors.New("events: broker unavailable")

const redialBackoff = 5 * time.Second

// amqpChannel is the part of *amqp.Channel the publisher uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type dialFunc func() (io.Closer, amqpChannel, error)

// AMQPPublisher publishes events to a RabbitMQ topic exchange, routed by event type.
// A dropped connection is re-dialed on the next Publish, at most once per
// redialBackoff.
type AMQPPublisher struct {
	exchange string
	dial     dialFunc
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex // amqp channels are not safe for concurrent publishing
	conn     io.Closer
	ch       amqpChannel
	nextDial time.Time
	closed   bool
}

// NewAMQPPublisher dials RabbitMQ and declares the exchange.
func NewAMQPPublisher(url, exchange string, logger *slog.Logger) (*AMQPPublisher, error) {
	p := newAMQPPublisher(exchange, logger, func() (io.Closer, amqpChannel, error) {
		conn, ch, err := dialExchange(url, exchange)
		if err != nil {
			return nil, nil, err
		}
		return conn, ch, nil
	})

	conn, ch, err := p.dial()
	if err != nil {
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return p, nil
}

func newAMQPPublisher(exchange string, logger *slog.Logger, dial dialFunc) *AMQPPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AMQPPublisher{
		exchange: exchange,
		dial:     dial,
		logger:   logger,
		now:      time.Now,
	}
}

func dialExchange(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}
	return conn, ch, nil
}

// Publish sends the event as persistent JSON.
func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.OccurredAt,
		Type:         string(event.Type),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return amqp.ErrClosed
	}
	if p.ch == nil || p.ch.IsClosed() {
		if err := p.redialLocked(); err != nil {
			return err
		}
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, string(event.Type), false, false, msg)
	if !errors.Is(err, amqp.ErrClosed) {
		return err
	}

	// The connection went away between the check and the publish.
	if err := p.redialLocked(); err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, string(event.Type), false, false, msg)
}

func (p *AMQPPublisher) redialLocked() error {
	p.dropLocked()

	now := p.now()
	if now.Before(p.nextDial) {
		return fmt.Errorf("%w: next attempt at %s", ErrBrokerUnavailable, p.nextDial.Format(time.RFC3339))
	}

	conn, ch, err := p.dial()
	if err != nil {
		p.nextDial = now.Add(redialBackoff)
		p.logger.Warn("rabbitmq reconnect failed", "exchange", p.exchange, "error", err)
		return fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}
	p.conn, p.ch = conn, ch
	p.nextDial = time.Time{}
	p.logger.Info("rabbitmq reconnected", "exchange", p.exchange)
	return nil
}

func (p *AMQPPublisher) dropLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close closes the channel and the connection. Later publishes fail.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}
