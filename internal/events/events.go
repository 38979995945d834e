// Package events publishes registration.changed messages to RabbitMQ after an
// organizer edits a registration, and consumes them for the audit log.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/reunion/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

// RegistrationChanged describes one successful organizer mutation.
type RegistrationChanged struct {
	RegistrationID string          `json:"registration_id"`
	Department     string          `json:"department"`
	ActorID        string          `json:"actor_id"`
	Status         string          `json:"payment_status"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	ChangedAt      time.Time       `json:"changed_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev RegistrationChanged) error
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, RegistrationChanged) error { return nil }

// AMQPPublisher publishes persistent JSON messages to a durable queue through the
// default exchange. A closed channel is redialled on the next Publish.
type AMQPPublisher struct {
	queue   string
	connect func() (*session, error)

	mu   sync.Mutex
	sess *session
}

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type session struct {
	conn io.Closer
	ch   channel
}

func (s *session) close() {
	_ = s.ch.Close()
	_ = s.conn.Close()
}

// Dial connects to the broker and declares queue.
func Dial(url, queue string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{
		queue:   queue,
		connect: func() (*session, error) { return openSession(url, queue) },
	}
	sess, err := p.connect()
	if err != nil {
		return nil, err
	}
	p.sess = sess
	return p, nil
}

func openSession(url, queue string) (*session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	return &session{conn: conn, ch: ch}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev RegistrationChanged) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureSession(); err != nil {
		return err
	}

	err = p.sess.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// ensureSession redials when the broker closed the channel or connection.
// Callers hold p.mu.
func (p *AMQPPublisher) ensureSession() error {
	if p.sess != nil && !p.sess.ch.IsClosed() {
		return nil
	}
	if p.sess != nil {
		p.sess.close()
		p.sess = nil
	}
	sess, err := p.connect()
	if err != nil {
		return fmt.Errorf("rabbitmq reconnect: %w", err)
	}
	logger.Log.Info("registration publisher: reconnected", logger.String("queue", p.queue))
	p.sess = sess
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil {
		return nil
	}
	_ = p.sess.ch.Close()
	err := p.sess.conn.Close()
	p.sess = nil
	return err
}

// Consume reads the queue until ctx is done, reconnecting with backoff when the
// broker goes away. Every message is written to the structured log.
func Consume(ctx context.Context, url, queue string) {
	backoff := time.Second
	for ctx.Err() == nil {
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Log.Warn("registration consumer: dial failed",
				logger.Error(err), logger.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, 30*time.Second)
			continue
		}
		backoff = time.Second

		if err := consumeLoop(ctx, conn, queue); err != nil {
			logger.Log.Warn("registration consumer: loop ended", logger.Error(err))
		}
		_ = conn.Close()
		if !sleep(ctx, 2*time.Second) {
			return
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Log.Warn("registration consumer: set QoS failed", logger.Error(err))
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("deliveries channel closed")
			}
			if err := handleMessage(d.Body); err != nil {
				logger.Log.Warn("registration consumer: bad message", logger.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(body []byte) error {
	var ev RegistrationChanged
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.RegistrationID == "" {
		return fmt.Errorf("missing registration_id")
	}
	logger.Log.Info("registration changed",
		logger.String("registration_id", ev.RegistrationID),
		logger.String("department", ev.Department),
		logger.String("actor_id", ev.ActorID),
		logger.String("payment_status", ev.Status),
		logger.String("amount_paid", ev.AmountPaid.String()),
	)
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
