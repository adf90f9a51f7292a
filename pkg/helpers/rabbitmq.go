package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// JSONPublisher is satisfied by RabbitPublisher and by test doubles.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// DeadLetterQueue names the queue rejected jobs of queue end up in.
func DeadLetterQueue(queue string) string { return queue + ".dead" }

// RabbitPublisher publishes JSON jobs to one durable queue. An amqp channel
// is not safe for concurrent publishes, so calls are serialized.
type RabbitPublisher struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    *amqp.Channel
	Queue string
}

func NewRabbitPublisher(url, queue string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := DeclareQueue(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &RabbitPublisher{conn: conn, ch: ch, Queue: queue}, nil
}

// QueueArgs routes messages nacked without requeue to the dead-letter queue.
func QueueArgs(queue string) amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": DeadLetterQueue(queue),
	}
}

// DeclareQueue declares the job queue and its dead-letter queue. The
// publisher and the email worker both call it, so arguments must match.
func DeclareQueue(ch *amqp.Channel, queue string) error {
	if _, err := ch.QueueDeclare(DeadLetterQueue(queue), true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", DeadLetterQueue(queue), err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, QueueArgs(queue)); err != nil {
		return fmt.Errorf("declare %s: %w", queue, err)
	}
	return nil
}

func (p *RabbitPublisher) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// NewJSONPublishing encodes body as a persistent JSON message.
func NewJSONPublishing(body any, now time.Time) (amqp.Publishing, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode job: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now.UTC(),
		Body:         b,
	}, nil
}

// PublishJSON sends body to Queue through the default exchange.
func (p *RabbitPublisher) PublishJSON(ctx context.Context, body any) error {
	msg, err := NewJSONPublishing(body, time.Now())
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil || p.ch.IsClosed() {
		return errors.New("amqp channel closed")
	}
	return p.ch.PublishWithContext(ctx, "", p.Queue, false, false, msg)
}
