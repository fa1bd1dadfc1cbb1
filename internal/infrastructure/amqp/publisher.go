package amqp

import (
	"context"
	"time"

	amqplib "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Queue names consumed by the notification and payout collaborators.
const (
	QueueNotifications = "booking.notifications"
	QueuePayouts       = "booking.payouts"
)

// Publisher is a thin RabbitMQ publisher with durable queues and persistent
// deliveries. Connection loss surfaces as publish errors; the outbox drain
// loop owns retrying.
type Publisher struct {
	conn    *amqplib.Connection
	channel *amqplib.Channel
	logger  *zap.Logger
}

// NewPublisher dials the broker and declares the outbound queues.
func NewPublisher(url string, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := amqplib.Dial(url)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	for _, queue := range []string{QueueNotifications, QueuePayouts} {
		if _, err := channel.QueueDeclare(
			queue,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,
		); err != nil {
			channel.Close()
			conn.Close()
			return nil, err
		}
	}

	logger.Info("connected to rabbitmq")
	return &Publisher{
		conn:    conn,
		channel: channel,
		logger:  logger,
	}, nil
}

// Publish sends one persistent JSON message to the named queue.
func (p *Publisher) Publish(ctx context.Context, queue string, body []byte) error {
	if p == nil || p.channel == nil {
		return amqplib.ErrClosed
	}
	return p.channel.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key = queue name
		false, // mandatory
		false, // immediate
		amqplib.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqplib.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

// Close releases the channel and the connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
