// Package mq carries karma events over RabbitMQ.
package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// New dials url and opens one channel.
func New(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	return &RabbitMQ{conn: conn, channel: ch}, nil
}

// DeclareQueue makes sure a durable queue named name exists.
func (r *RabbitMQ) DeclareQueue(name string) error {
	_, err := r.channel.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	return nil
}

// Publish sends a persistent JSON message to queue through the default
// exchange.
func (r *RabbitMQ) Publish(ctx context.Context, queue, messageID string, body []byte) error {
	return r.channel.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Body:         body,
	})
}

// Consume starts a manual-ack consumer with a small prefetch window.
func (r *RabbitMQ) Consume(queue, consumer string) (<-chan amqp.Delivery, error) {
	if err := r.channel.Qos(16, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return r.channel.Consume(queue, consumer, false, false, false, false, nil)
}

func (r *RabbitMQ) Close() {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
}
