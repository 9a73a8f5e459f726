package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"agora/internal/apperr"
	"agora/internal/services"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type publisher interface {
	Publish(ctx context.Context, queue, messageID string, body []byte) error
}

// KarmaPublisher queues karma events for the worker. When publishing fails
// the event is applied through fallback so the delta is not lost.
type KarmaPublisher struct {
	pub      publisher
	queue    string
	fallback services.KarmaSink
	log      *zap.Logger
}

func NewKarmaPublisher(pub publisher, queue string, fallback services.KarmaSink) *KarmaPublisher {
	return &KarmaPublisher{pub: pub, queue: queue, fallback: fallback, log: zap.L()}
}

func (p *KarmaPublisher) Submit(ctx context.Context, ev services.KarmaEvent) error {
	if ev.Delta == 0 {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode karma event: %w", err)
	}
	if err := p.pub.Publish(ctx, p.queue, ev.ID, body); err != nil {
		if p.fallback == nil {
			return fmt.Errorf("publish karma event: %w", err)
		}
		p.log.Warn("karma publish failed, applying directly", zap.String("event_id", ev.ID), zap.Error(err))
		return p.fallback.Submit(ctx, ev)
	}
	return nil
}

// KarmaConsumer applies queued karma events. Delivery is at least once;
// the sink drops replays by event id.
type KarmaConsumer struct {
	sink services.KarmaSink
	log  *zap.Logger
}

func NewKarmaConsumer(sink services.KarmaSink, log *zap.Logger) *KarmaConsumer {
	if log == nil {
		log = zap.L()
	}
	return &KarmaConsumer{sink: sink, log: log}
}

// Run handles deliveries until ctx is done or the channel closes.
func (c *KarmaConsumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	c.log.Info("karma consumer waiting for messages")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("karma delivery channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

func (c *KarmaConsumer) handle(ctx context.Context, d amqp.Delivery) {
	var ev services.KarmaEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil || ev.ID == "" || ev.UserID == 0 {
		c.log.Error("dropping malformed karma event", zap.ByteString("body", d.Body), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	err := c.sink.Submit(ctx, ev)
	switch {
	case err == nil:
		c.log.Debug("karma applied", zap.String("event_id", ev.ID), zap.Uint("user_id", ev.UserID), zap.Int("delta", ev.Delta))
		_ = d.Ack(false)
	case apperr.IsCode(err, apperr.CodeNotFound), apperr.IsCode(err, apperr.CodeValidation):
		c.log.Warn("discarding karma event", zap.String("event_id", ev.ID), zap.Error(err))
		_ = d.Ack(false)
	case d.Redelivered:
		c.log.Error("karma event failed twice, dropping", zap.String("event_id", ev.ID), zap.Error(err))
		_ = d.Nack(false, false)
	default:
		c.log.Warn("karma event failed, requeueing", zap.String("event_id", ev.ID), zap.Error(err))
		_ = d.Nack(false, true)
	}
}
