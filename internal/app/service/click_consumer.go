package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DemoMacro/jumpstats/internal/app/model"
	"github.com/DemoMacro/jumpstats/internal/app/repository"
	infraprom "github.com/DemoMacro/jumpstats/internal/infra/prometheus"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// ClickConsumer drains the click stream into the analytics store. Persistence
// is at-least-once: a failed insert is NAKed and redelivered, duplicates are
// tolerated by the read side.
type ClickConsumer struct {
	js         nats.JetStreamContext
	logger     *zap.Logger
	events     repository.ClickEventRepository
	retryDelay time.Duration
}

// NewClickConsumer creates a new click event consumer.
func NewClickConsumer(js nats.JetStreamContext, logger *zap.Logger, events repository.ClickEventRepository) *ClickConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClickConsumer{js: js, logger: logger, events: events, retryDelay: time.Second}
}

// Start ensures the stream and durable consumer exist, then consumes in the
// background until the connection closes.
func (c *ClickConsumer) Start() error {
	_, err := c.js.StreamInfo(model.ClickStreamName)
	if err != nil {
		_, err = c.js.AddStream(&nats.StreamConfig{
			Name:     model.ClickStreamName,
			Subjects: []string{model.ClickStreamSubject},
			MaxBytes: model.ClickStreamMaxBytes,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	_, err = c.js.ConsumerInfo(model.ClickStreamName, model.ClickConsumerName)
	if err != nil {
		_, err = c.js.AddConsumer(model.ClickStreamName, &nats.ConsumerConfig{
			Durable:   model.ClickConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.ClickStreamSubject, model.ClickConsumerName)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(sub)
	return nil
}

// clickFetcher is the slice of *nats.Subscription the consume loop needs.
type clickFetcher interface {
	Fetch(batch int, opts ...nats.PullOpt) ([]*nats.Msg, error)
}

func (c *ClickConsumer) consume(sub clickFetcher) {
	ctx := context.Background()
	for {
		msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
		if err != nil && !errors.Is(err, nats.ErrTimeout) {
			if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
				c.logger.Warn("click event subscription closed, stopping consumer", zap.Error(err))
				return
			}
			c.logger.Error("failed to fetch click events", zap.Error(err))
			// Back off so a persistent fetch error does not spin the loop.
			time.Sleep(c.retryDelay)
			continue
		}

		for _, msg := range msgs {
			var event model.ClickEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				// Poison message: never going to parse, drop it.
				infraprom.ClickEventsDropped.Inc()
				c.logger.Error("failed to unmarshal click event", zap.Error(err))
				msg.Ack()
				continue
			}

			if err := c.events.Insert(ctx, &event); err != nil {
				c.logger.Error("failed to store click event",
					zap.String("id", event.ID),
					zap.String("short_code", event.ShortCode),
					zap.Error(err))
				msg.Nak()
				continue
			}
			infraprom.ClickEventsPersisted.Inc()

			c.logger.Debug("click event stored",
				zap.String("id", event.ID),
				zap.String("short_code", event.ShortCode),
				zap.Time("timestamp", event.Timestamp),
			)

			msg.Ack()
		}
	}
}
