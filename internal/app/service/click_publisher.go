package service

import (
	"encoding/json"

	"github.com/DemoMacro/jumpstats/internal/app/model"
	"github.com/nats-io/nats.go"
)

// ClickEventPublisher hands enriched click events to the delivery pipeline.
type ClickEventPublisher interface {
	Publish(event *model.ClickEvent) error
}

// ClickPublisher publishes click events to NATS JetStream.
type ClickPublisher struct {
	js nats.JetStreamContext
}

// NewClickPublisher creates a new click event publisher.
func NewClickPublisher(js nats.JetStreamContext) *ClickPublisher {
	return &ClickPublisher{js: js}
}

// Publish appends the event to the click stream. Delivery is best effort;
// the caller decides whether a failure is worth more than a log line.
func (p *ClickPublisher) Publish(event *model.ClickEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.ClickStreamSubject, data)
	return err
}
