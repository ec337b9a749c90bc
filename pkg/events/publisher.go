package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Publisher sends events onto the in-process bus. Subscribers on the same
// GoChannel instance receive them; the audit consumer is the main one.
type Publisher struct {
	pubSub *gochannel.GoChannel
	topic  string
}

func NewPublisher(pubSub *gochannel.GoChannel, topic string) *Publisher {
	return &Publisher{pubSub: pubSub, topic: topic}
}

type envelope struct {
	Type       string                 `json:"type"`
	Payload    map[string]interface{} `json:"payload"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Publish serializes the event and hands it to the bus. The gochannel
// transport does not use the context, but the signature keeps call sites
// uniform with other publishers.
func (p *Publisher) Publish(_ context.Context, event Event) error {
	data, err := json.Marshal(envelope{
		Type:       event.EventType(),
		Payload:    event.Payload(),
		OccurredAt: event.Timestamp(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	if err := p.pubSub.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.EventType(), err)
	}

	return nil
}
