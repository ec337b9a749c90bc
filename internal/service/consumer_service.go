package service

import (
	"context"
	"encoding/json"
	"time"

	"nova-advisor-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IConsumerService drains turn events into the audit trail.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	auditLogger logger.ILogger
}

func NewConsumerService(pubSub *gochannel.GoChannel, topicName string, auditLogger logger.ILogger) IConsumerService {
	return &consumerService{
		pubSub:      pubSub,
		topicName:   topicName,
		auditLogger: auditLogger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

type turnEnvelope struct {
	Type       string                 `json:"type"`
	Payload    map[string]interface{} `json:"payload"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var envelope turnEnvelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		cs.auditLogger.Error("audit", "failed to unmarshal turn event", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // invalid payloads are not retriable
		return
	}

	details := envelope.Payload
	if details == nil {
		details = map[string]interface{}{}
	}
	details["event_type"] = envelope.Type
	details["occurred_at"] = envelope.OccurredAt.Format(time.RFC3339)

	cs.auditLogger.Info("audit", "advisory turn recorded", details)
	msg.Ack()
}
