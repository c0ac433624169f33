package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"skillswap/internal/client"
	"skillswap/internal/models"
	"skillswap/internal/util"
)

// Publisher emits security events to the event stream. Publishing is
// best-effort: a missing or unreachable broker never affects the request
// being served.
type Publisher struct {
	producer *client.KafkaProducer
	topic    string
}

// NewPublisher wraps a Kafka producer; producer may be nil when Kafka is
// disabled, in which case events are dropped silently.
func NewPublisher(producer *client.KafkaProducer, topic string) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
	}
}

// Publish fills in event id and timestamp and writes the event. Errors are
// logged, never returned.
func (p *Publisher) Publish(event models.SecurityEvent) {
	if p.producer == nil {
		return
	}

	event.EventID = uuid.NewString()
	event.EventTime = time.Now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		util.Error("failed to marshal security event",
			zap.String("event_type", event.EventType),
			zap.Error(err))
		return
	}

	// Detached context: the event should outlive the request that raised it.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := p.producer.Publish(ctx, p.topic, []byte(event.EventType), payload); err != nil {
		util.Warn("failed to publish security event",
			zap.String("event_type", event.EventType),
			zap.Error(err))
		return
	}

	util.Debug("security event published",
		zap.String("event_type", event.EventType),
		zap.String("identifier", event.Identifier))
}
