package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"voyo/api_curator/pkg/logging"
)

// Event types published to the curator topic.
const (
	EventTriggerFired      = "trigger_fired"
	EventCurationCompleted = "curation_completed"
	EventSessionSwitched   = "session_switched"
	EventMixInserted       = "mix_inserted"
)

// CuratorEvent is the wire shape for downstream analytics consumers.
type CuratorEvent struct {
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	SessionID string                 `json:"session_id"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Publisher sends curator lifecycle events to Kafka. Publishing is
// fire-and-forget: failures are logged, never returned to the caller path
// that produced the event. A nil Publisher is safe and drops everything.
type Publisher struct {
	client *kgo.Client
	logger logging.Logger
	topic  string
}

// NewPublisher connects a producer to the given brokers.
func NewPublisher(brokers []string, topic string, logger logging.Logger) (*Publisher, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ClientID("api-curator"),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.ProducerLinger(10 * time.Millisecond),
		kgo.ProducerBatchMaxBytes(1000000),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return &Publisher{
		client: client,
		logger: logger,
		topic:  topic,
	}, nil
}

// Close flushes and releases the producer.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.client.Close()
}

// Client returns the underlying kgo client for health checks.
func (p *Publisher) Client() *kgo.Client {
	if p == nil {
		return nil
	}
	return p.client
}

// Publish emits one event asynchronously.
func (p *Publisher) Publish(eventType, sessionID string, data map[string]interface{}) {
	if p == nil {
		return
	}

	event := CuratorEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).WithField("event_type", eventType).Warn("Failed to marshal curator event")
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(sessionID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}

	p.client.Produce(context.Background(), record, func(r *kgo.Record, err error) {
		if err != nil {
			p.logger.WithError(err).WithFields(logging.Fields{
				"event_type": eventType,
				"session_id": sessionID,
			}).Warn("Failed to publish curator event")
		}
	})
}

// TriggerFired reports a buffer trigger.
func (p *Publisher) TriggerFired(sessionID, trigger string, signalCount int) {
	p.Publish(EventTriggerFired, sessionID, map[string]interface{}{
		"trigger":      trigger,
		"signal_count": signalCount,
	})
}

// CurationCompleted reports a finished curation cycle.
func (p *Publisher) CurationCompleted(sessionID, source, sessionName string, queueTracks int) {
	p.Publish(EventCurationCompleted, sessionID, map[string]interface{}{
		"source":       source,
		"session_name": sessionName,
		"queue_tracks": queueTracks,
	})
}

// SessionSwitched reports a blend start.
func (p *Publisher) SessionSwitched(sessionID, from, to string) {
	p.Publish(EventSessionSwitched, sessionID, map[string]interface{}{
		"from": from,
		"to":   to,
	})
}

// MixInserted reports a consumed DJ moment.
func (p *Publisher) MixInserted(sessionID, searchQuery string) {
	p.Publish(EventMixInserted, sessionID, map[string]interface{}{
		"search_query": searchQuery,
	})
}
