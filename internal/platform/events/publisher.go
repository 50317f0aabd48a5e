// Package events publishes patient lifecycle events to the external stream.
// A publish is a discrete, observable action: it either reaches the broker
// with full acknowledgement or reports ErrPublishFailed to the caller.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
)

// ErrPublishFailed means the event did not reach the stream. On the creation
// path the patient record and billing account already exist when this is
// reported; only the event is missing.
var ErrPublishFailed = errors.New("event publish failed")

// EventTypePatientCreated identifies the creation lifecycle event.
const EventTypePatientCreated = "PATIENT_CREATED"

// PatientCreated is the payload downstream consumers receive. Consumers can
// look up full patient and billing state the moment they see it, because it
// is only published after both are in place.
type PatientCreated struct {
	EventType string    `json:"event_type"`
	PatientID string    `json:"patient_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}

// KafkaPublisher writes events to a Kafka topic with full-ISR acks.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      zerolog.Logger
}

// ProducerConfig returns the sarama configuration the publisher requires:
// synchronous sends, acknowledgement from all in-sync replicas, and an
// idempotent producer so broker-level retries cannot duplicate events.
func ProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Version = sarama.V2_1_0_0
	return cfg
}

func NewKafkaPublisher(brokers []string, topic string, log zerolog.Logger) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, ProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, topic, log), nil
}

// NewKafkaPublisherWithProducer wires an existing producer, letting tests
// substitute sarama's mock.
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, log zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, log: log}
}

func (p *KafkaPublisher) PublishPatientCreated(ctx context.Context, evt PatientCreated) error {
	evt.EventType = EventTypePatientCreated
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("%w: marshal payload: %w", ErrPublishFailed, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		// Keyed by patient id so all events for one patient share a partition.
		Key:   sarama.StringEncoder(evt.PatientID),
		Value: sarama.ByteEncoder(payload),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	p.log.Info().
		Str("patient_id", evt.PatientID).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("patient created event published")
	return nil
}

// Close flushes and shuts down the underlying producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
