package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"admarket/internal/config"
	"admarket/internal/logger"

	"github.com/IBM/sarama"
)

// Producer publishes events to Kafka, one topic per event family.
type Producer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
	topics   config.Topics
}

func NewProducer(cfg *config.KafkaConfig, log *logger.Logger) (*Producer, error) {
	sc := sarama.NewConfig()
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 3
	sc.Producer.Return.Successes = true

	sp, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.WithField("brokers", cfg.Brokers).Info("kafka producer connected")
	return &Producer{producer: sp, log: log, topics: cfg.Topics}, nil
}

func (p *Producer) Publish(_ context.Context, e Event) error {
	topic := p.topicFor(e.Type)
	if topic == "" {
		return fmt.Errorf("no kafka topic configured for event %s", e.Type)
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(e.AggregateID, 10)),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(e.Type)},
			{Key: []byte("event_id"), Value: []byte(e.ID.String())},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send event %s: %w", e.Type, err)
	}

	p.log.WithFields(map[string]interface{}{
		"topic":     topic,
		"type":      e.Type,
		"partition": partition,
		"offset":    offset,
	}).Debug("event published")
	return nil
}

func (p *Producer) topicFor(t Type) string {
	switch t.Family() {
	case "booking":
		return p.topics.Bookings
	case "ad":
		return p.topics.Ads
	case "payment":
		return p.topics.Payments
	default:
		return ""
	}
}

func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
