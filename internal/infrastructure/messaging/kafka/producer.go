package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/Lossfunk/indiaml-tracker-sub001/internal/config"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/logging"
	"github.com/Lossfunk/indiaml-tracker-sub001/pkg/errors"
)

// Writer is the slice of kafka.Writer the producer uses, abstracted for
// testing.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes dataset-refresh events.  The API server uses it to fan
// out manual refresh requests to every replica.
type Producer struct {
	writer Writer
	logger logging.Logger
}

// NewProducer builds a Producer over a real kafka.Writer.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) *Producer {
	topic := cfg.Topic
	if topic == "" {
		topic = TopicDatasetRefresh
	}
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}
	return NewProducerWithWriter(writer, log)
}

// NewProducerWithWriter builds a Producer over a pre-built Writer; used by
// tests.
func NewProducerWithWriter(w Writer, log logging.Logger) *Producer {
	return &Producer{writer: w, logger: log}
}

// Publish sends one refresh event, keyed by conference-year so events for
// the same dataset stay ordered within a partition.
func (p *Producer) Publish(ctx context.Context, event RefreshEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, errors.CodeSerialization, "failed to encode refresh event")
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key()),
		Value: payload,
	}); err != nil {
		return errors.Wrap(err, errors.CodeMessaging, "failed to publish refresh event").WithDetail(event.Key())
	}
	p.logger.Debug("refresh event published",
		logging.String("conference", event.Conference),
		logging.Int("year", event.Year))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
