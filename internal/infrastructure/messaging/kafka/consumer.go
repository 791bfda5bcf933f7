package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Lossfunk/indiaml-tracker-sub001/internal/config"
	"github.com/Lossfunk/indiaml-tracker-sub001/internal/infrastructure/monitoring/logging"
)

// Reader is the slice of kafka.Reader the consumer uses, abstracted for
// testing.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler processes one refresh event.  Errors are logged, not retried; the
// next refresh of the same dataset supersedes a failed one.
type Handler func(ctx context.Context, event RefreshEvent) error

// Consumer subscribes to the dataset-refresh topic and dispatches events to
// a Handler.
type Consumer struct {
	reader  Reader
	handler Handler
	logger  logging.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewConsumer builds a Consumer over a real kafka.Reader.
func NewConsumer(cfg config.KafkaConfig, handler Handler, log logging.Logger) *Consumer {
	topic := cfg.Topic
	if topic == "" {
		topic = TopicDatasetRefresh
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		GroupID: cfg.GroupID,
		Topic:   topic,
	})
	return NewConsumerWithReader(reader, handler, log)
}

// NewConsumerWithReader builds a Consumer over a pre-built Reader; used by
// tests.
func NewConsumerWithReader(r Reader, handler Handler, log logging.Logger) *Consumer {
	return &Consumer{reader: r, handler: handler, logger: log}
}

// Start launches the consume loop.  It returns immediately; the loop runs
// until Stop is called or ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx)
	}()
}

func (c *Consumer) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("failed to fetch refresh event", logging.Err(err))
			time.Sleep(time.Second) // prevent busy loop on error
			continue
		}

		var event RefreshEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			// Malformed payloads are committed and skipped so they cannot
			// wedge the partition.
			c.logger.Warn("skipping malformed refresh event",
				logging.String("topic", msg.Topic),
				logging.Int64("offset", msg.Offset),
				logging.Err(err))
		} else if err := c.handler(ctx, event); err != nil {
			c.logger.Error("refresh handler failed",
				logging.String("conference", event.Conference),
				logging.Int("year", event.Year),
				logging.Err(err))
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("failed to commit refresh event", logging.Err(err))
		}
	}
}

// Stop cancels the consume loop and closes the reader.
func (c *Consumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	err := c.reader.Close()
	c.wg.Wait()
	return err
}
