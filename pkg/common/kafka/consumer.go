package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/synaptica-ai/noshow/pkg/common/config"
	"github.com/synaptica-ai/noshow/pkg/common/logger"
	"github.com/synaptica-ai/noshow/pkg/common/models"
)

const (
	defaultHandlerAttempts = 5
	defaultRetryBackoff    = time.Second
	maxRetryBackoff        = 30 * time.Second
	deadLetterSource       = "noshow-consumer"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventPublisher receives events whose handling failed for good.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

type Consumer struct {
	reader     messageReader
	attempts   int
	backoff    time.Duration
	deadLetter EventPublisher
	sleep      func(ctx context.Context, d time.Duration) bool
}

type EventHandler func(ctx context.Context, event models.Event) error

func NewConsumer(cfg *config.Config, topic string, groupID string) *Consumer {
	if groupID == "" {
		groupID = cfg.KafkaGroupID
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})

	return newConsumer(reader, cfg.KafkaHandlerAttempts, cfg.KafkaRetryBackoff)
}

func newConsumer(reader messageReader, attempts int, backoff time.Duration) *Consumer {
	if attempts <= 0 {
		attempts = defaultHandlerAttempts
	}
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	return &Consumer{reader: reader, attempts: attempts, backoff: backoff, sleep: sleep}
}

// WithDeadLetter parks events that still fail after the last attempt on
// publisher before their offset is committed.
func (c *Consumer) WithDeadLetter(publisher EventPublisher) *Consumer {
	c.deadLetter = publisher
	return c
}

// Consume blocks until ctx is done. Messages of a partition are handled in
// order: a failing handler is retried with exponential backoff and the offset
// only moves on once it succeeded or the event was parked on the dead-letter
// topic. Consume returns an error when parking fails, leaving the offset
// uncommitted so the event is fetched again after a restart.
func (c *Consumer) Consume(ctx context.Context, handler EventHandler) error {
	fetchDelay := c.backoff
	for {
		message, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			logger.Log.WithError(err).WithField("retry_in", fetchDelay.String()).Error("Failed to fetch message")
			if !c.sleep(ctx, fetchDelay) {
				return ctx.Err()
			}
			fetchDelay = nextBackoff(fetchDelay)
			continue
		}
		fetchDelay = c.backoff

		var event models.Event
		if err := json.Unmarshal(message.Value, &event); err != nil {
			logger.Log.WithError(err).WithField("offset", message.Offset).Error("Failed to unmarshal event")
			c.commit(ctx, message)
			continue
		}

		if err := c.handle(ctx, handler, event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := c.park(ctx, message, event, err); err != nil {
				return err
			}
		}

		c.commit(ctx, message)
	}
}

func (c *Consumer) handle(ctx context.Context, handler EventHandler, event models.Event) error {
	delay := c.backoff
	var err error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err = handler(ctx, event); err == nil {
			return nil
		}
		log := logger.Log.WithError(err).WithFields(map[string]interface{}{
			"event_id": event.ID,
			"attempt":  attempt,
		})
		if attempt == c.attempts {
			log.Error("Failed to process event")
			break
		}
		log.WithField("retry_in", delay.String()).Warn("Failed to process event, retrying")
		if !c.sleep(ctx, delay) {
			return ctx.Err()
		}
		delay = nextBackoff(delay)
	}
	return err
}

func (c *Consumer) park(ctx context.Context, message kafka.Message, event models.Event, cause error) error {
	fields := map[string]interface{}{
		"event_id":  event.ID,
		"partition": message.Partition,
		"offset":    message.Offset,
	}
	if c.deadLetter == nil {
		logger.Log.WithError(cause).WithFields(fields).Error("Dropping event after final attempt")
		return nil
	}

	payload := map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
		"source":     event.Source,
		"data":       event.Data,
		"error":      cause.Error(),
		"topic":      message.Topic,
		"partition":  message.Partition,
		"offset":     message.Offset,
	}
	if err := c.deadLetter.PublishEvent(ctx, event.Type, deadLetterSource, payload); err != nil {
		return fmt.Errorf("parking event %s: %w", event.ID, err)
	}
	logger.Log.WithError(cause).WithFields(fields).Warn("Event parked on dead-letter topic")
	return nil
}

func (c *Consumer) commit(ctx context.Context, message kafka.Message) {
	if err := c.reader.CommitMessages(ctx, message); err != nil {
		logger.Log.WithError(err).Error("Failed to commit message")
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxRetryBackoff {
		return maxRetryBackoff
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
