package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// JackpotUpdateEvent is a ledger change announced by one instance to the others.
type JackpotUpdateEvent struct {
	InstanceID string    `json:"instance_id"`
	GameCode   string    `json:"game_code"`
	Multiplier int       `json:"multiplier"`
	Count      int64     `json:"count"`
	Reason     string    `json:"reason"`
	UpdatedAt  time.Time `json:"timestamp"`
}

// UpdateFilter reports whether an event should be handled.
type UpdateFilter func(event JackpotUpdateEvent) bool

// UpdateHandler receives every accepted event.
type UpdateHandler func(event JackpotUpdateEvent)

// MessageReader is the subset of *kafka.Reader used by Consumer.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads jackpot updates and hands them to a handler
type Consumer struct {
	reader  MessageReader
	handler UpdateHandler
	logger  zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.RWMutex
	filter UpdateFilter
}

// ConsumerConfig holds Kafka consumer configuration
type ConsumerConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
	Logger        zerolog.Logger
	// Reader overrides the broker reader.
	Reader MessageReader
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(config ConsumerConfig, handler UpdateHandler) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())

	reader := config.Reader
	if reader == nil {
		reader = kafka.NewReader(kafka.ReaderConfig{
			Brokers:        config.Brokers,
			Topic:          config.Topic,
			GroupID:        config.ConsumerGroup,
			MinBytes:       1,
			MaxBytes:       10e6, // 10MB
			CommitInterval: time.Second,
			StartOffset:    kafka.LastOffset,
		})
	}

	return &Consumer{
		reader:  reader,
		handler: handler,
		logger:  config.Logger.With().Str("component", "kafka-consumer").Logger(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins consuming messages
func (c *Consumer) Start() error {
	c.wg.Add(1)
	go c.consume()
	c.logger.Info().Msg("Kafka consumer started")
	return nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() error {
	c.logger.Info().Msg("Stopping Kafka consumer...")
	c.cancel()
	c.wg.Wait()

	if err := c.reader.Close(); err != nil {
		c.logger.Error().Err(err).Msg("Error closing Kafka reader")
		return err
	}

	c.logger.Info().Msg("Kafka consumer stopped")
	return nil
}

// consume is the main consumer loop
func (c *Consumer) consume() {
	defer c.wg.Done()

	for {
		msg, err := c.reader.FetchMessage(c.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || c.ctx.Err() != nil {
				return
			}
			c.logger.Error().Err(err).Msg("Error fetching message from Kafka")
			select {
			case <-c.ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		if err := c.handleMessage(msg); err != nil {
			c.logger.Error().
				Err(err).
				Str("topic", msg.Topic).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("Error handling message")
		}

		if err := c.reader.CommitMessages(c.ctx, msg); err != nil && c.ctx.Err() == nil {
			c.logger.Error().Err(err).Msg("Error committing message")
		}
	}
}

// handleMessage processes a single Kafka message
func (c *Consumer) handleMessage(msg kafka.Message) error {
	var event JackpotUpdateEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return err
	}

	c.mu.RLock()
	accept := c.filter == nil || c.filter(event)
	c.mu.RUnlock()

	if !accept {
		c.logger.Debug().
			Str("instance_id", event.InstanceID).
			Int("multiplier", event.Multiplier).
			Msg("Skipping jackpot update")
		return nil
	}

	if c.handler != nil {
		c.handler(event)
	}
	return nil
}

// SetFilter sets a filter for incoming updates. A nil filter accepts all.
func (c *Consumer) SetFilter(filter UpdateFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = filter
}
