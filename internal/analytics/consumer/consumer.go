package consumer

import (
	"context"
	"fmt"
	"time"

	"linkapp/internal/analytics/sink"
	"linkapp/internal/eventbus"
	"linkapp/internal/shared/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Config bounds the in-memory batch. A flush fires when the batch reaches
// Size or when FlushInterval has elapsed since the last flush, whichever
// comes first. PollInterval is the idle wake-up used to notice the time
// threshold when no messages arrive.
type Config struct {
	Size          int
	FlushInterval time.Duration
	PollInterval  time.Duration
}

// DefaultConfig mirrors the production thresholds: 100 events, 5 seconds,
// 500ms idle poll.
func DefaultConfig() Config {
	return Config{
		Size:          100,
		FlushInterval: 5 * time.Second,
		PollInterval:  500 * time.Millisecond,
	}
}

// Consumer drains click events from the broker into a consumer-owned batch
// and flushes it to every sink. Messages are acked only after a flush, and
// nacked as a whole on failure so the broker redelivers them; re-processing a
// previously flushed batch is tolerated downstream.
//
// One Consumer runs per process; the batch is owned exclusively by its run
// loop, so no locking is needed around accumulation.
type Consumer struct {
	subscriber message.Subscriber
	sinks      []sink.Sink
	cfg        Config
	logger     *zap.Logger
}

// New creates a click batch consumer. Sinks are flushed in slice order.
func New(subscriber message.Subscriber, sinks []sink.Sink, cfg Config, logger *zap.Logger) *Consumer {
	if cfg.Size <= 0 {
		cfg.Size = DefaultConfig().Size
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultConfig().FlushInterval
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	return &Consumer{
		subscriber: subscriber,
		sinks:      sinks,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run consumes until ctx is canceled, then flushes any partial batch before
// returning. Events already claimed into the batch are never abandoned
// unflushed.
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.subscriber.Subscribe(ctx, eventbus.ClickTopic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", eventbus.ClickTopic, err)
	}

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	batch := make([]*message.Message, 0, c.cfg.Size)
	lastFlush := time.Now()

	for {
		select {
		case <-ctx.Done():
			c.finalFlush(batch)
			return nil

		case msg, ok := <-msgs:
			if !ok {
				c.finalFlush(batch)
				return nil
			}
			batch = append(batch, msg)
			if len(batch) >= c.cfg.Size {
				c.flush(ctx, batch)
				batch = batch[:0]
				lastFlush = time.Now()
			}

		case <-ticker.C:
			if len(batch) > 0 && time.Since(lastFlush) >= c.cfg.FlushInterval {
				c.flush(ctx, batch)
				batch = batch[:0]
				lastFlush = time.Now()
			}
		}
	}
}

// flush decodes the batch, writes it to every sink, then acks or nacks all
// messages together. Each sink is attempted regardless of the others'
// outcome; any sink failure leaves the batch unacked for redelivery.
func (c *Consumer) flush(ctx context.Context, msgs []*message.Message) {
	valid := make([]*message.Message, 0, len(msgs))
	decoded := make([]events.ClickEvent, 0, len(msgs))
	for _, msg := range msgs {
		event, err := eventbus.MessageToEvent(msg)
		if err != nil {
			// Malformed payloads can never succeed on redelivery.
			c.logger.Error("dropping malformed click event",
				zap.String("message_uuid", msg.UUID),
				zap.Error(err),
			)
			msg.Ack()
			continue
		}
		valid = append(valid, msg)
		decoded = append(decoded, event)
	}
	if len(valid) == 0 {
		return
	}

	rows := lo.Map(decoded, func(e events.ClickEvent, _ int) sink.ClickRow {
		return sink.RowFromEvent(e)
	})

	failed := false
	for _, s := range c.sinks {
		if err := s.WriteBatch(ctx, rows); err != nil {
			failed = true
			c.logger.Error("sink batch write failed",
				zap.String("sink", s.Name()),
				zap.Int("rows", len(rows)),
				zap.Error(err),
			)
			continue
		}
		c.logger.Info("flushed click batch",
			zap.String("sink", s.Name()),
			zap.Int("rows", len(rows)),
		)
	}

	for _, msg := range valid {
		if failed {
			msg.Nack()
		} else {
			msg.Ack()
		}
	}
}

// finalFlush writes the remaining batch during shutdown, detached from the
// canceled run context.
func (c *Consumer) finalFlush(msgs []*message.Message) {
	if len(msgs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c.flush(ctx, msgs)
}
