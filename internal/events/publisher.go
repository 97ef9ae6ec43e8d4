// Package events relays reservation events from the transactional outbox to Kafka.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/telemetry"
)

// MessageWriter is the subset of *kafka.Writer used by the publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PublisherConfig configures the outbox relay.
type PublisherConfig struct {
	Brokers   []string
	Topic     string
	PollEvery time.Duration
	BatchSize int
}

// Publisher polls unpublished outbox rows, writes them to Kafka keyed by room
// id, and marks them published. Delivery is at least once.
type Publisher struct {
	outbox    persistence.OutboxRepository
	writer    MessageWriter
	logger    *slog.Logger
	pollEvery time.Duration
	batchSize int
	now       func() time.Time
}

// NewPublisher builds a publisher backed by a kafka-go writer. It returns nil
// when no brokers are configured.
func NewPublisher(outbox persistence.OutboxRepository, cfg PublisherConfig, logger *slog.Logger) *Publisher {
	if len(cfg.Brokers) == 0 {
		return nil
	}
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},
	})
	return NewPublisherWithWriter(outbox, writer, cfg, logger)
}

// NewPublisherWithWriter builds a publisher around an existing writer.
func NewPublisherWithWriter(outbox persistence.OutboxRepository, writer MessageWriter, cfg PublisherConfig, logger *slog.Logger) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		outbox:    outbox,
		writer:    writer,
		logger:    logger.With("component", "outbox_publisher"),
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
		now:       time.Now,
	}
}

// Run relays batches until ctx is cancelled, then closes the writer.
func (p *Publisher) Run(ctx context.Context) {
	if p == nil {
		return
	}
	defer func() {
		if err := p.writer.Close(); err != nil {
			p.logger.Warn("failed to close kafka writer", "error", err)
		}
	}()

	p.logger.Info("outbox publisher started", "poll_every", p.pollEvery.String(), "batch_size", p.batchSize)

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox publisher stopped")
			return
		case <-ticker.C:
			n, err := p.PublishBatch(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				p.logger.Error("outbox publish failed", "error", err)
				continue
			}
			if n > 0 {
				p.logger.Debug("outbox batch published", "count", n)
			}
		}
	}
}

// PublishBatch relays at most one batch and returns how many records were published.
// Records are marked published only after the writer accepted all of them.
func (p *Publisher) PublishBatch(ctx context.Context) (int, error) {
	records, err := p.outbox.FetchUnpublished(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	msgs := make([]kafka.Message, 0, len(records))
	ids := make([]string, 0, len(records))
	for _, record := range records {
		msg := kafka.Message{
			Key:   []byte(record.AggregateID),
			Value: record.Payload,
			Time:  record.CreatedAt,
			Headers: []kafka.Header{
				{Key: "event_id", Value: []byte(record.ID)},
				{Key: "event_type", Value: []byte(record.EventType)},
			},
		}
		msgCtx := telemetry.ContextWithTraceContext(ctx, record.Traceparent, record.Tracestate)
		msg.Headers = InjectTraceHeaders(msgCtx, msg.Headers)
		msgs = append(msgs, msg)
		ids = append(ids, record.ID)
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return 0, fmt.Errorf("write messages: %w", err)
	}
	if err := p.outbox.MarkPublished(ctx, ids, p.now()); err != nil {
		return 0, fmt.Errorf("mark published: %w", err)
	}
	return len(records), nil
}

// ReadyCheck dials the first broker.
func ReadyCheck(brokers []string) func(context.Context) error {
	return func(ctx context.Context) error {
		if len(brokers) == 0 {
			return errors.New("kafka brokers not configured")
		}
		dialer := kafka.Dialer{Timeout: 2 * time.Second}
		conn, err := dialer.DialContext(ctx, "tcp", brokers[0])
		if err != nil {
			return err
		}
		_ = conn.Close()
		return nil
	}
}
