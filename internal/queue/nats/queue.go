// Package nats implements the work queue on a JetStream work-queue stream
// with a companion dead-letter stream.
package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/pubsub"
	pubsubnats "github.com/ministryofjustice/hmpps-prisoner-search/internal/pubsub/nats"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/queue"
)

// Config names the streams and consumer backing the queue.
type Config struct {
	Stream       string
	DLQStream    string
	ConsumerName string
	MaxDeliver   int
	AckWait      time.Duration
	Storage      pubsub.StorageType
}

func (c Config) subject() string    { return c.Stream + ".work" }
func (c Config) dlqSubject() string { return c.DLQStream + ".dead" }

// Queue is a queue.Queue backed by JetStream.
type Queue struct {
	js     pubsubnats.JetStream
	cfg    Config
	logger *slog.Logger
}

var _ queue.Queue = (*Queue)(nil)

// New ensures both streams and the durable consumer exist.
func New(ctx context.Context, js pubsubnats.JetStream, cfg Config) (*Queue, error) {
	if cfg.MaxDeliver <= 0 {
		cfg.MaxDeliver = queue.DefaultMaxDeliver
	}
	if cfg.AckWait <= 0 {
		cfg.AckWait = pubsub.DefaultConsumerOptions().AckWait
	}
	if cfg.ConsumerName == "" {
		cfg.ConsumerName = cfg.Stream + "-worker"
	}
	q := &Queue{
		js:     js,
		cfg:    cfg,
		logger: slog.Default().With("component", "work-queue", "stream", cfg.Stream),
	}

	storage := jetstream.MemoryStorage
	if cfg.Storage == pubsub.FileStorage {
		storage = jetstream.FileStorage
	}
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      cfg.Stream,
		Subjects:  []string{cfg.subject()},
		Retention: jetstream.WorkQueuePolicy,
		Storage:   storage,
	}); err != nil {
		return nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.Stream, err)
	}
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.DLQStream,
		Subjects: []string{cfg.dlqSubject()},
		Storage:  storage,
	}); err != nil {
		return nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.DLQStream, err)
	}
	if _, err := js.CreateOrUpdateConsumer(ctx, cfg.Stream, pubsubnats.ConsumerConfig(pubsub.ConsumerOptions{
		ConsumerName: cfg.ConsumerName,
		MaxDeliver:   cfg.MaxDeliver,
		AckWait:      cfg.AckWait,
	}, cfg.subject())); err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}
	return q, nil
}

func (q *Queue) Send(ctx context.Context, m queue.Message) error {
	data, err := queue.Encode(m)
	if err != nil {
		return err
	}
	if _, err := q.js.Publish(ctx, q.cfg.subject(), data); err != nil {
		return fmt.Errorf("failed to send %s: %w", m.Kind, err)
	}
	return nil
}

// Depth reads pending and unacknowledged counts from the consumer and the
// message count of the dead-letter stream.
func (q *Queue) Depth(ctx context.Context) (queue.Depth, error) {
	cons, err := q.js.Consumer(ctx, q.cfg.Stream, q.cfg.ConsumerName)
	if err != nil {
		return queue.Depth{}, fmt.Errorf("failed to load consumer: %w", err)
	}
	ci, err := cons.Info(ctx)
	if err != nil {
		return queue.Depth{}, fmt.Errorf("failed to read consumer info: %w", err)
	}
	dlq, err := q.js.Stream(ctx, q.cfg.DLQStream)
	if err != nil {
		return queue.Depth{}, fmt.Errorf("failed to load stream %s: %w", q.cfg.DLQStream, err)
	}
	si, err := dlq.Info(ctx)
	if err != nil {
		return queue.Depth{}, fmt.Errorf("failed to read stream info: %w", err)
	}
	return queue.Depth{
		Visible:      int64(ci.NumPending),
		InFlight:     int64(ci.NumAckPending),
		DeadLettered: int64(si.State.Msgs),
	}, nil
}

func (q *Queue) Purge(ctx context.Context) error {
	var errs []error
	for _, name := range []string{q.cfg.Stream, q.cfg.DLQStream} {
		s, err := q.js.Stream(ctx, name)
		if err == nil {
			err = s.Purge(ctx)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to purge %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Consume delivers work messages. A message Nak'd on its final delivery is
// copied to the dead-letter stream and terminated.
func (q *Queue) Consume(ctx context.Context) (<-chan pubsub.Message, error) {
	cons, err := q.js.Consumer(ctx, q.cfg.Stream, q.cfg.ConsumerName)
	if err != nil {
		return nil, fmt.Errorf("failed to load consumer: %w", err)
	}
	raw, err := pubsubnats.Consume(ctx, cons, pubsub.DefaultConsumerOptions().ChannelBufSize, q.logger)
	if err != nil {
		return nil, err
	}

	out := make(chan pubsub.Message)
	go func() {
		defer close(out)
		for msg := range raw {
			select {
			case out <- &deadLetteringMessage{Message: msg, queue: q}:
			case <-ctx.Done():
				_ = msg.Nak()
			}
		}
	}()
	return out, nil
}

type deadLetteringMessage struct {
	pubsub.Message
	queue *Queue
}

func (m *deadLetteringMessage) Nak() error {
	if m.finalDelivery() {
		return m.deadLetter()
	}
	return m.Message.Nak()
}

func (m *deadLetteringMessage) NakWithDelay(delay time.Duration) error {
	if m.finalDelivery() {
		return m.deadLetter()
	}
	return m.Message.NakWithDelay(delay)
}

func (m *deadLetteringMessage) finalDelivery() bool {
	md, err := m.Metadata()
	return err == nil && md.NumDelivered >= uint64(m.queue.cfg.MaxDeliver)
}

func (m *deadLetteringMessage) deadLetter() error {
	if _, err := m.queue.js.Publish(context.Background(), m.queue.cfg.dlqSubject(), m.Data()); err != nil {
		m.queue.logger.Error("Failed to dead-letter message", "error", err)
		return m.Message.Nak()
	}
	m.queue.logger.Warn("Message dead-lettered", "subject", m.Subject())
	return m.Message.Term()
}
