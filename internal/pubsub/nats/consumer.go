package nats

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/pubsub"
)

type jetStreamConsumer struct {
	js     JetStream
	opts   pubsub.ConsumerOptions
	logger *slog.Logger
}

// NewConsumer returns a durable JetStream consumer.
func NewConsumer(js JetStream, opts pubsub.ConsumerOptions) (pubsub.Consumer, error) {
	if js == nil {
		return nil, fmt.Errorf("jetstream cannot be nil")
	}
	if opts.StreamName == "" {
		return nil, fmt.Errorf("stream name is required")
	}
	defaults := pubsub.DefaultConsumerOptions()
	if opts.ChannelBufSize <= 0 {
		opts.ChannelBufSize = defaults.ChannelBufSize
	}
	if opts.AckWait <= 0 {
		opts.AckWait = defaults.AckWait
	}
	if opts.ConsumerName == "" {
		opts.ConsumerName = opts.StreamName + "-consumer"
	}
	return &jetStreamConsumer{
		js:     js,
		opts:   opts,
		logger: slog.Default().With("component", "pubsub-consumer", "stream", opts.StreamName),
	}, nil
}

// ConsumerConfig is the durable consumer configuration for opts.
func ConsumerConfig(opts pubsub.ConsumerOptions, filterSubject string) jetstream.ConsumerConfig {
	return jetstream.ConsumerConfig{
		Durable:       opts.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       opts.AckWait,
		MaxDeliver:    opts.MaxDeliver,
		FilterSubject: filterSubject,
	}
}

func (c *jetStreamConsumer) Subscribe(ctx context.Context) (<-chan pubsub.Message, error) {
	filterSubject := c.opts.FilterSubject
	if filterSubject == "" {
		filterSubject = c.opts.StreamName + ".>"
	}

	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     c.opts.StreamName,
		Subjects: []string{filterSubject},
		Storage:  storageType(c.opts.Storage),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure stream: %w", err)
	}

	consumer, err := c.js.CreateOrUpdateConsumer(ctx, c.opts.StreamName, ConsumerConfig(c.opts, filterSubject))
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	return Consume(ctx, consumer, c.opts.ChannelBufSize, c.logger)
}

// Consume pumps messages from consumer into a channel until ctx is done.
// Messages that arrive while shutting down are Nak'd.
func Consume(ctx context.Context, consumer jetstream.Consumer, bufSize int, logger *slog.Logger) (<-chan pubsub.Message, error) {
	msgCh := make(chan pubsub.Message, bufSize)
	var closing atomic.Bool

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		if closing.Load() {
			_ = msg.Nak()
			return
		}
		select {
		case msgCh <- WrapMessage(msg):
		case <-ctx.Done():
			_ = msg.Nak()
		}
	})
	if err != nil {
		close(msgCh)
		return nil, fmt.Errorf("failed to start consumer: %w", err)
	}
	logger.Info("Consumer subscribed")

	go func() {
		<-ctx.Done()
		closing.Store(true)
		cc.Stop()
		close(msgCh)
		logger.Info("Consumer stopped")
	}()

	return msgCh, nil
}
