package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/pubsub"
)

type jetStreamPublisher struct {
	js   JetStream
	opts pubsub.PublisherOptions
}

// NewPublisher returns a Publisher, creating the stream when one is named.
func NewPublisher(ctx context.Context, js JetStream, opts pubsub.PublisherOptions) (pubsub.Publisher, error) {
	if js == nil {
		return nil, fmt.Errorf("jetstream cannot be nil")
	}

	if opts.StreamName != "" {
		prefix := opts.SubjectPrefix
		if prefix == "" {
			prefix = opts.StreamName
		}
		_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     opts.StreamName,
			Subjects: []string{prefix + ".>"},
			Storage:  storageType(opts.Storage),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to ensure stream %s: %w", opts.StreamName, err)
		}
	}

	return &jetStreamPublisher{js: js, opts: opts}, nil
}

func (p *jetStreamPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	start := time.Now()
	fullSubject := pubsub.FullSubject(p.opts.SubjectPrefix, subject)

	_, err := p.js.Publish(ctx, fullSubject, data)

	if p.opts.OnPublish != nil {
		p.opts.OnPublish(fullSubject, err, time.Since(start))
	}
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", fullSubject, err)
	}
	return nil
}

func (p *jetStreamPublisher) Close() error {
	return nil
}
