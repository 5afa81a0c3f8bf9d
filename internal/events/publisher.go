package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/pubsub"
)

// Publisher assigns ids and versions to events and publishes each one with
// a single retry.
type Publisher struct {
	pub     pubsub.Publisher
	version atomic.Int64
	now     func() time.Time
	logger  *slog.Logger
	// onFailure flags a secondary event that could not be published.
	onFailure func(Event, error)
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) { p.now = now }
}

// WithFailureHandler is called for every secondary event dropped after
// its retry.
func WithFailureHandler(fn func(Event, error)) Option {
	return func(p *Publisher) { p.onFailure = fn }
}

// NewPublisher returns a Publisher over pub. Versions start from the
// current Unix time in milliseconds so they keep increasing across
// restarts.
func NewPublisher(pub pubsub.Publisher, opts ...Option) *Publisher {
	p := &Publisher{
		pub:    pub,
		now:    time.Now,
		logger: slog.Default().With("component", "event-publisher"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.version.Store(p.now().UnixMilli())
	return p
}

// PublishPrimary publishes the created or updated event. Failure after the
// retry is returned so that the caller retries the whole synchronization.
func (p *Publisher) PublishPrimary(ctx context.Context, e Event) error {
	return p.publish(ctx, e)
}

// PublishSecondary publishes derived events. Failures are logged and
// flagged but not returned.
func (p *Publisher) PublishSecondary(ctx context.Context, events []Event) {
	for _, e := range events {
		if err := p.publish(ctx, e); err != nil {
			p.logger.Error("Failed to publish event, manual intervention required",
				"eventType", e.Type, "prisonerNumber", e.PrisonerNumber, "error", err)
			if p.onFailure != nil {
				p.onFailure(e, err)
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context, e Event) error {
	e.ID = uuid.NewString()
	e.Version = p.version.Add(1)
	e.OccurredAt = p.now().UTC()

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", e.Type, err)
	}

	err = p.pub.Publish(ctx, string(e.Type), data)
	if err == nil {
		return nil
	}
	p.logger.Warn("Publish failed, retrying", "eventType", e.Type, "error", err)
	if err = p.pub.Publish(ctx, string(e.Type), data); err != nil {
		return fmt.Errorf("failed to publish %s for %s: %w", e.Type, e.PrisonerNumber, err)
	}
	return nil
}
