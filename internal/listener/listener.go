// Package listener consumes upstream change notifications and
// re-synchronizes the named prisoner into every active index slot.
// Notifications are sharded by prisoner number so that one person is never
// synchronized on two goroutines at once.
package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/orchestrator"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/prisoner"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/pubsub"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/synchronizer"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/telemetry"
)

// Updater re-synchronizes one prisoner.
type Updater interface {
	UpdatePrisoner(ctx context.Context, prisonerNumber string) (*prisoner.Prisoner, error)
}

type Config struct {
	Stream        string `yaml:"stream"`
	Consumer      string `yaml:"consumer"`
	FilterSubject string `yaml:"filter_subject"`
	// Filter is a CEL expression over event.type and event.subject.
	Filter      string `yaml:"filter"`
	Concurrency int    `yaml:"concurrency"`
	MaxDeliver  int    `yaml:"max_deliver"`
}

func DefaultConfig() Config {
	return Config{
		Stream:      "PRISONER_CHANGES",
		Consumer:    "prisoner-search-listener",
		Filter:      `!event.type.startsWith("prisoner-offender-search.")`,
		Concurrency: 4,
		MaxDeliver:  5,
	}
}

func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Stream == "" {
		c.Stream = d.Stream
	}
	if c.Consumer == "" {
		c.Consumer = d.Consumer
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.MaxDeliver <= 0 {
		c.MaxDeliver = d.MaxDeliver
	}
}

func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("LISTENER_FILTER"); v != "" {
		c.Filter = v
	}
}

func (c *Config) Validate() error {
	if c.Filter == "" {
		return nil
	}
	if _, err := NewFilter(c.Filter); err != nil {
		return fmt.Errorf("listener.filter: %w", err)
	}
	return nil
}

type Listener struct {
	consumer pubsub.Consumer
	updater  Updater
	filter   *Filter
	cfg      Config
	logger   *slog.Logger
	shards   []chan job
}

type job struct {
	msg    pubsub.Message
	change Change
}

func New(consumer pubsub.Consumer, updater Updater, cfg Config, logger *slog.Logger) (*Listener, error) {
	cfg.ApplyDefaults()
	filter, err := NewFilter(cfg.Filter)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		consumer: consumer,
		updater:  updater,
		filter:   filter,
		cfg:      cfg,
		logger:   logger.With("component", "listener"),
	}, nil
}

// Run consumes notifications until ctx is done.
func (l *Listener) Run(ctx context.Context) error {
	msgs, err := l.consumer.Subscribe(ctx)
	if err != nil {
		return err
	}
	l.logger.Info("Change listener started", "concurrency", l.cfg.Concurrency)

	var wg sync.WaitGroup
	l.shards = make([]chan job, l.cfg.Concurrency)
	for i := range l.shards {
		ch := make(chan job)
		l.shards[i] = ch
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range ch {
				l.process(context.WithoutCancel(ctx), j.msg, j.change)
			}
		}()
	}
	for msg := range msgs {
		l.dispatch(msg)
	}
	for _, ch := range l.shards {
		close(ch)
	}
	wg.Wait()
	l.logger.Info("Change listener stopped")
	return nil
}

func (l *Listener) dispatch(msg pubsub.Message) {
	change, err := ParseChange(msg.Subject(), msg.Data())
	if err != nil {
		l.logger.Error("Dropping malformed change notification", "subject", msg.Subject(), "error", err)
		l.settle(msg, "malformed", msg.Term)
		return
	}
	l.shards[shard(change.PrisonerNumber, len(l.shards))] <- job{msg: msg, change: change}
}

func shard(prisonerNumber string, n int) int {
	return int(xxhash.Sum64String(prisonerNumber) % uint64(n))
}

func (l *Listener) process(ctx context.Context, msg pubsub.Message, change Change) {
	logger := l.logger.With("eventType", change.EventType, "prisonerNumber", change.PrisonerNumber)

	match, err := l.filter.Match(change.EventType, msg.Subject())
	if err != nil {
		logger.Error("Dropping change notification", "error", err)
		l.settle(msg, "malformed", msg.Term)
		return
	}
	if !match {
		l.settle(msg, "filtered", msg.Ack)
		return
	}

	_, err = l.updater.UpdatePrisoner(ctx, change.PrisonerNumber)
	switch {
	case err == nil:
		l.settle(msg, "success", msg.Ack)
	case orchestrator.IsPrecondition(err):
		logger.Warn("Change not applied", "reason", err)
		l.settle(msg, "ignored", msg.Ack)
	case errors.Is(err, synchronizer.ErrPrisonerNotFound):
		logger.Warn("Prisoner not found")
		l.settle(msg, "not_found", msg.Ack)
	default:
		logger.Error("Failed to synchronize prisoner", "error", err)
		l.settle(msg, "error", msg.Nak)
	}
}

func (l *Listener) settle(msg pubsub.Message, result string, fn func() error) {
	telemetry.MessagesProcessed.WithLabelValues("listener", result).Inc()
	if err := fn(); err != nil {
		l.logger.Warn("Failed to settle message", "result", result, "error", err)
	}
}
