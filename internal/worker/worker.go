// Package worker consumes the background index queue and dispatches each
// message to the orchestrator on a fixed pool of goroutines. Messages are
// sharded by prisoner number so that updates to one person never run
// concurrently.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/indexstatus"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/orchestrator"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/prisoner"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/pubsub"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/queue"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/synchronizer"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/telemetry"
)

// Handler performs the work named by a queue message.
type Handler interface {
	PopulateIndex(ctx context.Context, slot indexstatus.Slot) (int, error)
	PopulateIndexWithPage(ctx context.Context, page queue.PrisonerPage) (int, error)
	PopulateIndexWithPrisoner(ctx context.Context, prisonerNumber string) (*prisoner.Prisoner, error)
}

type Config struct {
	Workers         int           `yaml:"workers"`
	ChannelBufSize  int           `yaml:"channel_buf_size"`
	RetryBackoff    time.Duration `yaml:"retry_backoff"`
	MaxRetryBackoff time.Duration `yaml:"max_retry_backoff"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func DefaultConfig() Config {
	return Config{
		Workers:         8,
		ChannelBufSize:  100,
		RetryBackoff:    time.Second,
		MaxRetryBackoff: time.Minute,
		ShutdownTimeout: 30 * time.Second,
	}
}

func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.ChannelBufSize <= 0 {
		c.ChannelBufSize = d.ChannelBufSize
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = d.RetryBackoff
	}
	if c.MaxRetryBackoff <= 0 {
		c.MaxRetryBackoff = d.MaxRetryBackoff
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
}

func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
}

func (c *Config) Validate() error {
	if c.MaxRetryBackoff < c.RetryBackoff {
		return fmt.Errorf("worker.max_retry_backoff must not be less than worker.retry_backoff")
	}
	return nil
}

type job struct {
	msg     pubsub.Message
	message queue.Message
}

type Worker struct {
	queue   queue.Queue
	handler Handler
	cfg     Config
	logger  *slog.Logger
	shards  []chan job
	wg      sync.WaitGroup
}

func New(q queue.Queue, h Handler, cfg Config, logger *slog.Logger) *Worker {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		queue:   q,
		handler: h,
		cfg:     cfg,
		logger:  logger.With("component", "worker"),
	}
}

// Run consumes until ctx is done, then waits up to the shutdown timeout for
// the shards to finish their buffered messages.
func (w *Worker) Run(ctx context.Context) error {
	msgs, err := w.queue.Consume(ctx)
	if err != nil {
		return err
	}

	w.shards = make([]chan job, w.cfg.Workers)
	for i := range w.shards {
		w.shards[i] = make(chan job, w.cfg.ChannelBufSize)
		w.wg.Add(1)
		go w.loop(ctx, w.shards[i])
	}
	w.logger.Info("Index worker started", "workers", w.cfg.Workers)

	for msg := range msgs {
		w.dispatch(msg)
	}

	for _, ch := range w.shards {
		close(ch)
	}
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		w.logger.Info("Index worker stopped")
	case <-time.After(w.cfg.ShutdownTimeout):
		w.logger.Warn("Shutdown timeout exceeded, some messages may be redelivered")
	}
	return nil
}

func (w *Worker) dispatch(msg pubsub.Message) {
	m, err := queue.Decode(msg.Data())
	if err != nil {
		w.logger.Error("Dropping malformed queue message", "error", err)
		telemetry.MessagesProcessed.WithLabelValues("queue", "malformed").Inc()
		_ = msg.Term()
		return
	}
	w.shards[shard(m, len(w.shards))] <- job{msg: msg, message: m}
}

// shard keeps every message about one prisoner on the same goroutine.
func shard(m queue.Message, n int) int {
	key := m.PrisonerNumber
	switch m.Kind {
	case queue.KindPopulateIndex:
		key = string(m.Slot)
	case queue.KindPopulatePrisonerPage:
		key = "page:" + strconv.Itoa(m.Page.Page)
	}
	return int(xxhash.Sum64String(key) % uint64(n))
}

func (w *Worker) loop(ctx context.Context, ch <-chan job) {
	defer w.wg.Done()
	for j := range ch {
		// Shutdown must not abandon a message half processed.
		w.process(context.WithoutCancel(ctx), j.msg, j.message)
	}
}

func (w *Worker) process(ctx context.Context, msg pubsub.Message, m queue.Message) {
	logger := w.logger.With("kind", m.Kind)

	err := w.handle(ctx, m)
	switch {
	case err == nil:
		telemetry.MessagesProcessed.WithLabelValues("queue", "success").Inc()
		_ = msg.Ack()
	case orchestrator.IsPrecondition(err):
		logger.Warn("Ignoring queue message", "reason", err)
		telemetry.MessagesProcessed.WithLabelValues("queue", "ignored").Inc()
		_ = msg.Ack()
	case errors.Is(err, synchronizer.ErrPrisonerNotFound):
		logger.Warn("Prisoner not found", "prisonerNumber", m.PrisonerNumber)
		telemetry.MessagesProcessed.WithLabelValues("queue", "not_found").Inc()
		_ = msg.Ack()
	default:
		telemetry.MessagesProcessed.WithLabelValues("queue", "error").Inc()
		delivered := uint64(1)
		if md, mdErr := msg.Metadata(); mdErr == nil && md.NumDelivered > 0 {
			delivered = md.NumDelivered
		}
		delay := w.backoff(delivered)
		logger.Error("Queue message failed, will retry", "error", err, "attempt", delivered, "delay", delay)
		_ = msg.NakWithDelay(delay)
	}
}

func (w *Worker) handle(ctx context.Context, m queue.Message) error {
	switch m.Kind {
	case queue.KindPopulateIndex:
		_, err := w.handler.PopulateIndex(ctx, m.Slot)
		return err
	case queue.KindPopulatePrisonerPage:
		_, err := w.handler.PopulateIndexWithPage(ctx, *m.Page)
		return err
	default:
		_, err := w.handler.PopulateIndexWithPrisoner(ctx, m.PrisonerNumber)
		return err
	}
}

func (w *Worker) backoff(attempt uint64) time.Duration {
	d := w.cfg.RetryBackoff
	for i := uint64(1); i < attempt && d < w.cfg.MaxRetryBackoff; i++ {
		d *= 2
	}
	return min(d, w.cfg.MaxRetryBackoff)
}
