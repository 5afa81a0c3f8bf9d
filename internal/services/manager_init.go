package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/api"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/events"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/indexstatus"
	statusmongo "github.com/ministryofjustice/hmpps-prisoner-search/internal/indexstatus/mongo"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/listener"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/mongodb"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/orchestrator"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/pubsub"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/pubsub/memory"
	pubsubnats "github.com/ministryofjustice/hmpps-prisoner-search/internal/pubsub/nats"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/queue"
	queuenats "github.com/ministryofjustice/hmpps-prisoner-search/internal/queue/nats"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/search"
	searchmongo "github.com/ministryofjustice/hmpps-prisoner-search/internal/search/mongo"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/server"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/synchronizer"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/telemetry"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/upstream/client"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/worker"
)

var mongoProviderFactory = mongodb.NewProvider

var natsProviderFactory = pubsubnats.NewProvider

var upstreamFactory = func(ctx context.Context, cfg client.Config) *Upstream {
	c := client.New(ctx, cfg)
	return &Upstream{
		Prison:             c.Prison,
		Incentives:         c.Incentives,
		RestrictedPatients: c.RestrictedPatients,
	}
}

// Init builds every component selected by the options. On error, whatever
// was opened is left for Shutdown to close.
func (m *Manager) Init(ctx context.Context) error {
	m.telemetry = telemetry.NewMetrics(m.logger)

	if err := m.initStorage(ctx); err != nil {
		return err
	}
	if err := m.initMessaging(ctx); err != nil {
		return err
	}
	m.initOrchestrator(ctx)

	if m.opts.RunWorker {
		m.worker = worker.New(m.queue, m.orch, m.cfg.Worker, m.logger)
		m.logger.Info("Initialized index worker", "workers", m.cfg.Worker.Workers)
	}
	if m.opts.RunListener {
		if err := m.initListener(); err != nil {
			return err
		}
	}
	if m.opts.RunAPI {
		m.initAPIServer()
	}
	return nil
}

func (m *Manager) initStorage(ctx context.Context) error {
	cfg := m.cfg.Storage
	if cfg.Backend == "memory" {
		m.statuses = indexstatus.NewMemoryStore()
		m.store = search.NewMemory()
		m.logger.Warn("Using in-memory storage; index state is lost on exit")
		return nil
	}

	provider, err := mongoProviderFactory(ctx, cfg.URI, cfg.Database)
	if err != nil {
		return err
	}
	m.mongo = provider
	db := provider.Database()
	m.statuses = statusmongo.NewStore(db, cfg.StatusCollection)
	m.store = searchmongo.NewGateway(db, searchmongo.Config{
		IndexPrefix:           cfg.IndexPrefix,
		AliasCollection:       cfg.AliasCollection,
		DifferencesCollection: cfg.DifferencesCollection,
	})
	m.logger.Info("Initialized MongoDB storage", "database", cfg.Database)
	return nil
}

func (m *Manager) initMessaging(ctx context.Context) error {
	qc := m.cfg.Queue
	storage := m.streamStorage()

	if qc.Backend == "memory" {
		m.bus = memory.New()
		m.queue = queue.NewMemory(qc.MaxDeliver)
		m.logger.Warn("Using in-memory messaging; queued work is lost on exit")
	} else {
		provider := natsProviderFactory(qc.NATSURL)
		m.bus = provider
		if err := provider.Connect(ctx); err != nil {
			return err
		}
		q, err := queuenats.New(ctx, provider.JetStream(), queuenats.Config{
			Stream:       qc.Stream,
			DLQStream:    qc.DLQStream,
			ConsumerName: qc.Consumer,
			MaxDeliver:   qc.MaxDeliver,
			AckWait:      qc.AckWait,
			Storage:      storage,
		})
		if err != nil {
			return err
		}
		m.queue = q
		m.logger.Info("Initialized NATS work queue", "stream", qc.Stream)
	}

	pub, err := m.bus.NewPublisher(pubsub.PublisherOptions{
		StreamName:    m.cfg.Events.Stream,
		SubjectPrefix: m.cfg.Events.SubjectPrefix,
		Storage:       storage,
		OnPublish: func(subject string, err error, _ time.Duration) {
			result := "success"
			if err != nil {
				result = "error"
			}
			telemetry.EventsPublished.WithLabelValues(subject, result).Inc()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}
	m.eventsPub = pub
	return nil
}

func (m *Manager) initOrchestrator(ctx context.Context) {
	if m.upstream == nil {
		m.upstream = upstreamFactory(ctx, m.cfg.Upstream)
	}

	publisher := events.NewPublisher(m.eventsPub, events.WithFailureHandler(func(e events.Event, err error) {
		m.telemetry.TrackEvent(telemetry.EventPublishFailed, map[string]string{
			"eventType":      string(e.Type),
			"prisonerNumber": e.PrisonerNumber,
			"error":          err.Error(),
		})
	}))

	syncer := synchronizer.New(synchronizer.Deps{
		Prison:             m.upstream.Prison,
		Incentives:         m.upstream.Incentives,
		RestrictedPatients: m.upstream.RestrictedPatients,
		Store:              m.store,
		Publisher:          publisher,
		Telemetry:          m.telemetry,
		Logger:             m.logger,
	})

	m.orch = orchestrator.New(m.cfg.Index, orchestrator.Deps{
		Status:       m.statuses,
		Store:        m.store,
		Queue:        m.queue,
		Prison:       m.upstream.Prison,
		Synchronizer: syncer,
		Telemetry:    m.telemetry,
		Logger:       m.logger,
	})
	m.logger.Info("Initialized index orchestrator",
		"completionThreshold", m.cfg.Index.CompletionThreshold,
		"pageSize", m.cfg.Index.PageSize)
}

func (m *Manager) initListener() error {
	lc := m.cfg.Listener
	consumer, err := m.bus.NewConsumer(pubsub.ConsumerOptions{
		StreamName:     lc.Stream,
		ConsumerName:   lc.Consumer,
		FilterSubject:  lc.FilterSubject,
		MaxDeliver:     lc.MaxDeliver,
		AckWait:        pubsub.DefaultConsumerOptions().AckWait,
		ChannelBufSize: pubsub.DefaultConsumerOptions().ChannelBufSize,
		Storage:        m.streamStorage(),
	})
	if err != nil {
		return fmt.Errorf("failed to create change consumer: %w", err)
	}
	l, err := listener.New(consumer, m.orch, lc, m.logger)
	if err != nil {
		return err
	}
	m.listener = l
	m.logger.Info("Initialized change listener", "stream", lc.Stream)
	return nil
}

func (m *Manager) initAPIServer() {
	checks := map[string]api.HealthCheck{
		"queue": func(ctx context.Context) error {
			_, err := m.queue.Depth(ctx)
			return err
		},
		"indexStatus": func(ctx context.Context) error {
			_, err := m.statuses.Get(ctx)
			return err
		},
		"searchIndex": m.orch.CheckServingIndex,
	}
	if m.mongo != nil {
		checks["mongo"] = m.mongo.Ping
	}

	m.httpServer = server.New(m.cfg.Server, m.logger)
	api.NewHandler(m.orch, m.store, checks, m.logger).Register(m.httpServer.Mux())
	m.logger.Info("Initialized admin API server", "port", m.cfg.Server.HTTPPort)
}

func (m *Manager) streamStorage() pubsub.StorageType {
	if m.cfg.Queue.Storage == "file" {
		return pubsub.FileStorage
	}
	return pubsub.MemoryStorage
}
