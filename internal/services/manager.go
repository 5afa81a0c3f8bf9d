// Package services assembles the process: stores, messaging, the index
// orchestrator and the long-running workers around it.
package services

import (
	"log/slog"
	"sync"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/config"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/indexstatus"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/listener"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/mongodb"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/orchestrator"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/pubsub"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/queue"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/search"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/server"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/telemetry"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/upstream"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/worker"
)

// Options selects the long-running components. A one-shot CLI command
// leaves all of them off and only uses the orchestrator.
type Options struct {
	RunAPI      bool
	RunWorker   bool
	RunListener bool
}

// Upstream bundles the three upstream gateways.
type Upstream struct {
	Prison             upstream.PrisonAPI
	Incentives         upstream.IncentivesAPI
	RestrictedPatients upstream.RestrictedPatientsAPI
}

type Manager struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger

	mongo      *mongodb.Provider
	bus        pubsub.Provider
	eventsPub  pubsub.Publisher
	statuses   indexstatus.Store
	store      search.Gateway
	queue      queue.Queue
	upstream   *Upstream
	telemetry  telemetry.Recorder
	orch       *orchestrator.Orchestrator
	worker     *worker.Worker
	listener   *listener.Listener
	httpServer *server.Server

	wg sync.WaitGroup
}

func NewManager(cfg *config.Config, opts Options) *Manager {
	return &Manager{
		cfg:    cfg,
		opts:   opts,
		logger: slog.Default().With("component", "services"),
	}
}

// Orchestrator is available after Init.
func (m *Manager) Orchestrator() *orchestrator.Orchestrator {
	return m.orch
}

// Addr returns the admin server address once started.
func (m *Manager) Addr() string {
	if m.httpServer == nil {
		return ""
	}
	return m.httpServer.Addr()
}
