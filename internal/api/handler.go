// Package api exposes the index maintenance operations over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/indexstatus"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/orchestrator"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/prisoner"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/queue"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/search"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/server"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/synchronizer"
)

const (
	ErrCodeConflict     = "CONFLICT"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeInvalidQuery = "INVALID_QUERY"
)

// Orchestrator is the set of operations exposed for index maintenance.
type Orchestrator interface {
	GetStatus(ctx context.Context) (indexstatus.IndexStatus, error)
	QueueDepth(ctx context.Context) (queue.Depth, error)
	PrepareIndexForRebuild(ctx context.Context) (indexstatus.IndexStatus, error)
	MarkIndexingComplete(ctx context.Context, ignoreThreshold bool) (indexstatus.IndexStatus, error)
	SwitchIndex(ctx context.Context, force bool) (indexstatus.IndexStatus, error)
	CancelIndexing(ctx context.Context) (indexstatus.IndexStatus, error)
	UpdatePrisoner(ctx context.Context, prisonerNumber string) (*prisoner.Prisoner, error)
}

// Differences reads the recorded change history of a prisoner.
type Differences interface {
	GetDifferences(ctx context.Context, prisonerNumber string) ([]search.DifferenceRecord, error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	orch        Orchestrator
	differences Differences
	checks      map[string]HealthCheck
	decoder     *schema.Decoder
	logger      *slog.Logger
}

func NewHandler(orch Orchestrator, differences Differences, checks map[string]HealthCheck, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &Handler{
		orch:        orch,
		differences: differences,
		checks:      checks,
		decoder:     decoder,
		logger:      logger.With("component", "api"),
	}
}

// Register adds the routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /maintain-index/status", h.handleStatus)
	mux.HandleFunc("GET /maintain-index/queue", h.handleQueue)
	mux.HandleFunc("PUT /maintain-index/build", h.handleBuild)
	mux.HandleFunc("PUT /maintain-index/mark-complete", h.handleMarkComplete)
	mux.HandleFunc("PUT /maintain-index/switch", h.handleSwitch)
	mux.HandleFunc("PUT /maintain-index/cancel", h.handleCancel)
	mux.HandleFunc("PUT /maintain-index/index-prisoner/{prisonerNumber}", h.handleIndexPrisoner)
	mux.HandleFunc("GET /prisoner-differences/{prisonerNumber}", h.handleDifferences)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
}

type markCompleteQuery struct {
	IgnoreThreshold bool `schema:"ignoreThreshold"`
}

type switchQuery struct {
	Force bool `schema:"force"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.orch.GetStatus(r.Context())
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	d, err := h.orch.QueueDepth(r.Context())
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleBuild(w http.ResponseWriter, r *http.Request) {
	h.writeStatus(w, r)(h.orch.PrepareIndexForRebuild(r.Context()))
}

func (h *Handler) handleMarkComplete(w http.ResponseWriter, r *http.Request) {
	var q markCompleteQuery
	if err := h.decoder.Decode(&q, r.URL.Query()); err != nil {
		server.WriteError(w, http.StatusBadRequest, ErrCodeInvalidQuery, "Invalid query parameters")
		return
	}
	h.writeStatus(w, r)(h.orch.MarkIndexingComplete(r.Context(), q.IgnoreThreshold))
}

func (h *Handler) handleSwitch(w http.ResponseWriter, r *http.Request) {
	var q switchQuery
	if err := h.decoder.Decode(&q, r.URL.Query()); err != nil {
		server.WriteError(w, http.StatusBadRequest, ErrCodeInvalidQuery, "Invalid query parameters")
		return
	}
	h.writeStatus(w, r)(h.orch.SwitchIndex(r.Context(), q.Force))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.writeStatus(w, r)(h.orch.CancelIndexing(r.Context()))
}

func (h *Handler) handleIndexPrisoner(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("prisonerNumber")
	doc, err := h.orch.UpdatePrisoner(r.Context(), number)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleDifferences(w http.ResponseWriter, r *http.Request) {
	records, err := h.differences.GetDifferences(r.Context(), r.PathValue("prisonerNumber"))
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	if records == nil {
		records = []search.DifferenceRecord{}
	}
	server.WriteJSON(w, http.StatusOK, records)
}

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "UP", Components: make(map[string]string, len(h.checks))}
	code := http.StatusOK
	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			h.logger.Warn("Health check failed", "component", name, "error", err)
			resp.Components[name] = "DOWN"
			resp.Status = "DOWN"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Components[name] = "UP"
	}
	server.WriteJSON(w, code, resp)
}

// writeStatus adapts an operation returning the index status to a response.
func (h *Handler) writeStatus(w http.ResponseWriter, r *http.Request) func(indexstatus.IndexStatus, error) {
	return func(st indexstatus.IndexStatus, err error) {
		if err != nil {
			h.writeFailure(w, r, err)
			return
		}
		server.WriteJSON(w, http.StatusOK, st)
	}
}

func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case orchestrator.IsPrecondition(err):
		server.WriteError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, synchronizer.ErrPrisonerNotFound):
		server.WriteError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	default:
		h.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		server.WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "Internal server error")
	}
}
