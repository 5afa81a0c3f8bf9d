// Package telemetry exposes Prometheus metrics and named telemetry events.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Synchronization
	Synchronizations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prisoner_search_synchronizations_total",
		Help: "The total number of per-prisoner synchronizations",
	}, []string{"mode", "result"})

	SynchronizationLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "prisoner_search_synchronization_latency_seconds",
		Help: "The latency of per-prisoner synchronization",
	}, []string{"mode"})

	SecondaryFetchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prisoner_search_secondary_fetch_failures_total",
		Help: "The total number of failed incentive or restricted-patient fetches",
	}, []string{"source"})

	// Events
	EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prisoner_search_events_published_total",
		Help: "The total number of domain events published",
	}, []string{"type", "result"})

	// Index lifecycle
	PreconditionFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prisoner_search_precondition_failures_total",
		Help: "The total number of rejected index operations",
	}, []string{"operation", "reason"})

	IndexDocuments = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "prisoner_search_index_documents",
		Help: "The number of documents in each index slot",
	}, []string{"slot"})

	QueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "prisoner_search_queue_depth",
		Help: "The current depth of the background work queue",
	}, []string{"kind"})

	// Messages
	MessagesProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prisoner_search_messages_processed_total",
		Help: "The total number of queue and change messages processed",
	}, []string{"source", "result"})

	TelemetryEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prisoner_search_telemetry_events_total",
		Help: "The total number of named telemetry events",
	}, []string{"name"})
)

func init() {
	prometheus.MustRegister(Synchronizations)
	prometheus.MustRegister(SynchronizationLatency)
	prometheus.MustRegister(SecondaryFetchFailures)
	prometheus.MustRegister(EventsPublished)
	prometheus.MustRegister(PreconditionFailures)
	prometheus.MustRegister(IndexDocuments)
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(MessagesProcessed)
	prometheus.MustRegister(TelemetryEvents)
}
