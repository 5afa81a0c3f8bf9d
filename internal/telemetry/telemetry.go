package telemetry

import (
	"log/slog"
	"sync"
)

// Telemetry event names.
const (
	EventPrisonerUpdated       = "PRISONER_UPDATED"
	EventPrisonerCreated       = "PRISONER_CREATED"
	EventPrisonerNotFound      = "PRISONER_NOT_FOUND"
	EventBuildIndexStarted     = "BUILDING_INDEX"
	EventBuildIndexCompleted   = "COMPLETED_BUILDING_INDEX"
	EventBuildIndexCancelled   = "CANCELLED_BUILDING_INDEX"
	EventIndexSwitched         = "SWITCH_INDEX"
	EventPopulatePrisonerPages = "POPULATE_PRISONER_PAGES"
	EventPopulatePageFirst     = "POPULATE_PRISONER_PAGE_FIRST"
	EventPopulatePageLast      = "POPULATE_PRISONER_PAGE_LAST"
	EventPublishFailed         = "EVENT_PUBLISH_FAILED"
	EventPopulateWrongIndex    = "POPULATE_INDEX_WRONG_INDEX"
)

// Recorder records named telemetry events with string properties.
type Recorder interface {
	TrackEvent(name string, props map[string]string)
}

// Metrics counts events in Prometheus and logs them at debug level.
type Metrics struct {
	logger *slog.Logger
}

func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{logger: logger.With("component", "telemetry")}
}

func (m *Metrics) TrackEvent(name string, props map[string]string) {
	TelemetryEvents.WithLabelValues(name).Inc()
	args := make([]any, 0, 2+2*len(props))
	args = append(args, "event", name)
	for k, v := range props {
		args = append(args, k, v)
	}
	m.logger.Debug("Telemetry event", args...)
}

// Captured is an in-memory Recorder for tests.
type Captured struct {
	mu     sync.Mutex
	Events []CapturedEvent
}

type CapturedEvent struct {
	Name  string
	Props map[string]string
}

func (c *Captured) TrackEvent(name string, props map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Events = append(c.Events, CapturedEvent{Name: name, Props: props})
}

// Named returns the captured events with the given name.
func (c *Captured) Named(name string) []CapturedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []CapturedEvent
	for _, e := range c.Events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
