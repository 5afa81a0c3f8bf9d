package telemetry

import (
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_TrackEventCounts(t *testing.T) {
	m := NewMetrics(slog.New(slog.NewTextHandler(io.Discard, nil)))
	before := testutil.ToFloat64(TelemetryEvents.WithLabelValues(EventIndexSwitched))

	m.TrackEvent(EventIndexSwitched, map[string]string{"index": "B"})
	m.TrackEvent(EventIndexSwitched, nil)

	assert.Equal(t, before+2, testutil.ToFloat64(TelemetryEvents.WithLabelValues(EventIndexSwitched)))
}

func TestCaptured(t *testing.T) {
	c := &Captured{}
	c.TrackEvent(EventPrisonerUpdated, map[string]string{"prisonerNumber": "A1234AA"})
	c.TrackEvent(EventPrisonerCreated, nil)

	got := c.Named(EventPrisonerUpdated)
	assert.Len(t, got, 1)
	assert.Equal(t, "A1234AA", got[0].Props["prisonerNumber"])
	assert.Empty(t, c.Named(EventPrisonerNotFound))
}
