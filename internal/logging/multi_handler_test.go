package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// failingHandler accepts every record and fails to write it.
type failingHandler struct{ err error }

func (h failingHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h failingHandler) Handle(context.Context, slog.Record) error { return h.err }
func (h failingHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h failingHandler) WithGroup(string) slog.Handler             { return h }

func TestMultiHandler_Handle(t *testing.T) {
	buf1, buf2 := &bytes.Buffer{}, &bytes.Buffer{}
	logger := slog.New(NewMultiHandler(
		slog.NewTextHandler(buf1, nil),
		slog.NewTextHandler(buf2, nil),
	))

	logger.Info("test message", "key", "value")

	assert.Contains(t, buf1.String(), "key=value")
	assert.Contains(t, buf2.String(), "key=value")
}

func TestMultiHandler_Enabled(t *testing.T) {
	ctx := context.Background()
	multi := NewMultiHandler(
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
	)

	assert.False(t, multi.Enabled(ctx, slog.LevelInfo))
	assert.True(t, multi.Enabled(ctx, slog.LevelWarn))
}

func TestMultiHandler_SkipsDisabledHandlers(t *testing.T) {
	info, errOnly := &bytes.Buffer{}, &bytes.Buffer{}
	logger := slog.New(NewMultiHandler(
		slog.NewTextHandler(info, nil),
		slog.NewTextHandler(errOnly, &slog.HandlerOptions{Level: slog.LevelError}),
	))

	logger.Info("routine")

	assert.Contains(t, info.String(), "routine")
	assert.Empty(t, errOnly.String())
}

func TestMultiHandler_ErrorDoesNotStopOtherHandlers(t *testing.T) {
	buf := &bytes.Buffer{}
	boom := errors.New("disk full")
	multi := NewMultiHandler(failingHandler{err: boom}, slog.NewTextHandler(buf, nil))

	err := multi.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelError, "still written", 0))

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), "still written")
}

func TestMultiHandler_WithAttrsAndGroup(t *testing.T) {
	buf1, buf2 := &bytes.Buffer{}, &bytes.Buffer{}
	logger := slog.New(NewMultiHandler(
		slog.NewTextHandler(buf1, nil),
		slog.NewJSONHandler(buf2, nil),
	)).With("component", "listener").WithGroup("event")

	logger.Info("received", "type", "BOOKING_CHANGED")

	assert.Contains(t, buf1.String(), "component=listener")
	assert.Contains(t, buf1.String(), "event.type=BOOKING_CHANGED")
	assert.Contains(t, buf2.String(), `"event":{"type":"BOOKING_CHANGED"}`)
}
