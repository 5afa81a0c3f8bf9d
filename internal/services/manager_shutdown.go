package services

import (
	"context"
)

// Shutdown stops the admin server, waits for the background components to
// drain and closes the brokers and storage. The caller cancels the context
// passed to Start first.
func (m *Manager) Shutdown(ctx context.Context) {
	if m.httpServer != nil {
		if err := m.httpServer.Stop(ctx); err != nil {
			m.logger.Error("Error shutting down admin API server", "error", err)
		}
	}

	m.logger.Info("Waiting for background tasks to finish...")
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("Background tasks finished")
	case <-ctx.Done():
		m.logger.Warn("Timeout waiting for background tasks")
	}

	if m.eventsPub != nil {
		if err := m.eventsPub.Close(); err != nil {
			m.logger.Error("Error closing event publisher", "error", err)
		}
	}
	if m.bus != nil {
		if err := m.bus.Close(); err != nil {
			m.logger.Error("Error closing message bus", "error", err)
		}
	}
	if m.mongo != nil {
		if err := m.mongo.Close(ctx); err != nil {
			m.logger.Error("Error closing MongoDB", "error", err)
		}
	}
}
