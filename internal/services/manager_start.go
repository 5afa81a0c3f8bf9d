package services

import (
	"context"
)

// Start runs the selected components in the background until ctx is
// cancelled. Component failures are logged; they do not stop the others.
func (m *Manager) Start(bgCtx context.Context) {
	if m.httpServer != nil {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			if err := m.httpServer.Start(bgCtx); err != nil {
				m.logger.Error("Admin API server stopped", "error", err)
			}
		}()
	}

	if m.worker != nil {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			if err := m.worker.Run(bgCtx); err != nil {
				m.logger.Error("Index worker stopped with error", "error", err)
			}
		}()
	}

	if m.listener != nil {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			if err := m.listener.Run(bgCtx); err != nil {
				m.logger.Error("Change listener stopped with error", "error", err)
			}
		}()
	}
}
