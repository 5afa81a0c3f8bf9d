package indexstatus

import (
	"context"
	"sync"
)

// UpdateFunc computes the next status from the stored one. Returning an
// error aborts the update and leaves the stored status untouched.
type UpdateFunc func(IndexStatus) (IndexStatus, error)

// Store persists the singleton status record.
type Store interface {
	// Get returns the status, creating the initial record if none exists.
	Get(ctx context.Context) (IndexStatus, error)

	// Update atomically applies fn to the stored status and returns the
	// committed result. Implementations must serialize concurrent updates.
	Update(ctx context.Context, fn UpdateFunc) (IndexStatus, error)
}

// MemoryStore is an in-process Store guarded by a single-writer lock.
type MemoryStore struct {
	mu     sync.Mutex
	status *IndexStatus
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the status, initializing it on first use.
func (m *MemoryStore) Get(_ context.Context) (IndexStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(), nil
}

// Update applies fn under the store lock.
func (m *MemoryStore) Update(ctx context.Context, fn UpdateFunc) (IndexStatus, error) {
	if err := ctx.Err(); err != nil {
		return IndexStatus{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.getLocked()
	next, err := fn(current)
	if err != nil {
		return current, err
	}
	next.ID = StatusID
	next.Version = current.Version + 1
	m.status = &next
	return next, nil
}

func (m *MemoryStore) getLocked() IndexStatus {
	if m.status == nil {
		s := New()
		m.status = &s
	}
	return *m.status
}
