package search

import (
	"context"
	"slices"
	"sync"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/indexstatus"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/prisoner"
)

var _ Gateway = (*Memory)(nil)

// Memory is an in-process Gateway.
type Memory struct {
	mu          sync.RWMutex
	indexes     map[indexstatus.Slot]map[string]prisoner.Prisoner
	alias       indexstatus.Slot
	differences []DifferenceRecord
}

func NewMemory() *Memory {
	return &Memory{indexes: make(map[indexstatus.Slot]map[string]prisoner.Prisoner)}
}

func (m *Memory) CreateIndex(_ context.Context, slot indexstatus.Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.indexes[slot]; !ok {
		m.indexes[slot] = make(map[string]prisoner.Prisoner)
	}
	return nil
}

func (m *Memory) DeleteIndex(_ context.Context, slot indexstatus.Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.indexes, slot)
	return nil
}

func (m *Memory) IndexExists(_ context.Context, slot indexstatus.Slot) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.indexes[slot]
	return ok, nil
}

func (m *Memory) Save(_ context.Context, p *prisoner.Prisoner, slot indexstatus.Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	index, ok := m.indexes[slot]
	if !ok {
		return ErrIndexNotFound
	}
	index[p.PrisonerNumber] = *p
	return nil
}

func (m *Memory) Get(_ context.Context, prisonerNumber string, slots ...indexstatus.Slot) (*prisoner.Prisoner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, slot := range slots {
		if p, ok := m.indexes[slot][prisonerNumber]; ok {
			return &p, nil
		}
	}
	return nil, nil
}

func (m *Memory) Count(_ context.Context, slot indexstatus.Slot) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.indexes[slot])), nil
}

func (m *Memory) SwitchAlias(_ context.Context, slot indexstatus.Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alias = slot
	return nil
}

func (m *Memory) ClearAlias(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alias = ""
	return nil
}

func (m *Memory) AliasSlot(context.Context) (indexstatus.Slot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.alias, m.alias != "", nil
}

func (m *Memory) SaveDifferences(_ context.Context, records []DifferenceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.differences = append(m.differences, records...)
	return nil
}

func (m *Memory) GetDifferences(_ context.Context, prisonerNumber string) ([]DifferenceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []DifferenceRecord
	for _, r := range m.differences {
		if r.PrisonerNumber == prisonerNumber {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b DifferenceRecord) int {
		return a.DateTime.Compare(b.DateTime)
	})
	return out, nil
}
