// Package search is the document store holding one prisoner index per slot
// and the alias that decides which slot serves reads.
package search

import (
	"context"
	"errors"
	"time"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/indexstatus"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/prisoner"
)

// ErrIndexNotFound is returned when writing to a slot that does not exist.
var ErrIndexNotFound = errors.New("index does not exist")

// DifferenceRecord is one category's changes for a prisoner at one update.
type DifferenceRecord struct {
	ID             string            `json:"id" bson:"_id"`
	PrisonerNumber string            `json:"prisonerNumber" bson:"prisoner_number"`
	Category       prisoner.Category `json:"category" bson:"category"`
	Differences    []string          `json:"differences" bson:"differences"`
	DateTime       time.Time         `json:"dateTime" bson:"date_time"`
}

// Gateway is the document store contract.
type Gateway interface {
	CreateIndex(ctx context.Context, slot indexstatus.Slot) error
	// DeleteIndex is a no-op when the slot does not exist.
	DeleteIndex(ctx context.Context, slot indexstatus.Slot) error
	IndexExists(ctx context.Context, slot indexstatus.Slot) (bool, error)
	// Save fully replaces the document keyed by its prisoner number.
	Save(ctx context.Context, p *prisoner.Prisoner, slot indexstatus.Slot) error
	// Get returns the document from the first slot that has it, or nil.
	Get(ctx context.Context, prisonerNumber string, slots ...indexstatus.Slot) (*prisoner.Prisoner, error)
	Count(ctx context.Context, slot indexstatus.Slot) (int64, error)
	// SwitchAlias repoints reads at slot.
	SwitchAlias(ctx context.Context, slot indexstatus.Slot) error
	// AliasSlot returns the slot serving reads; ok is false before the
	// first switch.
	AliasSlot(ctx context.Context) (slot indexstatus.Slot, ok bool, err error)
	// ClearAlias removes the alias so that no slot serves reads.
	ClearAlias(ctx context.Context) error

	SaveDifferences(ctx context.Context, records []DifferenceRecord) error
	// GetDifferences returns a prisoner's records, oldest first.
	GetDifferences(ctx context.Context, prisonerNumber string) ([]DifferenceRecord, error)
}
