// Package queue is the background work queue that fans a rebuild out into
// per-page and per-prisoner units of work.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/indexstatus"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/pubsub"
)

// Kind names a unit of background work.
type Kind string

const (
	KindPopulateIndex        Kind = "POPULATE_INDEX"
	KindPopulatePrisonerPage Kind = "POPULATE_PRISONER_PAGE"
	KindPopulatePrisoner     Kind = "POPULATE_PRISONER"
)

// PrisonerPage is a zero-based page of the full population.
type PrisonerPage struct {
	Page     int `json:"page" validate:"gte=0"`
	PageSize int `json:"pageSize" validate:"gt=0"`
}

// Message is the payload of one queued unit of work. Exactly one of Slot,
// Page or PrisonerNumber is set, according to Kind.
type Message struct {
	Kind           Kind             `json:"type" validate:"required,oneof=POPULATE_INDEX POPULATE_PRISONER_PAGE POPULATE_PRISONER"`
	Slot           indexstatus.Slot `json:"index,omitempty" validate:"required_if=Kind POPULATE_INDEX"`
	Page           *PrisonerPage    `json:"prisonerPage,omitempty" validate:"required_if=Kind POPULATE_PRISONER_PAGE"`
	PrisonerNumber string           `json:"prisonerNumber,omitempty" validate:"required_if=Kind POPULATE_PRISONER"`
}

// PopulateIndex asks for the population of slot to be paged.
func PopulateIndex(slot indexstatus.Slot) Message {
	return Message{Kind: KindPopulateIndex, Slot: slot}
}

// PopulatePrisonerPage asks for one page of identifiers to be enqueued.
func PopulatePrisonerPage(page PrisonerPage) Message {
	return Message{Kind: KindPopulatePrisonerPage, Page: &page}
}

// PopulatePrisoner asks for one person to be written to the building slot.
func PopulatePrisoner(prisonerNumber string) Message {
	return Message{Kind: KindPopulatePrisoner, PrisonerNumber: prisonerNumber}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Encode serializes a message.
func Encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}

// Decode parses and validates a message payload.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("invalid queue message: %w", err)
	}
	if err := validate.Struct(m); err != nil {
		return Message{}, fmt.Errorf("invalid queue message: %w", err)
	}
	if m.Slot != "" && !m.Slot.Valid() {
		return Message{}, fmt.Errorf("invalid queue message: unknown index %q", m.Slot)
	}
	return m, nil
}

// Depth is a snapshot of outstanding work.
type Depth struct {
	Visible      int64 `json:"visible"`
	InFlight     int64 `json:"inFlight"`
	DeadLettered int64 `json:"deadLettered"`
}

// Total counts every outstanding message, dead-lettered ones included.
func (d Depth) Total() int64 {
	return d.Visible + d.InFlight + d.DeadLettered
}

// Active reports whether any work is outstanding.
func (d Depth) Active() bool {
	return d.Total() > 0
}

// Gateway is the producer side of the work queue.
type Gateway interface {
	Send(ctx context.Context, m Message) error
	Depth(ctx context.Context) (Depth, error)
	// Purge removes every outstanding message including dead letters.
	Purge(ctx context.Context) error
}

// Queue is a Gateway that can also be consumed. Messages that fail
// MaxDeliver times are moved to the dead-letter store.
type Queue interface {
	Gateway
	Consume(ctx context.Context) (<-chan pubsub.Message, error)
}
