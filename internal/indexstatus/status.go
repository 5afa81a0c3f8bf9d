// Package indexstatus tracks which physical index slot is serving and the
// build state of each slot.
//
// The status is a singleton record. The serving slot is "current"; the other
// slot is the standby copy that gets rebuilt in the background:
//
//	ABSENT/CANCELLED -> BUILDING -> COMPLETED (swap: other becomes current)
//
// Every transition is a pure function of the previous status so that stores
// can apply it inside a compare-and-swap update.
package indexstatus

import (
	"errors"
	"fmt"
	"time"
)

// Slot identifies one of the two interchangeable physical indexes.
type Slot string

const (
	SlotA Slot = "A"
	SlotB Slot = "B"
)

// Flip returns the other slot.
func (s Slot) Flip() Slot {
	if s == SlotA {
		return SlotB
	}
	return SlotA
}

// Valid reports whether s names a known slot.
func (s Slot) Valid() bool {
	return s == SlotA || s == SlotB
}

// ParseSlot parses a slot name, case-sensitively.
func ParseSlot(v string) (Slot, error) {
	s := Slot(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown index slot %q", v)
	}
	return s, nil
}

// BuildState is the lifecycle state of one slot.
type BuildState string

const (
	StateAbsent    BuildState = "ABSENT"
	StateBuilding  BuildState = "BUILDING"
	StateCancelled BuildState = "CANCELLED"
	StateCompleted BuildState = "COMPLETED"
)

// Active reports whether a slot in this state receives live updates.
func (b BuildState) Active() bool {
	return b == StateBuilding || b == StateCompleted
}

// StatusID is the fixed identity of the singleton status record.
const StatusID = "STATUS"

var (
	// ErrBuildAlreadyInProgress is returned when a build is requested while one slot is building.
	ErrBuildAlreadyInProgress = errors.New("index build already in progress")
	// ErrConcurrentUpdate is returned by stores when a compare-and-swap lost the race too many times.
	ErrConcurrentUpdate = errors.New("index status modified concurrently")
)

// IndexStatus is the singleton lifecycle record. The other slot is never
// stored; it is always CurrentSlot.Flip().
type IndexStatus struct {
	ID               string     `json:"id" bson:"_id"`
	CurrentSlot      Slot       `json:"currentIndex" bson:"current_slot"`
	CurrentState     BuildState `json:"currentIndexState" bson:"current_state"`
	CurrentStartedAt *time.Time `json:"currentIndexStartBuildTime,omitempty" bson:"current_started_at,omitempty"`
	CurrentEndedAt   *time.Time `json:"currentIndexEndBuildTime,omitempty" bson:"current_ended_at,omitempty"`
	OtherState       BuildState `json:"otherIndexState" bson:"other_state"`
	OtherStartedAt   *time.Time `json:"otherIndexStartBuildTime,omitempty" bson:"other_started_at,omitempty"`
	OtherEndedAt     *time.Time `json:"otherIndexEndBuildTime,omitempty" bson:"other_ended_at,omitempty"`
	Version          int64      `json:"-" bson:"version"`
}

// New returns the initial status created on first read.
func New() IndexStatus {
	return IndexStatus{
		ID:           StatusID,
		CurrentSlot:  SlotA,
		CurrentState: StateAbsent,
		OtherState:   StateAbsent,
	}
}

// OtherSlot returns the standby slot.
func (s IndexStatus) OtherSlot() Slot {
	return s.CurrentSlot.Flip()
}

// InProgress reports whether the standby slot is being built.
func (s IndexStatus) InProgress() bool {
	return s.OtherState == StateBuilding
}

// ActiveSlots returns the slots that receive live per-record updates,
// current slot first.
func (s IndexStatus) ActiveSlots() []Slot {
	var slots []Slot
	if s.CurrentState.Active() {
		slots = append(slots, s.CurrentSlot)
	}
	if s.OtherState.Active() {
		slots = append(slots, s.OtherSlot())
	}
	return slots
}

// StateOf returns the build state of the given slot.
func (s IndexStatus) StateOf(slot Slot) BuildState {
	if slot == s.CurrentSlot {
		return s.CurrentState
	}
	return s.OtherState
}

// MarkBuildInProgress starts a build of the standby slot.
func (s IndexStatus) MarkBuildInProgress(now time.Time) (IndexStatus, error) {
	if s.OtherState == StateBuilding || s.CurrentState == StateBuilding {
		return s, ErrBuildAlreadyInProgress
	}
	next := s
	next.OtherState = StateBuilding
	next.OtherStartedAt = timePtr(now)
	next.OtherEndedAt = nil
	return next, nil
}

// MarkBuildCompleteAndSwitchIndex completes the standby build and makes it
// the serving slot. The previous serving slot keeps its state and times and
// becomes the standby.
func (s IndexStatus) MarkBuildCompleteAndSwitchIndex(now time.Time) IndexStatus {
	next := s
	next.OtherState = StateCompleted
	next.OtherEndedAt = timePtr(now)
	return next.SwitchIndex()
}

// SwitchIndex swaps serving and standby slots without touching either state.
func (s IndexStatus) SwitchIndex() IndexStatus {
	return IndexStatus{
		ID:               s.ID,
		CurrentSlot:      s.OtherSlot(),
		CurrentState:     s.OtherState,
		CurrentStartedAt: s.OtherStartedAt,
		CurrentEndedAt:   s.OtherEndedAt,
		OtherState:       s.CurrentState,
		OtherStartedAt:   s.CurrentStartedAt,
		OtherEndedAt:     s.CurrentEndedAt,
		Version:          s.Version,
	}
}

// MarkBuildCancelled abandons the standby build. No swap happens.
func (s IndexStatus) MarkBuildCancelled(now time.Time) IndexStatus {
	next := s
	next.OtherState = StateCancelled
	next.OtherEndedAt = timePtr(now)
	return next
}

func (s IndexStatus) String() string {
	return fmt.Sprintf("current=%s(%s) other=%s(%s)", s.CurrentSlot, s.CurrentState, s.OtherSlot(), s.OtherState)
}

func timePtr(t time.Time) *time.Time {
	t = t.UTC()
	return &t
}
