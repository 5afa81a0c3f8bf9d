package events

import (
	"slices"
	"strconv"
	"time"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/diff"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/prisoner"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/upstream"
)

// MergeWindow is how recently a merge must have happened for an admission
// to count as a post-merge admission.
const MergeWindow = 90 * time.Minute

const (
	statusIn       = "IN"
	statusOut      = "OUT"
	statusTransfer = "TRN"
	releasedPrison = "OUT"

	movementAdmission = "ADM"
	movementCourt     = "CRT"
	movementTAP       = "TAP"
	movementRelease   = "REL"

	reasonHospital = "HP"
)

// Change is one synchronization's before/after pair. Before is nil for a
// prisoner not previously indexed.
type Change struct {
	Before  *prisoner.Prisoner
	After   *prisoner.Prisoner
	Booking *upstream.Booking
	Diff    diff.Diff
	Now     time.Time
}

// Derive returns the events for a change, primary event first.
func Derive(c Change) []Event {
	var out []Event
	if primary, ok := primaryEvent(c); ok {
		out = append(out, primary)
	}
	if e, ok := alertsEvent(c.Before, c.After); ok {
		out = append(out, e)
	}
	if e, ok := convictedStatusEvent(c.Before, c.After); ok {
		out = append(out, e)
	}
	if e, ok := movementEvent(c); ok {
		out = append(out, e)
	}
	return out
}

func primaryEvent(c Change) (Event, bool) {
	number := c.After.PrisonerNumber
	if c.Before == nil {
		e := newEvent(TypeCreated, number, UpdatedInfo{NomsNumber: number, CategoriesChanged: c.Diff.Categories()})
		e.Primary = true
		return e, true
	}
	if c.Diff.Empty() {
		return Event{}, false
	}
	e := newEvent(TypeUpdated, number, UpdatedInfo{NomsNumber: number, CategoriesChanged: c.Diff.Categories()})
	e.Primary = true
	return e, true
}

func alertsEvent(before, after *prisoner.Prisoner) (Event, bool) {
	was, is := before.ActiveAlertCodes(), after.ActiveAlertCodes()
	added, removed := setDifference(is, was), setDifference(was, is)
	if len(added) == 0 && len(removed) == 0 {
		return Event{}, false
	}
	return newEvent(TypeAlertsUpdated, after.PrisonerNumber, AlertsInfo{
		NomsNumber:    after.PrisonerNumber,
		BookingID:     after.BookingID,
		AlertsAdded:   added,
		AlertsRemoved: removed,
	}), true
}

// setDifference returns the sorted members of a that are not in b, never nil.
func setDifference(a, b map[string]struct{}) []string {
	out := []string{}
	for code := range a {
		if _, ok := b[code]; !ok {
			out = append(out, code)
		}
	}
	slices.Sort(out)
	return out
}

func convictedStatusEvent(before, after *prisoner.Prisoner) (Event, bool) {
	var previous string
	if before != nil {
		previous = before.ConvictedStatus
	}
	if previous == after.ConvictedStatus {
		return Event{}, false
	}
	return newEvent(TypeConvictedStatusChanged, after.PrisonerNumber, ConvictedStatusInfo{
		NomsNumber:      after.PrisonerNumber,
		BookingID:       after.BookingID,
		ConvictedStatus: after.ConvictedStatus,
	}), true
}

func movementEvent(c Change) (Event, bool) {
	before, after := c.Before, c.After
	if before == nil {
		return Event{}, false
	}
	if before.InOutStatus == after.InOutStatus && before.PrisonID == after.PrisonID {
		return Event{}, false
	}
	if reason, ok := receiveReason(c); ok {
		return movement(TypeReceived, after.PrisonerNumber, reason, after.PrisonID), true
	}
	if reason, prison, ok := releaseReason(before, after); ok {
		return movement(TypeReleased, after.PrisonerNumber, reason, prison), true
	}
	return Event{}, false
}

func movement(t Type, prisonerNumber string, reason Reason, prisonID string) Event {
	return newEvent(t, prisonerNumber, MovementInfo{
		NomsNumber: prisonerNumber,
		Reason:     reason,
		PrisonID:   prisonID,
	})
}

func receiveReason(c Change) (Reason, bool) {
	before, after := c.Before, c.After
	if after.InOutStatus != statusIn {
		return "", false
	}

	switch after.LastMovementTypeCode {
	case movementAdmission:
		switch {
		case before.InOutStatus == statusTransfer:
			return ReasonTransferred, true
		case before.InOutStatus == statusIn && before.PrisonID != after.PrisonID:
			return ReasonTransferred, true
		case released(before):
			return admissionReason(c), true
		}
	case movementCourt:
		if temporarilyOut(before) {
			return returnReason(before, after, ReasonReturnFromCourt), true
		}
	case movementTAP:
		if temporarilyOut(before) {
			return returnReason(before, after, ReasonTemporaryAbsenceReturn), true
		}
	}
	return "", false
}

func returnReason(before, after *prisoner.Prisoner, samePrison Reason) Reason {
	if previousLocation(before) == after.PrisonID {
		return samePrison
	}
	return ReasonTransferred
}

// admissionReason classifies a receive from the community by how the
// booking compares with the one previously indexed.
func admissionReason(c Change) Reason {
	previous, errPrev := strconv.ParseInt(c.Before.BookingID, 10, 64)
	current, errCur := strconv.ParseInt(c.After.BookingID, 10, 64)

	switch {
	case errPrev != nil || errCur != nil || current > previous:
		if recentlyMerged(c.Booking, c.Now) {
			return ReasonPostMergeAdmission
		}
		return ReasonNewAdmission
	case current == previous:
		return ReasonReadmission
	default:
		return ReasonReadmissionSwitchBooking
	}
}

// recentlyMerged reports whether a merge was recorded within MergeWindow
// with no admission recorded after it.
func recentlyMerged(b *upstream.Booking, now time.Time) bool {
	if b == nil {
		return false
	}
	for _, id := range b.Identifiers {
		if id.Type != upstream.IdentifierMerged || id.WhenCreated == nil {
			continue
		}
		merged := *id.WhenCreated
		if now.Sub(merged) > MergeWindow || merged.After(now) {
			continue
		}
		if b.LastAdmissionTime == nil || b.LastAdmissionTime.Before(merged) {
			return true
		}
	}
	return false
}

func releaseReason(before, after *prisoner.Prisoner) (Reason, string, bool) {
	switch {
	case before.InOutStatus == statusIn && after.InOutStatus == statusTransfer:
		return ReasonTransferred, before.PrisonID, true
	case before.InOutStatus == statusIn && temporarilyOut(after):
		switch after.LastMovementTypeCode {
		case movementCourt:
			return ReasonSentToCourt, before.PrisonID, true
		case movementTAP:
			return ReasonTemporaryAbsenceRelease, before.PrisonID, true
		}
	case !released(before) && released(after) && after.LastMovementTypeCode == movementRelease:
		if after.LastMovementReasonCode == reasonHospital || after.RestrictedPatient {
			return ReasonReleasedToHospital, previousLocation(before), true
		}
		return ReasonReleased, previousLocation(before), true
	}
	return "", "", false
}

func released(p *prisoner.Prisoner) bool {
	return p.InOutStatus == statusOut && p.PrisonID == releasedPrison
}

func temporarilyOut(p *prisoner.Prisoner) bool {
	return p.InOutStatus == statusOut && p.PrisonID != releasedPrison
}

// previousLocation is the prison a prisoner was last held at.
func previousLocation(p *prisoner.Prisoner) string {
	if p.LastPrisonID != "" {
		return p.LastPrisonID
	}
	return p.PrisonID
}
