// Package events derives outbound domain events from a before/after pair of
// prisoner documents and publishes them.
package events

import (
	"time"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/prisoner"
)

// Type is the event type carried on the wire.
type Type string

const (
	TypeCreated                Type = "prisoner-offender-search.prisoner.created"
	TypeUpdated                Type = "prisoner-offender-search.prisoner.updated"
	TypeAlertsUpdated          Type = "prisoner-offender-search.prisoner.alerts-updated"
	TypeConvictedStatusChanged Type = "prisoner-offender-search.prisoner.convicted-status-changed"
	TypeReceived               Type = "prisoner-offender-search.prisoner.received"
	TypeReleased               Type = "prisoner-offender-search.prisoner.released"
)

var descriptions = map[Type]string{
	TypeCreated:                "A prisoner record has been created",
	TypeUpdated:                "A prisoner record has been updated",
	TypeAlertsUpdated:          "A prisoner had their alerts updated",
	TypeConvictedStatusChanged: "A prisoner had their convicted status changed",
	TypeReceived:               "A prisoner has been received into a prison",
	TypeReleased:               "A prisoner has been released from a prison",
}

// Reason explains a receive or release.
type Reason string

const (
	ReasonNewAdmission             Reason = "NEW_ADMISSION"
	ReasonReadmission              Reason = "READMISSION"
	ReasonReadmissionSwitchBooking Reason = "READMISSION_SWITCH_BOOKING"
	ReasonPostMergeAdmission       Reason = "POST_MERGE_ADMISSION"
	ReasonTransferred              Reason = "TRANSFERRED"
	ReasonReturnFromCourt          Reason = "RETURN_FROM_COURT"
	ReasonTemporaryAbsenceReturn   Reason = "TEMPORARY_ABSENCE_RETURN"
	ReasonSentToCourt              Reason = "SENT_TO_COURT"
	ReasonTemporaryAbsenceRelease  Reason = "TEMPORARY_ABSENCE_RELEASE"
	ReasonReleased                 Reason = "RELEASED"
	ReasonReleasedToHospital       Reason = "RELEASED_TO_HOSPITAL"
)

// Event is one outbound notification. Version and ID are assigned at
// publication.
type Event struct {
	ID                    string    `json:"id"`
	Type                  Type      `json:"eventType"`
	Version               int64     `json:"version"`
	OccurredAt            time.Time `json:"occurredAt"`
	Description           string    `json:"description"`
	AdditionalInformation any       `json:"additionalInformation"`

	// Primary marks the created/updated event whose publication failure
	// must fail the synchronization.
	Primary        bool   `json:"-"`
	PrisonerNumber string `json:"-"`
}

// UpdatedInfo is the payload of created and updated events.
type UpdatedInfo struct {
	NomsNumber        string              `json:"nomsNumber"`
	CategoriesChanged []prisoner.Category `json:"categoriesChanged"`
}

// AlertsInfo is the payload of alerts-updated events.
type AlertsInfo struct {
	NomsNumber    string   `json:"nomsNumber"`
	BookingID     string   `json:"bookingId,omitempty"`
	AlertsAdded   []string `json:"alertsAdded"`
	AlertsRemoved []string `json:"alertsRemoved"`
}

// ConvictedStatusInfo is the payload of convicted-status-changed events.
type ConvictedStatusInfo struct {
	NomsNumber      string `json:"nomsNumber"`
	BookingID       string `json:"bookingId,omitempty"`
	ConvictedStatus string `json:"convictedStatus,omitempty"`
}

// MovementInfo is the payload of received and released events.
type MovementInfo struct {
	NomsNumber string `json:"nomsNumber"`
	Reason     Reason `json:"reason"`
	PrisonID   string `json:"prisonId"`
}

func newEvent(t Type, prisonerNumber string, info any) Event {
	return Event{
		Type:                  t,
		Description:           descriptions[t],
		AdditionalInformation: info,
		PrisonerNumber:        prisonerNumber,
	}
}
