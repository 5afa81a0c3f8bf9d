package listener

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Notification is an upstream change notification. The prisoner number is
// carried in one of several places depending on the publishing system.
type Notification struct {
	EventType             string                 `json:"eventType"`
	OffenderIDDisplay     string                 `json:"offenderIdDisplay,omitempty"`
	NomsNumber            string                 `json:"nomsNumber,omitempty"`
	AdditionalInformation *AdditionalInformation `json:"additionalInformation,omitempty"`
	PersonReference       *PersonReference       `json:"personReference,omitempty"`
}

type AdditionalInformation struct {
	NomsNumber     string `json:"nomsNumber,omitempty"`
	PrisonerNumber string `json:"prisonerNumber,omitempty"`
}

type PersonReference struct {
	Identifiers []PersonIdentifier `json:"identifiers"`
}

type PersonIdentifier struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Change is a validated notification reduced to what synchronization needs.
type Change struct {
	EventType      string `validate:"required"`
	PrisonerNumber string `validate:"required,len=7,alphanum,uppercase"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// PrisonerNumber returns the first prisoner number found in the
// notification.
func (n Notification) PrisonerNumber() string {
	if n.OffenderIDDisplay != "" {
		return n.OffenderIDDisplay
	}
	if n.NomsNumber != "" {
		return n.NomsNumber
	}
	if ai := n.AdditionalInformation; ai != nil {
		if ai.NomsNumber != "" {
			return ai.NomsNumber
		}
		if ai.PrisonerNumber != "" {
			return ai.PrisonerNumber
		}
	}
	if pr := n.PersonReference; pr != nil {
		for _, id := range pr.Identifiers {
			if id.Type == "NOMS" && id.Value != "" {
				return id.Value
			}
		}
	}
	return ""
}

// ParseChange decodes and validates a notification payload. The subject is
// used as the event type when the payload does not name one.
func ParseChange(subject string, data []byte) (Change, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return Change{}, fmt.Errorf("invalid change notification: %w", err)
	}
	c := Change{EventType: n.EventType, PrisonerNumber: n.PrisonerNumber()}
	if c.EventType == "" {
		c.EventType = subject
	}
	if err := validate.Struct(c); err != nil {
		return Change{}, fmt.Errorf("invalid change notification: %w", err)
	}
	return c, nil
}
