// Package upstream describes the source-of-truth booking and the secondary
// data sources used to build a prisoner document.
package upstream

import "time"

// Booking is the source-of-truth record for one person, including the
// latest booking.
type Booking struct {
	OffenderNo   string `json:"offenderNo"`
	BookingID    *int64 `json:"bookingId,omitempty"`
	BookingNo    string `json:"bookingNo,omitempty"`
	Title        string `json:"title,omitempty"`
	FirstName    string `json:"firstName"`
	MiddleName   string `json:"middleName,omitempty"`
	LastName     string `json:"lastName"`
	DateOfBirth  string `json:"dateOfBirth,omitempty"`
	ActiveFlag   bool   `json:"activeFlag"`
	AgencyID     string `json:"agencyId,omitempty"`
	LatestPrison string `json:"latestLocationId,omitempty"`

	Status                 string     `json:"status,omitempty"`
	InOutStatus            string     `json:"inOutStatus,omitempty"`
	LastMovementTypeCode   string     `json:"lastMovementTypeCode,omitempty"`
	LastMovementReasonCode string     `json:"lastMovementReasonCode,omitempty"`
	LastMovementTime       *time.Time `json:"lastMovementTime,omitempty"`
	LastAdmissionTime      *time.Time `json:"lastAdmissionTime,omitempty"`
	LocationDescription    string     `json:"locationDescription,omitempty"`

	LegalStatus                   string `json:"legalStatus,omitempty"`
	ImprisonmentStatus            string `json:"imprisonmentStatus,omitempty"`
	ImprisonmentStatusDescription string `json:"imprisonmentStatusDescription,omitempty"`
	ConvictedStatus               string `json:"convictedStatus,omitempty"`
	Recall                        *bool  `json:"recall,omitempty"`
	IndeterminateSentence         *bool  `json:"indeterminateSentence,omitempty"`
	ReceptionDate                 string `json:"receptionDate,omitempty"`
	CSRA                          string `json:"csra,omitempty"`
	CategoryCode                  string `json:"categoryCode,omitempty"`

	AssignedLivingUnit      *AssignedLivingUnit      `json:"assignedLivingUnit,omitempty"`
	PhysicalAttributes      *PhysicalAttributes      `json:"physicalAttributes,omitempty"`
	PhysicalCharacteristics []PhysicalCharacteristic `json:"physicalCharacteristics,omitempty"`
	PhysicalMarks           []PhysicalMark           `json:"physicalMarks,omitempty"`
	ProfileInformation      []ProfileInformation     `json:"profileInformation,omitempty"`
	SentenceDetail          *SentenceDetail          `json:"sentenceDetail,omitempty"`
	Alerts                  []Alert                  `json:"alerts,omitempty"`
	Aliases                 []Alias                  `json:"aliases,omitempty"`
	Identifiers             []Identifier             `json:"allIdentifiers,omitempty"`
	OffenceHistory          []OffenceHistory         `json:"offenceHistory,omitempty"`
	PersonalCareNeeds       []PersonalCareNeed       `json:"personalCareNeeds,omitempty"`
	Languages               []Language               `json:"languages,omitempty"`
	Addresses               []Address                `json:"addresses,omitempty"`
	Phones                  []Telephone              `json:"phones,omitempty"`
	EmailAddresses          []Email                  `json:"emailAddresses,omitempty"`
}

// AssignedLivingUnit is the cell or location the person is assigned to.
type AssignedLivingUnit struct {
	AgencyID    string `json:"agencyId"`
	LocationID  int64  `json:"locationId,omitempty"`
	Description string `json:"description,omitempty"`
	AgencyName  string `json:"agencyName,omitempty"`
}

type PhysicalAttributes struct {
	Gender            string `json:"gender,omitempty"`
	RaceCode          string `json:"raceCode,omitempty"`
	Ethnicity         string `json:"ethnicity,omitempty"`
	HeightCentimetres *int   `json:"heightCentimetres,omitempty"`
	WeightKilograms   *int   `json:"weightKilograms,omitempty"`
}

type PhysicalCharacteristic struct {
	Type           string `json:"type"`
	Characteristic string `json:"characteristic,omitempty"`
	Detail         string `json:"detail,omitempty"`
}

// PhysicalMark is a tattoo, scar or other distinguishing mark.
type PhysicalMark struct {
	Type     string `json:"type,omitempty"`
	Side     string `json:"side,omitempty"`
	BodyPart string `json:"bodyPart,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

type ProfileInformation struct {
	Type        string `json:"type"`
	Question    string `json:"question,omitempty"`
	ResultValue string `json:"resultValue,omitempty"`
}

type SentenceDetail struct {
	SentenceStartDate                  string `json:"sentenceStartDate,omitempty"`
	ReleaseDate                        string `json:"releaseDate,omitempty"`
	ConfirmedReleaseDate               string `json:"confirmedReleaseDate,omitempty"`
	SentenceExpiryDate                 string `json:"sentenceExpiryDate,omitempty"`
	LicenceExpiryDate                  string `json:"licenceExpiryDate,omitempty"`
	HomeDetentionCurfewEligibilityDate string `json:"homeDetentionCurfewEligibilityDate,omitempty"`
	HomeDetentionCurfewActualDate      string `json:"homeDetentionCurfewActualDate,omitempty"`
	HomeDetentionCurfewEndDate         string `json:"homeDetentionCurfewEndDate,omitempty"`
	ParoleEligibilityDate              string `json:"paroleEligibilityDate,omitempty"`
	ConditionalReleaseDate             string `json:"conditionalReleaseDate,omitempty"`
	PostRecallReleaseDate              string `json:"postRecallReleaseDate,omitempty"`
	TopupSupervisionExpiryDate         string `json:"topupSupervisionExpiryDate,omitempty"`
	TariffDate                         string `json:"tariffDate,omitempty"`
}

type Alert struct {
	AlertType string `json:"alertType"`
	AlertCode string `json:"alertCode"`
	Active    bool   `json:"active"`
	Expired   bool   `json:"expired"`
}

type Alias struct {
	Title      string `json:"title,omitempty"`
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName,omitempty"`
	LastName   string `json:"lastName"`
	Dob        string `json:"dob,omitempty"`
	Gender     string `json:"gender,omitempty"`
	Ethnicity  string `json:"ethnicity,omitempty"`
}

// Identifier types of interest.
const (
	IdentifierPNC    = "PNC"
	IdentifierCRO    = "CRO"
	IdentifierMerged = "MERGED"
)

type Identifier struct {
	Type                string     `json:"type"`
	Value               string     `json:"value"`
	IssuedDate          string     `json:"issuedDate,omitempty"`
	IssuedAuthorityText string     `json:"issuedAuthorityText,omitempty"`
	WhenCreated         *time.Time `json:"whenCreated,omitempty"`
}

type OffenceHistory struct {
	BookingID          int64  `json:"bookingId"`
	OffenceDate        string `json:"offenceDate,omitempty"`
	OffenceCode        string `json:"offenceCode"`
	StatuteCode        string `json:"statuteCode"`
	OffenceDescription string `json:"offenceDescription"`
	MostSerious        bool   `json:"mostSerious"`
	PrimaryResultCode  string `json:"primaryResultCode,omitempty"`
	Convicted          bool   `json:"convicted"`
	SentenceStartDate  string `json:"sentenceStartDate,omitempty"`
}

type PersonalCareNeed struct {
	ProblemType   string `json:"problemType"`
	ProblemCode   string `json:"problemCode"`
	ProblemStatus string `json:"problemStatus,omitempty"`
	StartDate     string `json:"startDate,omitempty"`
	EndDate       string `json:"endDate,omitempty"`
}

type Language struct {
	Type                string `json:"type"`
	Code                string `json:"code"`
	ReadSkill           string `json:"readSkill,omitempty"`
	WriteSkill          string `json:"writeSkill,omitempty"`
	SpeakSkill          string `json:"speakSkill,omitempty"`
	InterpreterRequired bool   `json:"interpreterRequested"`
}

type Address struct {
	AddressID      int64       `json:"addressId"`
	Flat           string      `json:"flat,omitempty"`
	Premise        string      `json:"premise,omitempty"`
	Street         string      `json:"street,omitempty"`
	Locality       string      `json:"locality,omitempty"`
	Town           string      `json:"town,omitempty"`
	County         string      `json:"county,omitempty"`
	PostalCode     string      `json:"postalCode,omitempty"`
	Country        string      `json:"country,omitempty"`
	NoFixedAddress bool        `json:"noFixedAddress"`
	Primary        bool        `json:"primary"`
	StartDate      string      `json:"startDate,omitempty"`
	Phones         []Telephone `json:"phones,omitempty"`
}

type Telephone struct {
	Number string `json:"number"`
	Type   string `json:"type"`
}

type Email struct {
	Email string `json:"email"`
}

// IncentiveLevel is the current incentive review outcome for a booking.
type IncentiveLevel struct {
	IepCode        string    `json:"iepCode"`
	IepLevel       string    `json:"iepLevel"`
	IepTime        time.Time `json:"iepTime"`
	NextReviewDate string    `json:"nextReviewDate,omitempty"`
}

// RestrictedPatient is present when the person has been discharged to a
// hospital under a restriction order.
type RestrictedPatient struct {
	PrisonerNumber   string  `json:"prisonerNumber"`
	SupportingPrison *Agency `json:"supportingPrison,omitempty"`
	HospitalLocation *Agency `json:"hospitalLocation,omitempty"`
	DischargeTime    string  `json:"dischargeTime,omitempty"`
	CommentText      string  `json:"commentText,omitempty"`
}

type Agency struct {
	AgencyID    string `json:"agencyId"`
	Description string `json:"description,omitempty"`
}
