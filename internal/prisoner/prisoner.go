// Package prisoner defines the canonical search document for one person.
//
// Dates without a time component are ISO-8601 strings (YYYY-MM-DD) so that
// they round-trip unchanged through JSON and BSON.
package prisoner

import "time"

// Category partitions document fields for diffing and event granularity.
type Category string

const (
	CategoryIdentifiers       Category = "IDENTIFIERS"
	CategoryPersonalDetails   Category = "PERSONAL_DETAILS"
	CategoryAlerts            Category = "ALERTS"
	CategoryStatus            Category = "STATUS"
	CategoryLocation          Category = "LOCATION"
	CategorySentence          Category = "SENTENCE"
	CategoryRestrictedPatient Category = "RESTRICTED_PATIENT"
	CategoryIncentiveLevel    Category = "INCENTIVE_LEVEL"
	CategoryPhysicalDetails   Category = "PHYSICAL_DETAILS"
	CategoryContactDetails    Category = "CONTACT_DETAILS"
)

// Categories lists every category in a stable order.
var Categories = []Category{
	CategoryIdentifiers,
	CategoryPersonalDetails,
	CategoryAlerts,
	CategoryStatus,
	CategoryLocation,
	CategorySentence,
	CategoryRestrictedPatient,
	CategoryIncentiveLevel,
	CategoryPhysicalDetails,
	CategoryContactDetails,
}

// Prisoner is the canonical document stored in each index slot, keyed by
// PrisonerNumber.
type Prisoner struct {
	PrisonerNumber string `json:"prisonerNumber" bson:"_id"`

	// Identifiers
	PNCNumber               string       `json:"pncNumber,omitempty" bson:"pnc_number,omitempty"`
	PNCNumberCanonicalShort string       `json:"pncNumberCanonicalShort,omitempty" bson:"pnc_number_canonical_short,omitempty"`
	PNCNumberCanonicalLong  string       `json:"pncNumberCanonicalLong,omitempty" bson:"pnc_number_canonical_long,omitempty"`
	CRONumber               string       `json:"croNumber,omitempty" bson:"cro_number,omitempty"`
	BookingID               string       `json:"bookingId,omitempty" bson:"booking_id,omitempty"`
	BookNumber              string       `json:"bookNumber,omitempty" bson:"book_number,omitempty"`
	Identifiers             []Identifier `json:"identifiers,omitempty" bson:"identifiers,omitempty"`

	// Personal details
	Title             string             `json:"title,omitempty" bson:"title,omitempty"`
	FirstName         string             `json:"firstName" bson:"first_name"`
	MiddleNames       string             `json:"middleNames,omitempty" bson:"middle_names,omitempty"`
	LastName          string             `json:"lastName" bson:"last_name"`
	DateOfBirth       string             `json:"dateOfBirth,omitempty" bson:"date_of_birth,omitempty"`
	Gender            string             `json:"gender,omitempty" bson:"gender,omitempty"`
	Ethnicity         string             `json:"ethnicity,omitempty" bson:"ethnicity,omitempty"`
	RaceCode          string             `json:"raceCode,omitempty" bson:"race_code,omitempty"`
	YouthOffender     *bool              `json:"youthOffender,omitempty" bson:"youth_offender,omitempty"`
	MaritalStatus     string             `json:"maritalStatus,omitempty" bson:"marital_status,omitempty"`
	Religion          string             `json:"religion,omitempty" bson:"religion,omitempty"`
	Nationality       string             `json:"nationality,omitempty" bson:"nationality,omitempty"`
	Smoker            string             `json:"smoker,omitempty" bson:"smoker,omitempty"`
	Aliases           []Alias            `json:"aliases,omitempty" bson:"aliases,omitempty"`
	PersonalCareNeeds []PersonalCareNeed `json:"personalCareNeeds,omitempty" bson:"personal_care_needs,omitempty"`
	Languages         []Language         `json:"languages,omitempty" bson:"languages,omitempty"`

	// Alerts
	Alerts []Alert `json:"alerts,omitempty" bson:"alerts,omitempty"`

	// Status
	Status                        string `json:"status,omitempty" bson:"status,omitempty"`
	InOutStatus                   string `json:"inOutStatus,omitempty" bson:"in_out_status,omitempty"`
	LastMovementTypeCode          string `json:"lastMovementTypeCode,omitempty" bson:"last_movement_type_code,omitempty"`
	LastMovementReasonCode        string `json:"lastMovementReasonCode,omitempty" bson:"last_movement_reason_code,omitempty"`
	LegalStatus                   string `json:"legalStatus,omitempty" bson:"legal_status,omitempty"`
	ImprisonmentStatus            string `json:"imprisonmentStatus,omitempty" bson:"imprisonment_status,omitempty"`
	ImprisonmentStatusDescription string `json:"imprisonmentStatusDescription,omitempty" bson:"imprisonment_status_description,omitempty"`
	ConvictedStatus               string `json:"convictedStatus,omitempty" bson:"convicted_status,omitempty"`
	Recall                        *bool  `json:"recall,omitempty" bson:"recall,omitempty"`
	IndeterminateSentence         *bool  `json:"indeterminateSentence,omitempty" bson:"indeterminate_sentence,omitempty"`
	CSRA                          string `json:"csra,omitempty" bson:"csra,omitempty"`
	Category                      string `json:"category,omitempty" bson:"category,omitempty"`

	// Location
	PrisonID            string `json:"prisonId,omitempty" bson:"prison_id,omitempty"`
	LastPrisonID        string `json:"lastPrisonId,omitempty" bson:"last_prison_id,omitempty"`
	PrisonName          string `json:"prisonName,omitempty" bson:"prison_name,omitempty"`
	CellLocation        string `json:"cellLocation,omitempty" bson:"cell_location,omitempty"`
	LocationDescription string `json:"locationDescription,omitempty" bson:"location_description,omitempty"`

	// Sentence
	ReceptionDate                  string             `json:"receptionDate,omitempty" bson:"reception_date,omitempty"`
	SentenceStartDate              string             `json:"sentenceStartDate,omitempty" bson:"sentence_start_date,omitempty"`
	ReleaseDate                    string             `json:"releaseDate,omitempty" bson:"release_date,omitempty"`
	ConfirmedReleaseDate           string             `json:"confirmedReleaseDate,omitempty" bson:"confirmed_release_date,omitempty"`
	SentenceExpiryDate             string             `json:"sentenceExpiryDate,omitempty" bson:"sentence_expiry_date,omitempty"`
	LicenceExpiryDate              string             `json:"licenceExpiryDate,omitempty" bson:"licence_expiry_date,omitempty"`
	HomeDetentionCurfewEligibility string             `json:"homeDetentionCurfewEligibilityDate,omitempty" bson:"hdc_eligibility_date,omitempty"`
	HomeDetentionCurfewActualDate  string             `json:"homeDetentionCurfewActualDate,omitempty" bson:"hdc_actual_date,omitempty"`
	HomeDetentionCurfewEndDate     string             `json:"homeDetentionCurfewEndDate,omitempty" bson:"hdc_end_date,omitempty"`
	ParoleEligibilityDate          string             `json:"paroleEligibilityDate,omitempty" bson:"parole_eligibility_date,omitempty"`
	ConditionalReleaseDate         string             `json:"conditionalReleaseDate,omitempty" bson:"conditional_release_date,omitempty"`
	PostRecallReleaseDate          string             `json:"postRecallReleaseDate,omitempty" bson:"post_recall_release_date,omitempty"`
	TopupSupervisionExpiryDate     string             `json:"topupSupervisionExpiryDate,omitempty" bson:"topup_supervision_expiry_date,omitempty"`
	TariffDate                     string             `json:"tariffDate,omitempty" bson:"tariff_date,omitempty"`
	MostSeriousOffence             string             `json:"mostSeriousOffence,omitempty" bson:"most_serious_offence,omitempty"`
	AllConvictedOffences           []ConvictedOffence `json:"allConvictedOffences,omitempty" bson:"all_convicted_offences,omitempty"`

	// Restricted patient
	RestrictedPatient             bool   `json:"restrictedPatient" bson:"restricted_patient"`
	SupportingPrisonID            string `json:"supportingPrisonId,omitempty" bson:"supporting_prison_id,omitempty"`
	DischargedHospitalID          string `json:"dischargedHospitalId,omitempty" bson:"discharged_hospital_id,omitempty"`
	DischargedHospitalDescription string `json:"dischargedHospitalDescription,omitempty" bson:"discharged_hospital_description,omitempty"`
	DischargeDate                 string `json:"dischargeDate,omitempty" bson:"discharge_date,omitempty"`
	DischargeDetails              string `json:"dischargeDetails,omitempty" bson:"discharge_details,omitempty"`

	// Incentive level
	CurrentIncentive *CurrentIncentive `json:"currentIncentive,omitempty" bson:"current_incentive,omitempty"`

	// Physical details
	HeightCentimetres *int             `json:"heightCentimetres,omitempty" bson:"height_centimetres,omitempty"`
	WeightKilograms   *int             `json:"weightKilograms,omitempty" bson:"weight_kilograms,omitempty"`
	HairColour        string           `json:"hairColour,omitempty" bson:"hair_colour,omitempty"`
	RightEyeColour    string           `json:"rightEyeColour,omitempty" bson:"right_eye_colour,omitempty"`
	LeftEyeColour     string           `json:"leftEyeColour,omitempty" bson:"left_eye_colour,omitempty"`
	FacialHair        string           `json:"facialHair,omitempty" bson:"facial_hair,omitempty"`
	ShapeOfFace       string           `json:"shapeOfFace,omitempty" bson:"shape_of_face,omitempty"`
	Build             string           `json:"build,omitempty" bson:"build,omitempty"`
	ShoeSize          *int             `json:"shoeSize,omitempty" bson:"shoe_size,omitempty"`
	Tattoos           []BodyPartDetail `json:"tattoos,omitempty" bson:"tattoos,omitempty"`
	Scars             []BodyPartDetail `json:"scars,omitempty" bson:"scars,omitempty"`
	Marks             []BodyPartDetail `json:"marks,omitempty" bson:"marks,omitempty"`

	// Contact details
	Addresses      []Address      `json:"addresses,omitempty" bson:"addresses,omitempty"`
	EmailAddresses []EmailAddress `json:"emailAddresses,omitempty" bson:"email_addresses,omitempty"`
	PhoneNumbers   []PhoneNumber  `json:"phoneNumbers,omitempty" bson:"phone_numbers,omitempty"`
}

// Identifier is an official identifier issued to the person.
type Identifier struct {
	Type            string     `json:"type" bson:"type"`
	Value           string     `json:"value" bson:"value"`
	IssuedDate      string     `json:"issuedDate,omitempty" bson:"issued_date,omitempty"`
	IssuedBy        string     `json:"issuedBy,omitempty" bson:"issued_by,omitempty"`
	CreatedDateTime *time.Time `json:"createdDateTime,omitempty" bson:"created_date_time,omitempty"`
}

// Alias is an alternative name used by the person.
type Alias struct {
	Title       string `json:"title,omitempty" bson:"title,omitempty"`
	FirstName   string `json:"firstName" bson:"first_name"`
	MiddleNames string `json:"middleNames,omitempty" bson:"middle_names,omitempty"`
	LastName    string `json:"lastName" bson:"last_name"`
	DateOfBirth string `json:"dateOfBirth,omitempty" bson:"date_of_birth,omitempty"`
	Gender      string `json:"gender,omitempty" bson:"gender,omitempty"`
	Ethnicity   string `json:"ethnicity,omitempty" bson:"ethnicity,omitempty"`
}

// Alert is a flag raised against the person.
type Alert struct {
	AlertType string `json:"alertType" bson:"alert_type"`
	AlertCode string `json:"alertCode" bson:"alert_code"`
	Active    bool   `json:"active" bson:"active"`
	Expired   bool   `json:"expired" bson:"expired"`
}

// PersonalCareNeed records a health or care requirement.
type PersonalCareNeed struct {
	ProblemType   string `json:"problemType" bson:"problem_type"`
	ProblemCode   string `json:"problemCode" bson:"problem_code"`
	ProblemStatus string `json:"problemStatus,omitempty" bson:"problem_status,omitempty"`
	StartDate     string `json:"startDate,omitempty" bson:"start_date,omitempty"`
	EndDate       string `json:"endDate,omitempty" bson:"end_date,omitempty"`
}

// Language is a language spoken by the person.
type Language struct {
	Type        string `json:"type" bson:"type"`
	Code        string `json:"code" bson:"code"`
	ReadSkill   string `json:"readSkill,omitempty" bson:"read_skill,omitempty"`
	WriteSkill  string `json:"writeSkill,omitempty" bson:"write_skill,omitempty"`
	SpeakSkill  string `json:"speakSkill,omitempty" bson:"speak_skill,omitempty"`
	Interpreter bool   `json:"interpreterRequired" bson:"interpreter_required"`
}

// ConvictedOffence is an offence the person has been convicted of.
type ConvictedOffence struct {
	BookingID          string `json:"bookingId" bson:"booking_id"`
	OffenceCode        string `json:"offenceCode" bson:"offence_code"`
	StatuteCode        string `json:"statuteCode" bson:"statute_code"`
	OffenceDescription string `json:"offenceDescription" bson:"offence_description"`
	OffenceDate        string `json:"offenceDate,omitempty" bson:"offence_date,omitempty"`
	LatestBooking      bool   `json:"latestBooking" bson:"latest_booking"`
	SentenceStartDate  string `json:"sentenceStartDate,omitempty" bson:"sentence_start_date,omitempty"`
}

// CurrentIncentive is the person's current incentive level.
type CurrentIncentive struct {
	Level          IncentiveLevel `json:"level" bson:"level"`
	DateTime       time.Time      `json:"dateTime" bson:"date_time"`
	NextReviewDate string         `json:"nextReviewDate,omitempty" bson:"next_review_date,omitempty"`
}

// IncentiveLevel is a code/description pair.
type IncentiveLevel struct {
	Code        string `json:"code,omitempty" bson:"code,omitempty"`
	Description string `json:"description" bson:"description"`
}

// BodyPartDetail describes a tattoo, scar or mark.
type BodyPartDetail struct {
	BodyPart string `json:"bodyPart" bson:"body_part"`
	Comment  string `json:"comment,omitempty" bson:"comment,omitempty"`
}

// Address is a formatted address.
type Address struct {
	FullAddress    string        `json:"fullAddress" bson:"full_address"`
	PostalCode     string        `json:"postalCode,omitempty" bson:"postal_code,omitempty"`
	StartDate      string        `json:"startDate,omitempty" bson:"start_date,omitempty"`
	PrimaryAddress bool          `json:"primaryAddress" bson:"primary_address"`
	NoFixedAddress bool          `json:"noFixedAddress" bson:"no_fixed_address"`
	PhoneNumbers   []PhoneNumber `json:"phoneNumbers,omitempty" bson:"phone_numbers,omitempty"`
}

// EmailAddress is a contact email.
type EmailAddress struct {
	Email string `json:"email" bson:"email"`
}

// PhoneNumber is a digits-only contact number.
type PhoneNumber struct {
	Type   string `json:"type" bson:"type"`
	Number string `json:"number" bson:"number"`
}

// ActiveAlertCodes returns the codes of active alerts.
func (p *Prisoner) ActiveAlertCodes() map[string]struct{} {
	codes := make(map[string]struct{})
	if p == nil {
		return codes
	}
	for _, a := range p.Alerts {
		if a.Active {
			codes[a.AlertCode] = struct{}{}
		}
	}
	return codes
}
