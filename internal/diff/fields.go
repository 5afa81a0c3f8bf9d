package diff

import "github.com/ministryofjustice/hmpps-prisoner-search/internal/prisoner"

type fieldSpec struct {
	name     string
	category prisoner.Category
	get      func(*prisoner.Prisoner) any
}

func field(name string, category prisoner.Category, get func(*prisoner.Prisoner) any) fieldSpec {
	return fieldSpec{name: name, category: category, get: get}
}

// fields assigns every mutable document field to exactly one category.
// The prisoner number is the identity and is never compared.
var fields = []fieldSpec{
	// Identifiers
	field("pncNumber", prisoner.CategoryIdentifiers, func(p *prisoner.Prisoner) any { return p.PNCNumber }),
	field("pncNumberCanonicalShort", prisoner.CategoryIdentifiers, func(p *prisoner.Prisoner) any { return p.PNCNumberCanonicalShort }),
	field("pncNumberCanonicalLong", prisoner.CategoryIdentifiers, func(p *prisoner.Prisoner) any { return p.PNCNumberCanonicalLong }),
	field("croNumber", prisoner.CategoryIdentifiers, func(p *prisoner.Prisoner) any { return p.CRONumber }),
	field("bookingId", prisoner.CategoryIdentifiers, func(p *prisoner.Prisoner) any { return p.BookingID }),
	field("bookNumber", prisoner.CategoryIdentifiers, func(p *prisoner.Prisoner) any { return p.BookNumber }),
	field("identifiers", prisoner.CategoryIdentifiers, func(p *prisoner.Prisoner) any { return p.Identifiers }),

	// Personal details
	field("title", prisoner.CategoryPersonalDetails, func(p *prisoner.Prisoner) any { return p.Title }),
	field("firstName", prisoner.CategoryPersonalDetails, func(p *prisoner.Prisoner) any { return p.FirstName }),
	field("middleNames", prisoner.CategoryPersonalDetails, func(p *prisoner.Prisoner) any { return p.MiddleNames }),
	field("lastName", prisoner.CategoryPersonalDetails, func(p *prisoner.Prisoner) any { return p.LastName }),
	field("dateOfBirth", prisoner.CategoryPersonalDetails, func(p *prisoner.Prisoner) any { return p.DateOfBirth }),
	field("gender", prisoner.CategoryPersonalDetails, func(p *prisoner.Prisoner) any { return p.Gender }),
	field("ethnicity", prisoner.CategoryPersonalDetails, func(p *prisoner.Prisoner) any { return p.Ethnicity }),
	field("raceCode", prisoner.CategoryPersonalDetails, func(p *prisoner.Prisoner) any { return p.RaceCode }),
	field("youthOffender", prisoner.CategoryPersonalDetails, func(p *prisoner.Prisoner) any { return p.YouthOffender }),
	field("maritalStatus", prisoner.CategoryPersonalDetails, func(p *prisoner.Prisoner) any { return p.MaritalStatus }),
	field("religion", prisoner.CategoryPersonalDetails, func(p *prisoner.Prisoner) any { return p.Religion }),
	field("nationality", prisoner.CategoryPersonalDetails, func(p *prisoner.Prisoner) any { return p.Nationality }),
	field("smoker", prisoner.CategoryPersonalDetails, func(p *prisoner.Prisoner) any { return p.Smoker }),
	field("aliases", prisoner.CategoryPersonalDetails, func(p *prisoner.Prisoner) any { return p.Aliases }),
	field("personalCareNeeds", prisoner.CategoryPersonalDetails, func(p *prisoner.Prisoner) any { return p.PersonalCareNeeds }),
	field("languages", prisoner.CategoryPersonalDetails, func(p *prisoner.Prisoner) any { return p.Languages }),

	// Alerts
	field("alerts", prisoner.CategoryAlerts, func(p *prisoner.Prisoner) any { return p.Alerts }),

	// Status
	field("status", prisoner.CategoryStatus, func(p *prisoner.Prisoner) any { return p.Status }),
	field("inOutStatus", prisoner.CategoryStatus, func(p *prisoner.Prisoner) any { return p.InOutStatus }),
	field("lastMovementTypeCode", prisoner.CategoryStatus, func(p *prisoner.Prisoner) any { return p.LastMovementTypeCode }),
	field("lastMovementReasonCode", prisoner.CategoryStatus, func(p *prisoner.Prisoner) any { return p.LastMovementReasonCode }),
	field("legalStatus", prisoner.CategoryStatus, func(p *prisoner.Prisoner) any { return p.LegalStatus }),
	field("imprisonmentStatus", prisoner.CategoryStatus, func(p *prisoner.Prisoner) any { return p.ImprisonmentStatus }),
	field("imprisonmentStatusDescription", prisoner.CategoryStatus, func(p *prisoner.Prisoner) any { return p.ImprisonmentStatusDescription }),
	field("convictedStatus", prisoner.CategoryStatus, func(p *prisoner.Prisoner) any { return p.ConvictedStatus }),
	field("recall", prisoner.CategoryStatus, func(p *prisoner.Prisoner) any { return p.Recall }),
	field("indeterminateSentence", prisoner.CategoryStatus, func(p *prisoner.Prisoner) any { return p.IndeterminateSentence }),
	field("csra", prisoner.CategoryStatus, func(p *prisoner.Prisoner) any { return p.CSRA }),
	field("category", prisoner.CategoryStatus, func(p *prisoner.Prisoner) any { return p.Category }),

	// Location
	field("prisonId", prisoner.CategoryLocation, func(p *prisoner.Prisoner) any { return p.PrisonID }),
	field("lastPrisonId", prisoner.CategoryLocation, func(p *prisoner.Prisoner) any { return p.LastPrisonID }),
	field("prisonName", prisoner.CategoryLocation, func(p *prisoner.Prisoner) any { return p.PrisonName }),
	field("cellLocation", prisoner.CategoryLocation, func(p *prisoner.Prisoner) any { return p.CellLocation }),
	field("locationDescription", prisoner.CategoryLocation, func(p *prisoner.Prisoner) any { return p.LocationDescription }),

	// Sentence
	field("receptionDate", prisoner.CategorySentence, func(p *prisoner.Prisoner) any { return p.ReceptionDate }),
	field("sentenceStartDate", prisoner.CategorySentence, func(p *prisoner.Prisoner) any { return p.SentenceStartDate }),
	field("releaseDate", prisoner.CategorySentence, func(p *prisoner.Prisoner) any { return p.ReleaseDate }),
	field("confirmedReleaseDate", prisoner.CategorySentence, func(p *prisoner.Prisoner) any { return p.ConfirmedReleaseDate }),
	field("sentenceExpiryDate", prisoner.CategorySentence, func(p *prisoner.Prisoner) any { return p.SentenceExpiryDate }),
	field("licenceExpiryDate", prisoner.CategorySentence, func(p *prisoner.Prisoner) any { return p.LicenceExpiryDate }),
	field("homeDetentionCurfewEligibilityDate", prisoner.CategorySentence, func(p *prisoner.Prisoner) any { return p.HomeDetentionCurfewEligibility }),
	field("homeDetentionCurfewActualDate", prisoner.CategorySentence, func(p *prisoner.Prisoner) any { return p.HomeDetentionCurfewActualDate }),
	field("homeDetentionCurfewEndDate", prisoner.CategorySentence, func(p *prisoner.Prisoner) any { return p.HomeDetentionCurfewEndDate }),
	field("paroleEligibilityDate", prisoner.CategorySentence, func(p *prisoner.Prisoner) any { return p.ParoleEligibilityDate }),
	field("conditionalReleaseDate", prisoner.CategorySentence, func(p *prisoner.Prisoner) any { return p.ConditionalReleaseDate }),
	field("postRecallReleaseDate", prisoner.CategorySentence, func(p *prisoner.Prisoner) any { return p.PostRecallReleaseDate }),
	field("topupSupervisionExpiryDate", prisoner.CategorySentence, func(p *prisoner.Prisoner) any { return p.TopupSupervisionExpiryDate }),
	field("tariffDate", prisoner.CategorySentence, func(p *prisoner.Prisoner) any { return p.TariffDate }),
	field("mostSeriousOffence", prisoner.CategorySentence, func(p *prisoner.Prisoner) any { return p.MostSeriousOffence }),
	field("allConvictedOffences", prisoner.CategorySentence, func(p *prisoner.Prisoner) any { return p.AllConvictedOffences }),

	// Restricted patient
	field("restrictedPatient", prisoner.CategoryRestrictedPatient, func(p *prisoner.Prisoner) any { return p.RestrictedPatient }),
	field("supportingPrisonId", prisoner.CategoryRestrictedPatient, func(p *prisoner.Prisoner) any { return p.SupportingPrisonID }),
	field("dischargedHospitalId", prisoner.CategoryRestrictedPatient, func(p *prisoner.Prisoner) any { return p.DischargedHospitalID }),
	field("dischargedHospitalDescription", prisoner.CategoryRestrictedPatient, func(p *prisoner.Prisoner) any { return p.DischargedHospitalDescription }),
	field("dischargeDate", prisoner.CategoryRestrictedPatient, func(p *prisoner.Prisoner) any { return p.DischargeDate }),
	field("dischargeDetails", prisoner.CategoryRestrictedPatient, func(p *prisoner.Prisoner) any { return p.DischargeDetails }),

	// Incentive level
	field("currentIncentive", prisoner.CategoryIncentiveLevel, func(p *prisoner.Prisoner) any { return p.CurrentIncentive }),

	// Physical details
	field("heightCentimetres", prisoner.CategoryPhysicalDetails, func(p *prisoner.Prisoner) any { return p.HeightCentimetres }),
	field("weightKilograms", prisoner.CategoryPhysicalDetails, func(p *prisoner.Prisoner) any { return p.WeightKilograms }),
	field("hairColour", prisoner.CategoryPhysicalDetails, func(p *prisoner.Prisoner) any { return p.HairColour }),
	field("rightEyeColour", prisoner.CategoryPhysicalDetails, func(p *prisoner.Prisoner) any { return p.RightEyeColour }),
	field("leftEyeColour", prisoner.CategoryPhysicalDetails, func(p *prisoner.Prisoner) any { return p.LeftEyeColour }),
	field("facialHair", prisoner.CategoryPhysicalDetails, func(p *prisoner.Prisoner) any { return p.FacialHair }),
	field("shapeOfFace", prisoner.CategoryPhysicalDetails, func(p *prisoner.Prisoner) any { return p.ShapeOfFace }),
	field("build", prisoner.CategoryPhysicalDetails, func(p *prisoner.Prisoner) any { return p.Build }),
	field("shoeSize", prisoner.CategoryPhysicalDetails, func(p *prisoner.Prisoner) any { return p.ShoeSize }),
	field("tattoos", prisoner.CategoryPhysicalDetails, func(p *prisoner.Prisoner) any { return p.Tattoos }),
	field("scars", prisoner.CategoryPhysicalDetails, func(p *prisoner.Prisoner) any { return p.Scars }),
	field("marks", prisoner.CategoryPhysicalDetails, func(p *prisoner.Prisoner) any { return p.Marks }),

	// Contact details
	field("addresses", prisoner.CategoryContactDetails, func(p *prisoner.Prisoner) any { return p.Addresses }),
	field("emailAddresses", prisoner.CategoryContactDetails, func(p *prisoner.Prisoner) any { return p.EmailAddresses }),
	field("phoneNumbers", prisoner.CategoryContactDetails, func(p *prisoner.Prisoner) any { return p.PhoneNumbers }),
}
