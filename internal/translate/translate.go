// Package translate maps an upstream booking and its secondary data into
// the canonical prisoner document.
package translate

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/prisoner"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/upstream"
)

// supportedIdentifierTypes are the identifier types carried into the document.
var supportedIdentifierTypes = map[string]bool{
	"PNC":   true,
	"CRO":   true,
	"DL":    true,
	"NINO":  true,
	"HOREF": true,
}

// Input is everything needed to build one document. Existing is the
// previously indexed document, used as the fallback when a secondary fetch
// failed; it is nil during an initial build.
type Input struct {
	Booking           *upstream.Booking
	Incentive         upstream.Result[upstream.IncentiveLevel]
	RestrictedPatient upstream.Result[upstream.RestrictedPatient]
	Existing          *prisoner.Prisoner
}

// Translate builds the canonical document.
func Translate(in Input) *prisoner.Prisoner {
	b := in.Booking
	p := &prisoner.Prisoner{
		PrisonerNumber: b.OffenderNo,
		BookNumber:     b.BookingNo,
		Title:          b.Title,
		FirstName:      b.FirstName,
		MiddleNames:    b.MiddleName,
		LastName:       b.LastName,
		DateOfBirth:    b.DateOfBirth,

		Status:                        b.Status,
		InOutStatus:                   b.InOutStatus,
		LastMovementTypeCode:          b.LastMovementTypeCode,
		LastMovementReasonCode:        b.LastMovementReasonCode,
		LegalStatus:                   b.LegalStatus,
		ImprisonmentStatus:            b.ImprisonmentStatus,
		ImprisonmentStatusDescription: b.ImprisonmentStatusDescription,
		ConvictedStatus:               b.ConvictedStatus,
		Recall:                        b.Recall,
		IndeterminateSentence:         b.IndeterminateSentence,
		CSRA:                          b.CSRA,
		Category:                      b.CategoryCode,

		PrisonID:      b.AgencyID,
		LastPrisonID:  b.LatestPrison,
		ReceptionDate: b.ReceptionDate,
	}
	if b.BookingID != nil {
		p.BookingID = strconv.FormatInt(*b.BookingID, 10)
	}
	if u := b.AssignedLivingUnit; u != nil {
		p.PrisonName = u.AgencyName
		p.CellLocation = u.Description
	}

	applyIdentifiers(p, b.Identifiers)
	applyPersonalDetails(p, b)
	applyAlerts(p, b.Alerts)
	applySentence(p, b)
	applyPhysicalDetails(p, b)

	p.Addresses = translateAddresses(b.Addresses)
	p.EmailAddresses = translateEmails(b.EmailAddresses)
	p.PhoneNumbers = translatePhones(b.Phones)

	applyIncentive(p, in.Incentive, in.Existing)
	applyRestrictedPatient(p, b, in.RestrictedPatient, in.Existing)
	return p
}

func applyIdentifiers(p *prisoner.Prisoner, ids []upstream.Identifier) {
	for _, id := range ids {
		if !supportedIdentifierTypes[id.Type] {
			continue
		}
		value := id.Value
		if id.Type == upstream.IdentifierPNC {
			value = CanonicalPNCShort(value)
		}
		p.Identifiers = append(p.Identifiers, prisoner.Identifier{
			Type:            id.Type,
			Value:           value,
			IssuedDate:      id.IssuedDate,
			IssuedBy:        id.IssuedAuthorityText,
			CreatedDateTime: storedTime(id.WhenCreated),
		})
	}
	slices.SortStableFunc(p.Identifiers, func(a, b prisoner.Identifier) int {
		if c := compareTimes(a.CreatedDateTime, b.CreatedDateTime); c != 0 {
			return c
		}
		return cmp.Compare(a.Type, b.Type)
	})

	if pnc := latestIdentifier(ids, upstream.IdentifierPNC); pnc != nil {
		p.PNCNumber = pnc.Value
		p.PNCNumberCanonicalShort, p.PNCNumberCanonicalLong, _ = CanonicalPNC(pnc.Value)
	}
	if cro := latestIdentifier(ids, upstream.IdentifierCRO); cro != nil {
		p.CRONumber = cro.Value
	}
}

// latestIdentifier returns the most recently created identifier of a type.
func latestIdentifier(ids []upstream.Identifier, idType string) *upstream.Identifier {
	var latest *upstream.Identifier
	for i := range ids {
		if ids[i].Type != idType {
			continue
		}
		if latest == nil || compareTimes(ids[i].WhenCreated, latest.WhenCreated) >= 0 {
			latest = &ids[i]
		}
	}
	return latest
}

func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

func applyPersonalDetails(p *prisoner.Prisoner, b *upstream.Booking) {
	if pa := b.PhysicalAttributes; pa != nil {
		p.Gender = pa.Gender
		p.Ethnicity = pa.Ethnicity
		p.RaceCode = pa.RaceCode
		p.HeightCentimetres = pa.HeightCentimetres
		p.WeightKilograms = pa.WeightKilograms
	}

	for _, info := range b.ProfileInformation {
		switch info.Type {
		case "YOUTH":
			youth := strings.EqualFold(info.ResultValue, "YES")
			p.YouthOffender = &youth
		case "RELF":
			p.Religion = info.ResultValue
		case "NAT":
			p.Nationality = info.ResultValue
		case "MARITAL":
			p.MaritalStatus = info.ResultValue
		case "SMOKE":
			p.Smoker = info.ResultValue
		}
	}

	for _, a := range b.Aliases {
		p.Aliases = append(p.Aliases, prisoner.Alias{
			Title:       a.Title,
			FirstName:   a.FirstName,
			MiddleNames: a.MiddleName,
			LastName:    a.LastName,
			DateOfBirth: a.Dob,
			Gender:      a.Gender,
			Ethnicity:   a.Ethnicity,
		})
	}
	for _, n := range b.PersonalCareNeeds {
		p.PersonalCareNeeds = append(p.PersonalCareNeeds, prisoner.PersonalCareNeed(n))
	}
	for _, l := range b.Languages {
		p.Languages = append(p.Languages, prisoner.Language{
			Type:        l.Type,
			Code:        l.Code,
			ReadSkill:   l.ReadSkill,
			WriteSkill:  l.WriteSkill,
			SpeakSkill:  l.SpeakSkill,
			Interpreter: l.InterpreterRequired,
		})
	}
}

func applyAlerts(p *prisoner.Prisoner, alerts []upstream.Alert) {
	for _, a := range alerts {
		p.Alerts = append(p.Alerts, prisoner.Alert(a))
	}
}

func applySentence(p *prisoner.Prisoner, b *upstream.Booking) {
	if sd := b.SentenceDetail; sd != nil {
		p.SentenceStartDate = sd.SentenceStartDate
		p.ReleaseDate = sd.ReleaseDate
		p.ConfirmedReleaseDate = sd.ConfirmedReleaseDate
		p.SentenceExpiryDate = sd.SentenceExpiryDate
		p.LicenceExpiryDate = sd.LicenceExpiryDate
		p.HomeDetentionCurfewEligibility = sd.HomeDetentionCurfewEligibilityDate
		p.HomeDetentionCurfewActualDate = sd.HomeDetentionCurfewActualDate
		p.HomeDetentionCurfewEndDate = sd.HomeDetentionCurfewEndDate
		p.ParoleEligibilityDate = sd.ParoleEligibilityDate
		p.ConditionalReleaseDate = sd.ConditionalReleaseDate
		p.PostRecallReleaseDate = sd.PostRecallReleaseDate
		p.TopupSupervisionExpiryDate = sd.TopupSupervisionExpiryDate
		p.TariffDate = sd.TariffDate
	}

	var bookingID int64
	if b.BookingID != nil {
		bookingID = *b.BookingID
	}
	for _, o := range b.OffenceHistory {
		latest := o.BookingID == bookingID
		if o.MostSerious && latest && p.MostSeriousOffence == "" {
			p.MostSeriousOffence = o.OffenceDescription
		}
		if !o.Convicted {
			continue
		}
		p.AllConvictedOffences = append(p.AllConvictedOffences, prisoner.ConvictedOffence{
			BookingID:          strconv.FormatInt(o.BookingID, 10),
			OffenceCode:        o.OffenceCode,
			StatuteCode:        o.StatuteCode,
			OffenceDescription: o.OffenceDescription,
			OffenceDate:        o.OffenceDate,
			LatestBooking:      latest,
			SentenceStartDate:  o.SentenceStartDate,
		})
	}
}

func applyPhysicalDetails(p *prisoner.Prisoner, b *upstream.Booking) {
	for _, c := range b.PhysicalCharacteristics {
		switch c.Type {
		case "HAIR":
			p.HairColour = c.Detail
		case "R_EYE_C":
			p.RightEyeColour = c.Detail
		case "L_EYE_C":
			p.LeftEyeColour = c.Detail
		case "FACIAL_HAIR":
			p.FacialHair = c.Detail
		case "FACE":
			p.ShapeOfFace = c.Detail
		case "BUILD":
			p.Build = c.Detail
		case "SHOESIZE":
			if n, err := strconv.Atoi(strings.TrimSpace(c.Detail)); err == nil {
				p.ShoeSize = &n
			}
		}
	}

	marks := bucketMarks(b.PhysicalMarks)
	p.Tattoos = marks.tattoos
	p.Scars = marks.scars
	p.Marks = marks.marks
}

func applyIncentive(p *prisoner.Prisoner, r upstream.Result[upstream.IncentiveLevel], existing *prisoner.Prisoner) {
	if r.Failed() {
		if existing != nil && existing.CurrentIncentive != nil {
			kept := *existing.CurrentIncentive
			p.CurrentIncentive = &kept
		}
		return
	}
	if r.Value == nil {
		return
	}
	p.CurrentIncentive = &prisoner.CurrentIncentive{
		Level: prisoner.IncentiveLevel{
			Code:        r.Value.IepCode,
			Description: r.Value.IepLevel,
		},
		DateTime:       *storedTime(&r.Value.IepTime),
		NextReviewDate: r.Value.NextReviewDate,
	}
}

func applyRestrictedPatient(p *prisoner.Prisoner, b *upstream.Booking, r upstream.Result[upstream.RestrictedPatient], existing *prisoner.Prisoner) {
	if r.Failed() {
		if existing != nil {
			p.RestrictedPatient = existing.RestrictedPatient
			p.SupportingPrisonID = existing.SupportingPrisonID
			p.DischargedHospitalID = existing.DischargedHospitalID
			p.DischargedHospitalDescription = existing.DischargedHospitalDescription
			p.DischargeDate = existing.DischargeDate
			p.DischargeDetails = existing.DischargeDetails
		}
		if existing != nil && existing.RestrictedPatient {
			p.LocationDescription = existing.LocationDescription
		} else {
			p.LocationDescription = b.LocationDescription
		}
		return
	}

	rp := r.Value
	if rp == nil {
		p.LocationDescription = b.LocationDescription
		return
	}

	p.RestrictedPatient = true
	if rp.SupportingPrison != nil {
		p.SupportingPrisonID = rp.SupportingPrison.AgencyID
	}
	var hospital string
	if rp.HospitalLocation != nil {
		p.DischargedHospitalID = rp.HospitalLocation.AgencyID
		p.DischargedHospitalDescription = rp.HospitalLocation.Description
		hospital = rp.HospitalLocation.Description
	}
	p.DischargeDate = datePart(rp.DischargeTime)
	p.DischargeDetails = rp.CommentText
	p.LocationDescription = b.LocationDescription + " - discharged to " + hospital
}

// storedTime normalizes a timestamp to the precision and zone the document
// store round-trips, so that re-reading a saved document diffs as equal.
func storedTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Millisecond)
	return &v
}

// datePart returns the YYYY-MM-DD prefix of a date-time string.
func datePart(v string) string {
	if len(v) > 10 {
		return v[:10]
	}
	return v
}
