package translate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/prisoner"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/upstream"
)

func int64Ptr(v int64) *int64 { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func testBooking() *upstream.Booking {
	return &upstream.Booking{
		OffenderNo:          "A1234AA",
		BookingID:           int64Ptr(1234),
		BookingNo:           "38412A",
		FirstName:           "JOHN",
		LastName:            "SMITH",
		DateOfBirth:         "1980-01-01",
		AgencyID:            "MDI",
		InOutStatus:         "IN",
		Status:              "ACTIVE IN",
		LocationDescription: "Moorland (HMP & YOI)",
		AssignedLivingUnit: &upstream.AssignedLivingUnit{
			AgencyID:    "MDI",
			Description: "1-1-001",
			AgencyName:  "Moorland (HMP & YOI)",
		},
	}
}

var errFetch = errors.New("service unavailable")

func TestFormatAddress(t *testing.T) {
	tests := []struct {
		name string
		in   upstream.Address
		want string
	}{
		{
			name: "numeric premise",
			in: upstream.Address{
				Flat: "2", Premise: "3", Street: "Main Street", Locality: "Crookes",
				Town: "Sheffield", County: "South Yorkshire", PostalCode: "S10 1AB", Country: "England",
			},
			want: "Flat 2, 3 Main Street, Crookes, Sheffield, South Yorkshire, S10 1AB, England",
		},
		{
			name: "alphabetic premise",
			in:   upstream.Address{Premise: "Brook Hamlets", Street: "Main Street", Town: "Sheffield"},
			want: "Brook Hamlets, Main Street, Sheffield",
		},
		{
			name: "premise only",
			in:   upstream.Address{Premise: "3", Town: "Sheffield"},
			want: "3, Sheffield",
		},
		{
			name: "street only",
			in:   upstream.Address{Street: "Main Street", PostalCode: "S10 1AB"},
			want: "Main Street, S10 1AB",
		},
		{
			name: "blank parts skipped",
			in:   upstream.Address{Street: "Main Street", Locality: "  ", Town: "Sheffield"},
			want: "Main Street, Sheffield",
		},
		{
			name: "no fixed address",
			in:   upstream.Address{NoFixedAddress: true, Flat: "2", Premise: "3", Street: "Main Street", PostalCode: "S10 1AB"},
			want: "No fixed address",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAddress(tt.in))
		})
	}
}

func TestTranslate_NoFixedAddressSuppressesFields(t *testing.T) {
	b := testBooking()
	b.Addresses = []upstream.Address{{
		NoFixedAddress: true,
		Premise:        "3",
		Street:         "Main Street",
		PostalCode:     "S10 1AB",
		Primary:        true,
		StartDate:      "2020-01-01",
		Phones:         []upstream.Telephone{{Number: "0114 1234", Type: "HOME"}},
	}}

	p := Translate(Input{Booking: b})
	require.Len(t, p.Addresses, 1)
	assert.Equal(t, prisoner.Address{
		FullAddress:    "No fixed address",
		PostalCode:     "S10 1AB",
		StartDate:      "2020-01-01",
		PrimaryAddress: true,
		NoFixedAddress: true,
	}, p.Addresses[0])
}

func TestTranslate_PhoneNumbers(t *testing.T) {
	b := testBooking()
	b.Phones = []upstream.Telephone{
		{Number: "(0114) 123-4567", Type: "HOME"},
		{Number: "07700 900 123", Type: "MOB"},
		{Number: "0114 999", Type: "BUS"},
	}

	p := Translate(Input{Booking: b})
	assert.Equal(t, []prisoner.PhoneNumber{
		{Type: "HOME", Number: "01141234567"},
		{Type: "MOB", Number: "07700900123"},
	}, p.PhoneNumbers)
}

func TestCanonicalPNC(t *testing.T) {
	short, long, ok := CanonicalPNC("2012/394773H")
	require.True(t, ok)
	assert.Equal(t, "12/394773H", short)
	assert.Equal(t, "2012/394773H", long)

	short, long, ok = CanonicalPNC("12/0394773h")
	require.True(t, ok)
	assert.Equal(t, "12/394773H", short)
	assert.Equal(t, "2012/394773H", long)

	_, _, ok = CanonicalPNC("INVALID_PNC")
	assert.False(t, ok)
	assert.Equal(t, "INVALID_PNC", CanonicalPNCShort("INVALID_PNC"))
	assert.Equal(t, "12/394773H", CanonicalPNCShort("2012/394773H"))
}

func TestExpandYear(t *testing.T) {
	assert.Equal(t, "2012", expandYear("12", 2024))
	assert.Equal(t, "1999", expandYear("99", 2024))
	assert.Equal(t, "2024", expandYear("24", 2024))
}

func TestTranslate_Identifiers(t *testing.T) {
	t1 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	b := testBooking()
	b.Identifiers = []upstream.Identifier{
		{Type: "PNC", Value: "2012/394773H", WhenCreated: timePtr(t2)},
		{Type: "NINO", Value: "AB123456C", WhenCreated: timePtr(t1)},
		{Type: "CRO", Value: "145862/08U", WhenCreated: timePtr(t1)},
		{Type: "MERGED", Value: "A9999AA", WhenCreated: timePtr(t1)},
		{Type: "PNC", Value: "INVALID_PNC", WhenCreated: timePtr(t1)},
	}

	p := Translate(Input{Booking: b})

	var got []string
	for _, id := range p.Identifiers {
		got = append(got, id.Type+":"+id.Value)
	}
	assert.Equal(t, []string{"CRO:145862/08U", "NINO:AB123456C", "PNC:INVALID_PNC", "PNC:12/394773H"}, got)
	assert.Equal(t, "2012/394773H", p.PNCNumber)
	assert.Equal(t, "12/394773H", p.PNCNumberCanonicalShort)
	assert.Equal(t, "2012/394773H", p.PNCNumberCanonicalLong)
	assert.Equal(t, "145862/08U", p.CRONumber)
}

func TestTranslate_BodyMarks(t *testing.T) {
	b := testBooking()
	b.PhysicalMarks = []upstream.PhysicalMark{
		{Type: "Tattoo", BodyPart: "Arm", Comment: "rose"},
		{Type: "Scar", BodyPart: "Face"},
		{Type: "Mark", BodyPart: "Leg", Comment: "Old TATTOO faded"},
		{Type: "Other", BodyPart: "Hand", Comment: "burn scar"},
		{Type: "Other", BodyPart: "Foot", Comment: "birthmark"},
	}

	p := Translate(Input{Booking: b})
	assert.Equal(t, []prisoner.BodyPartDetail{
		{BodyPart: "Arm", Comment: "rose"},
		{BodyPart: "Leg", Comment: "Old TATTOO faded"},
	}, p.Tattoos)
	assert.Equal(t, []prisoner.BodyPartDetail{
		{BodyPart: "Face"},
		{BodyPart: "Hand", Comment: "burn scar"},
	}, p.Scars)
	assert.Equal(t, []prisoner.BodyPartDetail{
		{BodyPart: "Leg", Comment: "Old TATTOO faded"},
		{BodyPart: "Hand", Comment: "burn scar"},
		{BodyPart: "Foot", Comment: "birthmark"},
	}, p.Marks)
}

func TestTranslate_Incentive(t *testing.T) {
	iepTime := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	existing := &prisoner.Prisoner{
		CurrentIncentive: &prisoner.CurrentIncentive{
			Level:    prisoner.IncentiveLevel{Code: "ENH", Description: "Enhanced"},
			DateTime: iepTime,
		},
	}

	t.Run("success", func(t *testing.T) {
		p := Translate(Input{
			Booking: testBooking(),
			Incentive: upstream.Success(&upstream.IncentiveLevel{
				IepCode: "STD", IepLevel: "Standard", IepTime: iepTime, NextReviewDate: "2024-07-02",
			}),
			Existing: existing,
		})
		require.NotNil(t, p.CurrentIncentive)
		assert.Equal(t, "STD", p.CurrentIncentive.Level.Code)
		assert.Equal(t, "2024-07-02", p.CurrentIncentive.NextReviewDate)
	})

	t.Run("success with no level", func(t *testing.T) {
		p := Translate(Input{
			Booking:   testBooking(),
			Incentive: upstream.Success[upstream.IncentiveLevel](nil),
			Existing:  existing,
		})
		assert.Nil(t, p.CurrentIncentive)
	})

	t.Run("failure keeps existing", func(t *testing.T) {
		p := Translate(Input{
			Booking:   testBooking(),
			Incentive: upstream.Failure[upstream.IncentiveLevel](errFetch),
			Existing:  existing,
		})
		assert.Equal(t, existing.CurrentIncentive, p.CurrentIncentive)
	})

	t.Run("failure without existing", func(t *testing.T) {
		p := Translate(Input{
			Booking:   testBooking(),
			Incentive: upstream.Failure[upstream.IncentiveLevel](errFetch),
		})
		assert.Nil(t, p.CurrentIncentive)
	})
}

func TestTranslate_RestrictedPatient(t *testing.T) {
	rp := &upstream.RestrictedPatient{
		PrisonerNumber:   "A1234AA",
		SupportingPrison: &upstream.Agency{AgencyID: "MDI"},
		HospitalLocation: &upstream.Agency{AgencyID: "HAZLWD", Description: "Hazelwood House"},
		DischargeTime:    "2024-01-05T10:00:00",
		CommentText:      "Discharged",
	}

	t.Run("restricted patient", func(t *testing.T) {
		b := testBooking()
		b.LocationDescription = "Outside - released from Moorland"
		p := Translate(Input{Booking: b, RestrictedPatient: upstream.Success(rp)})

		assert.True(t, p.RestrictedPatient)
		assert.Equal(t, "MDI", p.SupportingPrisonID)
		assert.Equal(t, "HAZLWD", p.DischargedHospitalID)
		assert.Equal(t, "Hazelwood House", p.DischargedHospitalDescription)
		assert.Equal(t, "2024-01-05", p.DischargeDate)
		assert.Equal(t, "Discharged", p.DischargeDetails)
		assert.Equal(t, "Outside - released from Moorland - discharged to Hazelwood House", p.LocationDescription)
	})

	t.Run("not a restricted patient", func(t *testing.T) {
		p := Translate(Input{Booking: testBooking(), RestrictedPatient: upstream.Success[upstream.RestrictedPatient](nil)})
		assert.False(t, p.RestrictedPatient)
		assert.Empty(t, p.DischargedHospitalID)
		assert.Equal(t, "Moorland (HMP & YOI)", p.LocationDescription)
	})

	t.Run("failure reuses existing restricted patient", func(t *testing.T) {
		existing := &prisoner.Prisoner{
			RestrictedPatient:             true,
			SupportingPrisonID:            "LEI",
			DischargedHospitalID:          "HAZLWD",
			DischargedHospitalDescription: "Hazelwood House",
			DischargeDate:                 "2023-01-01",
			LocationDescription:           "Outside - discharged to Hazelwood House",
		}
		p := Translate(Input{
			Booking:           testBooking(),
			RestrictedPatient: upstream.Failure[upstream.RestrictedPatient](errFetch),
			Existing:          existing,
		})
		assert.True(t, p.RestrictedPatient)
		assert.Equal(t, "LEI", p.SupportingPrisonID)
		assert.Equal(t, "2023-01-01", p.DischargeDate)
		assert.Equal(t, "Outside - discharged to Hazelwood House", p.LocationDescription)
	})

	t.Run("failure uses fresh location when not flagged", func(t *testing.T) {
		existing := &prisoner.Prisoner{LocationDescription: "stale"}
		p := Translate(Input{
			Booking:           testBooking(),
			RestrictedPatient: upstream.Failure[upstream.RestrictedPatient](errFetch),
			Existing:          existing,
		})
		assert.False(t, p.RestrictedPatient)
		assert.Equal(t, "Moorland (HMP & YOI)", p.LocationDescription)
	})

	t.Run("failure during build leaves fields absent", func(t *testing.T) {
		p := Translate(Input{
			Booking:           testBooking(),
			RestrictedPatient: upstream.Failure[upstream.RestrictedPatient](errFetch),
		})
		assert.False(t, p.RestrictedPatient)
		assert.Empty(t, p.SupportingPrisonID)
		assert.Equal(t, "Moorland (HMP & YOI)", p.LocationDescription)
	})
}

func TestTranslate_CoreFields(t *testing.T) {
	b := testBooking()
	b.ProfileInformation = []upstream.ProfileInformation{
		{Type: "YOUTH", ResultValue: "NO"},
		{Type: "RELF", ResultValue: "Christian"},
		{Type: "NAT", ResultValue: "British"},
	}
	b.PhysicalCharacteristics = []upstream.PhysicalCharacteristic{
		{Type: "HAIR", Detail: "Brown"},
		{Type: "SHOESIZE", Detail: "10"},
	}
	b.OffenceHistory = []upstream.OffenceHistory{
		{BookingID: 1234, OffenceCode: "TH68010", StatuteCode: "TH68", OffenceDescription: "Theft", MostSerious: true, Convicted: true},
		{BookingID: 1000, OffenceCode: "RT88", StatuteCode: "RT88", OffenceDescription: "Driving", Convicted: true},
		{BookingID: 1234, OffenceCode: "X", OffenceDescription: "Not convicted"},
	}

	p := Translate(Input{Booking: b})
	assert.Equal(t, "A1234AA", p.PrisonerNumber)
	assert.Equal(t, "1234", p.BookingID)
	assert.Equal(t, "1-1-001", p.CellLocation)
	assert.Equal(t, "MDI", p.PrisonID)
	require.NotNil(t, p.YouthOffender)
	assert.False(t, *p.YouthOffender)
	assert.Equal(t, "Christian", p.Religion)
	assert.Equal(t, "Brown", p.HairColour)
	require.NotNil(t, p.ShoeSize)
	assert.Equal(t, 10, *p.ShoeSize)
	assert.Equal(t, "Theft", p.MostSeriousOffence)
	require.Len(t, p.AllConvictedOffences, 2)
	assert.True(t, p.AllConvictedOffences[0].LatestBooking)
	assert.False(t, p.AllConvictedOffences[1].LatestBooking)
}

func TestStoredTime(t *testing.T) {
	assert.Nil(t, storedTime(nil))
	local := time.Date(2024, 1, 2, 10, 0, 0, 123456789, time.FixedZone("BST", 3600))
	got := storedTime(&local)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 123000000, got.Nanosecond())
	assert.True(t, got.Equal(local.Truncate(time.Millisecond)))
}
