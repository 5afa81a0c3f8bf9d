package translate

import (
	"regexp"
	"strings"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/prisoner"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/upstream"
)

// NoFixedAddress is the full address used for people with no fixed abode.
const NoFixedAddress = "No fixed address"

var (
	numericPremise = regexp.MustCompile(`^\d+$`)
	nonDigits      = regexp.MustCompile(`[^0-9]+`)
)

// retainedPhoneTypes are the phone types carried into the document.
var retainedPhoneTypes = map[string]bool{
	"HOME": true,
	"MOB":  true,
}

// FormatAddress renders a single-line address.
func FormatAddress(a upstream.Address) string {
	if a.NoFixedAddress {
		return NoFixedAddress
	}

	var parts []string
	if v := strings.TrimSpace(a.Flat); v != "" {
		parts = append(parts, "Flat "+v)
	}

	premise := strings.TrimSpace(a.Premise)
	street := strings.TrimSpace(a.Street)
	switch {
	case premise != "" && street != "" && numericPremise.MatchString(premise):
		parts = append(parts, premise+" "+street)
	case premise != "" && street != "":
		parts = append(parts, premise+", "+street)
	case premise != "":
		parts = append(parts, premise)
	case street != "":
		parts = append(parts, street)
	}

	for _, v := range []string{a.Locality, a.Town, a.County, a.PostalCode, a.Country} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

func translateAddresses(in []upstream.Address) []prisoner.Address {
	if len(in) == 0 {
		return nil
	}
	out := make([]prisoner.Address, 0, len(in))
	for _, a := range in {
		addr := prisoner.Address{
			FullAddress:    FormatAddress(a),
			PostalCode:     strings.TrimSpace(a.PostalCode),
			StartDate:      a.StartDate,
			PrimaryAddress: a.Primary,
			NoFixedAddress: a.NoFixedAddress,
		}
		if !a.NoFixedAddress {
			addr.PhoneNumbers = translatePhones(a.Phones)
		}
		out = append(out, addr)
	}
	return out
}

// translatePhones keeps home and mobile numbers, reduced to digits.
func translatePhones(in []upstream.Telephone) []prisoner.PhoneNumber {
	var out []prisoner.PhoneNumber
	for _, p := range in {
		if !retainedPhoneTypes[p.Type] {
			continue
		}
		out = append(out, prisoner.PhoneNumber{
			Type:   p.Type,
			Number: DigitsOnly(p.Number),
		})
	}
	return out
}

// DigitsOnly strips every non-digit character.
func DigitsOnly(v string) string {
	return nonDigits.ReplaceAllString(v, "")
}

func translateEmails(in []upstream.Email) []prisoner.EmailAddress {
	var out []prisoner.EmailAddress
	for _, e := range in {
		if v := strings.TrimSpace(e.Email); v != "" {
			out = append(out, prisoner.EmailAddress{Email: v})
		}
	}
	return out
}
