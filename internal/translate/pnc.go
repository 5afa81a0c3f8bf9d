package translate

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var pncPattern = regexp.MustCompile(`^(\d{2}|\d{4})/(\d+)([A-Z])$`)

// CanonicalPNC returns the short (YY/N+C) and long (YYYY/N+C) forms of a
// Police National Computer number. ok is false when v does not look like a
// PNC number.
func CanonicalPNC(v string) (short, long string, ok bool) {
	m := pncPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(v)))
	if m == nil {
		return "", "", false
	}
	year, seq, check := m[1], m[2], m[3]

	seq = strings.TrimLeft(seq, "0")
	if seq == "" {
		seq = "0"
	}

	if len(year) == 2 {
		year = expandYear(year, time.Now().Year())
	}
	return year[2:] + "/" + seq + check, year + "/" + seq + check, true
}

// CanonicalPNCShort returns the short canonical form, or v unchanged when
// it is not a PNC number.
func CanonicalPNCShort(v string) string {
	if short, _, ok := CanonicalPNC(v); ok {
		return short
	}
	return v
}

// expandYear picks the century for a two-digit year: years ahead of the
// current one belong to the previous century.
func expandYear(yy string, currentYear int) string {
	n, _ := strconv.Atoi(yy)
	if n > currentYear%100 {
		return "19" + yy
	}
	return "20" + yy
}
