package translate

import (
	"strings"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/prisoner"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/upstream"
)

type bodyMarks struct {
	tattoos []prisoner.BodyPartDetail
	scars   []prisoner.BodyPartDetail
	marks   []prisoner.BodyPartDetail
}

// bucketMarks sorts physical marks into tattoos, scars and general marks.
// General marks whose comment mentions a tattoo or scar are also copied
// into that bucket.
func bucketMarks(in []upstream.PhysicalMark) bodyMarks {
	var out bodyMarks
	for _, m := range in {
		detail := prisoner.BodyPartDetail{BodyPart: m.BodyPart, Comment: m.Comment}
		switch m.Type {
		case "Tattoo":
			out.tattoos = append(out.tattoos, detail)
		case "Scar":
			out.scars = append(out.scars, detail)
		case "Mark", "Other":
			out.marks = append(out.marks, detail)
			comment := strings.ToLower(m.Comment)
			if strings.Contains(comment, "tattoo") {
				out.tattoos = append(out.tattoos, detail)
			}
			if strings.Contains(comment, "scar") {
				out.scars = append(out.scars, detail)
			}
		}
	}
	return out
}
