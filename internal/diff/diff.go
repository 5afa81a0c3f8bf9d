// Package diff compares two prisoner documents field by field and groups
// the changes by category.
package diff

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/prisoner"
)

// Difference is one changed field.
type Difference struct {
	Property string            `json:"property"`
	Category prisoner.Category `json:"category"`
	OldValue any               `json:"oldValue"`
	NewValue any               `json:"newValue"`
}

func (d Difference) String() string {
	return fmt.Sprintf("%s: %s -> %s", d.Property, format(d.OldValue), format(d.NewValue))
}

// Diff maps each changed category to its differences in table order.
// Unchanged categories are absent.
type Diff map[prisoner.Category][]Difference

// Empty reports whether nothing changed.
func (d Diff) Empty() bool {
	return len(d) == 0
}

// Categories returns the changed categories in prisoner.Categories order.
func (d Diff) Categories() []prisoner.Category {
	var out []prisoner.Category
	for _, c := range prisoner.Categories {
		if _, ok := d[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Descriptions renders the differences of one category.
func (d Diff) Descriptions(c prisoner.Category) []string {
	out := make([]string, 0, len(d[c]))
	for _, diff := range d[c] {
		out = append(out, diff.String())
	}
	return out
}

// Compare returns the differences between before and after. A nil before
// is treated as an empty document.
func Compare(before, after *prisoner.Prisoner) Diff {
	if before == nil {
		before = &prisoner.Prisoner{}
	}
	if after == nil {
		after = &prisoner.Prisoner{}
	}
	out := Diff{}
	for _, f := range fields {
		oldValue, newValue := f.get(before), f.get(after)
		if equal(oldValue, newValue) {
			continue
		}
		out[f.category] = append(out[f.category], Difference{
			Property: f.name,
			Category: f.category,
			OldValue: oldValue,
			NewValue: newValue,
		})
	}
	return out
}

// equal is reflect.DeepEqual except that nil and empty slices match.
func equal(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() == reflect.Slice && vb.Kind() == reflect.Slice && va.Len() == 0 && vb.Len() == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

func format(v any) string {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Invalid:
		return "null"
	case reflect.Pointer:
		if rv.IsNil() {
			return "null"
		}
		return format(rv.Elem().Interface())
	case reflect.Slice:
		if rv.Len() == 0 {
			return "[]"
		}
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = format(rv.Index(i).Interface())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case reflect.Struct:
		return fmt.Sprintf("%+v", v)
	}
	return fmt.Sprint(v)
}
