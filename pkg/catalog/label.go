// Package catalog filters warehouse catalog listings and normalizes labels.
package catalog

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdw/pkg/core"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultLabelLengthLimit is BigQuery's maximum label key and value length.
const DefaultLabelLengthLimit = 63

// SanitizeLabel maps free text onto the label charset [a-z0-9_-]. Surrounding
// whitespace is trimmed, the rest is lower-cased and every run of other
// characters becomes a single underscore. Underscores in the input are kept.
// It never fails and never truncates; callers enforce the length limit with
// ValidateLabel.
func SanitizeLabel(raw string) string {
	lowered := cases.Lower(language.Und).String(strings.TrimSpace(raw))

	var b strings.Builder
	b.Grow(len(lowered))
	inRun := false
	for _, r := range lowered {
		if isLabelRune(r) {
			b.WriteRune(r)
			inRun = false
			continue
		}
		if !inRun {
			b.WriteByte('_')
			inRun = true
		}
	}
	return b.String()
}

func isLabelRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-'
}

// ValidateLabel rejects labels that are longer than limit or contain
// characters outside the label charset. A limit of zero disables the length
// check. Over-long labels are never truncated, since two truncated labels can
// silently collide.
func ValidateLabel(field, label string, limit int) error {
	if limit > 0 && len(label) > limit {
		return &core.ValidationError{
			Field:    field,
			Value:    label,
			Expected: fmt.Sprintf("at most %d characters (got %d)", limit, len(label)),
		}
	}
	for _, r := range label {
		if !isLabelRune(r) {
			return &core.ValidationError{
				Field:    field,
				Value:    label,
				Expected: fmt.Sprintf("only characters [a-z0-9_-], e.g. %q", SanitizeLabel(label)),
			}
		}
	}
	return nil
}

// ValidateLabels checks every key and value of labels. Keys must be non-empty.
func ValidateLabels(field string, labels map[string]string, limit int) error {
	for _, k := range SortedKeys(labels) {
		if k == "" {
			return &core.ValidationError{Field: field, Value: k, Expected: "a non-empty label key"}
		}
		if err := ValidateLabel(field+"."+k, k, limit); err != nil {
			return err
		}
		if err := ValidateLabel(field+"."+k, labels[k], limit); err != nil {
			return err
		}
	}
	return nil
}
