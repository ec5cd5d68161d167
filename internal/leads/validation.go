// Package leads validates and submits the buyer lead flows: the two-step
// RFQ form, quick RFQ, call booking, brochure download and the WhatsApp
// composer.
package leads

import (
	"errors"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ErrValidation matches every *ValidationError via errors.Is
var ErrValidation = errors.New("validation failed")

// FieldError describes one invalid form field
type FieldError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ValidationError collects the field errors of one form
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Issue)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// fieldErrors accumulates issues and turns into an error only when non-empty
type fieldErrors []FieldError

func (fe *fieldErrors) add(field, issue string) {
	*fe = append(*fe, FieldError{Field: field, Issue: issue})
}

func (fe fieldErrors) err() error {
	if len(fe) == 0 {
		return nil
	}
	return &ValidationError{Fields: fe}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s has the shape local@domain.tld
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

var textPolicy = bluemonday.StrictPolicy()

// Sanitize strips markup from free text and trims surrounding space
func Sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
