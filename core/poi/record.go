// Package poi holds the point of interest record and its import formats.
package poi

import (
	"strings"

	"github.com/kochabx/eplq/core/validator"
	"github.com/kochabx/eplq/errors"
)

// Record is a plaintext point of interest
type Record struct {
	Name        string  `json:"name" validate:"required"`
	Category    string  `json:"category"`
	Latitude    float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Description string  `json:"description,omitempty"`
}

// Validate checks the name and coordinate ranges. NaN coordinates fail.
func (r Record) Validate() error {
	if err := validator.Validate.Struct(&r); err != nil {
		return errors.Wrap(err, errors.KindInvalidArgument, "poi.Validate", "invalid record %q", r.Name)
	}
	return nil
}

// Clean strips quotes and line breaks from text fields and trims them
func (r Record) Clean() Record {
	r.Name = cleanText(r.Name)
	r.Category = cleanText(r.Category)
	r.Description = cleanText(r.Description)
	return r
}

var textReplacer = strings.NewReplacer(`"`, "", "\r\n", " ", "\n", " ", "\r", " ")

func cleanText(s string) string {
	return strings.TrimSpace(textReplacer.Replace(s))
}

// MatchesCategory reports whether want is empty or a case-insensitive
// substring of the record category.
func (r Record) MatchesCategory(want string) bool {
	if want == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Category), strings.ToLower(want))
}
