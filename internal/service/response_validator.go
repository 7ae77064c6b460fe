package service

import (
	"fmt"
	"strconv"

	"github.com/formpilot/formpilot/internal/model"
)

// ResponseValidator checks a candidate response map against a form's field
// schema. Pure: no I/O, no state, identical inputs yield identical results.
type ResponseValidator interface {
	ValidateResponses(fields []model.Field, responses map[string]any) []string
}

type responseValidator struct{}

func NewResponseValidator() ResponseValidator {
	return &responseValidator{}
}

// ValidateResponses collects every violation rather than failing fast, one
// message per offending field. A field missing its required value gets the
// required message only; shape checks apply to values that are present.
func (v *responseValidator) ValidateResponses(fields []model.Field, responses map[string]any) []string {
	var violations []string

	for _, f := range fields {
		ans := model.DecodeAnswer(responses[f.ID])

		if ans.IsBlank() {
			if f.Required {
				violations = append(violations, fmt.Sprintf("%s is required", f.Label))
			}
			continue
		}

		switch f.Type {
		case model.FieldEmail:
			if !model.ValidEmail(ans.Scalar) {
				violations = append(violations, fmt.Sprintf("%s must be a valid email address", f.Label))
			}

		case model.FieldNumber:
			if _, err := strconv.ParseFloat(ans.Scalar, 64); err != nil {
				violations = append(violations, fmt.Sprintf("%s must be a number", f.Label))
			}

		case model.FieldSelect, model.FieldRadio:
			if !f.AllowOther && !f.HasOption(ans.Scalar) {
				violations = append(violations, fmt.Sprintf("%s contains an invalid option", f.Label))
			}

		case model.FieldCheckbox:
			if f.AllowOther {
				break
			}
			for _, item := range ans.List {
				if !f.HasOption(item) {
					violations = append(violations, fmt.Sprintf("%s contains an invalid option", f.Label))
					break
				}
			}
		}
	}

	return violations
}
