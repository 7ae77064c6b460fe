package service

import (
	"reflect"
	"strings"
	"testing"

	"github.com/formpilot/formpilot/internal/model"
)

func TestValidateResponsesAllValid(t *testing.T) {
	v := NewResponseValidator()
	got := v.ValidateResponses(contactFields(), map[string]any{
		"name":   "Ada Lovelace",
		"email":  "ada@example.com",
		"ticket": "vip",
	})
	if len(got) != 0 {
		t.Fatalf("expected no violations, got %v", got)
	}
}

func TestValidateResponsesCollectsEveryViolation(t *testing.T) {
	v := NewResponseValidator()
	got := v.ValidateResponses(contactFields(), map[string]any{
		"email":  "not-an-email",
		"ticket": "backstage",
	})

	if len(got) != 3 {
		t.Fatalf("expected 3 violations, got %d: %v", len(got), got)
	}
	for _, want := range []string{
		"Full name is required",
		"Email must be a valid email address",
		"Ticket contains an invalid option",
	} {
		found := false
		for _, g := range got {
			if g == want {
				found = true
			}
		}
		if !found {
			t.Errorf("missing violation %q in %v", want, got)
		}
	}
}

func TestValidateResponsesRequiredBeatsShape(t *testing.T) {
	fields := []model.Field{
		{ID: "email", Type: model.FieldEmail, Label: "Email", Required: true},
	}
	v := NewResponseValidator()

	got := v.ValidateResponses(fields, map[string]any{"email": "   "})
	if len(got) != 1 || got[0] != "Email is required" {
		t.Fatalf("blank required email should yield only the required message, got %v", got)
	}
}

func TestValidateResponsesOptionalBlankSkipsShapeChecks(t *testing.T) {
	fields := []model.Field{
		{ID: "email", Type: model.FieldEmail, Label: "Email"},
		{ID: "age", Type: model.FieldNumber, Label: "Age"},
	}
	v := NewResponseValidator()
	if got := v.ValidateResponses(fields, map[string]any{}); len(got) != 0 {
		t.Fatalf("absent optional fields should pass, got %v", got)
	}
}

func TestValidateResponsesNumber(t *testing.T) {
	fields := []model.Field{{ID: "age", Type: model.FieldNumber, Label: "Age"}}
	v := NewResponseValidator()

	if got := v.ValidateResponses(fields, map[string]any{"age": "42"}); len(got) != 0 {
		t.Fatalf("numeric string should pass, got %v", got)
	}
	if got := v.ValidateResponses(fields, map[string]any{"age": float64(42)}); len(got) != 0 {
		t.Fatalf("json number should pass, got %v", got)
	}
	got := v.ValidateResponses(fields, map[string]any{"age": "forty-two"})
	if len(got) != 1 || !strings.Contains(got[0], "must be a number") {
		t.Fatalf("expected number violation, got %v", got)
	}
}

func TestValidateResponsesAllowOther(t *testing.T) {
	fields := []model.Field{
		{ID: "source", Type: model.FieldRadio, Label: "Source", Options: []string{"friend", "web"}, AllowOther: true},
	}
	v := NewResponseValidator()
	if got := v.ValidateResponses(fields, map[string]any{"source": "newspaper"}); len(got) != 0 {
		t.Fatalf("allow_other should accept off-list values, got %v", got)
	}
}

func TestValidateResponsesCheckboxOneViolationPerField(t *testing.T) {
	fields := []model.Field{
		{ID: "days", Type: model.FieldCheckbox, Label: "Days", Options: []string{"mon", "tue"}},
	}
	v := NewResponseValidator()

	got := v.ValidateResponses(fields, map[string]any{"days": []any{"mon", "sun", "sat"}})
	if len(got) != 1 {
		t.Fatalf("two bad checkbox entries should still yield one violation, got %v", got)
	}
}

func TestValidateResponsesIsPure(t *testing.T) {
	fields := contactFields()
	responses := map[string]any{"email": "bad"}
	v := NewResponseValidator()

	first := v.ValidateResponses(fields, responses)
	second := v.ValidateResponses(fields, responses)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated validation diverged: %v vs %v", first, second)
	}
}
