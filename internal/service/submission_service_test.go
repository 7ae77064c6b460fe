package service

import (
	"errors"
	"testing"

	"github.com/formpilot/formpilot/internal/dto"
	"github.com/formpilot/formpilot/internal/model"
)

func submitReq(responses map[string]any) dto.SubmitRequestDTO {
	return dto.SubmitRequestDTO{Responses: responses}
}

func TestSubmitStoresRowAndIncrementsCounter(t *testing.T) {
	db := testDB(t)
	form := createForm(t, db, &model.Form{Title: "Signup", Fields: contactFields(), Active: true})
	svc := newSubmissionService(t, db, nil)

	resp, err := svc.Submit(form.ID, submitReq(map[string]any{
		"name":  "Ada Lovelace",
		"email": "ada@example.com",
	}), SubmitMeta{IP: "10.0.0.1", UserAgent: "go-test"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if resp.Submission.ID == 0 || resp.Submission.FormID != form.ID {
		t.Fatalf("bad submission ref: %+v", resp.Submission)
	}

	var stored model.Submission
	if err := db.First(&stored, resp.Submission.ID).Error; err != nil {
		t.Fatalf("loading stored submission: %v", err)
	}
	if stored.SubmitterEmail == nil || *stored.SubmitterEmail != "ada@example.com" {
		t.Fatalf("submitter email not extracted: %v", stored.SubmitterEmail)
	}
	if stored.SubmitterIP != "10.0.0.1" {
		t.Fatalf("submitter ip = %q", stored.SubmitterIP)
	}

	var reloaded model.Form
	if err := db.First(&reloaded, form.ID).Error; err != nil {
		t.Fatalf("reloading form: %v", err)
	}
	if reloaded.SubmissionCount != 1 {
		t.Fatalf("submission_count = %d, want 1", reloaded.SubmissionCount)
	}
}

func TestSubmitValidationFailureWritesNothing(t *testing.T) {
	db := testDB(t)
	form := createForm(t, db, &model.Form{Title: "Signup", Fields: contactFields(), Active: true})
	svc := newSubmissionService(t, db, nil)

	_, err := svc.Submit(form.ID, submitReq(map[string]any{
		"email": "not-an-email",
	}), SubmitMeta{IP: "10.0.0.1"})

	ve, ok := AsValidationError(err)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %v", ve.Violations)
	}

	var n int64
	db.Model(&model.Submission{}).Count(&n)
	if n != 0 {
		t.Fatalf("rejected submission was stored, count = %d", n)
	}
	var reloaded model.Form
	db.First(&reloaded, form.ID)
	if reloaded.SubmissionCount != 0 {
		t.Fatalf("counter moved on rejected submission: %d", reloaded.SubmissionCount)
	}
}

func TestSubmitInactiveFormIsInvisible(t *testing.T) {
	db := testDB(t)
	form := createForm(t, db, &model.Form{Title: "Closed", Fields: contactFields(), Active: false})
	svc := newSubmissionService(t, db, nil)

	_, err := svc.Submit(form.ID, submitReq(map[string]any{
		"name": "Ada", "email": "ada@example.com",
	}), SubmitMeta{IP: "10.0.0.1"})
	if !errors.Is(err, ErrFormNotFound) {
		t.Fatalf("expected ErrFormNotFound for inactive form, got %v", err)
	}
}

func TestSubmitPerIPConstraint(t *testing.T) {
	db := testDB(t)
	form := createForm(t, db, &model.Form{
		Title: "Vote", Fields: contactFields(), Active: true,
		ConstraintType: model.ConstraintPerIP,
	})
	svc := newSubmissionService(t, db, nil)

	payload := map[string]any{"name": "Ada", "email": "ada@example.com"}
	if _, err := svc.Submit(form.ID, submitReq(payload), SubmitMeta{IP: "10.0.0.1"}); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	_, err := svc.Submit(form.ID, submitReq(map[string]any{
		"name": "Grace", "email": "grace@example.com",
	}), SubmitMeta{IP: "10.0.0.1"})
	if !errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("same IP should be a duplicate, got %v", err)
	}

	if _, err := svc.Submit(form.ID, submitReq(map[string]any{
		"name": "Grace", "email": "grace@example.com",
	}), SubmitMeta{IP: "10.0.0.2"}); err != nil {
		t.Fatalf("different IP should pass: %v", err)
	}

	var reloaded model.Form
	db.First(&reloaded, form.ID)
	if reloaded.SubmissionCount != 2 {
		t.Fatalf("submission_count = %d, want 2", reloaded.SubmissionCount)
	}
}

func TestSubmitPerFieldConstraint(t *testing.T) {
	db := testDB(t)
	field := "email"
	form := createForm(t, db, &model.Form{
		Title: "Raffle", Fields: contactFields(), Active: true,
		ConstraintType: model.ConstraintPerField, ConstraintField: &field,
	})
	svc := newSubmissionService(t, db, nil)

	if _, err := svc.Submit(form.ID, submitReq(map[string]any{
		"name": "Ada", "email": "ada@example.com",
	}), SubmitMeta{IP: "10.0.0.1"}); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	_, err := svc.Submit(form.ID, submitReq(map[string]any{
		"name": "Someone Else", "email": "ada@example.com",
	}), SubmitMeta{IP: "10.0.0.9"})
	if !errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("same constrained value should be a duplicate, got %v", err)
	}

	if _, err := svc.Submit(form.ID, submitReq(map[string]any{
		"name": "Grace", "email": "grace@example.com",
	}), SubmitMeta{IP: "10.0.0.1"}); err != nil {
		t.Fatalf("distinct constrained value should pass: %v", err)
	}
}

func TestSubmitPerFieldConstraintOnCheckbox(t *testing.T) {
	db := testDB(t)
	field := "days"
	form := createForm(t, db, &model.Form{
		Title: "Shifts",
		Fields: []model.Field{
			{ID: "name", Type: model.FieldShortText, Label: "Name", Required: true},
			{ID: "days", Type: model.FieldCheckbox, Label: "Days", Options: []string{"mon", "tue", "wed"}},
		},
		Active:         true,
		ConstraintType: model.ConstraintPerField, ConstraintField: &field,
	})
	svc := newSubmissionService(t, db, nil)

	if _, err := svc.Submit(form.ID, submitReq(map[string]any{
		"name": "Ada", "days": []any{"mon", "tue"},
	}), SubmitMeta{IP: "10.0.0.1"}); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	_, err := svc.Submit(form.ID, submitReq(map[string]any{
		"name": "Grace", "days": []any{"mon", "tue"},
	}), SubmitMeta{IP: "10.0.0.2"})
	if !errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("identical constrained array value should be a duplicate, got %v", err)
	}

	if _, err := svc.Submit(form.ID, submitReq(map[string]any{
		"name": "Grace", "days": []any{"mon"},
	}), SubmitMeta{IP: "10.0.0.2"}); err != nil {
		t.Fatalf("distinct array value should pass: %v", err)
	}
}

func TestSubmitPerFieldConstraintOnNumber(t *testing.T) {
	db := testDB(t)
	field := "seat"
	form := createForm(t, db, &model.Form{
		Title: "Seating",
		Fields: []model.Field{
			{ID: "name", Type: model.FieldShortText, Label: "Name", Required: true},
			{ID: "seat", Type: model.FieldNumber, Label: "Seat"},
		},
		Active:         true,
		ConstraintType: model.ConstraintPerField, ConstraintField: &field,
	})
	svc := newSubmissionService(t, db, nil)

	if _, err := svc.Submit(form.ID, submitReq(map[string]any{
		"name": "Ada", "seat": float64(12),
	}), SubmitMeta{IP: "10.0.0.1"}); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	_, err := svc.Submit(form.ID, submitReq(map[string]any{
		"name": "Grace", "seat": float64(12),
	}), SubmitMeta{IP: "10.0.0.2"})
	if !errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("same numeric constrained value should be a duplicate, got %v", err)
	}

	if _, err := svc.Submit(form.ID, submitReq(map[string]any{
		"name": "Grace", "seat": float64(13),
	}), SubmitMeta{IP: "10.0.0.2"}); err != nil {
		t.Fatalf("distinct numeric value should pass: %v", err)
	}
}

func TestSubmitPerFieldMissingValueIsConfigurationError(t *testing.T) {
	db := testDB(t)
	field := "ticket"
	form := createForm(t, db, &model.Form{
		Title: "Raffle",
		Fields: []model.Field{
			{ID: "name", Type: model.FieldShortText, Label: "Name", Required: true},
			{ID: "ticket", Type: model.FieldShortText, Label: "Ticket"},
		},
		Active:         true,
		ConstraintType: model.ConstraintPerField, ConstraintField: &field,
	})
	svc := newSubmissionService(t, db, nil)

	_, err := svc.Submit(form.ID, submitReq(map[string]any{"name": "Ada"}), SubmitMeta{IP: "10.0.0.1"})
	if !errors.Is(err, ErrConstraintMisconfigured) {
		t.Fatalf("missing constrained value should be a configuration error, got %v", err)
	}
	if errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("configuration error must not double as a duplicate")
	}

	var n int64
	db.Model(&model.Submission{}).Count(&n)
	if n != 0 {
		t.Fatalf("nothing should be written, count = %d", n)
	}
}

func TestSubmitPerFieldWithoutTargetIsConfigurationError(t *testing.T) {
	db := testDB(t)
	form := createForm(t, db, &model.Form{
		Title: "Broken", Fields: contactFields(), Active: true,
		ConstraintType: model.ConstraintPerField,
	})
	svc := newSubmissionService(t, db, nil)

	_, err := svc.Submit(form.ID, submitReq(map[string]any{
		"name": "Ada", "email": "ada@example.com",
	}), SubmitMeta{IP: "10.0.0.1"})
	if !errors.Is(err, ErrConstraintMisconfigured) {
		t.Fatalf("per-field without target field should be a configuration error, got %v", err)
	}
}

func TestSubmitSideEffectFailureDoesNotUndoWrite(t *testing.T) {
	db := testDB(t)
	form := createForm(t, db, &model.Form{
		Title: "Conference", Fields: contactFields(), Active: true,
		EmailNotifyEnabled: true,
	})
	cfg := testConfig()
	mailer := &fakeMailer{fail: errMailDown}
	svc := newSubmissionService(t, db, NewSideEffectRunner(mailer, cfg))

	resp, err := svc.Submit(form.ID, submitReq(map[string]any{
		"name": "Ada", "email": "ada@example.com",
	}), SubmitMeta{IP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("mail failure must not fail the submission: %v", err)
	}
	if resp.EmailSent == nil || *resp.EmailSent {
		t.Fatalf("email_sent should be false, got %v", resp.EmailSent)
	}
	if resp.EmailError == nil || *resp.EmailError == "" {
		t.Fatalf("email_error should be reported, got %v", resp.EmailError)
	}

	var n int64
	db.Model(&model.Submission{}).Count(&n)
	if n != 1 {
		t.Fatalf("submission row missing after mail failure, count = %d", n)
	}
}

func TestSubmitQRCodeInResponse(t *testing.T) {
	db := testDB(t)
	form := createForm(t, db, &model.Form{
		Title: "Conference", Fields: contactFields(), Active: true,
		QRCodeEnabled: true,
	})
	svc := newSubmissionService(t, db, NewSideEffectRunner(&fakeMailer{}, testConfig()))

	resp, err := svc.Submit(form.ID, submitReq(map[string]any{
		"name": "Ada", "email": "ada@example.com",
	}), SubmitMeta{IP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if resp.QRCode == nil || len(*resp.QRCode) == 0 {
		t.Fatalf("qr_code missing from response")
	}
	if resp.EmailSent != nil {
		t.Fatalf("email report should be absent when notification is disabled")
	}
}

func TestDeleteSubmissionDecrementsCounter(t *testing.T) {
	db := testDB(t)
	form := createForm(t, db, &model.Form{Title: "Signup", Fields: contactFields(), Active: true})
	svc := newSubmissionService(t, db, nil)

	resp, err := svc.Submit(form.ID, submitReq(map[string]any{
		"name": "Ada", "email": "ada@example.com",
	}), SubmitMeta{IP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := svc.Delete(resp.Submission.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var reloaded model.Form
	db.First(&reloaded, form.ID)
	if reloaded.SubmissionCount != 0 {
		t.Fatalf("submission_count = %d after delete, want 0", reloaded.SubmissionCount)
	}
	if err := svc.Delete(resp.Submission.ID); !errors.Is(err, ErrSubmissionNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}

func TestUpdateAnswersRevalidates(t *testing.T) {
	db := testDB(t)
	form := createForm(t, db, &model.Form{Title: "Signup", Fields: contactFields(), Active: true})
	svc := newSubmissionService(t, db, nil)

	resp, err := svc.Submit(form.ID, submitReq(map[string]any{
		"name": "Ada", "email": "ada@example.com",
	}), SubmitMeta{IP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	_, err = svc.UpdateAnswers(resp.Submission.ID, dto.SubmissionUpdateDTO{
		Responses: map[string]any{"email": "broken"},
	})
	if _, ok := AsValidationError(err); !ok {
		t.Fatalf("invalid replacement answers should fail validation, got %v", err)
	}

	updated, err := svc.UpdateAnswers(resp.Submission.ID, dto.SubmissionUpdateDTO{
		Responses: map[string]any{"name": "Ada L.", "email": "ada.l@example.com"},
	})
	if err != nil {
		t.Fatalf("UpdateAnswers: %v", err)
	}
	if updated.SubmitterEmail == nil || *updated.SubmitterEmail != "ada.l@example.com" {
		t.Fatalf("submitter email not re-extracted: %v", updated.SubmitterEmail)
	}
}

func TestUpdateAnswersRefreshesConstraintValue(t *testing.T) {
	db := testDB(t)
	field := "email"
	form := createForm(t, db, &model.Form{
		Title: "Raffle", Fields: contactFields(), Active: true,
		ConstraintType: model.ConstraintPerField, ConstraintField: &field,
	})
	svc := newSubmissionService(t, db, nil)

	resp, err := svc.Submit(form.ID, submitReq(map[string]any{
		"name": "Ada", "email": "ada@example.com",
	}), SubmitMeta{IP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := svc.UpdateAnswers(resp.Submission.ID, dto.SubmissionUpdateDTO{
		Responses: map[string]any{"name": "Ada", "email": "ada.new@example.com"},
	}); err != nil {
		t.Fatalf("UpdateAnswers: %v", err)
	}

	// The old value no longer blocks, the edited one does.
	if _, err := svc.Submit(form.ID, submitReq(map[string]any{
		"name": "Grace", "email": "ada@example.com",
	}), SubmitMeta{IP: "10.0.0.2"}); err != nil {
		t.Fatalf("released value should pass: %v", err)
	}
	_, err = svc.Submit(form.ID, submitReq(map[string]any{
		"name": "Eve", "email": "ada.new@example.com",
	}), SubmitMeta{IP: "10.0.0.3"})
	if !errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("edited value should block, got %v", err)
	}
}
