package service

import (
	"strings"
	"testing"

	"github.com/formpilot/formpilot/internal/model"
)

func TestAfterSubmitDisabledFeatures(t *testing.T) {
	runner := NewSideEffectRunner(&fakeMailer{}, testConfig())
	form := &model.Form{Title: "Plain"}
	sub := &model.Submission{FormID: 1, SubmitterEmail: strPtr("ada@example.com")}

	report := runner.AfterSubmit(form, sub)
	if report.QRCode != nil || report.EmailSent != nil || report.EmailError != nil {
		t.Fatalf("disabled features should leave the report empty: %+v", report)
	}
}

func TestAfterSubmitQRCode(t *testing.T) {
	runner := NewSideEffectRunner(&fakeMailer{}, testConfig())
	form := &model.Form{Title: "Event", QRCodeEnabled: true}
	sub := &model.Submission{FormID: 1}
	sub.ID = 42

	report := runner.AfterSubmit(form, sub)
	if report.QRCode == nil {
		t.Fatalf("qr code missing")
	}
	if !strings.HasPrefix(*report.QRCode, "data:image/png;base64,") {
		t.Fatalf("qr code is not a png data url: %.40s", *report.QRCode)
	}
}

func TestAfterSubmitConfirmationEmail(t *testing.T) {
	mailer := &fakeMailer{}
	runner := NewSideEffectRunner(mailer, testConfig())
	form := &model.Form{Title: "Event", EmailNotifyEnabled: true}
	sub := &model.Submission{FormID: 1, SubmitterEmail: strPtr("ada@example.com")}
	sub.ID = 7

	report := runner.AfterSubmit(form, sub)
	if report.EmailSent == nil || !*report.EmailSent {
		t.Fatalf("email_sent should be true: %+v", report)
	}
	if report.EmailError != nil {
		t.Fatalf("unexpected email error: %v", *report.EmailError)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.To != "ada@example.com" {
		t.Fatalf("to = %q", msg.To)
	}
	if !strings.Contains(msg.Subject, "Event") {
		t.Fatalf("subject should carry the form title: %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "#7") {
		t.Fatalf("body should reference the submission: %q", msg.Body)
	}
}

func TestAfterSubmitNoEmailWithoutAddress(t *testing.T) {
	mailer := &fakeMailer{}
	runner := NewSideEffectRunner(mailer, testConfig())
	form := &model.Form{Title: "Event", EmailNotifyEnabled: true}
	sub := &model.Submission{FormID: 1}

	report := runner.AfterSubmit(form, sub)
	if report.EmailSent != nil {
		t.Fatalf("no address means no email attempt: %+v", report)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("mail was sent without an address")
	}
}

func TestAfterSubmitMailFailureIsIsolated(t *testing.T) {
	runner := NewSideEffectRunner(&fakeMailer{fail: errMailDown}, testConfig())
	form := &model.Form{Title: "Event", QRCodeEnabled: true, EmailNotifyEnabled: true}
	sub := &model.Submission{FormID: 1, SubmitterEmail: strPtr("ada@example.com")}
	sub.ID = 9

	report := runner.AfterSubmit(form, sub)
	if report.QRCode == nil {
		t.Fatalf("mail failure must not kill the qr step")
	}
	if report.EmailSent == nil || *report.EmailSent {
		t.Fatalf("email_sent should be false: %+v", report)
	}
	if report.EmailError == nil || !strings.Contains(*report.EmailError, "mail relay unavailable") {
		t.Fatalf("email_error should carry the cause: %v", report.EmailError)
	}
}
