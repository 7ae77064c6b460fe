package service

import (
	"encoding/base64"
	"fmt"

	"github.com/formpilot/formpilot/config"
	"github.com/formpilot/formpilot/internal/model"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"
)

// SideEffectReport tells the submitter which best-effort steps ran. Nil
// pointers mean the step was not enabled for the form.
type SideEffectReport struct {
	QRCode     *string
	EmailSent  *bool
	EmailError *string
}

// SideEffectRunner performs the post-commit steps of a submission: QR code
// generation and the confirmation email. It runs only after the write has
// committed and must never cause that write to be undone — every step has its
// own failure boundary and failures surface only in the report.
type SideEffectRunner interface {
	AfterSubmit(form *model.Form, sub *model.Submission) SideEffectReport
}

type sideEffectRunner struct {
	mailer Mailer
	cfg    *config.Config
}

func NewSideEffectRunner(mailer Mailer, cfg *config.Config) SideEffectRunner {
	return &sideEffectRunner{mailer: mailer, cfg: cfg}
}

func (s *sideEffectRunner) AfterSubmit(form *model.Form, sub *model.Submission) SideEffectReport {
	var report SideEffectReport

	if form.QRCodeEnabled {
		runStep("qr_code", sub.ID, func() error {
			dataURL, err := s.encodeQR(sub)
			if err != nil {
				return err
			}
			report.QRCode = &dataURL
			return nil
		})
	}

	if form.EmailNotifyEnabled && sub.SubmitterEmail != nil {
		sent := false
		runStep("confirmation_email", sub.ID, func() error {
			subject := fmt.Sprintf("Thank you for your submission to %s", form.Title)
			body := s.confirmationBody(form, sub, report.QRCode)

			_, err := s.mailer.Send(*sub.SubmitterEmail, subject, body, nil)
			if err != nil {
				msg := err.Error()
				report.EmailError = &msg
				return err
			}
			sent = true
			return nil
		})
		report.EmailSent = &sent
	}

	return report
}

// runStep isolates one side effect: errors and panics are logged and absorbed
// so a failing or misbehaving step cannot affect the committed submission or
// the other steps.
func runStep(name string, submissionID uint, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Uint("submission_id", submissionID).Str("step", name).Interface("panic", r).Msg("Side-effect step panicked")
		}
	}()
	if err := fn(); err != nil {
		log.Error().Err(err).Uint("submission_id", submissionID).Str("step", name).Msg("Side-effect step failed")
	}
}

// encodeQR renders a scannable reference to the submission as a PNG data URL
// so clients and emails can embed it directly.
func (s *sideEffectRunner) encodeQR(sub *model.Submission) (string, error) {
	content := fmt.Sprintf("%s/submissions/%d", s.cfg.PublicBaseURL, sub.ID)
	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("qr encoding failed: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

func (s *sideEffectRunner) confirmationBody(form *model.Form, sub *model.Submission, qrDataURL *string) string {
	banner := ""
	if form.BannerURL != nil && *form.BannerURL != "" {
		banner = fmt.Sprintf(`<img src="%s%s" alt="" style="max-width:100%%"/>`, s.cfg.PublicBaseURL, *form.BannerURL)
	}

	qr := ""
	if qrDataURL != nil {
		qr = fmt.Sprintf(`<p>Present this code when asked for your submission:</p><img src="%s" alt="QR code"/>`, *qrDataURL)
	}

	return fmt.Sprintf(`<!doctype html>
<html>
<body style="font-family:Arial, Helvetica, sans-serif; color:#222;">
%s
<h2>%s</h2>
<p>We received your submission (reference #%d). Thank you!</p>
%s
</body>
</html>`, banner, form.Title, sub.ID, qr)
}
