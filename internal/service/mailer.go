package service

import (
	"errors"

	"github.com/formpilot/formpilot/config"
	"github.com/rs/zerolog/log"
)

// Attachment is an inline payload for an outgoing message.
type Attachment struct {
	Filename string
	Content  []byte
	MimeType string
}

// Mailer is the delivery capability both the post-submission confirmation and
// the blast worker send through. Implementations may fail independently of
// any caller transaction; callers own the failure boundary.
type Mailer interface {
	Send(to, subject, htmlBody string, attachments []Attachment) (messageID string, err error)
}

// NewMailer picks the provider once at startup. An unknown or empty provider
// yields a mailer that refuses to send, so mail-dependent features degrade to
// reported failures instead of crashing the pipeline.
func NewMailer(cfg *config.Config) Mailer {
	switch cfg.Mail.Provider {
	case "smtp":
		return NewSMTPMailer(cfg)
	case "resend":
		return NewResendMailer(cfg)
	default:
		log.Warn().Str("provider", cfg.Mail.Provider).Msg("MAIL_PROVIDER not set or unknown; outgoing email is disabled")
		return &disabledMailer{}
	}
}

type disabledMailer struct{}

func (m *disabledMailer) Send(to, subject, htmlBody string, attachments []Attachment) (string, error) {
	log.Info().Str("to", to).Str("subject", subject).Msg("[MOCK EMAIL] mail provider not configured, dropping message")
	return "", errors.New("mail provider not configured")
}
