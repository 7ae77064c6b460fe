package service

import (
	"fmt"
	"io"

	"github.com/formpilot/formpilot/config"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	gomail "gopkg.in/gomail.v2"
)

type smtpMailer struct {
	cfg *config.Config
}

// NewSMTPMailer sends through a plain SMTP relay (multipart, HTML body,
// optional attachments).
func NewSMTPMailer(cfg *config.Config) Mailer {
	if cfg.Mail.SMTPHost == "" || cfg.Mail.SMTPUser == "" {
		log.Warn().Msg("SMTP mailer selected but SMTP_HOST/SMTP_USERNAME are not fully configured")
	}
	return &smtpMailer{cfg: cfg}
}

func (m *smtpMailer) Send(to, subject, htmlBody string, attachments []Attachment) (string, error) {
	mail := m.cfg.Mail

	from := mail.From
	if from == "" {
		from = mail.SMTPUser
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), mail.SMTPHost)

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetHeader("Message-Id", messageID)
	msg.SetBody("text/html", htmlBody)

	for _, att := range attachments {
		content := att.Content
		msg.Attach(att.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(content)
			return err
		}))
	}

	dialer := gomail.NewDialer(mail.SMTPHost, mail.SMTPPort, mail.SMTPUser, mail.SMTPPassword)
	if err := dialer.DialAndSend(msg); err != nil {
		return "", fmt.Errorf("smtp send to %s failed: %w", to, err)
	}

	return messageID, nil
}
