package service

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/formpilot/formpilot/config"
	"github.com/rs/zerolog/log"
)

const resendEndpoint = "https://api.resend.com/emails"

type resendMailer struct {
	cfg    *config.Config
	client *http.Client
}

// NewResendMailer sends through the Resend HTTP API.
func NewResendMailer(cfg *config.Config) Mailer {
	if cfg.Mail.ResendAPIKey == "" {
		log.Warn().Msg("Resend mailer selected but RESEND_API_KEY is not set")
	}
	return &resendMailer{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type resendAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"` // base64
}

type resendPayload struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html"`
	Attachments []resendAttachment `json:"attachments,omitempty"`
}

type resendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func (m *resendMailer) Send(to, subject, htmlBody string, attachments []Attachment) (string, error) {
	payload := resendPayload{
		From:    m.cfg.Mail.From,
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
	}
	for _, att := range attachments {
		payload.Attachments = append(payload.Attachments, resendAttachment{
			Filename: att.Filename,
			Content:  base64.StdEncoding.EncodeToString(att.Content),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("cannot encode resend payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, resendEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("cannot build resend request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.cfg.Mail.ResendAPIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("resend request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("resend returned HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed resendResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("cannot decode resend response: %w", err)
	}
	return parsed.ID, nil
}
