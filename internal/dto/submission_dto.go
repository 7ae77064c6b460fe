package dto

import "time"

// SubmitRequestDTO is the public submission payload: field id -> value.
// Value shapes vary by field type (scalar, array, file metadata object).
type SubmitRequestDTO struct {
	Responses map[string]any `json:"responses" binding:"required"`
}

// SubmissionRefDTO identifies the persisted submission in the success response.
type SubmissionRefDTO struct {
	ID          uint      `json:"id"`
	FormID      uint      `json:"form_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// SubmitResponseDTO carries the write result plus the best-effort side-effect
// report. QRCode/EmailSent/EmailError are only set when the corresponding
// feature is enabled on the form; a failed side effect never changes the
// status code of the overall submission.
type SubmitResponseDTO struct {
	Message    string           `json:"message"`
	Submission SubmissionRefDTO `json:"submission"`

	QRCode     *string `json:"qr_code,omitempty"`
	EmailSent  *bool   `json:"email_sent,omitempty"`
	EmailError *string `json:"email_error,omitempty"`
}

// SubmissionDTO is the admin view of one submission.
type SubmissionDTO struct {
	ID             uint           `json:"id"`
	FormID         uint           `json:"form_id"`
	Answers        map[string]any `json:"answers"`
	SubmitterEmail *string        `json:"submitter_email,omitempty"`
	SubmitterIP    string         `json:"submitter_ip"`
	UserAgent      string         `json:"user_agent,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type SubmissionListDTO struct {
	Items    []SubmissionDTO `json:"items"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// SubmissionUpdateDTO replaces a submission's answers after re-validation.
type SubmissionUpdateDTO struct {
	Responses map[string]any `json:"responses" binding:"required"`
}
