package dto

import (
	"time"

	"github.com/formpilot/formpilot/internal/model"
)

// FormCreateDTO is the admin request for creating a form with its schema.
type FormCreateDTO struct {
	Title       string        `json:"title" binding:"required"`
	Description string        `json:"description"`
	Fields      []model.Field `json:"fields" binding:"required"`

	Active          *bool   `json:"active"`
	ConstraintType  string  `json:"constraint_type"`
	ConstraintField *string `json:"constraint_field"`

	QRCodeEnabled      bool `json:"qr_code_enabled"`
	EmailNotifyEnabled bool `json:"email_notify_enabled"`

	ShowTerms  bool    `json:"show_terms"`
	TermsTitle string  `json:"terms_title"`
	TermsText  string  `json:"terms_text"`
	TermsLink  *string `json:"terms_link"`
}

// FormUpdateDTO mirrors FormCreateDTO; all fields replace the stored ones.
type FormUpdateDTO = FormCreateDTO

type FormResponseDTO struct {
	ID          uint          `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Fields      []model.Field `json:"fields"`

	Active          bool    `json:"active"`
	Displayed       bool    `json:"displayed"`
	SubmissionCount int64   `json:"submission_count"`
	ConstraintType  string  `json:"constraint_type"`
	ConstraintField *string `json:"constraint_field,omitempty"`

	BannerURL          *string `json:"banner_url,omitempty"`
	QRCodeEnabled      bool    `json:"qr_code_enabled"`
	EmailNotifyEnabled bool    `json:"email_notify_enabled"`

	ShowTerms  bool    `json:"show_terms"`
	TermsTitle string  `json:"terms_title,omitempty"`
	TermsText  string  `json:"terms_text,omitempty"`
	TermsLink  *string `json:"terms_link,omitempty"`

	CreatedBy uint      `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FormSummaryDTO is the admin list row.
type FormSummaryDTO struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Active          bool      `json:"active"`
	Displayed       bool      `json:"displayed"`
	SubmissionCount int64     `json:"submission_count"`
	FieldCount      int       `json:"field_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// PublicFormDTO is what anonymous clients see: the schema and presentation
// settings, without ownership or counter internals.
type PublicFormDTO struct {
	ID          uint          `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Fields      []model.Field `json:"fields"`

	BannerURL *string `json:"banner_url,omitempty"`

	ShowTerms  bool    `json:"show_terms"`
	TermsTitle string  `json:"terms_title,omitempty"`
	TermsText  string  `json:"terms_text,omitempty"`
	TermsLink  *string `json:"terms_link,omitempty"`
}
