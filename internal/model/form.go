package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Uniqueness constraint applied to new submissions of a form.
const (
	ConstraintNone     = "none"
	ConstraintPerIP    = "per_ip"
	ConstraintPerField = "per_field"
)

func KnownConstraintType(t string) bool {
	return t == ConstraintNone || t == ConstraintPerIP || t == ConstraintPerField
}

type Form struct {
	ID          uint                       `gorm:"primarykey" json:"id"`
	Title       string                     `json:"title" gorm:"not null"`
	Description string                     `json:"description,omitempty"`
	Fields      datatypes.JSONSlice[Field] `json:"fields"`

	Active    bool `json:"active" gorm:"not null;default:true"`
	Displayed bool `json:"displayed" gorm:"index"`

	// Denormalized; kept equal to the count of live submissions by updating it
	// in the same transaction as every insert/delete.
	SubmissionCount int64 `json:"submission_count" gorm:"not null;default:0"`

	ConstraintType  string  `json:"constraint_type" gorm:"not null;default:'none'"`
	ConstraintField *string `json:"constraint_field,omitempty"`

	BannerURL          *string `json:"banner_url,omitempty"`
	QRCodeEnabled      bool    `json:"qr_code_enabled"`
	EmailNotifyEnabled bool    `json:"email_notify_enabled"`

	ShowTerms  bool    `json:"show_terms"`
	TermsTitle string  `json:"terms_title,omitempty"`
	TermsText  string  `json:"terms_text,omitempty" gorm:"type:text"`
	TermsLink  *string `json:"terms_link,omitempty"`

	CreatedBy uint `json:"created_by" gorm:"index"`
	Creator   User `json:"-" gorm:"foreignKey:CreatedBy"`

	Submissions []Submission `json:"-" gorm:"foreignKey:FormID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// FieldByID returns the schema field with the given id, or nil.
func (f *Form) FieldByID(id string) *Field {
	for i := range f.Fields {
		if f.Fields[i].ID == id {
			return &f.Fields[i]
		}
	}
	return nil
}
