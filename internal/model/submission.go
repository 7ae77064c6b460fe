package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Submission is one respondent's completed response to a form. Answers is the
// raw response map (field id -> value) as submitted; value shapes follow the
// answer union in field.go.
type Submission struct {
	ID      uint              `gorm:"primarykey" json:"id"`
	FormID  uint              `json:"form_id" gorm:"not null;index"`
	Form    Form              `json:"-" gorm:"foreignKey:FormID"`
	Answers datatypes.JSONMap `json:"answers"`

	// First validly-shaped value of an email-typed field, in schema order.
	SubmitterEmail *string `json:"submitter_email,omitempty" gorm:"index"`

	// Canonical form of the constrained field's answer at write time, nil when
	// the form had no per-field constraint. Backs the duplicate probe: both
	// sides of the comparison go through Answer.Canonical, so array and file
	// answers dedupe the same way scalars do.
	ConstraintValue *string `json:"-" gorm:"index"`

	SubmitterIP string `json:"submitter_ip" gorm:"size:45;index"`
	UserAgent   string `json:"user_agent,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
