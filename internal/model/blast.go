package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	BlastPending   = "pending"
	BlastRunning   = "running"
	BlastCompleted = "completed"
	BlastFailed    = "failed"
)

// EmailBlast is one bulk fan-out job: a templated email sent to every distinct
// prior submitter of a form. Rows double as the job queue; the worker picks
// them up by status.
type EmailBlast struct {
	ID      uint   `gorm:"primarykey" json:"id"`
	FormID  uint   `json:"form_id" gorm:"not null;index"`
	Form    Form   `json:"-" gorm:"foreignKey:FormID"`
	Subject string `json:"subject" gorm:"not null"`
	Body    string `json:"body" gorm:"type:text;not null"`

	Status          string `json:"status" gorm:"not null;default:'pending'"`
	TotalRecipients int    `json:"total_recipients"`
	SentCount       int    `json:"sent_count"`
	FailedCount     int    `json:"failed_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
