package dto

import "time"

type BlastCreateDTO struct {
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body" binding:"required"`
}

type BlastResponseDTO struct {
	ID              uint      `json:"id"`
	FormID          uint      `json:"form_id"`
	Subject         string    `json:"subject"`
	Status          string    `json:"status"`
	TotalRecipients int       `json:"total_recipients"`
	SentCount       int       `json:"sent_count"`
	FailedCount     int       `json:"failed_count"`
	CreatedAt       time.Time `json:"created_at"`
}
