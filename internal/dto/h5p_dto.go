package dto

import (
	"time"

	"github.com/noah-isme/gema-overview-api/internal/models"
)

// RecordAttemptRequest stores the outcome of one H5P attempt.
type RecordAttemptRequest struct {
	RawScore   int                    `json:"raw_score" validate:"min=0,ltefield=MaxScore"`
	MaxScore   int                    `json:"max_score" validate:"min=0"`
	Completion *bool                  `json:"completion"`
	Success    *bool                  `json:"success"`
	Result     map[string]interface{} `json:"result"`
}

// AttemptResponse is the serialized representation of an H5P attempt.
type AttemptResponse struct {
	ID         uint      `json:"id"`
	ActivityID uint      `json:"activity_id"`
	UserID     uint      `json:"user_id"`
	Attempt    int       `json:"attempt"`
	RawScore   int       `json:"raw_score"`
	MaxScore   int       `json:"max_score"`
	Completion *bool     `json:"completion,omitempty"`
	Success    *bool     `json:"success,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewAttemptResponse converts a model into a DTO.
func NewAttemptResponse(attempt models.H5PAttempt) AttemptResponse {
	return AttemptResponse{
		ID:         attempt.ID,
		ActivityID: attempt.ActivityID,
		UserID:     attempt.UserID,
		Attempt:    attempt.Attempt,
		RawScore:   attempt.RawScore,
		MaxScore:   attempt.MaxScore,
		Completion: attempt.Completion,
		Success:    attempt.Success,
		CreatedAt:  attempt.CreatedAt,
	}
}

// PackageResponse describes a deployed H5P package.
type PackageResponse struct {
	ActivityID  uint   `json:"activity_id"`
	PackageRef  string `json:"package_ref"`
	ContentType string `json:"content_type"`
}
