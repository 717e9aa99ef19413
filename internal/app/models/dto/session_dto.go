package dto

import (
	"github.com/tutorlog/sessionlog/internal/app/models"
	"github.com/tutorlog/sessionlog/internal/pkg/validation"
)

// LogSessionRequest holds the text fields of the multipart session form
type LogSessionRequest struct {
	StudentID        string `form:"student_id"`
	Date             string `form:"date"`
	StartTime        string `form:"start_time"`
	EndTime          string `form:"end_time"`
	SessionTopic     string `form:"session_topic"`
	SignaturePresent string `form:"signature_present"`
}

// Attachment is the proof artifact extracted from the form
type Attachment struct {
	Kind     models.ProofKind
	Filename string
	Data     []byte
}

// SessionFilterRequest holds list filters and pagination
type SessionFilterRequest struct {
	StudentID *int64
	Page      int
	PageSize  int
}

// SessionResponse represents a logged session
type SessionResponse struct {
	ID               int64  `json:"id"`
	StudentID        int64  `json:"studentId"`
	StudentName      string `json:"studentName"`
	Date             string `json:"date" example:"2025-03-14"`
	StartTime        string `json:"startTime" example:"15:00"`
	EndTime          string `json:"endTime" example:"16:30"`
	SessionTopic     string `json:"sessionTopic"`
	SignaturePresent bool   `json:"signaturePresent"`
	ProofKind        string `json:"proofKind"`
	ProofURL         string `json:"proofUrl,omitempty"`
	CreatedAt        string `json:"createdAt"`
}

// SessionListResponse is a page of sessions
type SessionListResponse struct {
	Sessions   []SessionResponse `json:"sessions"`
	Pagination PaginationInfo    `json:"pagination"`
}

// FromSession converts a model to its response; proofURL may be empty.
func FromSession(s *models.StudySession, proofURL string) SessionResponse {
	return SessionResponse{
		ID:               s.ID,
		StudentID:        s.StudentID,
		StudentName:      s.StudentName,
		Date:             s.Date.Format(validation.DateLayout),
		StartTime:        s.StartTime,
		EndTime:          s.EndTime,
		SessionTopic:     s.SessionTopic,
		SignaturePresent: s.SignaturePresent,
		ProofKind:        string(s.ProofKind),
		ProofURL:         proofURL,
		CreatedAt:        s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
