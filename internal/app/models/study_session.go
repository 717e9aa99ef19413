package models

import "time"

// StudySession is one logged tutoring session. Rows are immutable once written.
type StudySession struct {
	ID               int64     `json:"id" db:"id"`
	StudentID        int64     `json:"studentId" db:"student_id"`
	StudentName      string    `json:"studentName" db:"student_name"` // snapshot at creation time
	Date             time.Time `json:"date" db:"date"`
	StartTime        string    `json:"startTime" db:"start_time"`
	EndTime          string    `json:"endTime" db:"end_time"`
	SessionTopic     string    `json:"sessionTopic" db:"session_topic"`
	SignaturePresent bool      `json:"signaturePresent" db:"signature_present"`
	ProofKind        ProofKind `json:"proofKind" db:"proof_kind"`
	ProofKey         string    `json:"proofKey" db:"proof_key"`
	ProofBackend     string    `json:"proofBackend" db:"proof_backend"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
}
