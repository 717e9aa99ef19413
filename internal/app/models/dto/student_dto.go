package dto

import "github.com/tutorlog/sessionlog/internal/app/models"

// CreateStudentRequest is the body of POST /api/students
type CreateStudentRequest struct {
	CustomerID int64  `json:"customer_id" binding:"required,min=1"`
	FirstName  string `json:"first_name" binding:"required,max=100"`
	LastName   string `json:"last_name" binding:"required,max=100"`
}

// StudentResponse represents a student
type StudentResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CustomerID int64  `json:"customer_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

// FromStudent converts a model to its response
func FromStudent(s *models.Student) StudentResponse {
	return StudentResponse{
		ID:         s.ID,
		Name:       s.FullName(),
		CustomerID: s.CustomerID,
		FirstName:  s.FirstName,
		LastName:   s.LastName,
	}
}
