package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tutorlog/sessionlog/internal/app/models"
	"github.com/tutorlog/sessionlog/internal/app/models/dto"
	"github.com/tutorlog/sessionlog/internal/pkg/apperrors"
	"github.com/tutorlog/sessionlog/internal/pkg/validation"
)

// StudentService defines the interface for student operations
type StudentService interface {
	ListStudents(ctx context.Context, customerID *int64) ([]dto.StudentResponse, error)
	CreateStudent(ctx context.Context, req *dto.CreateStudentRequest) (*dto.StudentResponse, error)
}

type studentServiceImpl struct {
	students  StudentStore
	customers CustomerStore
	logger    zerolog.Logger
}

// NewStudentService creates a new StudentService
func NewStudentService(students StudentStore, customers CustomerStore, logger zerolog.Logger) StudentService {
	return &studentServiceImpl{students: students, customers: customers, logger: logger}
}

// ListStudents returns students, optionally only those of one customer
func (s *studentServiceImpl) ListStudents(ctx context.Context, customerID *int64) ([]dto.StudentResponse, error) {
	students, err := s.students.List(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}

	out := make([]dto.StudentResponse, 0, len(students))
	for _, st := range students {
		out = append(out, dto.FromStudent(st))
	}
	return out, nil
}

// CreateStudent stores a student under an existing customer
func (s *studentServiceImpl) CreateStudent(ctx context.Context, req *dto.CreateStudentRequest) (*dto.StudentResponse, error) {
	student := &models.Student{
		FirstName:  validation.SanitizeText(req.FirstName),
		LastName:   validation.SanitizeText(req.LastName),
		CustomerID: req.CustomerID,
	}

	if student.CustomerID <= 0 {
		return nil, apperrors.NewValidationError("customer_id is required")
	}
	if !validation.ValidName(student.FirstName) || !validation.ValidName(student.LastName) {
		return nil, apperrors.NewValidationError("first_name and last_name are required")
	}

	if _, err := s.customers.GetByID(ctx, student.CustomerID); err != nil {
		if errors.Is(err, apperrors.ErrCustomerNotFound) {
			return nil, apperrors.NewValidationError("Unknown customer")
		}
		return nil, fmt.Errorf("error checking customer: %w", err)
	}

	if err := s.students.Create(ctx, student); err != nil {
		// the customer may have vanished between the check and the insert
		if errors.Is(err, apperrors.ErrCustomerNotFound) {
			return nil, apperrors.NewValidationError("Unknown customer")
		}
		return nil, err
	}

	s.logger.Info().Int64("studentID", student.ID).Int64("customerID", student.CustomerID).Msg("Student created")
	resp := dto.FromStudent(student)
	return &resp, nil
}
