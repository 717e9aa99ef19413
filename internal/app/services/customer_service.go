package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tutorlog/sessionlog/internal/app/models"
	"github.com/tutorlog/sessionlog/internal/app/models/dto"
	"github.com/tutorlog/sessionlog/internal/pkg/apperrors"
	"github.com/tutorlog/sessionlog/internal/pkg/helpers"
	"github.com/tutorlog/sessionlog/internal/pkg/validation"
)

// CustomerService defines the interface for customer operations
type CustomerService interface {
	ListCustomers(ctx context.Context) ([]dto.CustomerResponse, error)
	CreateCustomer(ctx context.Context, req *dto.CreateCustomerRequest) (*dto.CustomerResponse, error)
}

type customerServiceImpl struct {
	customers CustomerStore
	logger    zerolog.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customers CustomerStore, logger zerolog.Logger) CustomerService {
	return &customerServiceImpl{customers: customers, logger: logger}
}

// ListCustomers returns all customers for selection lists
func (s *customerServiceImpl) ListCustomers(ctx context.Context) ([]dto.CustomerResponse, error) {
	customers, err := s.customers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing customers: %w", err)
	}

	out := make([]dto.CustomerResponse, 0, len(customers))
	for _, c := range customers {
		out = append(out, dto.FromCustomer(c))
	}
	return out, nil
}

// CreateCustomer validates and stores a customer
func (s *customerServiceImpl) CreateCustomer(ctx context.Context, req *dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	customer := &models.Customer{
		FirstName: validation.SanitizeText(req.FirstName),
		LastName:  validation.SanitizeText(req.LastName),
		Email:     helpers.NilIfEmpty(req.Email),
		Phone:     helpers.NilIfEmpty(req.Phone),
		Address:   helpers.NilIfEmpty(req.Address),
	}

	if !validation.ValidName(customer.FirstName) || !validation.ValidName(customer.LastName) {
		return nil, apperrors.NewValidationError("first_name and last_name are required")
	}

	if customer.Email != nil {
		email := strings.ToLower(*customer.Email)
		if !validation.IsEmail(email) {
			return nil, apperrors.NewValidationError("email must be a valid email address")
		}
		customer.Email = &email

		exists, err := s.customers.EmailExists(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("error checking customer email: %w", err)
		}
		if exists {
			return nil, apperrors.ErrEmailAlreadyExists
		}
	}

	if customer.Address != nil {
		addr := validation.SanitizeText(*customer.Address)
		customer.Address = helpers.NilIfEmpty(&addr)
	}

	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("customerID", customer.ID).Msg("Customer created")
	resp := dto.FromCustomer(customer)
	return &resp, nil
}
