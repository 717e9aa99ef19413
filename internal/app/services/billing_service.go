package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tutorlog/sessionlog/internal/app/models"
	"github.com/tutorlog/sessionlog/internal/app/models/dto"
	"github.com/tutorlog/sessionlog/internal/pkg/apperrors"
	"github.com/tutorlog/sessionlog/internal/pkg/helpers"
	"github.com/tutorlog/sessionlog/internal/pkg/metrics"
	"github.com/tutorlog/sessionlog/internal/pkg/validation"
)

// BillingService imports customers from the billing system
type BillingService interface {
	SyncCustomers(ctx context.Context) (*dto.SyncResult, error)
}

type billingServiceImpl struct {
	source    CustomerSource
	customers CustomerStore
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewBillingService creates a new BillingService. source may be nil when
// billing credentials are not configured.
func NewBillingService(source CustomerSource, customers CustomerStore, m *metrics.Metrics, logger zerolog.Logger) BillingService {
	return &billingServiceImpl{source: source, customers: customers, metrics: m, logger: logger}
}

// SyncCustomers inserts every remote customer whose FastBill id is not stored
// yet. Existing customers are never updated or deleted.
func (s *billingServiceImpl) SyncCustomers(ctx context.Context) (*dto.SyncResult, error) {
	if s.source == nil {
		return nil, apperrors.ErrBillingNotConfigured
	}

	remote, err := s.source.ListCustomers(ctx)
	if err != nil {
		return nil, &apperrors.CustomError{
			Err:     apperrors.ErrServiceUnavailable,
			Message: "Billing service unavailable",
			Details: map[string]interface{}{"cause": err.Error()},
		}
	}

	known, err := s.customers.FastbillIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading imported customer ids: %w", err)
	}

	result := &dto.SyncResult{Fetched: len(remote)}
	for _, rc := range remote {
		id := strings.TrimSpace(rc.CustomerID)
		if id == "" {
			result.Skipped++
			continue
		}
		if _, ok := known[id]; ok {
			result.Skipped++
			continue
		}

		customer := &models.Customer{
			FirstName:          validation.SanitizeText(rc.FirstName),
			LastName:           validation.SanitizeText(rc.LastName),
			Phone:              helpers.StringPtrIfNotEmpty(rc.Phone),
			Address:            helpers.StringPtrIfNotEmpty(validation.SanitizeText(rc.Address)),
			FastbillCustomerID: &id,
		}
		if customer.FirstName == "" && customer.LastName == "" {
			s.logger.Warn().Str("fastbillID", id).Msg("Skipping FastBill customer without a name")
			result.Skipped++
			continue
		}
		if !fitsCustomerColumns(customer) {
			s.logger.Warn().Str("fastbillID", id).Msg("Skipping FastBill customer with oversized fields")
			result.Skipped++
			continue
		}
		if email := strings.ToLower(strings.TrimSpace(rc.Email)); validation.IsEmail(email) && validation.FitsLength(email, validation.EmailMaxLength) {
			customer.Email = &email
		}

		if err := s.customers.Create(ctx, customer); err != nil {
			if errors.Is(err, apperrors.ErrEmailAlreadyExists) || errors.Is(err, apperrors.ErrFastbillIDConflict) {
				s.logger.Info().Str("fastbillID", id).Err(err).Msg("Skipping FastBill customer")
				result.Skipped++
				continue
			}
			s.metrics.BillingSync(result.Fetched, result.Created, result.Skipped)
			return result, fmt.Errorf("error importing FastBill customer %s: %w", id, err)
		}

		known[id] = struct{}{}
		result.Created++
	}

	s.metrics.BillingSync(result.Fetched, result.Created, result.Skipped)
	s.logger.Info().
		Int("fetched", result.Fetched).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Msg("FastBill customer sync finished")
	return result, nil
}

func fitsCustomerColumns(c *models.Customer) bool {
	if !validation.FitsLength(c.FirstName, validation.NameMaxLength) || !validation.FitsLength(c.LastName, validation.NameMaxLength) {
		return false
	}
	return c.Phone == nil || validation.FitsLength(*c.Phone, validation.PhoneMaxLength)
}
