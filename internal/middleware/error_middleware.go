package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tutorlog/sessionlog/internal/app/models/dto"
	"github.com/tutorlog/sessionlog/internal/pkg/apperrors"
	"github.com/tutorlog/sessionlog/internal/pkg/auth"
	"github.com/tutorlog/sessionlog/internal/pkg/logger"
)

// HandleAPIError maps service errors to HTTP status codes and writes the
// standard error envelope. A CustomError message replaces the default text.
func HandleAPIError(c *gin.Context, err error) {
	status, code, message := classify(err)
	if msg, ok := apperrors.Message(err); ok && status != http.StatusInternalServerError {
		message = msg
	}

	detail := dto.NewErrorDetail(code, message)
	var ce *apperrors.CustomError
	if errors.As(err, &ce) && ce.Details != nil && status != http.StatusInternalServerError {
		detail = detail.WithDetails(ce.Details)
	}

	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
	}

	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}

func classify(err error) (int, dto.ErrorCode, string) {
	switch {
	case errors.Is(err, apperrors.ErrMissingFields):
		return http.StatusBadRequest, dto.ErrorCodeMissingFields, "Missing required fields"
	case errors.Is(err, apperrors.ErrValidationFailed),
		errors.Is(err, apperrors.ErrInvalidAttachment):
		return http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"
	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, dto.ErrorCodeBadRequest, "Bad request"

	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid username or password"
	case errors.Is(err, apperrors.ErrTokenExpired), errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Session expired"
	case errors.Is(err, apperrors.ErrTokenInvalid), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidFormat):
		return http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid session"
	case errors.Is(err, apperrors.ErrTokenNotFound):
		return http.StatusUnauthorized, dto.ErrorCodeTokenNotFound, "Authentication required"
	case errors.Is(err, apperrors.ErrCSRFTokenInvalid):
		return http.StatusForbidden, dto.ErrorCodeCSRFInvalid, "Invalid or missing CSRF token"
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"

	case errors.Is(err, apperrors.ErrCustomerNotFound):
		return http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Customer not found"
	case errors.Is(err, apperrors.ErrStudentNotFound):
		return http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Student not found"
	case errors.Is(err, apperrors.ErrSessionNotFound):
		return http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Session not found"
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"

	case errors.Is(err, apperrors.ErrEmailAlreadyExists):
		return http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "A customer with this email already exists"
	case errors.Is(err, apperrors.ErrFastbillIDConflict):
		return http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "A customer with this FastBill id already exists"
	case errors.Is(err, apperrors.ErrStudentAlreadyExists):
		return http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "This student already exists for the customer"
	case errors.Is(err, apperrors.ErrResourceAlreadyExists):
		return http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, dto.ErrorCodeConflict, "Conflict"

	case errors.Is(err, apperrors.ErrRateLimited):
		return http.StatusTooManyRequests, dto.ErrorCodeRateLimited, "Too many requests"
	case errors.Is(err, apperrors.ErrBillingNotConfigured):
		return http.StatusServiceUnavailable, dto.ErrorCodeServiceUnavailable, "Billing integration is not configured"
	case errors.Is(err, apperrors.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, dto.ErrorCodeExternalServiceError, "Service unavailable"

	case errors.Is(err, apperrors.ErrSessionPersistence):
		return http.StatusInternalServerError, dto.ErrorCodeDatabaseError, "Error committing session to database"
	default:
		return http.StatusInternalServerError, dto.ErrorCodeInternalServer, "Internal server error"
	}
}
