package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tutorlog/sessionlog/internal/app/models"
	"github.com/tutorlog/sessionlog/internal/pkg/apperrors"
	"github.com/tutorlog/sessionlog/internal/pkg/auth"
	"github.com/tutorlog/sessionlog/internal/pkg/metrics"
)

// AuthService authenticates the single administrator
type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	ValidateSession(token string) (*auth.Claims, error)
}

// LoginResult is a freshly issued session
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.StaticUser
}

// AdminCredentials are the configured static credentials
type AdminCredentials struct {
	Username     string
	PasswordHash string
}

type authServiceImpl struct {
	admin      AdminCredentials
	jwtService *auth.JWTService
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(admin AdminCredentials, jwtService *auth.JWTService, m *metrics.Metrics, logger zerolog.Logger) AuthService {
	return &authServiceImpl{
		admin:      admin,
		jwtService: jwtService,
		metrics:    m,
		logger:     logger,
	}
}

// Login checks the credentials and issues a session token. Both checks always
// run so a wrong username costs the same as a wrong password.
func (s *authServiceImpl) Login(_ context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, &apperrors.CustomError{
			Err:     apperrors.ErrMissingFields,
			Message: "Username and password are required",
		}
	}

	userOK := auth.ConstantTimeEqual(username, s.admin.Username)
	passOK := auth.CheckPassword(s.admin.PasswordHash, password)
	if !userOK || !passOK {
		s.metrics.LoginAttempt(false)
		s.logger.Warn().Str("username", username).Msg("Invalid login attempt")
		return nil, apperrors.ErrInvalidCredentials
	}

	token, expiresAt, err := s.jwtService.GenerateSessionToken(models.StaticUserID, s.admin.Username)
	if err != nil {
		return nil, fmt.Errorf("error generating session token: %w", err)
	}

	s.metrics.LoginAttempt(true)
	s.logger.Info().Str("username", username).Msg("Administrator logged in")
	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      models.NewStaticUser(s.admin.Username),
	}, nil
}

// ValidateSession verifies a session token and checks that it belongs to the administrator
func (s *authServiceImpl) ValidateSession(token string) (*auth.Claims, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	if claims.UserID != models.StaticUserID || !auth.ConstantTimeEqual(claims.Username, s.admin.Username) {
		return nil, auth.ErrInvalidToken
	}
	return claims, nil
}
