package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tutorlog/sessionlog/internal/pkg/apperrors"
	"github.com/tutorlog/sessionlog/internal/pkg/auth"
	"github.com/tutorlog/sessionlog/internal/pkg/metrics"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthService(t *testing.T) (AuthService, *auth.JWTService) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:   "0123456789abcdef0123456789abcdef",
		SessionTTL:  time.Hour,
		TokenIssuer: "sessionlog-test",
	})
	svc := NewAuthService(AdminCredentials{Username: "tutor", PasswordHash: string(hash)}, jwtService, metrics.New(), zerolog.Nop())
	return svc, jwtService
}

func TestAuthService_Login(t *testing.T) {
	svc, _ := newTestAuthService(t)

	res, err := svc.Login(context.Background(), " tutor ", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "1", res.User.ID)
	assert.Equal(t, "tutor", res.User.Username)
	assert.WithinDuration(t, time.Now().Add(time.Hour), res.ExpiresAt, time.Minute)

	claims, err := svc.ValidateSession(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "tutor", claims.Username)
}

func TestAuthService_LoginFailures(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "", "x")
	assert.ErrorIs(t, err, apperrors.ErrMissingFields)
	assert.Equal(t, "Username and password are required", err.Error())

	_, err = svc.Login(ctx, "tutor", "")
	assert.ErrorIs(t, err, apperrors.ErrMissingFields)

	_, err = svc.Login(ctx, "tutor", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "someone", "s3cret-pass")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestAuthService_ValidateSessionRejectsForeignTokens(t *testing.T) {
	svc, jwtService := newTestAuthService(t)

	other, _, err := jwtService.GenerateSessionToken("2", "tutor")
	require.NoError(t, err)
	_, err = svc.ValidateSession(other)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	renamed, _, err := jwtService.GenerateSessionToken("1", "intruder")
	require.NoError(t, err)
	_, err = svc.ValidateSession(renamed)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = svc.ValidateSession("garbage")
	assert.Error(t, err)
}
