// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tutorlog/sessionlog/internal/app/models"
	"github.com/tutorlog/sessionlog/internal/app/models/dto"
	"github.com/tutorlog/sessionlog/internal/app/services"
	"github.com/tutorlog/sessionlog/internal/middleware"
)

// LoginRedirect is where the browser goes after logging in
const LoginRedirect = "/session"

// CookieConfig controls the session cookie
type CookieConfig struct {
	Secure bool
	TTL    time.Duration
}

// AuthController handles authentication related operations
type AuthController struct {
	authService services.AuthService
	cookie      CookieConfig
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService services.AuthService, cookie CookieConfig, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		cookie:      cookie,
		logger:      logger,
	}
}

// Login checks the administrator credentials sent as JSON or form and sets the session cookie
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBind(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid login request payload")
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Invalid request format")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	result, err := c.authService.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	maxAge := int(time.Until(result.ExpiresAt).Seconds())
	if c.cookie.TTL > 0 {
		maxAge = int(c.cookie.TTL.Seconds())
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.SessionCookieName, result.Token, maxAge, "/", "", c.cookie.Secure, true)

	ctx.JSON(http.StatusOK, dto.LoginResponse{
		Message:  "Login successful",
		Redirect: LoginRedirect,
	})
}

// Logout clears the session cookie
func (c *AuthController) Logout(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.SessionCookieName, "", -1, "/", "", c.cookie.Secure, true)
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(nil, "Logged out"))
}

// Me returns the administrator holding the current session
func (c *AuthController) Me(ctx *gin.Context) {
	resp := dto.MeResponse{User: models.NewStaticUser(ctx.GetString(middleware.ContextUsername))}
	if exp, ok := ctx.Get(middleware.ContextExpiresAt); ok {
		if t, ok := exp.(time.Time); ok {
			resp.ExpiresAt = t.Unix()
		}
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp, ""))
}
