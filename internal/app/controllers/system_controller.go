package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tutorlog/sessionlog/internal/app/models/dto"
	"github.com/tutorlog/sessionlog/internal/middleware"
)

// Pinger reports database reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemController serves health checks and CSRF tokens
type SystemController struct {
	db     Pinger
	csrf   *middleware.CSRF
	logger zerolog.Logger
}

// NewSystemController creates a new SystemController
func NewSystemController(db Pinger, csrf *middleware.CSRF, logger zerolog.Logger) *SystemController {
	return &SystemController{db: db, csrf: csrf, logger: logger}
}

// Health pings the database
func (c *SystemController) Health(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := c.db.Ping(pingCtx); err != nil {
		c.logger.Error().Err(err).Msg("Health check failed")
		ctx.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "unavailable", Database: "down"})
		return
	}
	ctx.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Database: "up"})
}

// CSRFToken issues a token in the XSRF-TOKEN cookie and the body
func (c *SystemController) CSRFToken(ctx *gin.Context) {
	token, err := c.csrf.Issue(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to issue CSRF token")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Header("Cache-Control", "no-store")
	ctx.JSON(http.StatusOK, dto.CSRFResponse{CSRFToken: token})
}
