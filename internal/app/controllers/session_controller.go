package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tutorlog/sessionlog/internal/app/models"
	"github.com/tutorlog/sessionlog/internal/app/models/dto"
	"github.com/tutorlog/sessionlog/internal/app/services"
	"github.com/tutorlog/sessionlog/internal/middleware"
	"github.com/tutorlog/sessionlog/internal/pkg/apperrors"
	"github.com/tutorlog/sessionlog/internal/pkg/filestorage"
	"github.com/tutorlog/sessionlog/internal/pkg/helpers"
)

// Form fields carrying the proof artifact, in order of precedence
const (
	FieldCompletedPDF  = "completed_pdf"
	FieldSignature     = "signature"
	FieldSignatureData = "signature_data"
)

// SessionController handles study session endpoints
type SessionController struct {
	sessionService services.SessionService
	maxUploadBytes int64
	logger         zerolog.Logger
}

// NewSessionController creates a new SessionController
func NewSessionController(sessionService services.SessionService, maxUploadBytes int64, logger zerolog.Logger) *SessionController {
	return &SessionController{
		sessionService: sessionService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// LogSession records a session from the multipart session form
func (c *SessionController) LogSession(ctx *gin.Context) {
	if c.maxUploadBytes > 0 {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxUploadBytes)
	}

	var req dto.LogSessionRequest
	if err := ctx.ShouldBind(&req); err != nil {
		c.rejectForm(ctx, err)
		return
	}

	att, err := c.attachment(ctx)
	if err != nil {
		c.rejectForm(ctx, err)
		return
	}

	session, err := c.sessionService.LogSession(ctx.Request.Context(), &req, att)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(session, "Session logged successfully"))
}

func (c *SessionController) rejectForm(ctx *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.logger.Warn().Int64("limit", tooLarge.Limit).Msg("Session upload too large")
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Upload too large")
		ctx.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(errorDetail))
		return
	}
	if errors.Is(err, apperrors.ErrInvalidAttachment) {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Warn().Err(err).Msg("Invalid session form")
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Invalid form data")
	ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
}

// attachment returns the proof artifact of the form, or nil when none was sent
func (c *SessionController) attachment(ctx *gin.Context) (*dto.Attachment, error) {
	for _, field := range []struct {
		name string
		kind models.ProofKind
	}{
		{FieldCompletedPDF, models.ProofPDF},
		{FieldSignature, models.ProofSignature},
	} {
		fh, err := ctx.FormFile(field.name)
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
				continue
			}
			return nil, err
		}
		if fh.Size == 0 {
			continue
		}
		data, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		return &dto.Attachment{Kind: field.kind, Filename: fh.Filename, Data: data}, nil
	}

	raw := ctx.PostForm(FieldSignatureData)
	if raw == "" {
		return nil, nil
	}
	mediaType, data, err := filestorage.DecodeDataURL(raw)
	if err != nil || mediaType != "image/png" {
		return nil, &apperrors.CustomError{Err: apperrors.ErrInvalidAttachment, Message: "signature_data must be a PNG data URL"}
	}
	return &dto.Attachment{Kind: models.ProofSignature, Data: data}, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// ListSessions returns a page of sessions, newest first
func (c *SessionController) ListSessions(ctx *gin.Context) {
	studentID, ok := helpers.ParseOptionalID(ctx, "student_id")
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "student_id must be a positive integer").WithField("student_id")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	result, err := c.sessionService.ListSessions(ctx.Request.Context(), &dto.SessionFilterRequest{
		StudentID: studentID,
		Page:      page,
		PageSize:  size,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(result, ""))
}

// GetSession returns one session with its proof link
func (c *SessionController) GetSession(ctx *gin.Context) {
	id, ok := parseIDParam(ctx)
	if !ok {
		return
	}

	session, err := c.sessionService.GetSession(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(session, ""))
}

// GetProof streams a locally stored proof or redirects to a presigned URL
func (c *SessionController) GetProof(ctx *gin.Context) {
	id, ok := parseIDParam(ctx)
	if !ok {
		return
	}

	proof, err := c.sessionService.OpenProof(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if proof.RedirectURL != "" {
		ctx.Redirect(http.StatusFound, proof.RedirectURL)
		return
	}

	defer proof.Body.Close()
	ctx.DataFromReader(http.StatusOK, -1, proof.ContentType, proof.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", proof.Filename),
		"Cache-Control":       "private, no-store",
	})
}

func parseIDParam(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Invalid ID format").WithField("id")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}
