package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/tutorlog/sessionlog/internal/app/models"
	"github.com/tutorlog/sessionlog/internal/app/models/dto"
	"github.com/tutorlog/sessionlog/internal/app/repositories"
	"github.com/tutorlog/sessionlog/internal/db"
	"github.com/tutorlog/sessionlog/internal/pkg/apperrors"
	"github.com/tutorlog/sessionlog/internal/pkg/filestorage"
	"github.com/tutorlog/sessionlog/internal/pkg/helpers"
	"github.com/tutorlog/sessionlog/internal/pkg/metrics"
	"github.com/tutorlog/sessionlog/internal/pkg/validation"
)

// Client-facing messages of the session form
const (
	MsgMissingSessionFields = "All fields and signature are required"
	MsgSessionPersistence   = "Error committing session to database"
)

const (
	pdfDir       = "completed_forms"
	signatureDir = "signatures"
)

// SessionService defines the interface for study session operations
type SessionService interface {
	LogSession(ctx context.Context, req *dto.LogSessionRequest, att *dto.Attachment) (*dto.SessionResponse, error)
	ListSessions(ctx context.Context, filter *dto.SessionFilterRequest) (*dto.SessionListResponse, error)
	GetSession(ctx context.Context, id int64) (*dto.SessionResponse, error)
	OpenProof(ctx context.Context, id int64) (*Proof, error)
}

// Proof is a resolved proof artifact: either a redirect target or a stream
type Proof struct {
	RedirectURL string
	Body        io.ReadCloser
	ContentType string
	Filename    string
}

// SessionConfig tunes proof links
type SessionConfig struct {
	PresignTTL time.Duration
	// ProofRoute builds the download route for locally stored proofs
	ProofRoute func(id int64) string
}

type sessionServiceImpl struct {
	sessions SessionStore
	inTx     SessionTx
	students StudentStore
	store    ProofStore
	cfg      SessionConfig
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(
	sessions SessionStore,
	inTx SessionTx,
	students StudentStore,
	store ProofStore,
	cfg SessionConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) SessionService {
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = time.Hour
	}
	if cfg.ProofRoute == nil {
		cfg.ProofRoute = func(id int64) string { return "/sessions/" + strconv.FormatInt(id, 10) + "/proof" }
	}
	return &sessionServiceImpl{
		sessions: sessions,
		inTx:     inTx,
		students: students,
		store:    store,
		cfg:      cfg,
		metrics:  m,
		logger:   logger,
	}
}

// NewSessionTx binds the session repository to transactions started on b
func NewSessionTx(b db.TxBeginner, repo *repositories.SessionRepository) SessionTx {
	return func(ctx context.Context, fn func(ctx context.Context, sessions SessionStore) error) error {
		return db.WithTransaction(ctx, b, func(ctx context.Context, tx pgx.Tx) error {
			return fn(ctx, repo.WithTx(tx))
		})
	}
}

// LogSession validates the form, stores the proof artifact and then inserts
// the session row. A failed insert leaves the stored artifact behind.
func (s *sessionServiceImpl) LogSession(ctx context.Context, req *dto.LogSessionRequest, att *dto.Attachment) (*dto.SessionResponse, error) {
	session, err := s.buildSession(req, att)
	if err != nil {
		return nil, err
	}

	contentType, err := checkAttachment(att)
	if err != nil {
		return nil, err
	}

	student, err := s.students.GetByID(ctx, session.StudentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return nil, apperrors.NewValidationError("Unknown student")
		}
		return nil, fmt.Errorf("error loading student: %w", err)
	}
	session.StudentName = student.FullName()

	saveReq := filestorage.SaveRequest{ContentType: contentType, Data: att.Data}
	if att.Kind == models.ProofPDF {
		saveReq.Dir, saveReq.Ext = pdfDir, ".pdf"
	} else {
		saveReq.Dir, saveReq.NamePrefix, saveReq.Ext = signatureDir, "signature_", ".png"
	}

	obj, err := s.store.Save(ctx, saveReq)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to store proof artifact")
		return nil, fmt.Errorf("error storing proof artifact: %w", err)
	}
	session.ProofKey = obj.Key
	session.ProofBackend = string(obj.Backend)

	err = s.inTx(ctx, func(ctx context.Context, sessions SessionStore) error {
		return sessions.Create(ctx, session)
	})
	if err != nil {
		s.logger.Error().Err(err).
			Str("orphanKey", obj.Key).
			Str("backend", string(obj.Backend)).
			Msg("Error committing session to database, proof artifact left orphaned")
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return nil, apperrors.NewValidationError("Unknown student")
		}
		return nil, &apperrors.CustomError{Err: apperrors.ErrSessionPersistence, Message: MsgSessionPersistence}
	}

	s.metrics.SessionLogged(string(session.ProofKind), session.ProofBackend)
	s.logger.Info().
		Int64("sessionID", session.ID).
		Int64("studentID", session.StudentID).
		Str("proofKey", session.ProofKey).
		Msg("Session logged")

	resp := dto.FromSession(session, s.proofURL(ctx, session))
	return &resp, nil
}

func (s *sessionServiceImpl) buildSession(req *dto.LogSessionRequest, att *dto.Attachment) (*models.StudySession, error) {
	fields := []string{req.StudentID, req.Date, req.StartTime, req.EndTime, req.SessionTopic, req.SignaturePresent}
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return nil, missingFields()
		}
	}
	if att == nil || len(att.Data) == 0 || !att.Kind.Valid() {
		return nil, missingFields()
	}

	studentID, err := strconv.ParseInt(strings.TrimSpace(req.StudentID), 10, 64)
	if err != nil || studentID <= 0 {
		return nil, apperrors.NewValidationError("student_id must be a positive integer")
	}

	date, ok := validation.ParseDate(req.Date)
	if !ok {
		return nil, apperrors.NewValidationError("date must use the format YYYY-MM-DD")
	}

	start, okStart := validation.ParseClock(req.StartTime)
	end, okEnd := validation.ParseClock(req.EndTime)
	if !okStart || !okEnd {
		return nil, apperrors.NewValidationError("start_time and end_time must use the format HH:MM")
	}
	if end <= start {
		return nil, apperrors.NewValidationError("end_time must be after start_time")
	}

	topic := validation.SanitizeText(req.SessionTopic)
	if !validation.NewStringValidation(topic).WithMaxLength(validation.TopicMaxLength).Validate() {
		return nil, apperrors.NewValidationError("session_topic must be between 1 and 500 characters")
	}

	signaturePresent, ok := parseFormBool(req.SignaturePresent)
	if !ok {
		return nil, apperrors.NewValidationError("signature_present must be true or false")
	}

	return &models.StudySession{
		StudentID:        studentID,
		Date:             date,
		StartTime:        strings.TrimSpace(req.StartTime),
		EndTime:          strings.TrimSpace(req.EndTime),
		SessionTopic:     topic,
		SignaturePresent: signaturePresent,
		ProofKind:        att.Kind,
	}, nil
}

func missingFields() error {
	return &apperrors.CustomError{Err: apperrors.ErrMissingFields, Message: MsgMissingSessionFields}
}

// checkAttachment sniffs the payload and returns its content type
func checkAttachment(att *dto.Attachment) (string, error) {
	mt := mimetype.Detect(att.Data)
	switch att.Kind {
	case models.ProofPDF:
		if mt.Is("application/pdf") {
			return "application/pdf", nil
		}
		return "", &apperrors.CustomError{Err: apperrors.ErrInvalidAttachment, Message: "completed_pdf must be a PDF document"}
	case models.ProofSignature:
		if mt.Is("image/png") {
			return "image/png", nil
		}
		return "", &apperrors.CustomError{Err: apperrors.ErrInvalidAttachment, Message: "signature must be a PNG image"}
	}
	return "", apperrors.ErrInvalidAttachment
}

func parseFormBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "on", "yes":
		return true, true
	case "false", "0", "off", "no":
		return false, true
	}
	return false, false
}

// ListSessions returns a page of sessions, newest first
func (s *sessionServiceImpl) ListSessions(ctx context.Context, filter *dto.SessionFilterRequest) (*dto.SessionListResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.PageSize)

	sessions, total, err := s.sessions.List(ctx, filter.StudentID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}

	out := make([]dto.SessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, dto.FromSession(sess, ""))
	}

	return &dto.SessionListResponse{
		Sessions:   out,
		Pagination: helpers.NewPaginationInfo(total, filter.Page, limit),
	}, nil
}

// GetSession returns one session with a link to its proof
func (s *sessionServiceImpl) GetSession(ctx context.Context, id int64) (*dto.SessionResponse, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.FromSession(session, s.proofURL(ctx, session))
	return &resp, nil
}

// OpenProof resolves where the proof of a session can be fetched
func (s *sessionServiceImpl) OpenProof(ctx context.Context, id int64) (*Proof, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	backend := filestorage.Backend(session.ProofBackend)
	if backend != filestorage.BackendLocal {
		url, err := s.store.URL(ctx, backend, session.ProofKey, s.cfg.PresignTTL)
		if err != nil {
			return nil, fmt.Errorf("error presigning proof: %w", err)
		}
		return &Proof{RedirectURL: url}, nil
	}

	body, err := s.store.Open(ctx, backend, session.ProofKey)
	if err != nil {
		if errors.Is(err, filestorage.ErrNotFound) {
			s.logger.Error().Int64("sessionID", id).Str("key", session.ProofKey).Msg("Proof artifact missing from storage")
			return nil, apperrors.NewResourceNotFoundError("Proof artifact not found")
		}
		return nil, fmt.Errorf("error opening proof: %w", err)
	}

	contentType := "image/png"
	if session.ProofKind == models.ProofPDF {
		contentType = "application/pdf"
	}
	return &Proof{Body: body, ContentType: contentType, Filename: path.Base(session.ProofKey)}, nil
}

func (s *sessionServiceImpl) proofURL(ctx context.Context, session *models.StudySession) string {
	backend := filestorage.Backend(session.ProofBackend)
	if backend == filestorage.BackendLocal {
		return s.cfg.ProofRoute(session.ID)
	}
	url, err := s.store.URL(ctx, backend, session.ProofKey, s.cfg.PresignTTL)
	if err != nil {
		s.logger.Warn().Err(err).Int64("sessionID", session.ID).Msg("Failed to presign proof URL, using download route")
		return s.cfg.ProofRoute(session.ID)
	}
	return url
}
