package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/tutorlog/sessionlog/internal/app/models"
	"github.com/tutorlog/sessionlog/internal/db"
	"github.com/tutorlog/sessionlog/internal/pkg/apperrors"
	"github.com/tutorlog/sessionlog/internal/pkg/dberrors"
)

var sessionColumns = []string{
	"id", "student_id", "student_name", "date", "start_time", "end_time",
	"session_topic", "signature_present", "proof_kind", "proof_key", "proof_backend", "created_at",
}

// SessionRepository handles database operations for study sessions
type SessionRepository struct {
	db db.DBTX
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(conn db.DBTX) *SessionRepository {
	return &SessionRepository{db: conn}
}

// WithTx returns a copy of the repository bound to tx
func (r *SessionRepository) WithTx(tx db.DBTX) *SessionRepository {
	return &SessionRepository{db: tx}
}

// Create inserts a session
func (r *SessionRepository) Create(ctx context.Context, s *models.StudySession) error {
	query := squirrel.Insert("study_sessions").
		Columns("student_id", "student_name", "date", "start_time", "end_time",
			"session_topic", "signature_present", "proof_kind", "proof_key", "proof_backend").
		Values(s.StudentID, s.StudentName, s.Date, s.StartTime, s.EndTime,
			s.SessionTopic, s.SignaturePresent, string(s.ProofKind), s.ProofKey, s.ProofBackend).
		Suffix("RETURNING id, created_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.CreatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrStudentNotFound
		}
		return fmt.Errorf("error inserting session: %w", err)
	}
	return nil
}

// GetByID retrieves a session by ID
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.StudySession, error) {
	query := squirrel.Select(sessionColumns...).
		From("study_sessions").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var s models.StudySession
	if err := r.db.QueryRow(ctx, sql, args...).Scan(sessionFields(&s)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("error retrieving session: %w", err)
	}
	return &s, nil
}

// List returns sessions newest first together with the total number of matches
func (r *SessionRepository) List(ctx context.Context, studentID *int64, offset uint64, limit int) ([]*models.StudySession, int64, error) {
	query := squirrel.Select(sessionColumns...).
		Column("COUNT(*) OVER()").
		From("study_sessions").
		OrderBy("date DESC", "start_time DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(offset).
		PlaceholderFormat(squirrel.Dollar)

	if studentID != nil {
		query = query.Where(squirrel.Eq{"student_id": *studentID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	sessions := make([]*models.StudySession, 0)
	var total int64
	for rows.Next() {
		var s models.StudySession
		if err := rows.Scan(append(sessionFields(&s), &total)...); err != nil {
			return nil, 0, fmt.Errorf("error scanning row: %w", err)
		}
		sessions = append(sessions, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

func sessionFields(s *models.StudySession) []any {
	return []any{
		&s.ID,
		&s.StudentID,
		&s.StudentName,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.SessionTopic,
		&s.SignaturePresent,
		&s.ProofKind,
		&s.ProofKey,
		&s.ProofBackend,
		&s.CreatedAt,
	}
}
