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

// StudentRepository handles database operations for students
type StudentRepository struct {
	db db.DBTX
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(conn db.DBTX) *StudentRepository {
	return &StudentRepository{db: conn}
}

// WithTx returns a copy of the repository bound to tx
func (r *StudentRepository) WithTx(tx db.DBTX) *StudentRepository {
	return &StudentRepository{db: tx}
}

// Create inserts a student
func (r *StudentRepository) Create(ctx context.Context, s *models.Student) error {
	query := squirrel.Insert("students").
		Columns("first_name", "last_name", "customer_id").
		Values(s.FirstName, s.LastName, s.CustomerID).
		Suffix("RETURNING id, created_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.CreatedAt); err != nil {
		switch {
		case dberrors.IsUniqueViolation(err):
			return apperrors.ErrStudentAlreadyExists
		case dberrors.IsForeignKeyViolation(err):
			return apperrors.ErrCustomerNotFound
		}
		return fmt.Errorf("error inserting student: %w", err)
	}
	return nil
}

// GetByID retrieves a student by ID
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	query := squirrel.Select("id", "first_name", "last_name", "customer_id", "created_at").
		From("students").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var s models.Student
	err = r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.FirstName, &s.LastName, &s.CustomerID, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}
	return &s, nil
}

// List returns students ordered by name, optionally limited to one customer
func (r *StudentRepository) List(ctx context.Context, customerID *int64) ([]*models.Student, error) {
	query := squirrel.Select("id", "first_name", "last_name", "customer_id", "created_at").
		From("students").
		OrderBy("last_name", "first_name", "id").
		PlaceholderFormat(squirrel.Dollar)

	if customerID != nil {
		query = query.Where(squirrel.Eq{"customer_id": *customerID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	students := make([]*models.Student, 0)
	for rows.Next() {
		var s models.Student
		if err := rows.Scan(&s.ID, &s.FirstName, &s.LastName, &s.CustomerID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		students = append(students, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return students, nil
}
