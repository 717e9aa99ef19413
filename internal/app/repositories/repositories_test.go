package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tutorlog/sessionlog/internal/app/models"
	"github.com/tutorlog/sessionlog/internal/pkg/apperrors"
)

func strPtr(s string) *string { return &s }

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestCustomerRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewCustomerRepository(mock)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO customers").
		WithArgs("Ada", "Lovelace", strPtr("ada@example.com"), (*string)(nil), (*string)(nil), (*string)(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))

	c := &models.Customer{FirstName: "Ada", LastName: "Lovelace", Email: strPtr("ada@example.com")}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.EqualValues(t, 7, c.ID)
	assert.Equal(t, now, c.CreatedAt)
}

func TestCustomerRepository_CreateDuplicateEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewCustomerRepository(mock)

	mock.ExpectQuery("INSERT INTO customers").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: constraintCustomerEmail})

	err := repo.Create(context.Background(), &models.Customer{FirstName: "A", LastName: "B", Email: strPtr("x@y.de")})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
}

func TestCustomerRepository_CreateDuplicateFastbillID(t *testing.T) {
	mock := newMock(t)
	repo := NewCustomerRepository(mock)

	mock.ExpectQuery("INSERT INTO customers").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: constraintCustomerFastbillID})

	err := repo.Create(context.Background(), &models.Customer{FirstName: "A", LastName: "B", FastbillCustomerID: strPtr("42")})
	assert.ErrorIs(t, err, apperrors.ErrFastbillIDConflict)
}

func TestCustomerRepository_GetByIDNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewCustomerRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM customers WHERE id = \\$1").
		WithArgs(int64(99)).
		WillReturnRows(pgxmock.NewRows(customerColumns))

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, apperrors.ErrCustomerNotFound)
}

func TestCustomerRepository_List(t *testing.T) {
	mock := newMock(t)
	repo := NewCustomerRepository(mock)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM customers ORDER BY last_name, first_name, id").
		WillReturnRows(pgxmock.NewRows(customerColumns).
			AddRow(int64(1), "Ada", "Lovelace", strPtr("ada@example.com"), (*string)(nil), (*string)(nil), strPtr("100"), now).
			AddRow(int64(2), "Alan", "Turing", (*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil), now))

	customers, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, "Ada Lovelace", customers[0].FullName())
	assert.Equal(t, "100", *customers[0].FastbillCustomerID)
	assert.Nil(t, customers[1].Email)
}

func TestCustomerRepository_FastbillIDs(t *testing.T) {
	mock := newMock(t)
	repo := NewCustomerRepository(mock)

	mock.ExpectQuery("SELECT fastbill_customer_id FROM customers").
		WillReturnRows(pgxmock.NewRows([]string{"fastbill_customer_id"}).AddRow("10").AddRow("11"))

	ids, err := repo.FastbillIDs(context.Background())
	require.NoError(t, err)
	assert.Contains(t, ids, "10")
	assert.Contains(t, ids, "11")
	assert.Len(t, ids, 2)
}

func TestCustomerRepository_EmailExists(t *testing.T) {
	mock := newMock(t)
	repo := NewCustomerRepository(mock)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("Ada@Example.com").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.EmailExists(context.Background(), " Ada@Example.com ")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStudentRepository_CreateUnknownCustomer(t *testing.T) {
	mock := newMock(t)
	repo := NewStudentRepository(mock)

	mock.ExpectQuery("INSERT INTO students").
		WithArgs("Tim", "Lovelace", int64(5)).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := repo.Create(context.Background(), &models.Student{FirstName: "Tim", LastName: "Lovelace", CustomerID: 5})
	assert.ErrorIs(t, err, apperrors.ErrCustomerNotFound)
}

func TestStudentRepository_CreateDuplicate(t *testing.T) {
	mock := newMock(t)
	repo := NewStudentRepository(mock)

	mock.ExpectQuery("INSERT INTO students").
		WithArgs("Tim", "Lovelace", int64(5)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "students_customer_name_key"})

	err := repo.Create(context.Background(), &models.Student{FirstName: "Tim", LastName: "Lovelace", CustomerID: 5})
	assert.ErrorIs(t, err, apperrors.ErrStudentAlreadyExists)
}

func TestStudentRepository_ListByCustomer(t *testing.T) {
	mock := newMock(t)
	repo := NewStudentRepository(mock)
	customerID := int64(5)

	mock.ExpectQuery("SELECT (.+) FROM students WHERE customer_id = \\$1 ORDER BY").
		WithArgs(customerID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "first_name", "last_name", "customer_id", "created_at"}).
			AddRow(int64(3), "Tim", "Lovelace", customerID, time.Now()))

	students, err := repo.List(context.Background(), &customerID)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Tim Lovelace", students[0].FullName())
}

func TestStudentRepository_GetByIDNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewStudentRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM students WHERE id = \\$1").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "first_name", "last_name", "customer_id", "created_at"}))

	_, err := repo.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
}

func TestSessionRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewSessionRepository(mock)
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO study_sessions").
		WithArgs(int64(3), "Tim Lovelace", date, "15:00", "16:30", "Fractions", true, "pdf", "completed_forms/x.pdf", "r2").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), now))

	s := &models.StudySession{
		StudentID:        3,
		StudentName:      "Tim Lovelace",
		Date:             date,
		StartTime:        "15:00",
		EndTime:          "16:30",
		SessionTopic:     "Fractions",
		SignaturePresent: true,
		ProofKind:        models.ProofPDF,
		ProofKey:         "completed_forms/x.pdf",
		ProofBackend:     "r2",
	}
	require.NoError(t, repo.Create(context.Background(), s))
	assert.EqualValues(t, 11, s.ID)
}

func TestSessionRepository_ListWithTotal(t *testing.T) {
	mock := newMock(t)
	repo := NewSessionRepository(mock)
	studentID := int64(3)
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	cols := append(append([]string{}, sessionColumns...), "count")
	mock.ExpectQuery("SELECT (.+), COUNT\\(\\*\\) OVER\\(\\) FROM study_sessions WHERE student_id = \\$1 ORDER BY date DESC, start_time DESC, id DESC LIMIT 10 OFFSET 10").
		WithArgs(studentID).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(int64(11), studentID, "Tim Lovelace", date, "15:00", "16:30", "Fractions", true, models.ProofPDF, "completed_forms/x.pdf", "local", time.Now(), int64(12)))

	sessions, total, err := repo.List(context.Background(), &studentID, 10, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.EqualValues(t, 12, total)
	assert.Equal(t, models.ProofPDF, sessions[0].ProofKind)
}

func TestSessionRepository_GetByIDNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewSessionRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM study_sessions WHERE id = \\$1").
		WithArgs(int64(404)).
		WillReturnRows(pgxmock.NewRows(sessionColumns))

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}
