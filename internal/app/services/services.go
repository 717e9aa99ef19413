package services

import (
	"context"
	"io"
	"time"

	"github.com/tutorlog/sessionlog/internal/app/models"
	"github.com/tutorlog/sessionlog/internal/pkg/fastbill"
	"github.com/tutorlog/sessionlog/internal/pkg/filestorage"
)

// Services defined in this package:
// - AuthService: static administrator login and session tokens
// - CustomerService: customers (paying parties)
// - StudentService: students belonging to customers
// - SessionService: logging tutoring sessions with a proof artifact
// - BillingService: importing customers from FastBill

// CustomerStore is the persistence needed for customers
type CustomerStore interface {
	Create(ctx context.Context, c *models.Customer) error
	GetByID(ctx context.Context, id int64) (*models.Customer, error)
	List(ctx context.Context) ([]*models.Customer, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	FastbillIDs(ctx context.Context) (map[string]struct{}, error)
}

// StudentStore is the persistence needed for students
type StudentStore interface {
	Create(ctx context.Context, s *models.Student) error
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	List(ctx context.Context, customerID *int64) ([]*models.Student, error)
}

// SessionStore is the persistence needed for study sessions
type SessionStore interface {
	Create(ctx context.Context, s *models.StudySession) error
	GetByID(ctx context.Context, id int64) (*models.StudySession, error)
	List(ctx context.Context, studentID *int64, offset uint64, limit int) ([]*models.StudySession, int64, error)
}

// SessionTx runs fn with a SessionStore bound to a single database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type SessionTx func(ctx context.Context, fn func(ctx context.Context, sessions SessionStore) error) error

// ProofStore keeps proof artifacts
type ProofStore interface {
	Save(ctx context.Context, req filestorage.SaveRequest) (*filestorage.Object, error)
	Open(ctx context.Context, backend filestorage.Backend, key string) (io.ReadCloser, error)
	URL(ctx context.Context, backend filestorage.Backend, key string, ttl time.Duration) (string, error)
}

// CustomerSource lists customers of the billing system
type CustomerSource interface {
	ListCustomers(ctx context.Context) ([]fastbill.Customer, error)
}
