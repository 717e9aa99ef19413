package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/tutorlog/sessionlog/internal/app/models"
	"github.com/tutorlog/sessionlog/internal/db"
	"github.com/tutorlog/sessionlog/internal/pkg/apperrors"
	"github.com/tutorlog/sessionlog/internal/pkg/dberrors"
)

const (
	constraintCustomerEmail      = "customers_email_lower_key"
	constraintCustomerFastbillID = "customers_fastbill_customer_id_key"
)

var customerColumns = []string{
	"id", "first_name", "last_name", "email", "phone", "address", "fastbill_customer_id", "created_at",
}

// CustomerRepository handles database operations for customers
type CustomerRepository struct {
	db db.DBTX
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(conn db.DBTX) *CustomerRepository {
	return &CustomerRepository{db: conn}
}

// WithTx returns a copy of the repository bound to tx
func (r *CustomerRepository) WithTx(tx db.DBTX) *CustomerRepository {
	return &CustomerRepository{db: tx}
}

// Create inserts a customer and fills in its id and creation time
func (r *CustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	query := squirrel.Insert("customers").
		Columns("first_name", "last_name", "email", "phone", "address", "fastbill_customer_id").
		Values(c.FirstName, c.LastName, c.Email, c.Phone, c.Address, c.FastbillCustomerID).
		Suffix("RETURNING id, created_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, constraintCustomerEmail):
			return apperrors.ErrEmailAlreadyExists
		case dberrors.IsDuplicateConstraintError(err, constraintCustomerFastbillID):
			return apperrors.ErrFastbillIDConflict
		case dberrors.IsUniqueViolation(err):
			return apperrors.ErrResourceAlreadyExists
		}
		return fmt.Errorf("error inserting customer: %w", err)
	}

	return nil
}

// GetByID retrieves a customer by ID
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	query := squirrel.Select(customerColumns...).
		From("customers").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	c, err := scanCustomer(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("error retrieving customer: %w", err)
	}
	return c, nil
}

// List returns all customers ordered by last and first name
func (r *CustomerRepository) List(ctx context.Context) ([]*models.Customer, error) {
	query := squirrel.Select(customerColumns...).
		From("customers").
		OrderBy("last_name", "first_name", "id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	customers := make([]*models.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		customers = append(customers, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return customers, nil
}

// EmailExists checks case-insensitively whether a customer already uses email
func (r *CustomerRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM customers WHERE LOWER(email) = LOWER($1))`,
		strings.TrimSpace(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking customer email: %w", err)
	}
	return exists, nil
}

// FastbillIDs returns the set of FastBill customer ids already imported
func (r *CustomerRepository) FastbillIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.Query(ctx, `SELECT fastbill_customer_id FROM customers WHERE fastbill_customer_id IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		ids[id] = struct{}{}
	}

	return ids, rows.Err()
}

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&c.Address,
		&c.FastbillCustomerID,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
