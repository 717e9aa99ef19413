package models

import (
	"strings"
	"time"
)

// Student receives tutoring and belongs to exactly one customer
type Student struct {
	ID         int64     `json:"id" db:"id"`
	FirstName  string    `json:"firstName" db:"first_name"`
	LastName   string    `json:"lastName" db:"last_name"`
	CustomerID int64     `json:"customerId" db:"customer_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	Customer   *Customer `json:"customer,omitempty"` // Relation, no db tag
}

// FullName joins first and last name
func (s *Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}
