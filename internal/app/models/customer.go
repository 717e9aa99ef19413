package models

import (
	"strings"
	"time"
)

// Customer is the paying party, usually a parent. Defined by the 'customers' table.
type Customer struct {
	ID                 int64     `json:"id" db:"id"`
	FirstName          string    `json:"firstName" db:"first_name"`
	LastName           string    `json:"lastName" db:"last_name"`
	Email              *string   `json:"email,omitempty" db:"email"`
	Phone              *string   `json:"phone,omitempty" db:"phone"`
	Address            *string   `json:"address,omitempty" db:"address"`
	FastbillCustomerID *string   `json:"fastbillCustomerId,omitempty" db:"fastbill_customer_id"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
}

// FullName joins first and last name
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
