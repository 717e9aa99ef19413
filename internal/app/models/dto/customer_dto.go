package dto

import "github.com/tutorlog/sessionlog/internal/app/models"

// CreateCustomerRequest is the body of POST /api/customers
type CreateCustomerRequest struct {
	FirstName string  `json:"first_name" binding:"required,max=100"`
	LastName  string  `json:"last_name" binding:"required,max=100"`
	Email     *string `json:"email" binding:"omitempty,email,max=255"`
	Phone     *string `json:"phone" binding:"omitempty,max=50"`
	Address   *string `json:"address" binding:"omitempty,max=500"`
}

// CustomerResponse is one entry of the customer dropdown list
type CustomerResponse struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Email              *string `json:"email"`
	FastbillCustomerID *string `json:"fastbillCustomerId"`
}

// FromCustomer converts a model to its response
func FromCustomer(c *models.Customer) CustomerResponse {
	return CustomerResponse{
		ID:                 c.ID,
		Name:               c.FullName(),
		Email:              c.Email,
		FastbillCustomerID: c.FastbillCustomerID,
	}
}

// SyncResult summarises a billing import run
type SyncResult struct {
	Fetched int `json:"fetched"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}
