package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tutorlog/sessionlog/internal/app/models/dto"
	"github.com/tutorlog/sessionlog/internal/app/services"
	"github.com/tutorlog/sessionlog/internal/middleware"
)

// CustomerController handles customer endpoints and the billing import
type CustomerController struct {
	customerService services.CustomerService
	billingService  services.BillingService
	logger          zerolog.Logger
}

// NewCustomerController creates a new CustomerController
func NewCustomerController(customerService services.CustomerService, billingService services.BillingService, logger zerolog.Logger) *CustomerController {
	return &CustomerController{
		customerService: customerService,
		billingService:  billingService,
		logger:          logger,
	}
}

// ListCustomers returns all customers
func (c *CustomerController) ListCustomers(ctx *gin.Context) {
	customers, err := c.customerService.ListCustomers(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, customers)
}

// CreateCustomer creates a customer from a JSON body
func (c *CustomerController) CreateCustomer(ctx *gin.Context) {
	var req dto.CreateCustomerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid customer request payload")
		errorDetail := dto.HandleValidationError(err)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	customer, err := c.customerService.CreateCustomer(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, customer)
}

// SyncCustomers imports new customers from FastBill
func (c *CustomerController) SyncCustomers(ctx *gin.Context) {
	result, err := c.billingService.SyncCustomers(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}
