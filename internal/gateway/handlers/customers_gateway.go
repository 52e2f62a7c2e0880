package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"backoffice-system/internal/database/models"
	customers "backoffice-system/internal/services/customers/handler"
)

type CustomerService interface {
	CreateCustomer(ctx context.Context, req customers.CreateCustomerRequest) (*models.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	ListCustomers(ctx context.Context, f customers.ListCustomersFilter) (*customers.CustomerPage, error)
	UpdateCustomer(ctx context.Context, id int64, req customers.UpdateCustomerRequest) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
}

type CustomerHTTPHandler struct {
	customers CustomerService
	logger    *logrus.Logger
}

func NewCustomerHTTPHandler(svc CustomerService, logger *logrus.Logger) *CustomerHTTPHandler {
	return &CustomerHTTPHandler{customers: svc, logger: logger}
}

func (h *CustomerHTTPHandler) CreateCustomer(c *gin.Context) {
	var req customers.CreateCustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customers.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse("Customer created successfully", customer))
}

func (h *CustomerHTTPHandler) GetCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	customer, err := h.customers.GetCustomer(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Customer retrieved successfully", customer))
}

func (h *CustomerHTTPHandler) ListCustomers(c *gin.Context) {
	page, err := h.customers.ListCustomers(c.Request.Context(), customers.ListCustomersFilter{
		Search:   c.Query("search"),
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 50),
	})
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse("Customers retrieved successfully", page.Customers, gin.H{
		"total":     page.Total,
		"page":      page.Page,
		"page_size": page.PageSize,
	}))
}

func (h *CustomerHTTPHandler) UpdateCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req customers.UpdateCustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customers.UpdateCustomer(c.Request.Context(), id, req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Customer updated successfully", customer))
}

func (h *CustomerHTTPHandler) DeleteCustomer(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.customers.DeleteCustomer(c.Request.Context(), id); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Customer deleted successfully", nil))
}
