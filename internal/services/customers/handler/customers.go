package handler

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"backoffice-system/internal/database/models"
	"backoffice-system/internal/errs"
)

const recentOrdersLimit = 10

var nationalIDPattern = regexp.MustCompile(`^\d{8,10}$`)

type CustomerHandler struct {
	db       *gorm.DB
	logger   *logrus.Logger
	validate *validator.Validate
}

func NewCustomerHandler(db *gorm.DB, logger *logrus.Logger) *CustomerHandler {
	return &CustomerHandler{
		db:       db,
		logger:   logger,
		validate: validator.New(),
	}
}

type CreateCustomerRequest struct {
	NationalID string  `json:"national_id"`
	Name       string  `json:"name"`
	Email      *string `json:"email,omitempty"`
	Phone      string  `json:"phone"`
	Address    *string `json:"address,omitempty"`
	City       *string `json:"city,omitempty"`
}

type UpdateCustomerRequest struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	City    *string `json:"city,omitempty"`
}

// normalizeEmail lower-cases and checks an optional address. A blank value
// clears the field.
func (s *CustomerHandler) normalizeEmail(v *errs.ValidationError, email *string) *string {
	if email == nil {
		return nil
	}
	e := strings.ToLower(strings.TrimSpace(*email))
	if e == "" {
		return nil
	}
	if err := s.validate.Var(e, "email"); err != nil {
		v.Add("email", "email is not valid")
	}
	return &e
}

func (s *CustomerHandler) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*models.Customer, error) {
	v := &errs.ValidationError{}

	nationalID := strings.TrimSpace(req.NationalID)
	if nationalID == "" {
		v.Add("national_id", "national id is required")
	} else if !nationalIDPattern.MatchString(nationalID) {
		v.Add("national_id", "national id must have 8 to 10 digits")
	}
	name := strings.ToUpper(strings.TrimSpace(req.Name))
	if name == "" {
		v.Add("name", "name is required")
	}
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		v.Add("phone", "phone is required")
	}
	email := s.normalizeEmail(v, req.Email)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.Customer{}).
		Where("national_id = ?", nationalID).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check national id: %w", err)
	}
	if existing > 0 {
		return nil, errs.Conflict("a customer with national id %s already exists", nationalID)
	}

	customer := models.Customer{
		NationalID: nationalID,
		Name:       name,
		Email:      email,
		Phone:      phone,
		Address:    trimmedOrNil(req.Address),
		City:       trimmedOrNil(req.City),
		Active:     true,
	}
	if err := s.db.WithContext(ctx).Create(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.Conflict("a customer with national id %s already exists", nationalID)
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.WithField("customer_id", customer.ID).Info("Customer created")
	return &customer, nil
}

// GetCustomer returns the customer with its most recent orders.
func (s *CustomerHandler) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("customer", id)
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Where("customer_id = ?", id).
		Order("order_date DESC").
		Limit(recentOrdersLimit).
		Find(&customer.Orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load customer orders: %w", err)
	}
	return &customer, nil
}

type ListCustomersFilter struct {
	Search   string
	Page     int
	PageSize int
}

type CustomerPage struct {
	Customers []models.Customer `json:"customers"`
	Total     int64             `json:"total"`
	Page      int               `json:"page"`
	PageSize  int               `json:"page_size"`
}

func (s *CustomerHandler) ListCustomers(ctx context.Context, f ListCustomersFilter) (*CustomerPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 50
	}

	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("active = ?", true)
		if search := strings.TrimSpace(f.Search); search != "" {
			like := "%" + strings.ToLower(search) + "%"
			db = db.Where("LOWER(name) LIKE ? OR national_id LIKE ?", like, like)
		}
		return db
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Customer{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}

	var customers []models.Customer
	if err := s.db.WithContext(ctx).Scopes(scope).
		Order("name ASC").
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Find(&customers).Error; err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	return &CustomerPage{Customers: customers, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

// UpdateCustomer edits contact data. The national id cannot change.
func (s *CustomerHandler) UpdateCustomer(ctx context.Context, id int64, req UpdateCustomerRequest) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("customer", id)
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}

	v := &errs.ValidationError{}
	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.ToUpper(strings.TrimSpace(*req.Name))
		if name == "" {
			v.Add("name", "name cannot be empty")
		}
		updates["name"] = name
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone == "" {
			v.Add("phone", "phone cannot be empty")
		}
		updates["phone"] = phone
	}
	if req.Email != nil {
		updates["email"] = s.normalizeEmail(v, req.Email)
	}
	if req.Address != nil {
		updates["address"] = trimmedOrNil(req.Address)
	}
	if req.City != nil {
		updates["city"] = trimmedOrNil(req.City)
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&customer).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update customer: %w", err)
		}
	}
	return s.GetCustomer(ctx, id)
}

// DeleteCustomer deactivates a customer that has never ordered.
func (s *CustomerHandler) DeleteCustomer(ctx context.Context, id int64) error {
	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("customer", id)
		}
		return fmt.Errorf("failed to load customer: %w", err)
	}

	var orders int64
	if err := s.db.WithContext(ctx).Model(&models.Order{}).Where("customer_id = ?", id).Count(&orders).Error; err != nil {
		return fmt.Errorf("failed to count customer orders: %w", err)
	}
	if orders > 0 {
		return errs.InUse("cannot delete customer with %d associated orders", orders)
	}

	if err := s.db.WithContext(ctx).Model(&customer).Update("active", false).Error; err != nil {
		return fmt.Errorf("failed to deactivate customer: %w", err)
	}
	s.logger.WithField("customer_id", id).Info("Customer deactivated")
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
