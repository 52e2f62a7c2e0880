package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"backoffice-system/internal/cache"
	"backoffice-system/internal/database/models"
	"backoffice-system/internal/errs"
	"backoffice-system/internal/events"
	"backoffice-system/internal/services/inventory/ledger"
)

const (
	MsgOrderCreated  = "Order created successfully"
	MsgStockDeducted = "Order marked as paid. Stock deducted."
	MsgStockRestored = "Payment status reverted. Stock restored."
	MsgOrderUpdated  = "Order updated"
	MsgOrderDeleted  = "Order deleted"
	MsgInvoiceSaved  = "Invoice number updated"
)

type OrderHandler struct {
	db     *gorm.DB
	ledger *ledger.Ledger
	events events.Publisher
	cache  cache.Cache
	logger *logrus.Logger
	now    func() time.Time
}

func NewOrderHandler(db *gorm.DB, stock *ledger.Ledger, publisher events.Publisher, c cache.Cache, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{
		db:     db,
		ledger: stock,
		events: publisher,
		cache:  c,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the time source used for order dates and numbering.
func (s *OrderHandler) WithClock(now func() time.Time) *OrderHandler {
	s.now = now
	return s
}

type CreateOrderItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}

type CreateOrderRequest struct {
	CustomerID    int64             `json:"customer_id"`
	Items         []CreateOrderItem `json:"items"`
	PaymentMethod string            `json:"payment_method"`
	Notes         *string           `json:"notes,omitempty"`
}

func (r CreateOrderRequest) validate() error {
	v := &errs.ValidationError{}
	if r.CustomerID <= 0 {
		v.Add("customer_id", "customer is required")
	}
	if len(r.Items) == 0 {
		v.Add("items", "at least one product required")
	}
	for i, it := range r.Items {
		if it.ProductID <= 0 {
			v.Add(fmt.Sprintf("items[%d].product_id", i), "product is required")
		}
		if it.Quantity <= 0 {
			v.Add(fmt.Sprintf("items[%d].quantity", i), "quantity must be greater than 0")
		}
		if it.UnitPrice < 0 {
			v.Add(fmt.Sprintf("items[%d].unit_price", i), "unit price cannot be negative")
		}
	}
	if len(v.Fields) == 0 && !WithinLimit(r.amounts()) {
		v.Add("items", fmt.Sprintf("order subtotal cannot exceed %d", MaxSubtotal))
	}
	if strings.TrimSpace(r.PaymentMethod) == "" {
		v.Add("payment_method", "payment method is required")
	} else if !models.PaymentMethod(r.PaymentMethod).Valid() {
		v.Add("payment_method", fmt.Sprintf("invalid payment method %q", r.PaymentMethod))
	}
	return v.OrNil()
}

func (r CreateOrderRequest) amounts() []LineAmount {
	amounts := make([]LineAmount, 0, len(r.Items))
	for _, it := range r.Items {
		amounts = append(amounts, LineAmount{Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	return amounts
}

func (r CreateOrderRequest) lines() []ledger.Line {
	lines := make([]ledger.Line, 0, len(r.Items))
	for _, it := range r.Items {
		lines = append(lines, ledger.Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines
}

func (s *OrderHandler) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var customer models.Customer
	if err := s.db.WithContext(ctx).First(&customer, req.CustomerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("customer", req.CustomerID)
		}
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if !customer.Active {
		return nil, errs.Invalid("customer_id", "customer is inactive")
	}

	requested := ledger.Aggregate(req.lines())
	ids := make([]int64, 0, len(requested))
	for _, l := range requested {
		ids = append(ids, l.ProductID)
	}

	var products []models.Product
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	byID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, errs.NotFound("products", missing...)
	}

	// Advisory only: stock is consumed when the order is paid.
	for _, l := range requested {
		p := byID[l.ProductID]
		if p.Stock < l.Quantity {
			return nil, &errs.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Available:   p.Stock,
				Required:    l.Quantity,
			}
		}
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, models.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Quantity * it.UnitPrice,
		})
	}
	totals := ComputeTotals(req.amounts())

	now := s.now()
	order := models.Order{
		CustomerID:     customer.ID,
		OrderDate:      now,
		Subtotal:       totals.Subtotal,
		Tax:            totals.Tax,
		Total:          totals.Total,
		PaymentMethod:  models.PaymentMethod(req.PaymentMethod),
		PaymentStatus:  models.PaymentPending,
		ShippingStatus: models.ShippingPreparing,
		Notes:          trimmedOrNil(req.Notes),
		Items:          items,
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	number, err := nextOrderNumber(ctx, tx, now.Year())
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	order.OrderNumber = number

	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"customer_id":  order.CustomerID,
		"total":        order.Total,
	}).Info("Order created")

	created, err := s.GetOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ids...)
	s.publish(ctx, events.EventOrderCreated, created, MsgOrderCreated)
	return created, nil
}

type UpdateStatusRequest struct {
	PaymentStatus  *string `json:"payment_status,omitempty"`
	ShippingStatus *string `json:"shipping_status,omitempty"`
}

func (r UpdateStatusRequest) parse() (*models.PaymentStatus, *models.ShippingStatus, error) {
	var payment *models.PaymentStatus
	var shipping *models.ShippingStatus
	v := &errs.ValidationError{}

	if r.PaymentStatus != nil && *r.PaymentStatus != "" {
		p := models.PaymentStatus(*r.PaymentStatus)
		if !p.Valid() {
			v.Add("payment_status", fmt.Sprintf("invalid payment status %q", *r.PaymentStatus))
		}
		payment = &p
	}
	if r.ShippingStatus != nil && *r.ShippingStatus != "" {
		sh := models.ShippingStatus(*r.ShippingStatus)
		if !sh.Valid() {
			v.Add("shipping_status", fmt.Sprintf("invalid shipping status %q", *r.ShippingStatus))
		}
		shipping = &sh
	}
	if payment == nil && shipping == nil {
		v.Add("status", "payment_status or shipping_status is required")
	}
	return payment, shipping, v.OrNil()
}

type UpdateStatusResult struct {
	Order         *models.Order `json:"order"`
	Message       string        `json:"message"`
	StockDeducted bool          `json:"stock_deducted"`
	StockRestored bool          `json:"stock_restored"`
}

// UpdateOrderStatus moves the order to the requested payment and/or shipping
// status. Stock is deducted when payment enters paid and restored when it
// leaves paid, in the same transaction as the status write.
func (s *OrderHandler) UpdateOrderStatus(ctx context.Context, orderID int64, req UpdateStatusRequest) (*UpdateStatusResult, error) {
	payment, shipping, err := req.parse()
	if err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	order, err := lockOrder(tx, orderID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	t := planTransition(*order, payment, shipping)
	if !t.changed() {
		tx.Rollback()
		current, err := s.GetOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		return &UpdateStatusResult{Order: current, Message: MsgOrderUpdated}, nil
	}

	lines := ledger.LinesFromItems(order.Items)
	result := &UpdateStatusResult{Message: MsgOrderUpdated}

	switch t.paymentRule.Stock {
	case stockDeduct:
		if err := s.ledger.Deduct(ctx, tx, lines, ledger.OrderReference(models.MovementSale, *order)); err != nil {
			tx.Rollback()
			s.logger.WithFields(logrus.Fields{
				"order_number": order.OrderNumber,
				"error":        err,
			}).Warn("Payment transition aborted")
			return nil, err
		}
		result.StockDeducted = true
		result.Message = MsgStockDeducted
	case stockRestore:
		if err := s.ledger.Restore(ctx, tx, lines, ledger.OrderReference(models.MovementSaleReverted, *order)); err != nil {
			tx.Rollback()
			return nil, err
		}
		result.StockRestored = true
		result.Message = MsgStockRestored
	}

	if err := tx.Model(order).Updates(t.updates(*order, s.now())).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"order_number":   order.OrderNumber,
		"payment_from":   order.PaymentStatus,
		"payment_to":     payment,
		"shipping_from":  order.ShippingStatus,
		"shipping_to":    shipping,
		"stock_deducted": result.StockDeducted,
		"stock_restored": result.StockRestored,
	}).Info("Order status updated")

	updated, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	result.Order = updated

	s.invalidate(ctx, productIDs(lines)...)
	eventType := events.EventOrderUpdated
	switch {
	case result.StockDeducted:
		eventType = events.EventPaymentProcessed
	case result.StockRestored:
		eventType = events.EventPaymentReverted
	}
	s.publish(ctx, eventType, updated, result.Message)
	return result, nil
}

func (s *OrderHandler) SetInvoiceNumber(ctx context.Context, orderID int64, invoiceNumber string) (*models.Order, error) {
	var value *string
	if trimmed := strings.TrimSpace(invoiceNumber); trimmed != "" {
		value = &trimmed
	}

	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("invoice_number", value)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update invoice number: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, errs.NotFound("order", orderID)
	}

	return s.GetOrder(ctx, orderID)
}

// DeleteOrder removes the order and its items, giving stock back first when
// the order was paid.
func (s *OrderHandler) DeleteOrder(ctx context.Context, orderID int64) error {
	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	order, err := lockOrder(tx, orderID)
	if err != nil {
		tx.Rollback()
		return err
	}

	lines := ledger.LinesFromItems(order.Items)
	restored := order.PaymentStatus == models.PaymentPaid
	if restored {
		if err := s.ledger.Restore(ctx, tx, lines, ledger.OrderReference(models.MovementOrderDeleted, *order)); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete order items: %w", err)
	}
	if err := tx.Delete(&models.Order{}, order.ID).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete order: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"order_number":   order.OrderNumber,
		"stock_restored": restored,
	}).Info("Order deleted")

	s.invalidate(ctx, productIDs(lines)...)
	s.publish(ctx, events.EventOrderDeleted, order, MsgOrderDeleted)
	return nil
}

func (s *OrderHandler) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Product").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("order", orderID)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

type ListOrdersFilter struct {
	Search         string
	PaymentStatus  string
	ShippingStatus string
	// Period "week" keeps orders from the last seven days.
	Period   string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

type OrderPage struct {
	Orders   []models.Order `json:"orders"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

func (s *OrderHandler) ListOrders(ctx context.Context, f ListOrdersFilter) (*OrderPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
	if f.PaymentStatus != "" && !models.PaymentStatus(f.PaymentStatus).Valid() {
		return nil, errs.Invalid("payment_status", fmt.Sprintf("invalid payment status %q", f.PaymentStatus))
	}
	if f.ShippingStatus != "" && !models.ShippingStatus(f.ShippingStatus).Valid() {
		return nil, errs.Invalid("shipping_status", fmt.Sprintf("invalid shipping status %q", f.ShippingStatus))
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Order{}).
		Scopes(s.orderFilter(f)).
		Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	err := s.db.WithContext(ctx).
		Scopes(s.orderFilter(f)).
		Preload("Customer").
		Preload("Items.Product").
		Order("order_date DESC").
		Order("id DESC").
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return &OrderPage{Orders: orders, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

func (s *OrderHandler) orderFilter(f ListOrdersFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if search := strings.TrimSpace(f.Search); search != "" {
			like := "%" + strings.ToLower(search) + "%"
			db = db.Where(
				"LOWER(order_number) LIKE ? OR customer_id IN (?)",
				like,
				s.db.Model(&models.Customer{}).Select("id").Where("LOWER(name) LIKE ?", like),
			)
		}
		if f.PaymentStatus != "" {
			db = db.Where("payment_status = ?", f.PaymentStatus)
		}
		if f.ShippingStatus != "" {
			db = db.Where("shipping_status = ?", f.ShippingStatus)
		}
		if f.Period == "week" {
			db = db.Where("order_date >= ?", s.now().AddDate(0, 0, -7))
		}
		if f.From != nil {
			db = db.Where("order_date >= ?", *f.From)
		}
		if f.To != nil {
			db = db.Where("order_date < ?", *f.To)
		}
		return db
	}
}

// lockOrder loads the order row FOR UPDATE so concurrent transitions on the
// same order run one after another.
func lockOrder(tx *gorm.DB, orderID int64) (*models.Order, error) {
	var order models.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("order", orderID)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if err := tx.Where("order_id = ?", order.ID).Order("id").Find(&order.Items).Error; err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	return &order, nil
}

func (s *OrderHandler) invalidate(ctx context.Context, productIDs ...int64) {
	keys := []string{cache.KeyDashboard}
	if len(productIDs) > 0 {
		keys = append(keys, cache.KeyLowStock)
		for _, id := range productIDs {
			keys = append(keys, cache.ProductKey(id))
		}
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warnf("Failed to invalidate caches: %v", err)
	}
}

func (s *OrderHandler) publish(ctx context.Context, eventType string, order *models.Order, message string) {
	err := s.events.PublishOrderEvent(ctx, events.OrderEvent{
		EventType:      eventType,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		CustomerID:     order.CustomerID,
		Total:          order.Total,
		PaymentStatus:  string(order.PaymentStatus),
		ShippingStatus: string(order.ShippingStatus),
		Message:        message,
		Timestamp:      s.now(),
	})
	if err != nil {
		s.logger.Warnf("Failed to publish %s event for %s: %v", eventType, order.OrderNumber, err)
	}
}

func productIDs(lines []ledger.Line) []int64 {
	ids := make([]int64, 0, len(lines))
	for _, l := range ledger.Aggregate(lines) {
		ids = append(ids, l.ProductID)
	}
	return ids
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
