// Package ledger applies stock changes inside a caller's transaction. Every
// change is a single conditional UPDATE followed by a journal row, so stock
// can never go negative even under concurrent transactions.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"backoffice-system/internal/database/models"
	"backoffice-system/internal/errs"
)

type Line struct {
	ProductID int64
	Quantity  int64
}

type Reference struct {
	Reason      models.MovementReason
	OrderID     *int64
	OrderNumber *string
	Note        *string
}

func OrderReference(reason models.MovementReason, order models.Order) Reference {
	id, number := order.ID, order.OrderNumber
	return Reference{Reason: reason, OrderID: &id, OrderNumber: &number}
}

// LinesFromItems converts order items into ledger lines.
func LinesFromItems(items []models.OrderItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines
}

// Aggregate sums quantities per product and orders the result by product id
// so concurrent transactions touch rows in the same order.
func Aggregate(lines []Line) []Line {
	totals := make(map[int64]int64, len(lines))
	for _, l := range lines {
		totals[l.ProductID] += l.Quantity
	}
	out := make([]Line, 0, len(totals))
	for id, qty := range totals {
		out = append(out, Line{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

type Ledger struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *Ledger {
	return &Ledger{logger: logger}
}

// Deduct removes stock for every line. The first short line aborts with an
// InsufficientStockError; the caller must roll back its transaction.
func (l *Ledger) Deduct(ctx context.Context, tx *gorm.DB, lines []Line, ref Reference) error {
	for _, line := range Aggregate(lines) {
		res := tx.WithContext(ctx).Model(&models.Product{}).
			Where("id = ? AND stock >= ?", line.ProductID, line.Quantity).
			Update("stock", gorm.Expr("stock - ?", line.Quantity))
		if res.Error != nil {
			return fmt.Errorf("failed to deduct stock for product %d: %w", line.ProductID, res.Error)
		}

		if res.RowsAffected == 0 {
			var product models.Product
			if err := tx.WithContext(ctx).First(&product, line.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					l.logger.WithFields(logrus.Fields{
						"product_id": line.ProductID,
						"reason":     ref.Reason,
					}).Error("Order line references a missing product")
					return errs.Integrity("product %d referenced by order line no longer exists", line.ProductID)
				}
				return fmt.Errorf("failed to load product %d: %w", line.ProductID, err)
			}
			return &errs.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   product.Stock,
				Required:    line.Quantity,
			}
		}

		if err := l.record(ctx, tx, line.ProductID, -line.Quantity, ref); err != nil {
			return err
		}
	}
	return nil
}

// Restore gives stock back for every line.
func (l *Ledger) Restore(ctx context.Context, tx *gorm.DB, lines []Line, ref Reference) error {
	for _, line := range Aggregate(lines) {
		if err := l.increment(ctx, tx, line, ref); err != nil {
			return err
		}
	}
	return nil
}

// Restock adds manually received units to a product.
func (l *Ledger) Restock(ctx context.Context, tx *gorm.DB, productID, quantity int64, note string) error {
	if quantity <= 0 {
		return errs.Invalid("quantity", "quantity must be greater than 0")
	}
	ref := Reference{Reason: models.MovementRestock}
	if note != "" {
		ref.Note = &note
	}
	err := l.increment(ctx, tx, Line{ProductID: productID, Quantity: quantity}, ref)
	var ie *errs.IntegrityError
	if errors.As(err, &ie) {
		return errs.NotFound("product", productID)
	}
	return err
}

// Adjust sets a product's stock to an absolute value and journals the delta.
func (l *Ledger) Adjust(ctx context.Context, tx *gorm.DB, productID, stock int64, note string) error {
	if stock < 0 {
		return errs.Invalid("stock", "stock cannot be negative")
	}
	var product models.Product
	if err := tx.WithContext(ctx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("product", productID)
		}
		return fmt.Errorf("failed to load product %d: %w", productID, err)
	}
	delta := stock - product.Stock
	if delta == 0 {
		return nil
	}

	res := tx.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock = ?", productID, product.Stock).
		Update("stock", stock)
	if res.Error != nil {
		return fmt.Errorf("failed to adjust stock for product %d: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.Conflict("stock of product %d changed concurrently, retry the adjustment", productID)
	}

	ref := Reference{Reason: models.MovementAdjustment}
	if note != "" {
		ref.Note = &note
	}
	return l.record(ctx, tx, productID, delta, ref)
}

func (l *Ledger) increment(ctx context.Context, tx *gorm.DB, line Line, ref Reference) error {
	res := tx.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", line.ProductID).
		Update("stock", gorm.Expr("stock + ?", line.Quantity))
	if res.Error != nil {
		return fmt.Errorf("failed to restore stock for product %d: %w", line.ProductID, res.Error)
	}
	if res.RowsAffected == 0 {
		l.logger.WithFields(logrus.Fields{
			"product_id": line.ProductID,
			"reason":     ref.Reason,
		}).Error("Stock restore references a missing product")
		return errs.Integrity("product %d referenced by order line no longer exists", line.ProductID)
	}
	return l.record(ctx, tx, line.ProductID, line.Quantity, ref)
}

func (l *Ledger) record(ctx context.Context, tx *gorm.DB, productID, delta int64, ref Reference) error {
	var stocks []int64
	if err := tx.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Pluck("stock", &stocks).Error; err != nil {
		return fmt.Errorf("failed to read stock for product %d: %w", productID, err)
	}
	if len(stocks) == 0 {
		return errs.Integrity("product %d disappeared during stock update", productID)
	}
	stockAfter := stocks[0]

	movement := models.StockMovement{
		ProductID:   productID,
		Delta:       delta,
		StockAfter:  stockAfter,
		Reason:      ref.Reason,
		OrderID:     ref.OrderID,
		OrderNumber: ref.OrderNumber,
		Note:        ref.Note,
	}
	if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}

	l.logger.WithFields(logrus.Fields{
		"product_id":  productID,
		"delta":       delta,
		"stock_after": stockAfter,
		"reason":      ref.Reason,
	}).Debug("Stock movement recorded")
	return nil
}
