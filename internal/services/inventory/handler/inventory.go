package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"backoffice-system/internal/cache"
	"backoffice-system/internal/database/models"
	"backoffice-system/internal/errs"
	"backoffice-system/internal/services/inventory/ledger"
)

const defaultMinStock = 10

type InventoryHandler struct {
	db     *gorm.DB
	ledger *ledger.Ledger
	cache  cache.Cache
	logger *logrus.Logger
}

func NewInventoryHandler(db *gorm.DB, stock *ledger.Ledger, c cache.Cache, logger *logrus.Logger) *InventoryHandler {
	return &InventoryHandler{
		db:     db,
		ledger: stock,
		cache:  c,
		logger: logger,
	}
}

func (s *InventoryHandler) invalidate(ctx context.Context, productIDs ...int64) {
	keys := []string{cache.KeyLowStock, cache.KeyDashboard}
	for _, id := range productIDs {
		keys = append(keys, cache.ProductKey(id))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warnf("Failed to invalidate inventory caches: %v", err)
	}
}

type CreateProductRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
	Price    int64  `json:"price"`
	Stock    int64  `json:"stock"`
	MinStock *int64 `json:"min_stock,omitempty"`
}

func (s *InventoryHandler) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	v := &errs.ValidationError{}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		v.Add("name", "name is required")
	}
	productType := models.ProductType(strings.TrimSpace(req.Type))
	switch productType {
	case "":
		productType = models.ProductSimple
	case models.ProductSimple, models.ProductVariable:
	default:
		v.Add("type", fmt.Sprintf("invalid product type %q", req.Type))
	}
	if req.Price < 0 {
		v.Add("price", "price cannot be negative")
	}
	if req.Stock < 0 {
		v.Add("stock", "stock cannot be negative")
	}
	minStock := int64(defaultMinStock)
	if req.MinStock != nil {
		minStock = *req.MinStock
		if minStock < 0 {
			v.Add("min_stock", "minimum stock cannot be negative")
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	product := models.Product{
		Name:     name,
		Type:     productType,
		Category: strings.ToLower(strings.TrimSpace(req.Category)),
		Unit:     strings.TrimSpace(req.Unit),
		Price:    req.Price,
		Stock:    req.Stock,
		MinStock: minStock,
		Active:   true,
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := tx.Create(&product).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	if product.Stock > 0 {
		note := "initial stock"
		movement := models.StockMovement{
			ProductID:  product.ID,
			Delta:      product.Stock,
			StockAfter: product.Stock,
			Reason:     models.MovementRestock,
			Note:       &note,
		}
		if err := tx.Create(&movement).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to record initial stock: %w", err)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"product_id": product.ID,
		"stock":      product.Stock,
	}).Info("Product created")
	s.invalidate(ctx)
	return &product, nil
}

type ProductDetail struct {
	models.Product
	OrderCount int64 `json:"order_count"`
}

func (s *InventoryHandler) GetProduct(ctx context.Context, id int64) (*ProductDetail, error) {
	var detail ProductDetail
	if err := s.cache.Get(ctx, cache.ProductKey(id), &detail); err == nil {
		return &detail, nil
	}

	if err := s.db.WithContext(ctx).First(&detail.Product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("product", id)
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	count, err := s.orderLineCount(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.OrderCount = count

	if err := s.cache.Set(ctx, cache.ProductKey(id), detail, cache.TTLMedium); err != nil {
		s.logger.Warnf("Failed to cache product %d: %v", id, err)
	}
	return &detail, nil
}

func (s *InventoryHandler) orderLineCount(ctx context.Context, productID int64) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.OrderItem{}).
		Where("product_id = ?", productID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count order lines: %w", err)
	}
	return count, nil
}

type ListProductsFilter struct {
	Search   string
	Category string
}

// ListProducts returns active products ordered by name.
func (s *InventoryHandler) ListProducts(ctx context.Context, f ListProductsFilter) ([]models.Product, error) {
	query := s.db.WithContext(ctx).Where("active = ?", true)
	if search := strings.TrimSpace(f.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if category := strings.TrimSpace(f.Category); category != "" {
		query = query.Where("category = ?", strings.ToLower(category))
	}

	var products []models.Product
	if err := query.Order("name ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

type UpdateProductRequest struct {
	Name     *string `json:"name,omitempty"`
	Category *string `json:"category,omitempty"`
	Unit     *string `json:"unit,omitempty"`
	Price    *int64  `json:"price,omitempty"`
	MinStock *int64  `json:"min_stock,omitempty"`
	Active   *bool   `json:"active,omitempty"`
	// Stock may be set directly only while no order references the product.
	Stock *int64 `json:"stock,omitempty"`
}

func (s *InventoryHandler) UpdateProduct(ctx context.Context, id int64, req UpdateProductRequest) (*ProductDetail, error) {
	v := &errs.ValidationError{}
	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			v.Add("name", "name cannot be empty")
		}
		updates["name"] = name
	}
	if req.Category != nil {
		updates["category"] = strings.ToLower(strings.TrimSpace(*req.Category))
	}
	if req.Unit != nil {
		updates["unit"] = strings.TrimSpace(*req.Unit)
	}
	if req.Price != nil {
		if *req.Price < 0 {
			v.Add("price", "price cannot be negative")
		}
		updates["price"] = *req.Price
	}
	if req.MinStock != nil {
		if *req.MinStock < 0 {
			v.Add("min_stock", "minimum stock cannot be negative")
		}
		updates["min_stock"] = *req.MinStock
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var product models.Product
	if err := tx.First(&product, id).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("product", id)
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	if len(updates) > 0 {
		if err := tx.Model(&product).Updates(updates).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}

	if req.Stock != nil && *req.Stock != product.Stock {
		var lines int64
		if err := tx.Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&lines).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to count order lines: %w", err)
		}
		if lines > 0 {
			tx.Rollback()
			return nil, errs.Invalid("stock", "stock of a product with orders can only change through orders or restock")
		}
		if err := s.ledger.Adjust(ctx, tx, id, *req.Stock, "manual edit"); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.invalidate(ctx, id)
	return s.GetProduct(ctx, id)
}

// DeleteProduct removes a product that no order line references.
func (s *InventoryHandler) DeleteProduct(ctx context.Context, id int64) error {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("product", id)
		}
		return fmt.Errorf("failed to load product: %w", err)
	}

	count, err := s.orderLineCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errs.InUse("cannot delete product referenced by %d order lines", count)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.StockMovement{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.WithField("product_id", id).Info("Product deleted")
	s.invalidate(ctx, id)
	return nil
}

// ListLowStock returns active products at or below their minimum stock.
func (s *InventoryHandler) ListLowStock(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.cache.Get(ctx, cache.KeyLowStock, &products); err == nil {
		return products, nil
	}

	if err := s.db.WithContext(ctx).
		Where("active = ? AND stock <= min_stock", true).
		Order("stock ASC").
		Order("name ASC").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}

	if err := s.cache.Set(ctx, cache.KeyLowStock, products, cache.TTLShort); err != nil {
		s.logger.Warnf("Failed to cache low stock list: %v", err)
	}
	return products, nil
}

type RestockRequest struct {
	Quantity int64  `json:"quantity"`
	Note     string `json:"note,omitempty"`
}

func (s *InventoryHandler) Restock(ctx context.Context, id int64, req RestockRequest) (*ProductDetail, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.ledger.Restock(ctx, tx, id, req.Quantity, strings.TrimSpace(req.Note))
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"product_id": id,
		"quantity":   req.Quantity,
	}).Info("Product restocked")
	s.invalidate(ctx, id)
	return s.GetProduct(ctx, id)
}

func (s *InventoryHandler) ListMovements(ctx context.Context, productID int64, limit int) ([]models.StockMovement, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	var exists int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&exists).Error; err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if exists == 0 {
		return nil, errs.NotFound("product", productID)
	}

	var movements []models.StockMovement
	if err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id DESC").
		Limit(limit).
		Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}
	return movements, nil
}
