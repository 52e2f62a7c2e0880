package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"backoffice-system/internal/database/models"
	inventory "backoffice-system/internal/services/inventory/handler"
)

type InventoryService interface {
	CreateProduct(ctx context.Context, req inventory.CreateProductRequest) (*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*inventory.ProductDetail, error)
	ListProducts(ctx context.Context, f inventory.ListProductsFilter) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id int64, req inventory.UpdateProductRequest) (*inventory.ProductDetail, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListLowStock(ctx context.Context) ([]models.Product, error)
	Restock(ctx context.Context, id int64, req inventory.RestockRequest) (*inventory.ProductDetail, error)
	ListMovements(ctx context.Context, productID int64, limit int) ([]models.StockMovement, error)
}

type InventoryHTTPHandler struct {
	inventory InventoryService
	logger    *logrus.Logger
}

func NewInventoryHTTPHandler(svc InventoryService, logger *logrus.Logger) *InventoryHTTPHandler {
	return &InventoryHTTPHandler{inventory: svc, logger: logger}
}

// Product endpoints
func (s *InventoryHTTPHandler) CreateProduct(c *gin.Context) {
	var req inventory.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := s.inventory.CreateProduct(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse("Product created successfully", product))
}

func (s *InventoryHTTPHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req inventory.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := s.inventory.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		handleServiceError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Product updated successfully", product))
}

func (s *InventoryHTTPHandler) ListProducts(c *gin.Context) {
	products, err := s.inventory.ListProducts(c.Request.Context(), inventory.ListProductsFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
	})
	if err != nil {
		handleServiceError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse("Products retrieved successfully", products, gin.H{"total": len(products)}))
}

func (s *InventoryHTTPHandler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := s.inventory.GetProduct(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Product retrieved successfully", product))
}

func (s *InventoryHTTPHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := s.inventory.DeleteProduct(c.Request.Context(), id); err != nil {
		handleServiceError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Product deleted successfully", nil))
}

// Stock endpoints
func (s *InventoryHTTPHandler) ListLowStock(c *gin.Context) {
	products, err := s.inventory.ListLowStock(c.Request.Context())
	if err != nil {
		handleServiceError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse("Low stock products retrieved successfully", products, gin.H{"total": len(products)}))
}

func (s *InventoryHTTPHandler) Restock(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req inventory.RestockRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := s.inventory.Restock(c.Request.Context(), id, req)
	if err != nil {
		handleServiceError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Stock updated successfully", product))
}

func (s *InventoryHTTPHandler) ListStockMovements(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	movements, err := s.inventory.ListMovements(c.Request.Context(), id, parseIntQuery(c, "limit", 50))
	if err != nil {
		handleServiceError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Stock movements retrieved successfully", movements))
}
