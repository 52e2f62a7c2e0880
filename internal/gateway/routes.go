package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"backoffice-system/internal/gateway/handlers"
	"backoffice-system/internal/gateway/middleware"
	sysutils "backoffice-system/internal/utils"
)

// Services bundles everything the HTTP surface talks to.
type Services struct {
	Customers handlers.CustomerService
	Inventory handlers.InventoryService
	Orders    handlers.OrderService
	Reports   handlers.ReportService
	PromoMix  handlers.PromoMixService
	Auth      handlers.AuthService
	Tokens    *sysutils.TokenIssuer
	// Ping reports whether the database answers.
	Ping func(ctx context.Context) error
}

type Options struct {
	RateLimit string
}

func NewRouter(svc Services, opts Options, logger *logrus.Logger) (*gin.Engine, error) {
	r := gin.New()

	r.Use(middleware.CORS())
	r.Use(middleware.RequestLogger(logger))
	r.Use(gin.Recovery())
	if opts.RateLimit != "" {
		limit, err := middleware.RateLimit(opts.RateLimit, logger)
		if err != nil {
			return nil, err
		}
		r.Use(limit)
	}

	userHandler := handlers.NewUserHTTPHandler(svc.Auth, logger)
	customerHandler := handlers.NewCustomerHTTPHandler(svc.Customers, logger)
	inventoryHandler := handlers.NewInventoryHTTPHandler(svc.Inventory, logger)
	orderHandler := handlers.NewOrderHTTPHandler(svc.Orders, svc.Reports, logger)
	promoHandler := handlers.NewPromoMixHTTPHandler(svc.PromoMix, logger)

	// --- Public API Group ---
	public := r.Group("/api/v1")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/login", userHandler.Login)
		}
	}

	// --- Protected API Group ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth(svc.Tokens))
	{
		customers := protected.Group("/customers")
		{
			customers.GET("", customerHandler.ListCustomers)
			customers.POST("", customerHandler.CreateCustomer)
			customers.GET("/:id", customerHandler.GetCustomer)
			customers.PUT("/:id", customerHandler.UpdateCustomer)
			customers.DELETE("/:id", customerHandler.DeleteCustomer)
		}

		products := protected.Group("/products")
		{
			products.GET("", inventoryHandler.ListProducts)
			products.POST("", inventoryHandler.CreateProduct)
			products.GET("/low-stock", inventoryHandler.ListLowStock)
			products.GET("/:id", inventoryHandler.GetProduct)
			products.PUT("/:id", inventoryHandler.UpdateProduct)
			products.DELETE("/:id", inventoryHandler.DeleteProduct)
			products.POST("/:id/restock", inventoryHandler.Restock)
			products.GET("/:id/movements", inventoryHandler.ListStockMovements)
		}

		orders := protected.Group("/orders")
		{
			orders.GET("", orderHandler.ListOrders)
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("/export", orderHandler.ExportOrders)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.PATCH("/:id", orderHandler.UpdateOrderStatus)
			orders.DELETE("/:id", orderHandler.DeleteOrder)
			orders.PUT("/:id/invoice", orderHandler.SetInvoiceNumber)
			orders.GET("/:id/pdf", orderHandler.OrderInvoice)
		}

		promo := protected.Group("/promomix")
		{
			promo.GET("/products", promoHandler.ListProducts)
			promo.POST("/quote", promoHandler.Quote)
		}

		protected.GET("/dashboard", orderHandler.Dashboard)
	}

	r.GET("/health", healthCheckHandler(svc.Ping))

	return r, nil
}

func healthCheckHandler(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := "healthy"
		httpStatus := http.StatusOK
		if ping != nil {
			if err := ping(ctx); err != nil {
				status = "unavailable"
				httpStatus = http.StatusServiceUnavailable
			}
		}

		c.JSON(httpStatus, gin.H{
			"status":    status,
			"message":   "Server is running",
			"timestamp": time.Now(),
		})
	}
}
