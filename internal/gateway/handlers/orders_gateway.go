package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"backoffice-system/internal/database/models"
	orders "backoffice-system/internal/services/orders/handler"
	reports "backoffice-system/internal/services/reports/handler"
)

type OrderService interface {
	CreateOrder(ctx context.Context, req orders.CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*models.Order, error)
	ListOrders(ctx context.Context, f orders.ListOrdersFilter) (*orders.OrderPage, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, req orders.UpdateStatusRequest) (*orders.UpdateStatusResult, error)
	SetInvoiceNumber(ctx context.Context, orderID int64, invoiceNumber string) (*models.Order, error)
	DeleteOrder(ctx context.Context, orderID int64) error
}

type ReportService interface {
	Dashboard(ctx context.Context) (*reports.DashboardStats, error)
	ExportOrders(ctx context.Context, w io.Writer, f reports.ExportFilter) (int, error)
	OrderInvoice(ctx context.Context, w io.Writer, orderID int64) (string, error)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type OrderHTTPHandler struct {
	orders  OrderService
	reports ReportService
	logger  *logrus.Logger
}

func NewOrderHTTPHandler(svc OrderService, rep ReportService, logger *logrus.Logger) *OrderHTTPHandler {
	return &OrderHTTPHandler{orders: svc, reports: rep, logger: logger}
}

type SetInvoiceRequest struct {
	InvoiceNumber string `json:"invoice_number"`
}

func (h *OrderHTTPHandler) CreateOrder(c *gin.Context) {
	var req orders.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(orders.MsgOrderCreated, order))
}

func (h *OrderHTTPHandler) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Order retrieved successfully", order))
}

func (h *OrderHTTPHandler) ListOrders(c *gin.Context) {
	from, ok := parseDateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := parseDateQuery(c, "to")
	if !ok {
		return
	}
	if to != nil {
		end := to.AddDate(0, 0, 1)
		to = &end
	}

	page, err := h.orders.ListOrders(c.Request.Context(), orders.ListOrdersFilter{
		Search:         c.Query("search"),
		PaymentStatus:  c.Query("payment_status"),
		ShippingStatus: c.Query("shipping_status"),
		Period:         c.Query("period"),
		From:           from,
		To:             to,
		Page:           parseIntQuery(c, "page", 1),
		PageSize:       parseIntQuery(c, "page_size", 20),
	})
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse("Orders retrieved successfully", page.Orders, gin.H{
		"total":     page.Total,
		"page":      page.Page,
		"page_size": page.PageSize,
	}))
}

// UpdateOrderStatus answers with the lifecycle message so clients can tell
// whether stock moved.
func (h *OrderHTTPHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req orders.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.orders.UpdateOrderStatus(c.Request.Context(), id, req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse(result.Message, result.Order, gin.H{
		"stock_deducted": result.StockDeducted,
		"stock_restored": result.StockRestored,
	}))
}

func (h *OrderHTTPHandler) SetInvoiceNumber(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req SetInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orders.SetInvoiceNumber(c.Request.Context(), id, req.InvoiceNumber)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(orders.MsgInvoiceSaved, order))
}

func (h *OrderHTTPHandler) DeleteOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.orders.DeleteOrder(c.Request.Context(), id); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(orders.MsgOrderDeleted, nil))
}

func (h *OrderHTTPHandler) ExportOrders(c *gin.Context) {
	from, ok := parseDateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := parseDateQuery(c, "to")
	if !ok {
		return
	}
	filter := reports.ExportFilter{From: from, To: to}

	var buf bytes.Buffer
	if _, err := h.reports.ExportOrders(c.Request.Context(), &buf, filter); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filter.Filename()+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *OrderHTTPHandler) OrderInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var buf bytes.Buffer
	filename, err := h.reports.OrderInvoice(c.Request.Context(), &buf, id)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (h *OrderHTTPHandler) Dashboard(c *gin.Context) {
	stats, err := h.reports.Dashboard(c.Request.Context())
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Dashboard retrieved successfully", stats))
}
