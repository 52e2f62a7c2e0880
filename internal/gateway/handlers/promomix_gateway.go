package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	promomix "backoffice-system/internal/services/promomix/handler"
)

type PromoMixService interface {
	ListProducts(ctx context.Context) ([]promomix.CatalogueEntry, error)
	Quote(ctx context.Context, items []promomix.Item) (*promomix.Quote, error)
}

type PromoMixHTTPHandler struct {
	promomix PromoMixService
	logger   *logrus.Logger
}

func NewPromoMixHTTPHandler(svc PromoMixService, logger *logrus.Logger) *PromoMixHTTPHandler {
	return &PromoMixHTTPHandler{promomix: svc, logger: logger}
}

type QuoteRequest struct {
	Items []promomix.Item `json:"items" binding:"required"`
}

func (h *PromoMixHTTPHandler) ListProducts(c *gin.Context) {
	entries, err := h.promomix.ListProducts(c.Request.Context())
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, successWithMetaResponse("PromoMix products retrieved successfully", entries, gin.H{
		"year":    promomix.Year,
		"minimum": promomix.Minimum,
	}))
}

func (h *PromoMixHTTPHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if !bindJSON(c, &req) {
		return
	}

	quote, err := h.promomix.Quote(c.Request.Context(), req.Items)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("PromoMix quote calculated", quote))
}
