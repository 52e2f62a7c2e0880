package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"backoffice-system/internal/errs"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

func successResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func errorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
	}
}

func successWithMetaResponse(message string, data interface{}, meta interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	}
}

type stockDetail struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Available   int64  `json:"available"`
	Required    int64  `json:"required"`
}

// handleServiceError writes the error envelope for err and aborts the request.
// Internal failures are logged and replaced by a generic message.
func handleServiceError(c *gin.Context, logger *logrus.Logger, err error) {
	resp := errorResponse("")

	var validation *errs.ValidationError
	if errors.As(err, &validation) {
		resp.Errors = validation.Fields
	}
	var stock *errs.InsufficientStockError
	if errors.As(err, &stock) {
		resp.Errors = stockDetail{
			ProductID:   stock.ProductID,
			ProductName: stock.ProductName,
			Available:   stock.Available,
			Required:    stock.Required,
		}
	}

	code := http.StatusInternalServerError
	if s, ok := status.FromError(err); ok {
		resp.Message = s.Message()
		switch s.Code() {
		case codes.InvalidArgument:
			code = http.StatusBadRequest
		case codes.NotFound:
			code = http.StatusNotFound
		case codes.FailedPrecondition:
			code = http.StatusBadRequest
		case codes.AlreadyExists:
			code = http.StatusConflict
		case codes.Unauthenticated:
			code = http.StatusUnauthorized
		}
	}
	if code == http.StatusInternalServerError {
		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Errorf("Request failed: %v", err)
		resp.Message = "Internal server error"
	}

	c.AbortWithStatusJSON(code, resp)
}

func parseIDParam(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse("Invalid "+param))
		return 0, false
	}
	return id, true
}

func parseIntQuery(c *gin.Context, param string, fallback int) int {
	str := c.Query(param)
	if str == "" {
		return fallback
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return fallback
	}
	return val
}

// parseDateQuery reads an optional YYYY-MM-DD query value.
func parseDateQuery(c *gin.Context, param string) (*time.Time, bool) {
	str := c.Query(param)
	if str == "" {
		return nil, true
	}
	t, err := time.ParseInLocation("2006-01-02", str, time.Local)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse("Invalid "+param+" date, expected YYYY-MM-DD"))
		return nil, false
	}
	return &t, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse("Invalid request body: "+err.Error()))
		return false
	}
	return true
}
