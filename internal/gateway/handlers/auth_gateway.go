package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	user "backoffice-system/internal/services/user/handler"
)

type AuthService interface {
	Authenticate(ctx context.Context, email, password string) (*user.LoginResult, error)
}

type UserHTTPHandler struct {
	users  AuthService
	logger *logrus.Logger
}

func NewUserHTTPHandler(svc AuthService, logger *logrus.Logger) *UserHTTPHandler {
	return &UserHTTPHandler{users: svc, logger: logger}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *UserHTTPHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("login successful", result))
}
