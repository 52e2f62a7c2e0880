package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"backoffice-system/internal/database/models"
	"backoffice-system/internal/errs"
	sysutils "backoffice-system/internal/utils"
)

const msgBadCredentials = "invalid email or password"

type UserHandler struct {
	db     *gorm.DB
	tokens *sysutils.TokenIssuer
	logger *logrus.Logger
}

func NewUserHandler(db *gorm.DB, tokens *sysutils.TokenIssuer, logger *logrus.Logger) *UserHandler {
	return &UserHandler{
		db:     db,
		tokens: tokens,
		logger: logger,
	}
}

type CreateUserRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
}

func (s *UserHandler) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	v := &errs.ValidationError{}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		v.Add("email", "email is required")
	}
	if len(req.Password) < 8 {
		v.Add("password", "password must have at least 8 characters")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		v.Add("name", "name is required")
	}
	role := req.Role
	if role == "" {
		role = models.RoleStaff
	}
	if role != models.RoleAdmin && role != models.RoleStaff {
		v.Add("role", fmt.Sprintf("invalid role %q", req.Role))
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := models.User{
		Email:    email,
		Password: string(pwHash),
		Name:     name,
		Role:     role,
		Active:   true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.Conflict("a user with email %s already exists", email)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("User created")
	return &user, nil
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Authenticate checks credentials of an active user and issues a token.
func (s *UserHandler) Authenticate(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errs.Invalid("credentials", "email and password are required")
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ? AND active = ?", email, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Unauthenticated(msgBadCredentials)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.logger.WithField("user_id", user.ID).Warn("Rejected login with wrong password")
		return nil, errs.Unauthenticated(msgBadCredentials)
	}

	token, exp, err := s.tokens.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		s.logger.Warnf("Failed to record last login for user %d: %v", user.ID, err)
	}
	user.LastLogin = &now

	return &LoginResult{Token: token, ExpiresAt: exp, User: &user}, nil
}

func (s *UserHandler) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("user", id)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// SeedAdmin creates the first admin account when the users table is empty.
// It reports whether an account was created.
func (s *UserHandler) SeedAdmin(ctx context.Context, email, password, name string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	if strings.TrimSpace(email) == "" || password == "" {
		s.logger.Warn("No users exist and no admin credentials are configured")
		return false, nil
	}

	if _, err := s.CreateUser(ctx, CreateUserRequest{
		Email:    email,
		Password: password,
		Name:     name,
		Role:     models.RoleAdmin,
	}); err != nil {
		return false, err
	}
	s.logger.Infof("Seeded admin account %s", strings.ToLower(strings.TrimSpace(email)))
	return true, nil
}
