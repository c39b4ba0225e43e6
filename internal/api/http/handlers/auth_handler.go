package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

const (
	MsgLoginSuccessful  = "Login successful"
	MsgLogoutSuccessful = "Logout successful"
	MsgInvalidPayload   = "Invalid request body"
)

// AuthHandler exposes signup, login and session endpoints.
type AuthHandler struct {
	auth    *service.AuthService
	metrics *observability.Metrics
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, metrics *observability.Metrics) *AuthHandler {
	return &AuthHandler{auth: authService, metrics: metrics}
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError(MsgInvalidPayload, nil)
	}
	if err := req.Validate(); err != nil {
		h.recordAttempt("signup", err)
		return err
	}

	account, token, err := h.auth.Signup(c.UserContext(), service.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	h.recordAttempt("signup", err)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.NewAuthResponse(token, account, ""))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError(MsgInvalidPayload, nil)
	}
	if err := req.Validate(); err != nil {
		h.recordAttempt("login", err)
		return err
	}

	account, token, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	h.recordAttempt("login", err)
	if err != nil {
		return err
	}

	return c.JSON(dto.NewAuthResponse(token, account, MsgLoginSuccessful))
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(auth.MsgAccessTokenRequired)
	}

	account, err := h.auth.CurrentAccount(c.UserContext(), identity.AccountID)
	if err != nil {
		return err
	}
	return c.JSON(dto.CurrentUserResponse{User: dto.NewUserResponse(account)})
}

// Logout handles POST /auth/logout. Tokens are stateless; the client drops its copy.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(auth.MsgAccessTokenRequired)
	}
	if err := h.auth.Logout(c.UserContext(), identity); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: MsgLogoutSuccessful})
}

func (h *AuthHandler) recordAttempt(flow string, err error) {
	if err == nil {
		h.metrics.RecordAuthAttempt(flow, "success")
		return
	}
	h.metrics.RecordAuthAttempt(flow, apperrors.ToDomainError(err).Code)
}
