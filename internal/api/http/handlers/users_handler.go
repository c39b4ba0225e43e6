package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

const (
	MsgProfileUpdated  = "Profile updated successfully"
	MsgPasswordChanged = "Password changed successfully"
	MsgUserActivated   = "User activated successfully"
	MsgUserDeactivated = "User deactivated successfully"
)

// UsersHandler exposes account management endpoints.
type UsersHandler struct {
	auth     *service.AuthService
	accounts *service.AccountService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, accountService *service.AccountService) *UsersHandler {
	return &UsersHandler{auth: authService, accounts: accountService}
}

// List handles GET /users?page=&limit=. Admin only.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	page, err := h.accounts.List(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("limit", service.DefaultPageSize))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewListUsersResponse(page))
}

// UpdateStatus handles PATCH /users/:id/status. Admin only.
func (h *UsersHandler) UpdateStatus(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(auth.MsgAccessTokenRequired)
	}

	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError(MsgInvalidPayload, nil)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	account, err := h.accounts.UpdateStatus(c.UserContext(), identity, c.Params("id"), req.Status)
	if err != nil {
		return err
	}

	message := MsgUserDeactivated
	if account.Status == domain.AccountStatusActive {
		message = MsgUserActivated
	}
	return c.JSON(dto.UserMessageResponse{Message: message, User: dto.NewUserResponse(account)})
}

// UpdateProfile handles PUT /users/profile for the caller's own account.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(auth.MsgAccessTokenRequired)
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError(MsgInvalidPayload, nil)
	}

	account, err := h.accounts.UpdateProfile(c.UserContext(), identity.AccountID, req.Changes())
	if err != nil {
		return err
	}
	return c.JSON(dto.UserMessageResponse{Message: MsgProfileUpdated, User: dto.NewUserResponse(account)})
}

// ChangePassword handles PUT /users/password for the caller's own account.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(auth.MsgAccessTokenRequired)
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError(MsgInvalidPayload, nil)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	if err := h.auth.ChangePassword(c.UserContext(), identity.AccountID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: MsgPasswordChanged})
}
