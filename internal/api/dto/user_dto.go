package dto

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// SignupRequest payload for new accounts.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

// Validate checks presence only; format and strength rules live in the service.
func (r SignupRequest) Validate() error {
	return asValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.FullName, validation.Required),
	), service.MsgSignupFieldsRequired)
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return asValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	), service.MsgLoginFieldsRequired)
}

// ChangePasswordRequest payload for PUT /users/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (r ChangePasswordRequest) Validate() error {
	return asValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required),
	), service.MsgPasswordFieldsMissing)
}

// UpdateProfileRequest payload for PUT /users/profile. Absent fields stay unchanged.
type UpdateProfileRequest struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
}

// Changes converts the payload to the service option set.
func (r UpdateProfileRequest) Changes() service.ProfileChanges {
	return service.ProfileChanges{FullName: r.FullName, Email: r.Email}
}

// UpdateStatusRequest payload for PATCH /users/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (r UpdateStatusRequest) Validate() error {
	return asValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Status,
			validation.Required,
			validation.In(string(domain.AccountStatusActive), string(domain.AccountStatusInactive)),
		),
	), service.MsgInvalidStatus)
}

// UserResponse is the account view returned to clients. It never carries the password hash.
type UserResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"fullName"`
	Role      string     `json:"role"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// NewUserResponse builds the view of account.
func NewUserResponse(account *domain.Account) UserResponse {
	return UserResponse{
		ID:        account.ID,
		Email:     account.Email,
		FullName:  account.FullName,
		Role:      string(account.Role),
		Status:    string(account.Status),
		CreatedAt: account.CreatedAt,
		LastLogin: account.LastLogin,
	}
}

// AuthResponse standard response for signup and login.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Message   string       `json:"message,omitempty"`
	User      UserResponse `json:"user"`
}

// NewAuthResponse pairs a token with the account it was issued for.
func NewAuthResponse(token domain.IssuedToken, account *domain.Account, message string) AuthResponse {
	return AuthResponse{
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
		Message:   message,
		User:      NewUserResponse(account),
	}
}

// CurrentUserResponse wraps GET /auth/me.
type CurrentUserResponse struct {
	User UserResponse `json:"user"`
}

// MessageResponse carries a human-readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserMessageResponse carries an outcome plus the affected account.
type UserMessageResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// Pagination describes the page returned by GET /users.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// ListUsersResponse wraps GET /users.
type ListUsersResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination Pagination     `json:"pagination"`
}

// NewListUsersResponse converts a service page.
func NewListUsersResponse(page *service.Page) ListUsersResponse {
	users := make([]UserResponse, 0, len(page.Accounts))
	for i := range page.Accounts {
		users = append(users, NewUserResponse(&page.Accounts[i]))
	}
	return ListUsersResponse{
		Users: users,
		Pagination: Pagination{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		},
	}
}

// asValidationError reports ozzo field errors under one client-facing message,
// with per-field reasons in details.
func asValidationError(err error, message string) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewInternalError(err)
	}
	details := make(map[string]any, len(fieldErrs))
	for field, fieldErr := range fieldErrs {
		details[field] = fieldErr.Error()
	}
	return apperrors.NewValidationError(message, details)
}
