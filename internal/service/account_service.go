package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	MsgInvalidStatus    = "Invalid status value"
	MsgOwnStatus        = "Cannot change your own status"
	MsgNoFieldsToUpdate = "No fields to update"
	MsgEmailInUse       = "Email already in use"
)

// AccountService implements admin listing, status changes and self-service profile edits.
type AccountService struct {
	accounts repository.AccountRepository
	logger   *zap.Logger
}

// NewAccountService wires the service.
func NewAccountService(accounts repository.AccountRepository, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{accounts: accounts, logger: logger}
}

// Page describes one page of accounts.
type Page struct {
	Accounts   []domain.Account
	Page       int
	Limit      int
	Total      int64
	TotalPages int
}

// ProfileChanges lists the fields a caller may change on their own account.
// Nil or blank fields are left alone.
type ProfileChanges struct {
	FullName *string
	Email    *string
}

// List returns accounts newest first. Non-positive page and limit fall back to
// defaults and limit is capped at MaxPageSize.
func (s *AccountService) List(ctx context.Context, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	accounts := []domain.Account{}
	// A page whose offset does not fit in an int is past any stored row.
	if page-1 <= (math.MaxInt-limit)/limit {
		var err error
		accounts, err = s.accounts.List(ctx, repository.AccountFilter{Limit: limit, Offset: (page - 1) * limit})
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}
	total, err := s.accounts.Count(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	return &Page{
		Accounts:   accounts,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// UpdateStatus sets another account's status on behalf of an admin. An admin
// may never change their own status, whatever the requested value.
func (s *AccountService) UpdateStatus(ctx context.Context, caller domain.Identity, targetID, status string) (*domain.Account, error) {
	newStatus, ok := domain.ParseAccountStatus(status)
	if !ok {
		return nil, apperrors.NewValidationError(MsgInvalidStatus, map[string]any{"status": status})
	}

	account, err := loadAccount(ctx, s.accounts, targetID)
	if err != nil {
		return nil, err
	}
	if account.ID == caller.AccountID {
		return nil, apperrors.NewValidationError(MsgOwnStatus, nil)
	}

	account.Status = newStatus
	if err := s.accounts.Update(ctx, account); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound(MsgUserNotFound)
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("account status changed",
		zap.String("account_id", account.ID),
		zap.String("status", string(newStatus)),
		zap.String("changed_by", caller.AccountID))
	return account, nil
}

// UpdateProfile changes the caller's full name and/or email.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, changes ProfileChanges) (*domain.Account, error) {
	var fullName, email string
	if changes.FullName != nil {
		fullName = strings.TrimSpace(*changes.FullName)
	}
	if changes.Email != nil {
		email = domain.NormalizeEmail(*changes.Email)
	}
	if fullName == "" && email == "" {
		return nil, apperrors.NewValidationError(MsgNoFieldsToUpdate, nil)
	}

	account, err := loadAccount(ctx, s.accounts, accountID)
	if err != nil {
		return nil, err
	}

	if fullName != "" {
		account.FullName = fullName
	}
	if email != "" {
		if !auth.IsValidEmail(email) {
			return nil, apperrors.NewValidationError(MsgInvalidEmail, nil)
		}
		owner, err := s.accounts.GetByEmail(ctx, email)
		switch {
		case err == nil && owner.ID != account.ID:
			return nil, apperrors.NewConflict(MsgEmailInUse, nil)
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NewInternalError(err)
		}
		account.Email = email
	}

	if err := s.accounts.Update(ctx, account); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailTaken):
			return nil, apperrors.NewConflict(MsgEmailInUse, nil)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NewNotFound(MsgUserNotFound)
		default:
			return nil, apperrors.NewInternalError(err)
		}
	}
	return account, nil
}
