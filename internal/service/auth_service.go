package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

const (
	MsgSignupFieldsRequired  = "Email, password and full name are required"
	MsgLoginFieldsRequired   = "Email and password are required"
	MsgInvalidEmail          = "Invalid email format"
	MsgEmailRegistered       = "Email already registered"
	MsgInvalidCredentials    = "Invalid credentials"
	MsgUserNotFound          = "User not found"
	MsgPasswordFieldsMissing = "Current and new password required"
	MsgCurrentPasswordWrong  = "Current password is incorrect"
	MsgPasswordTooLong       = "Password must be at most 72 bytes"
)

// AuthService coordinates signup, login and the password lifecycle.
type AuthService struct {
	accounts  repository.AccountRepository
	hasher    auth.PasswordHasher
	tokenMgr  *auth.TokenManager
	logger    *zap.Logger
	now       func() time.Time
	dummyHash string
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Accounts repository.AccountRepository
	// Hasher defaults to bcrypt at cfg.Auth.BcryptCost.
	Hasher auth.PasswordHasher
	Logger *zap.Logger
}

// SignupInput carries the fields of a registration request.
type SignupInput struct {
	Email    string
	Password string
	FullName string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	hasher := deps.Hasher
	if hasher == nil {
		hasher = auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Compared against when the email is unknown, so both login failures cost one hash check.
	dummyHash, err := auth.RandomPasswordHash(hasher)
	if err != nil {
		logger.Warn("unable to prepare dummy password hash", zap.Error(err))
	}

	return &AuthService{
		accounts:  deps.Accounts,
		hasher:    hasher,
		tokenMgr:  auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		dummyHash: dummyHash,
	}
}

// TokenManager exposes the token manager so the HTTP gate verifies with the same secret.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Signup registers a user-role account and issues its first token.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.Account, domain.IssuedToken, error) {
	account, err := s.createAccount(ctx, in, domain.RoleUser)
	if err != nil {
		return nil, domain.IssuedToken{}, err
	}

	token, err := s.tokenMgr.Issue(account.ID, account.Role)
	if err != nil {
		return nil, domain.IssuedToken{}, apperrors.NewInternalError(err)
	}

	s.logger.Info("account registered", zap.String("account_id", account.ID))
	return account, token, nil
}

// ProvisionAdmin creates an admin account. It is only reachable from the CLI.
func (s *AuthService) ProvisionAdmin(ctx context.Context, in SignupInput) (*domain.Account, error) {
	account, err := s.createAccount(ctx, in, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.logger.Info("admin account provisioned", zap.String("account_id", account.ID))
	return account, nil
}

func (s *AuthService) createAccount(ctx context.Context, in SignupInput, role domain.Role) (*domain.Account, error) {
	email := domain.NormalizeEmail(in.Email)
	fullName := strings.TrimSpace(in.FullName)
	if email == "" || in.Password == "" || fullName == "" {
		return nil, apperrors.NewValidationError(MsgSignupFieldsRequired, nil)
	}
	if !auth.IsValidEmail(email) {
		return nil, apperrors.NewValidationError(MsgInvalidEmail, nil)
	}
	if !auth.IsValidPassword(in.Password) {
		return nil, apperrors.NewValidationError(auth.PasswordPolicyMessage, nil)
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict(MsgEmailRegistered, nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         role,
		Status:       domain.AccountStatusActive,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		// The pre-check above can lose a race; the store has the final word.
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperrors.NewConflict(MsgEmailRegistered, nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return account, nil
}

// Login authenticates by email and password. Unknown email and wrong password
// produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Account, domain.IssuedToken, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.IssuedToken{}, apperrors.NewValidationError(MsgLoginFieldsRequired, nil)
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.hasher.Verify(password, s.dummyHash)
		return nil, domain.IssuedToken{}, apperrors.NewUnauthorized(MsgInvalidCredentials)
	case err != nil:
		return nil, domain.IssuedToken{}, apperrors.NewInternalError(err)
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, domain.IssuedToken{}, apperrors.NewUnauthorized(MsgInvalidCredentials)
	}

	token, err := s.tokenMgr.Issue(account.ID, account.Role)
	if err != nil {
		return nil, domain.IssuedToken{}, apperrors.NewInternalError(err)
	}

	now := s.now()
	if err := s.accounts.TouchLastLogin(ctx, account.ID, now); err != nil {
		s.logger.Warn("unable to record last login", zap.String("account_id", account.ID), zap.Error(err))
	} else {
		account.LastLogin = &now
	}
	return account, token, nil
}

// CurrentAccount loads the caller's account fresh from the store.
func (s *AuthService) CurrentAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	return loadAccount(ctx, s.accounts, accountID)
}

// Logout currently no-ops for stateless JWT approach.
func (s *AuthService) Logout(_ context.Context, _ domain.Identity) error {
	return nil
}

// ChangePassword replaces the caller's password after verifying the current one.
// Tokens issued before the change stay valid until they expire.
func (s *AuthService) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return apperrors.NewValidationError(MsgPasswordFieldsMissing, nil)
	}
	if !auth.IsValidPassword(newPassword) {
		return apperrors.NewValidationError(auth.PasswordPolicyMessage, nil)
	}

	account, err := loadAccount(ctx, s.accounts, accountID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(currentPassword, account.PasswordHash) {
		return apperrors.NewUnauthorized(MsgCurrentPasswordWrong)
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	account.PasswordHash = hash
	if err := s.accounts.Update(ctx, account); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound(MsgUserNotFound)
		}
		return apperrors.NewInternalError(err)
	}

	s.logger.Info("password changed", zap.String("account_id", account.ID))
	return nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return "", apperrors.NewValidationError(MsgPasswordTooLong, nil)
		}
		return "", apperrors.NewInternalError(err)
	}
	return hash, nil
}

func loadAccount(ctx context.Context, accounts repository.AccountRepository, id string) (*domain.Account, error) {
	account, err := accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound(MsgUserNotFound)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return account, nil
}
