package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/domain"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

const identityKey = "auth_identity"

// Gate messages returned to clients.
const (
	MsgAccessTokenRequired = "Access token required"
	MsgInvalidToken        = "Invalid or expired token"
)

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(token string) (domain.Identity, error)
}

// AuthMiddleware validates bearer tokens and attaches the caller identity.
type AuthMiddleware struct {
	tokens TokenVerifier
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes. A missing token is
// 401; a token that fails verification is 403.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	identity, err := m.tokens.Verify(bearerToken(c.Get(fiber.HeaderAuthorization)))
	if err != nil {
		if errors.Is(err, ErrTokenMissing) {
			return apperrors.NewUnauthorized(MsgAccessTokenRequired)
		}
		return apperrors.NewForbidden(MsgInvalidToken)
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// bearerToken returns the credential of a "Bearer <token>" header. Any other
// scheme yields no token.
func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(domain.Identity)
	return identity, ok
}
