package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/domain"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// MsgAdminRequired is returned when a non-admin reaches an admin route.
const MsgAdminRequired = "Admin access required"

// RequireRole ensures the authenticated identity carries role. It must run
// after AuthMiddleware.Handle.
func RequireRole(role domain.Role) fiber.Handler {
	message := "Insufficient role"
	if role == domain.RoleAdmin {
		message = MsgAdminRequired
	}

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized(MsgAccessTokenRequired)
		}
		if !identity.HasRole(role) {
			return apperrors.NewForbidden(message)
		}
		return c.Next()
	}
}

// RequireAdmin is RequireRole(domain.RoleAdmin).
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.RoleAdmin)
}
