package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

func newGateApp(tm *auth.TokenManager) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": domainErr.Message, "code": domainErr.Code})
		},
	})
	gate := auth.NewAuthMiddleware(tm)

	app.Get("/me", gate.Handle, func(c *fiber.Ctx) error {
		identity, ok := auth.IdentityFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.JSON(fiber.Map{"id": identity.AccountID, "role": identity.Role})
	})
	app.Get("/admin", gate.Handle, auth.RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/unguarded-admin", auth.RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func doGet(t *testing.T, app *fiber.App, path, authorization string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := map[string]any{}
	if resp.Header.Get("Content-Type") == fiber.MIMEApplicationJSON {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

func TestAuthMiddleware_Handle(t *testing.T) {
	tm := auth.NewTokenManager("secret", 60)
	app := newGateApp(tm)

	userToken, err := tm.Issue("user-1", domain.RoleUser)
	require.NoError(t, err)

	t.Run("valid token attaches identity", func(t *testing.T) {
		status, body := doGet(t, app, "/me", "Bearer "+userToken.Value)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "user-1", body["id"])
		assert.Equal(t, "user", body["role"])
	})

	t.Run("scheme is case-insensitive", func(t *testing.T) {
		status, _ := doGet(t, app, "/me", "bearer "+userToken.Value)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("missing header is unauthorized", func(t *testing.T) {
		status, body := doGet(t, app, "/me", "")
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, auth.MsgAccessTokenRequired, body["error"])
	})

	t.Run("bearer without token is unauthorized", func(t *testing.T) {
		status, body := doGet(t, app, "/me", "Bearer ")
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, auth.MsgAccessTokenRequired, body["error"])
	})

	t.Run("non-bearer scheme is unauthorized", func(t *testing.T) {
		status, body := doGet(t, app, "/me", "Basic "+userToken.Value)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, auth.MsgAccessTokenRequired, body["error"])
	})

	t.Run("invalid token is forbidden", func(t *testing.T) {
		status, body := doGet(t, app, "/me", "Bearer invalid_token")
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, auth.MsgInvalidToken, body["error"])
		assert.Equal(t, apperrors.CodeForbidden, body["code"])
	})

	t.Run("token signed with another secret is forbidden", func(t *testing.T) {
		foreign, err := auth.NewTokenManager("other", 60).Issue("user-1", domain.RoleAdmin)
		require.NoError(t, err)
		status, _ := doGet(t, app, "/me", "Bearer "+foreign.Value)
		assert.Equal(t, http.StatusForbidden, status)
	})
}

func TestRequireRole(t *testing.T) {
	tm := auth.NewTokenManager("secret", 60)
	app := newGateApp(tm)

	userToken, err := tm.Issue("user-1", domain.RoleUser)
	require.NoError(t, err)
	adminToken, err := tm.Issue("admin-1", domain.RoleAdmin)
	require.NoError(t, err)

	t.Run("admin passes", func(t *testing.T) {
		status, _ := doGet(t, app, "/admin", "Bearer "+adminToken.Value)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("user is forbidden", func(t *testing.T) {
		status, body := doGet(t, app, "/admin", "Bearer "+userToken.Value)
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, auth.MsgAdminRequired, body["error"])
	})

	t.Run("without authenticate is unauthorized", func(t *testing.T) {
		status, _ := doGet(t, app, "/unguarded-admin", "")
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}
