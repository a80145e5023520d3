package security

import (
	"net/http/httptest"
	"testing"
	"time"

	"stationery/pkg/core/fiber_handle"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuardedApp(auth *AdminAuth) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: fiber_handle.ErrHandler})
	app.Get("/admin/x", auth.RequireAdminAuth("admin:monitoring:read"), func(c *fiber.Ctx) error {
		account, err := GetAdminAccountByCtx(c.UserContext())
		if err != nil {
			return err
		}
		return c.SendString(account)
	})
	return app
}

func doGet(t *testing.T, app *fiber.App, token string) int {
	req := httptest.NewRequest("GET", "/admin/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp.StatusCode
}

func TestRequireAdminAuth(t *testing.T) {
	auth := NewAdminAuth([]byte("secret"), time.Hour)
	app := newGuardedApp(auth)

	// 缺少 token
	assert.Equal(t, 401, doGet(t, app, ""))
	// 非法 token
	assert.Equal(t, 401, doGet(t, app, "not-a-token"))

	super, _, err := auth.CreateAdminToken(&AdminClaims{ID: 1, Account: "root", AdminType: []string{SuperAdmin}})
	require.NoError(t, err)
	assert.Equal(t, 200, doGet(t, app, super))

	reader, _, err := auth.CreateAdminToken(&AdminClaims{ID: 2, Account: "ops", AdminType: []string{"admin:monitoring:read"}})
	require.NoError(t, err)
	assert.Equal(t, 200, doGet(t, app, reader))

	other, _, err := auth.CreateAdminToken(&AdminClaims{ID: 3, Account: "clerk", AdminType: []string{"admin:order:read"}})
	require.NoError(t, err)
	assert.Equal(t, 403, doGet(t, app, other))
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _, err := NewAdminAuth([]byte("a"), time.Hour).CreateAdminToken(&AdminClaims{ID: 1})
	require.NoError(t, err)

	_, err = NewAdminAuth([]byte("b"), time.Hour).ParseToken(token)
	assert.Error(t, err)

	claims, err := NewAdminAuth([]byte("a"), time.Hour).ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.ID)
}

func TestHasRoles(t *testing.T) {
	c := &AdminClaims{AdminType: []string{"admin:monitoring:read"}}
	assert.True(t, c.HasRoles())
	assert.True(t, c.HasRoles("admin:monitoring:read"))
	assert.False(t, c.HasRoles("admin:monitoring:read", "admin:monitoring:write"))

	super := &AdminClaims{AdminType: []string{SuperAdmin}}
	assert.True(t, super.HasRoles("admin:monitoring:write"))
}
