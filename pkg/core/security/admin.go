// Package security 管理后台的 JWT 鉴权
package security

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	errorc "stationery/pkg/core/err"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// SuperAdmin 持有该角色跳过接口权限校验
const SuperAdmin = "SuperAdmin"

type adminCtxKey string

const AdminKey adminCtxKey = "admin"

type AdminClaims struct {
	jwt.RegisteredClaims
	ID        int64    `json:"id"`
	Account   string   `json:"account,omitempty"`
	AdminType []string `json:"admin_type"`
}

// HasRoles 需要同时具备全部角色
func (c *AdminClaims) HasRoles(roles ...string) bool {
	if slices.Contains(c.AdminType, SuperAdmin) {
		return true
	}
	for _, role := range roles {
		if !slices.Contains(c.AdminType, role) {
			return false
		}
	}
	return true
}

type AdminAuth struct {
	secret []byte
	ttl    time.Duration
}

// NewAdminAuth ttl 未配置时默认一天
func NewAdminAuth(secret []byte, ttl time.Duration) *AdminAuth {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AdminAuth{secret: secret, ttl: ttl}
}

// CreateAdminToken 返回签名后的 token 和过期时间戳
func (a *AdminAuth) CreateAdminToken(claims *AdminClaims) (string, int64, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(a.ttl))
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	return signed, claims.ExpiresAt.Unix(), err
}

func (a *AdminAuth) ParseToken(raw string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// RequireAdminAuth 校验 Bearer token，通过后把 claims 放进 UserContext
func (a *AdminAuth) RequireAdminAuth(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || raw == "" {
			return errorc.New("authorization header is required", nil).NoAuth()
		}

		claims, err := a.ParseToken(raw)
		if err != nil {
			return errorc.New("invalid token", err).NoAuth()
		}
		if !claims.HasRoles(roles...) {
			return errorc.New("permission denied", errors.New(strings.Join(roles, ","))).Forbidden()
		}

		c.SetUserContext(context.WithValue(c.UserContext(), AdminKey, claims))
		return c.Next()
	}
}

func GetAdminClaimsByCtx(ctx context.Context) (*AdminClaims, error) {
	claims, ok := ctx.Value(AdminKey).(*AdminClaims)
	if !ok {
		return nil, errorc.New("admin claims not found or invalid", nil).NoAuth()
	}
	return claims, nil
}

// GetAdminAccountByCtx 操作日志里记录触发人
func GetAdminAccountByCtx(ctx context.Context) (string, error) {
	claims, err := GetAdminClaimsByCtx(ctx)
	if err != nil {
		return "", err
	}
	return claims.Account, nil
}
