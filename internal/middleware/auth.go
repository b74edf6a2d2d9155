package middleware

import (
	"strconv"
	"strings"

	"blog-platform/internal/model"
	"blog-platform/pkg/apperr"
	"blog-platform/pkg/jwtutil"
	"blog-platform/pkg/logger"
	"blog-platform/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Identity headers injected by a trusted upstream (gateway or service
// mesh) that has already verified the caller's token. When present
// they win over the bearer token, which keeps both the "trust the
// mesh" and the "verify yourself" deployments on the same code path,
// selected per request.
const (
	UserIDHeader    = "x-user-id"
	UserEmailHeader = "x-user-email"
	UserRoleHeader  = "x-user-role"
)

const (
	userIDContextKey = "user_id"
	emailContextKey  = "email"
	roleContextKey   = "user_role"
)

// principal is one resolved acting identity for a request.
type principal struct {
	UserID uint
	Email  string
	Role   string
}

// Authenticate resolves the acting principal through an ordered chain
// of strategies: trusted upstream headers first, then the bearer
// token. Absence of both is a 401.
func Authenticate(signer jwtutil.TokenSigner) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := resolvePrincipal(c, signer)
			if err != nil {
				return err
			}
			setPrincipal(c, p)
			return next(c)
		}
	}
}

// OptionalAuthenticate resolves the principal when a credential is
// present but never fails the request, for endpoints whose behavior
// merely differs for anonymous callers.
func OptionalAuthenticate(signer jwtutil.TokenSigner) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if p, err := resolvePrincipal(c, signer); err == nil {
				setPrincipal(c, p)
			} else {
				logger.FromContext(c).Debug("optional authentication failed", zap.Error(err))
			}
			return next(c)
		}
	}
}

// RequireAdmin gates a route on the privileged role. It assumes an
// authentication middleware ran earlier in the chain.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentRole(c) != model.RoleAdmin {
			prometheus.RecordAuthError("role_gate")
			return apperr.Forbidden("admin role required")
		}
		return next(c)
	}
}

// CurrentUserID returns the resolved principal's user ID.
func CurrentUserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(userIDContextKey).(uint)
	return id, ok
}

// CurrentEmail returns the resolved principal's email.
func CurrentEmail(c echo.Context) string {
	email, _ := c.Get(emailContextKey).(string)
	return email
}

// CurrentRole returns the resolved principal's role, empty for
// anonymous callers.
func CurrentRole(c echo.Context) string {
	role, _ := c.Get(roleContextKey).(string)
	return role
}

// IsAdmin reports whether the resolved principal holds the privileged
// role.
func IsAdmin(c echo.Context) bool {
	return CurrentRole(c) == model.RoleAdmin
}

func setPrincipal(c echo.Context, p *principal) {
	c.Set(userIDContextKey, p.UserID)
	c.Set(emailContextKey, p.Email)
	c.Set(roleContextKey, p.Role)
}

func resolvePrincipal(c echo.Context, signer jwtutil.TokenSigner) (*principal, error) {
	if p, ok := headerPrincipal(c); ok {
		return p, nil
	}
	return bearerPrincipal(c, signer)
}

// headerPrincipal trusts identity headers injected by a verified
// upstream outright, without re-checking a token.
func headerPrincipal(c echo.Context) (*principal, bool) {
	rawID := strings.TrimSpace(c.Request().Header.Get(UserIDHeader))
	if rawID == "" {
		return nil, false
	}
	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil {
		return nil, false
	}
	return &principal{
		UserID: uint(id),
		Email:  c.Request().Header.Get(UserEmailHeader),
		Role:   c.Request().Header.Get(UserRoleHeader),
	}, true
}

func bearerPrincipal(c echo.Context, signer jwtutil.TokenSigner) (*principal, error) {
	log := logger.FromContext(c)

	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		prometheus.RecordAuthError("missing_token")
		return nil, apperr.Unauthenticated("missing authorization token")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		prometheus.RecordAuthError("invalid_auth_format")
		return nil, apperr.Unauthenticated("invalid authorization format, expected Bearer token")
	}

	tenant := CurrentTenant(c)
	if tenant == nil {
		prometheus.RecordAuthError("missing_tenant_context")
		return nil, apperr.Unauthenticated("no tenant context for token verification")
	}

	claims, err := signer.Verify(tenant, parts[1])
	if err != nil {
		log.Warn("token verification failed", zap.Error(err))
		prometheus.RecordAuthError("invalid_token")
		return nil, err
	}
	return &principal{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}
