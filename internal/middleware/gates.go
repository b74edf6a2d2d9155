package middleware

import (
	"crypto/subtle"

	"blog-platform/pkg/apperr"
	"blog-platform/prometheus"

	"github.com/labstack/echo/v4"
)

// Cluster-boundary headers.
const (
	SuperAdminKeyHeader   = "x-super-admin-key"
	InternalRequestHeader = "x-internal-request"
)

// SuperAdmin gates tenant lifecycle endpoints on the process-wide
// super-admin key. The comparison is constant-time so the key cannot
// be probed through timing.
func SuperAdmin(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if key == "" {
				return apperr.Configuration("super admin key is not configured")
			}
			presented := c.Request().Header.Get(SuperAdminKeyHeader)
			if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				prometheus.RecordAuthError("super_admin_key")
				return apperr.Forbidden("invalid super admin key")
			}
			return next(c)
		}
	}
}

// InternalOnly gates endpoints reachable only from inside the
// cluster; the mesh strips the marker header from external traffic.
func InternalOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Header.Get(InternalRequestHeader) != "true" {
			prometheus.RecordAuthError("internal_gate")
			return apperr.Forbidden("internal endpoint")
		}
		return next(c)
	}
}
