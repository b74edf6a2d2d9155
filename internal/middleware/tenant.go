package middleware

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"blog-platform/internal/model"
	"blog-platform/pkg/apperr"
	"blog-platform/pkg/database"
	"blog-platform/pkg/logger"
	"blog-platform/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Tenant identification headers. The ID header may carry the prefix an
// edge proxy injects; it is stripped before lookup.
const (
	TenantIDHeader   = "x-tenant-id"
	TenantNameHeader = "x-tenant-name"
	tenantIDPrefix   = "tenant-"

	tenantContextKey = "tenant"
)

// TenantMiddleware resolves the tenant for the request, by priority:
// the tenant-id header, the tenant-name header, then the leftmost label
// of a hostname with at least three labels. An unresolvable request is
// a 400, an unknown tenant a 404 and an inactive tenant a 403.
func TenantMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tenant, err := resolveTenant(c)
		if err != nil {
			return err
		}
		c.Set(tenantContextKey, tenant)
		return next(c)
	}
}

// OptionalTenantMiddleware performs the same resolution but swallows
// failure and continues without a tenant, for endpoints that must
// degrade gracefully.
func OptionalTenantMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if tenant, err := resolveTenant(c); err == nil {
			c.Set(tenantContextKey, tenant)
		} else {
			logger.FromContext(c).Debug("optional tenant resolution failed", zap.Error(err))
		}
		return next(c)
	}
}

// CurrentTenant returns the tenant resolved for the request, or nil
// when resolution was optional and failed.
func CurrentTenant(c echo.Context) *model.Tenant {
	tenant, _ := c.Get(tenantContextKey).(*model.Tenant)
	return tenant
}

// tenantCacheTTL bounds how long a deactivation can go unnoticed;
// signing material itself is immutable after creation, so serving a
// cached row never verifies against a rotated secret.
const tenantCacheTTL = 30 * time.Second

type tenantCacheEntry struct {
	tenant  model.Tenant
	expires time.Time
}

var (
	tenantCacheMu sync.RWMutex
	tenantCache   = map[string]tenantCacheEntry{}
)

func cachedTenant(key string) (*model.Tenant, bool) {
	tenantCacheMu.RLock()
	entry, ok := tenantCache[key]
	tenantCacheMu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	t := entry.tenant
	return &t, true
}

func storeTenant(key string, tenant *model.Tenant) {
	tenantCacheMu.Lock()
	tenantCache[key] = tenantCacheEntry{tenant: *tenant, expires: time.Now().Add(tenantCacheTTL)}
	tenantCacheMu.Unlock()
}

func resolveTenant(c echo.Context) (*model.Tenant, error) {
	log := logger.FromContext(c)

	identifier := strings.TrimSpace(c.Request().Header.Get(TenantIDHeader))
	identifier = strings.TrimPrefix(identifier, tenantIDPrefix)
	byName := false

	if identifier == "" {
		identifier = strings.TrimSpace(c.Request().Header.Get(TenantNameHeader))
		byName = true
	}
	if identifier == "" {
		identifier = subdomainLabel(c.Request().Host)
		byName = true
	}
	if identifier == "" {
		prometheus.RecordTenantError(0, "unidentifiable")
		return nil, apperr.Identification("tenant could not be determined from the request")
	}

	cacheKey := "name:" + identifier
	id, convErr := strconv.ParseUint(identifier, 10, 32)
	numeric := convErr == nil && !byName
	if numeric {
		cacheKey = "id:" + identifier
	}

	tenant, ok := cachedTenant(cacheKey)
	if !ok {
		var row model.Tenant
		var err error
		if numeric {
			err = database.GetDB().First(&row, uint(id)).Error
		} else {
			err = database.GetDB().Where("name = ?", identifier).First(&row).Error
		}
		if err != nil {
			log.Warn("tenant lookup failed", zap.String("identifier", identifier), zap.Error(err))
			prometheus.RecordTenantError(0, "not_found")
			// Identifier echoed for operator debugging.
			return nil, apperr.NotFound("tenant %q not found", identifier)
		}
		storeTenant(cacheKey, &row)
		tenant = &row
	}

	if !tenant.Active {
		prometheus.RecordTenantError(tenant.ID, "inactive")
		return nil, apperr.Forbidden("tenant %q is inactive", tenant.Name)
	}
	return tenant, nil
}

// subdomainLabel returns the leftmost label of hosts with at least
// three labels ("blog.example.com" -> "blog"); shorter hosts carry no
// tenant information.
func subdomainLabel(host string) string {
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return ""
	}
	return labels[0]
}
