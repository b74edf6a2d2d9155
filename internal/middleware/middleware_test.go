package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"blog-platform/internal/model"
	"blog-platform/pkg/apperr"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(t *testing.T, headers map[string]string) echo.Context {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func okHandler(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestSubdomainLabel(t *testing.T) {
	assert.Equal(t, "alpha", subdomainLabel("alpha.example.com"))
	assert.Equal(t, "alpha", subdomainLabel("alpha.example.com:8080"))
	assert.Equal(t, "alpha", subdomainLabel("alpha.blog.example.com"))
	assert.Equal(t, "", subdomainLabel("example.com"), "two labels carry no tenant")
	assert.Equal(t, "", subdomainLabel("localhost:8080"))
}

func TestHeaderPrincipalWinsOverBearer(t *testing.T) {
	c := newContext(t, map[string]string{
		UserIDHeader:    "42",
		UserEmailHeader: "u@example.com",
		UserRoleHeader:  model.RoleAdmin,
		"Authorization": "Bearer not-even-a-token",
	})

	p, ok := headerPrincipal(c)
	require.True(t, ok)
	assert.Equal(t, uint(42), p.UserID)
	assert.Equal(t, "u@example.com", p.Email)
	assert.Equal(t, model.RoleAdmin, p.Role)

	// The chain never reaches the bearer strategy, so the junk token
	// above is irrelevant.
	got, err := resolvePrincipal(c, nil)
	require.NoError(t, err)
	assert.Equal(t, uint(42), got.UserID)
}

func TestHeaderPrincipalRejectsMalformedID(t *testing.T) {
	c := newContext(t, map[string]string{UserIDHeader: "not-a-number"})
	_, ok := headerPrincipal(c)
	assert.False(t, ok)
}

func TestBearerPrincipalMissingCredential(t *testing.T) {
	c := newContext(t, nil)
	_, err := bearerPrincipal(c, nil)
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 401, appErr.StatusCode)
}

func TestBearerPrincipalBadFormat(t *testing.T) {
	c := newContext(t, map[string]string{"Authorization": "Basic dXNlcjpwYXNz"})
	_, err := bearerPrincipal(c, nil)
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 401, appErr.StatusCode)
}

func TestRequireAdmin(t *testing.T) {
	c := newContext(t, nil)
	c.Set(roleContextKey, model.RoleUser)
	err := RequireAdmin(okHandler)(c)
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 403, appErr.StatusCode)

	c = newContext(t, nil)
	c.Set(roleContextKey, model.RoleAdmin)
	assert.NoError(t, RequireAdmin(okHandler)(c))

	// Anonymous callers are forbidden, not just unknown roles.
	c = newContext(t, nil)
	assert.Error(t, RequireAdmin(okHandler)(c))
}

func TestSuperAdminGate(t *testing.T) {
	mw := SuperAdmin("topsecret")

	c := newContext(t, map[string]string{SuperAdminKeyHeader: "topsecret"})
	assert.NoError(t, mw(okHandler)(c))

	c = newContext(t, map[string]string{SuperAdminKeyHeader: "wrong"})
	err := mw(okHandler)(c)
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 403, appErr.StatusCode)

	// An unset key must close the gate entirely, as a server defect.
	c = newContext(t, map[string]string{SuperAdminKeyHeader: ""})
	err = SuperAdmin("")(okHandler)(c)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 500, appErr.StatusCode)
}

func TestTenantCache(t *testing.T) {
	_, ok := cachedTenant("name:missing")
	assert.False(t, ok)

	stored := &model.Tenant{ID: 9, Name: "alpha", Active: true}
	storeTenant("name:alpha", stored)

	got, ok := cachedTenant("name:alpha")
	require.True(t, ok)
	assert.Equal(t, uint(9), got.ID)

	// The cache hands out copies, so callers cannot mutate the shared
	// entry.
	got.Active = false
	again, ok := cachedTenant("name:alpha")
	require.True(t, ok)
	assert.True(t, again.Active)
}

func TestInternalOnlyGate(t *testing.T) {
	c := newContext(t, map[string]string{InternalRequestHeader: "true"})
	assert.NoError(t, InternalOnly(okHandler)(c))

	c = newContext(t, nil)
	err := InternalOnly(okHandler)(c)
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 403, appErr.StatusCode)
}
