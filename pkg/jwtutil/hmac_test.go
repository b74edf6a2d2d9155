package jwtutil

import (
	"testing"
	"time"

	"blog-platform/internal/model"
	"blog-platform/pkg/apperr"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hmacTenant(id uint, name, secret string) *model.Tenant {
	return &model.Tenant{
		ID:            id,
		Name:          name,
		Domain:        name + ".example.com",
		SigningSecret: secret,
		TokenTTLHours: 1,
	}
}

func TestHMACIssueVerify(t *testing.T) {
	signer := NewHMACSigner(24)
	tenant := hmacTenant(1, "alpha", "alpha-secret")

	token, err := signer.Issue(tenant, 7, model.RoleAdmin, "admin@alpha.test")
	require.NoError(t, err)

	claims, err := signer.Verify(tenant, token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, uint(1), claims.TenantID)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Equal(t, "admin@alpha.test", claims.Email)
	assert.Equal(t, "auth-service:alpha", claims.Issuer)
	assert.Contains(t, claims.Audience, "alpha.example.com")
}

func TestHMACCrossTenantDistinctSecrets(t *testing.T) {
	signer := NewHMACSigner(24)
	alpha := hmacTenant(1, "alpha", "alpha-secret")
	beta := hmacTenant(2, "beta", "beta-secret")

	token, err := signer.Issue(alpha, 7, model.RoleUser, "u@alpha.test")
	require.NoError(t, err)

	_, err = signer.Verify(beta, token)
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 401, appErr.StatusCode, "wrong secret reads as an invalid token")
}

func TestHMACCrossTenantSharedSecret(t *testing.T) {
	// When infrastructure shares one secret across tenants, only the
	// embedded tenant-id claim keeps tokens from crossing boundaries.
	signer := NewHMACSigner(24)
	alpha := hmacTenant(1, "alpha", "shared-secret")
	beta := hmacTenant(2, "beta", "shared-secret")

	token, err := signer.Issue(alpha, 7, model.RoleUser, "u@alpha.test")
	require.NoError(t, err)

	_, err = signer.Verify(beta, token)
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 403, appErr.StatusCode)
	assert.Equal(t, "TENANT_MISMATCH", appErr.Status)
}

func TestHMACExpired(t *testing.T) {
	signer := NewHMACSigner(24)
	tenant := hmacTenant(1, "alpha", "alpha-secret")

	token := signedHMACToken(t, tenant.SigningSecret, UserClaims{
		UserID:   7,
		TenantID: 1,
		Role:     model.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := signer.Verify(tenant, token)
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "EXPIRED_TOKEN", appErr.Status)
	assert.Equal(t, 401, appErr.StatusCode)
}

func TestHMACMismatchBeatsExpiry(t *testing.T) {
	// An expired token for the wrong tenant is an isolation breach
	// first and a stale credential second.
	signer := NewHMACSigner(24)
	beta := hmacTenant(2, "beta", "shared-secret")

	token := signedHMACToken(t, "shared-secret", UserClaims{
		UserID:   7,
		TenantID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := signer.Verify(beta, token)
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "TENANT_MISMATCH", appErr.Status)
}

func TestHMACGarbageToken(t *testing.T) {
	signer := NewHMACSigner(24)
	tenant := hmacTenant(1, "alpha", "alpha-secret")

	for _, bad := range []string{"", "garbage", "a.b.c"} {
		_, err := signer.Verify(tenant, bad)
		require.Error(t, err)
		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "INVALID_TOKEN", appErr.Status)
	}
}

func TestHMACMissingSecret(t *testing.T) {
	signer := NewHMACSigner(24)
	tenant := &model.Tenant{ID: 1, Name: "alpha", Domain: "alpha.example.com"}

	_, err := signer.Issue(tenant, 7, model.RoleUser, "u@alpha.test")
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 500, appErr.StatusCode, "missing key material is a deployment defect")
}

func TestRefreshPreservesEmbeddedRole(t *testing.T) {
	// Refresh reissues from the old token's claims without re-reading
	// the user row, so a role revoked since issuance survives in the
	// refreshed token.
	signer := NewHMACSigner(24)
	tenant := hmacTenant(1, "alpha", "alpha-secret")

	old, err := signer.Issue(tenant, 7, model.RoleAdmin, "admin@alpha.test")
	require.NoError(t, err)

	refreshed, err := Refresh(signer, tenant, old)
	require.NoError(t, err)

	claims, err := signer.Verify(tenant, refreshed)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Equal(t, "admin@alpha.test", claims.Email)
}

func TestRefreshRejectsForeignToken(t *testing.T) {
	signer := NewHMACSigner(24)
	alpha := hmacTenant(1, "alpha", "shared-secret")
	beta := hmacTenant(2, "beta", "shared-secret")

	old, err := signer.Issue(alpha, 7, model.RoleUser, "u@alpha.test")
	require.NoError(t, err)

	_, err = Refresh(signer, beta, old)
	require.Error(t, err)
}

func TestHMACJWKSEmpty(t *testing.T) {
	doc := NewHMACSigner(24).JWKS()
	require.NotNil(t, doc.Keys)
	assert.Empty(t, doc.Keys, "HMAC secrets are never published")
}

func TestGenerateTenantSecret(t *testing.T) {
	a, err := GenerateTenantSecret()
	require.NoError(t, err)
	b, err := GenerateTenantSecret()
	require.NoError(t, err)

	assert.Len(t, a, 128, "512 bits hex encoded")
	assert.NotEqual(t, a, b)
}

func signedHMACToken(t *testing.T, secret string, claims UserClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}
