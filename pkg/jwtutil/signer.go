package jwtutil

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"blog-platform/internal/model"
	"blog-platform/pkg/apperr"
	"blog-platform/pkg/config"
)

// Verification failure taxonomy. Operators need to tell "client must
// log in again" (invalid/expired, 401) apart from "tenant isolation
// breach" (mismatch, 403): a cryptographically valid token presented
// under the wrong tenant is a forged or stolen token, not a stale one.
func errInvalidToken() *apperr.Error {
	return apperr.New(http.StatusUnauthorized, "INVALID_TOKEN", "invalid authentication token")
}

func errExpiredToken() *apperr.Error {
	return apperr.New(http.StatusUnauthorized, "EXPIRED_TOKEN", "authentication token expired")
}

func errTenantMismatch(got, want uint) *apperr.Error {
	return apperr.New(http.StatusForbidden, "TENANT_MISMATCH",
		"token issued for tenant %d presented to tenant %d", got, want)
}

// TokenSigner issues and verifies session tokens for a tenant. The
// implementation is selected once at startup from configuration: HMAC
// with a per-tenant secret, or RS256 with a single service-wide
// keypair.
type TokenSigner interface {
	// Issue mints a token scoped to the given tenant.
	Issue(tenant *model.Tenant, userID uint, role, email string) (string, error)

	// Verify checks the token against the tenant's signing material and
	// rejects tokens whose embedded tenant ID does not match, even when
	// they are cryptographically valid.
	Verify(tenant *model.Tenant, tokenString string) (*UserClaims, error)

	// JWKS returns the public key set for external verifiers. Empty in
	// HMAC mode.
	JWKS() JWKSDocument
}

// NewSigner builds the signer selected by JWT_MODE.
func NewSigner(cfg *config.JWTConfig) (TokenSigner, error) {
	switch cfg.Mode {
	case "hmac":
		return NewHMACSigner(cfg.ExpirationHours), nil
	case "rs256":
		return NewRSASigner(cfg)
	default:
		return nil, fmt.Errorf("unknown JWT mode %q", cfg.Mode)
	}
}

// Refresh verifies oldToken under the tenant's context and reissues it
// with a fresh expiry.
//
// The new token preserves the role and email embedded in the old token
// and does not re-read the user row. If the user's role was revoked
// between issuance and refresh, the refreshed token keeps the stale
// role until it expires. Known behavior carried over from the original
// service; change it only together with the stakeholders of the token
// contract.
func Refresh(s TokenSigner, tenant *model.Tenant, oldToken string) (string, error) {
	claims, err := s.Verify(tenant, oldToken)
	if err != nil {
		return "", err
	}
	return s.Issue(tenant, claims.UserID, claims.Role, claims.Email)
}

// GenerateTenantSecret returns a new 512-bit random secret, hex
// encoded. Called once at tenant creation; the secret is immutable
// afterwards and may be cached per-process.
func GenerateTenantSecret() (string, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func tokenTTL(tenant *model.Tenant, defaultHours int) time.Duration {
	hours := tenant.TokenTTLHours
	if hours <= 0 {
		hours = defaultHours
	}
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}
