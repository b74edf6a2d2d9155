package jwtutil

import (
	"errors"
	"time"

	"blog-platform/internal/model"
	"blog-platform/pkg/apperr"

	"github.com/golang-jwt/jwt/v4"
)

// HMACSigner signs tokens with each tenant's own secret. A tenant
// without a secret is a deployment defect, not a client error.
type HMACSigner struct {
	defaultTTLHours int
}

// NewHMACSigner creates the per-tenant-secret signer.
func NewHMACSigner(defaultTTLHours int) *HMACSigner {
	return &HMACSigner{defaultTTLHours: defaultTTLHours}
}

// Issue creates a signed token for the tenant using its secret.
func (s *HMACSigner) Issue(tenant *model.Tenant, userID uint, role, email string) (string, error) {
	if tenant.SigningSecret == "" {
		return "", apperr.Configuration("tenant %d has no signing secret", tenant.ID)
	}

	now := time.Now()
	claims := UserClaims{
		UserID:   userID,
		TenantID: tenant.ID,
		Role:     role,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "auth-service:" + tenant.Name,
			Audience:  jwt.ClaimStrings{tenant.Domain},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL(tenant, s.defaultTTLHours))),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(tenant.SigningSecret))
}

// Verify validates the token under the tenant's secret. The tenant-id
// claim is checked before the expiry result is acted on, so a token
// minted for another tenant surfaces as a mismatch even when it is also
// expired.
func (s *HMACSigner) Verify(tenant *model.Tenant, tokenString string) (*UserClaims, error) {
	if tenant.SigningSecret == "" {
		return nil, apperr.Configuration("tenant %d has no signing secret", tenant.ID)
	}

	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(tenant.SigningSecret), nil
	})

	var claims *UserClaims
	if token != nil {
		claims, _ = token.Claims.(*UserClaims)
	}

	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) ||
			errors.Is(err, jwt.ErrTokenUnverifiable) ||
			errors.Is(err, jwt.ErrTokenSignatureInvalid) ||
			errors.Is(err, jwt.ErrSignatureInvalid) {
			return nil, errInvalidToken().WithCause(err)
		}
		if claims != nil && claims.TenantID != tenant.ID {
			return nil, errTenantMismatch(claims.TenantID, tenant.ID)
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errExpiredToken().WithCause(err)
		}
		return nil, errInvalidToken().WithCause(err)
	}

	if claims == nil || !token.Valid {
		return nil, errInvalidToken()
	}
	if claims.TenantID != tenant.ID {
		return nil, errTenantMismatch(claims.TenantID, tenant.ID)
	}
	return claims, nil
}

// JWKS returns an empty key set; HMAC secrets are never published.
func (s *HMACSigner) JWKS() JWKSDocument {
	return JWKSDocument{Keys: []JWK{}}
}
