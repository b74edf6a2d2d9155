package jwtutil

import (
	"github.com/golang-jwt/jwt/v4"
)

// UserClaims represents the JWT claims carried by a session token. A
// token is bound to exactly one tenant; the TenantID claim is checked
// against the resolution context on every verification, which is what
// keeps tokens from crossing tenant boundaries when signing material is
// shared infrastructure-wide.
type UserClaims struct {
	UserID   uint   `json:"user_id"`
	TenantID uint   `json:"tenant_id"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}
