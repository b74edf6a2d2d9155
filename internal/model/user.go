package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles. Role escalation to RoleAdmin happens only through the
// OAuth admin allow-list evaluated at login time.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User statuses.
const (
	StatusActive    = "ACTIVE"
	StatusSuspended = "SUSPENDED"
	StatusDeleted   = "DELETED"
)

// User represents an account owned by exactly one tenant. Email is
// unique per tenant, not globally.
type User struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	TenantID uint   `json:"tenant_id" gorm:"not null;uniqueIndex:idx_users_tenant_email"`
	Email    string `json:"email" gorm:"type:varchar(100);not null;uniqueIndex:idx_users_tenant_email"`

	// Password is nil for OAuth-only accounts.
	Password     *string `json:"-" gorm:"type:varchar(255)"`
	OAuthSubject string  `json:"-" gorm:"type:varchar(255);index"`

	Name   string `json:"name" gorm:"type:varchar(100)"`
	Role   string `json:"role" gorm:"type:varchar(20);not null;default:'USER'"`
	Status string `json:"status" gorm:"type:varchar(20);not null;default:'ACTIVE'"`

	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// PublicProfile is the author-enrichment view exposed to sibling
// services; it must never leak credentials or status internals.
type PublicProfile struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public returns the author-enrichment view of the user.
func (u *User) Public() PublicProfile {
	return PublicProfile{ID: u.ID, Name: u.Name, Email: u.Email}
}
