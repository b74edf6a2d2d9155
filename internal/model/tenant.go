package model

import (
	"time"

	"gorm.io/gorm"
)

// Tenant represents an isolated site boundary. All users, posts and
// engagement records are partitioned by tenant ID, and each tenant owns
// its own signing secret and security policy.
type Tenant struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	Name   string `json:"name" gorm:"type:varchar(100);uniqueIndex"`
	Domain string `json:"domain" gorm:"type:varchar(255);uniqueIndex"`
	Active bool   `json:"active" gorm:"default:true"`

	// SigningSecret is generated once at tenant creation and read-only
	// afterwards. Used only in HMAC signing mode; in RS256 mode the
	// service-wide keypair signs for every tenant.
	SigningSecret     string `json:"-" gorm:"type:varchar(255)"`
	TokenTTLHours     int    `json:"token_ttl_hours" gorm:"default:24"`
	AllowRegistration bool   `json:"allow_registration" gorm:"default:true"`
	AllowOAuth        bool   `json:"allow_oauth" gorm:"default:false"`
	OAuthClientID     string `json:"-" gorm:"type:varchar(255)"`
	OAuthClientSecret string `json:"-" gorm:"type:varchar(255)"`

	// Password policy thresholds are tenant-configurable so different
	// content teams can run different risk tolerances.
	PasswordMinLength        int  `json:"password_min_length" gorm:"default:8"`
	PasswordRequireUppercase bool `json:"password_require_uppercase" gorm:"default:false"`
	PasswordRequireNumber    bool `json:"password_require_number" gorm:"default:false"`
	PasswordRequireSpecial   bool `json:"password_require_special" gorm:"default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
