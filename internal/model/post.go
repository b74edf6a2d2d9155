package model

import (
	"time"

	"gorm.io/gorm"
)

// Post statuses. Non-admin readers only ever see published posts.
const (
	PostPublished = "PUBLISHED"
	PostDraft     = "DRAFT"
)

// Post represents a content item. ViewCount and LikeCount must always
// equal the number of live engagement records that are due; Featured is
// held by at most one post per tenant.
type Post struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	TenantID uint   `json:"tenant_id" gorm:"not null;uniqueIndex:idx_posts_tenant_slug"`
	Slug     string `json:"slug" gorm:"type:varchar(255);not null;uniqueIndex:idx_posts_tenant_slug"`
	AuthorID uint   `json:"author_id" gorm:"index;not null"`

	Title   string `json:"title" gorm:"type:varchar(255);not null"`
	Content string `json:"content" gorm:"type:text"`
	Status  string `json:"status" gorm:"type:varchar(20);not null;default:'DRAFT'"`

	ViewCount int64 `json:"view_count" gorm:"default:0"`
	LikeCount int64 `json:"like_count" gorm:"default:0"`
	Featured  bool  `json:"featured" gorm:"default:false;index"`

	PublishedAt *time.Time     `json:"published_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
