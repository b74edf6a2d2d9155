package model

import "time"

// PostView records one deduplicated view per (tenant, post, identity).
// Identity is "user:<id>" for authenticated callers or "ip:<sha256>"
// for anonymous ones. ViewedAt is refreshed whenever a stale record is
// counted again under the configured dedup policy.
type PostView struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	TenantID uint   `json:"tenant_id" gorm:"not null;uniqueIndex:idx_views_tenant_post_identity"`
	PostID   uint   `json:"post_id" gorm:"not null;uniqueIndex:idx_views_tenant_post_identity"`
	Identity string `json:"identity" gorm:"type:varchar(128);not null;uniqueIndex:idx_views_tenant_post_identity"`

	ViewedAt time.Time `json:"viewed_at"`
}

// PostLike records one live like per (tenant, post, identity); likes
// toggle rather than decay, so a second call from the same identity
// deletes the row and decrements the counter.
type PostLike struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	TenantID uint   `json:"tenant_id" gorm:"not null;uniqueIndex:idx_likes_tenant_post_identity"`
	PostID   uint   `json:"post_id" gorm:"not null;uniqueIndex:idx_likes_tenant_post_identity"`
	Identity string `json:"identity" gorm:"type:varchar(128);not null;uniqueIndex:idx_likes_tenant_post_identity"`

	LikedAt time.Time `json:"liked_at"`
}
