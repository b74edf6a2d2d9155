package engagement

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"blog-platform/internal/model"
	"blog-platform/pkg/config"
	"blog-platform/pkg/database"

	"gorm.io/gorm"
)

// Temporal policies for view dedup. Exactly one is selected at startup;
// day-boundary and rolling-window semantics are never blended.
const (
	PolicyDaily   = "daily"
	PolicyRolling = "rolling"
)

// Result reports whether the engagement was counted as new and the
// counter value after the call.
type Result struct {
	IsNewEngagement bool  `json:"is_new_engagement"`
	CurrentCount    int64 `json:"current_count"`
}

// Deduplicator decides whether a view or like from an identity counts
// as new, and updates the engagement record and the post counter as one
// atomic unit. A counter must never disagree with the set of live
// records, even transiently.
type Deduplicator struct {
	db       *gorm.DB
	policy   string
	location *time.Location
	window   time.Duration
}

// NewDeduplicator builds the deduplicator for the configured policy.
func NewDeduplicator(db *gorm.DB, cfg config.EngagementConfig) (*Deduplicator, error) {
	if cfg.Policy != PolicyDaily && cfg.Policy != PolicyRolling {
		return nil, fmt.Errorf("unknown engagement dedup policy %q", cfg.Policy)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading engagement timezone: %w", err)
	}
	window := cfg.RollingWindow
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Deduplicator{db: db, policy: cfg.Policy, location: loc, window: window}, nil
}

// UserIdentity returns the dedup key for an authenticated caller.
func UserIdentity(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

// IPIdentity returns the dedup key for an anonymous caller: a one-way
// hash of the resolved client IP, so raw addresses are never stored.
func IPIdentity(clientIP string) string {
	sum := sha256.Sum256([]byte(clientIP))
	return "ip:" + hex.EncodeToString(sum[:])
}

// RecordView counts a view if the identity has no live record for the
// post, or if the existing record is stale under the configured
// policy. The record timestamp refresh and the counter increment
// happen inside one transaction with the record row locked.
func (d *Deduplicator) RecordView(tenantID, postID uint, identity string) (Result, error) {
	var res Result
	now := time.Now()

	err := d.db.Transaction(func(tx *gorm.DB) error {
		var view model.PostView
		err := database.LockForUpdate(tx).
			Where("tenant_id = ? AND post_id = ? AND identity = ?", tenantID, postID, identity).
			First(&view).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			view = model.PostView{TenantID: tenantID, PostID: postID, Identity: identity, ViewedAt: now}
			if err := tx.Create(&view).Error; err != nil {
				return err
			}
			res.IsNewEngagement = true
		case err != nil:
			return err
		case d.stale(view.ViewedAt, now):
			if err := tx.Model(&view).UpdateColumn("viewed_at", now).Error; err != nil {
				return err
			}
			res.IsNewEngagement = true
		}

		if res.IsNewEngagement {
			if err := tx.Model(&model.Post{}).
				Where("tenant_id = ? AND id = ?", tenantID, postID).
				UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
				return err
			}
		}
		var post model.Post
		if err := tx.Select("view_count").
			Where("tenant_id = ?", tenantID).
			First(&post, postID).Error; err != nil {
			return err
		}
		res.CurrentCount = post.ViewCount
		return nil
	})
	return res, err
}

// ToggleLike creates the like record and increments the counter, or
// removes an existing record and decrements, in one transaction. Two
// consecutive calls from the same identity always net out to zero.
func (d *Deduplicator) ToggleLike(tenantID, postID uint, identity string) (Result, error) {
	var res Result

	err := d.db.Transaction(func(tx *gorm.DB) error {
		var like model.PostLike
		err := database.LockForUpdate(tx).
			Where("tenant_id = ? AND post_id = ? AND identity = ?", tenantID, postID, identity).
			First(&like).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			like = model.PostLike{TenantID: tenantID, PostID: postID, Identity: identity, LikedAt: time.Now()}
			if err := tx.Create(&like).Error; err != nil {
				return err
			}
			if err := tx.Model(&model.Post{}).
				Where("tenant_id = ? AND id = ?", tenantID, postID).
				UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
				return err
			}
			res.IsNewEngagement = true
		case err != nil:
			return err
		default:
			if err := tx.Delete(&like).Error; err != nil {
				return err
			}
			if err := tx.Model(&model.Post{}).
				Where("tenant_id = ? AND id = ? AND like_count > 0", tenantID, postID).
				UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error; err != nil {
				return err
			}
		}
		var post model.Post
		if err := tx.Select("like_count").
			Where("tenant_id = ?", tenantID).
			First(&post, postID).Error; err != nil {
			return err
		}
		res.CurrentCount = post.LikeCount
		return nil
	})
	return res, err
}

func (d *Deduplicator) stale(recordedAt, now time.Time) bool {
	switch d.policy {
	case PolicyRolling:
		return staleRolling(recordedAt, now, d.window)
	default:
		return staleDaily(recordedAt, now, d.location)
	}
}

// staleDaily treats any record older than the most recent local
// midnight as stale, so two views two minutes apart across the day
// boundary both count.
func staleDaily(recordedAt, now time.Time, loc *time.Location) bool {
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return recordedAt.Before(midnight)
}

func staleRolling(recordedAt, now time.Time, window time.Duration) bool {
	return now.Sub(recordedAt) >= window
}
