package engagement

import (
	"blog-platform/internal/model"

	"gorm.io/gorm"
)

// LikeWeight is the score weight of one like relative to one view.
const LikeWeight = 5

// Ranker recomputes the single featured slot per tenant from the
// engagement counters. It is a pull-based, idempotent recompute rather
// than an incrementally maintained index; tenant content volumes are
// small enough that rescoring everything is cheap.
type Ranker struct {
	db *gorm.DB
}

// NewRanker creates a featured-slot ranker.
func NewRanker(db *gorm.DB) *Ranker {
	return &Ranker{db: db}
}

// Score returns the ranking score of a post.
func Score(p *model.Post) int64 {
	return p.LikeCount*LikeWeight + p.ViewCount
}

// Recompute reselects the featured post for the tenant among its
// published posts. When the winner already holds the slot, nothing is
// written. Otherwise the clear-flags and set-flag writes run in one
// transaction so concurrent recomputes never expose a tenant with zero
// or two featured posts.
func (r *Ranker) Recompute(tenantID uint) error {
	var posts []model.Post
	err := r.db.
		Select("id", "tenant_id", "like_count", "view_count", "featured", "published_at").
		Where("tenant_id = ? AND status = ?", tenantID, model.PostPublished).
		Find(&posts).Error
	if err != nil {
		return err
	}

	winner := pickFeatured(posts)
	if winner == nil {
		// No visible posts left; release the slot.
		return r.db.Model(&model.Post{}).
			Where("tenant_id = ? AND featured = ?", tenantID, true).
			UpdateColumn("featured", false).Error
	}
	if winner.Featured {
		return nil
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Post{}).
			Where("tenant_id = ? AND featured = ?", tenantID, true).
			UpdateColumn("featured", false).Error; err != nil {
			return err
		}
		return tx.Model(&model.Post{}).
			Where("tenant_id = ? AND id = ?", tenantID, winner.ID).
			UpdateColumn("featured", true).Error
	})
}

// pickFeatured selects the highest-scoring post. Ties resolve to the
// most recently published post, then to the lowest ID, so the result
// is deterministic regardless of store iteration order.
func pickFeatured(posts []model.Post) *model.Post {
	var winner *model.Post
	for i := range posts {
		p := &posts[i]
		if winner == nil || beats(p, winner) {
			winner = p
		}
	}
	return winner
}

func beats(a, b *model.Post) bool {
	sa, sb := Score(a), Score(b)
	if sa != sb {
		return sa > sb
	}
	switch {
	case a.PublishedAt == nil && b.PublishedAt == nil:
		return a.ID < b.ID
	case a.PublishedAt == nil:
		return false
	case b.PublishedAt == nil:
		return true
	case !a.PublishedAt.Equal(*b.PublishedAt):
		return a.PublishedAt.After(*b.PublishedAt)
	default:
		return a.ID < b.ID
	}
}
