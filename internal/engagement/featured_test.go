package engagement

import (
	"testing"
	"time"

	"blog-platform/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestScore(t *testing.T) {
	p := &model.Post{LikeCount: 10, ViewCount: 20}
	assert.Equal(t, int64(70), Score(p), "one like is worth five views")
}

func TestPickFeaturedByScore(t *testing.T) {
	posts := []model.Post{
		{ID: 1, LikeCount: 10, ViewCount: 20}, // score 70
		{ID: 2, LikeCount: 0, ViewCount: 71},  // score 71
	}
	winner := pickFeatured(posts)
	require.NotNil(t, winner)
	assert.Equal(t, uint(2), winner.ID, "wins by one point")
}

func TestPickFeaturedTieBreak(t *testing.T) {
	posts := []model.Post{
		{ID: 1, ViewCount: 50, PublishedAt: ts("2024-01-01T00:00:00Z")},
		{ID: 2, ViewCount: 50, PublishedAt: ts("2024-02-01T00:00:00Z")},
		{ID: 3, ViewCount: 50, PublishedAt: ts("2024-02-01T00:00:00Z")},
	}
	winner := pickFeatured(posts)
	require.NotNil(t, winner)
	// Most recently published wins; equal timestamps resolve to the
	// lowest ID.
	assert.Equal(t, uint(2), winner.ID)
}

func TestPickFeaturedDeterministicAcrossOrder(t *testing.T) {
	forward := []model.Post{
		{ID: 1, ViewCount: 10, PublishedAt: ts("2024-01-01T00:00:00Z")},
		{ID: 2, ViewCount: 10, PublishedAt: ts("2024-01-02T00:00:00Z")},
	}
	reversed := []model.Post{forward[1], forward[0]}

	assert.Equal(t, pickFeatured(forward).ID, pickFeatured(reversed).ID)
}

func TestPickFeaturedIdempotent(t *testing.T) {
	posts := []model.Post{
		{ID: 1, LikeCount: 3, ViewCount: 1, Featured: true},
		{ID: 2, LikeCount: 1, ViewCount: 2},
	}
	first := pickFeatured(posts)
	second := pickFeatured(posts)
	require.NotNil(t, first)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.Featured, "current holder keeps the slot with no counter change")
}

func TestPickFeaturedEmpty(t *testing.T) {
	assert.Nil(t, pickFeatured(nil))
	assert.Nil(t, pickFeatured([]model.Post{}))
}
