package engagement

import (
	"testing"
	"time"

	"blog-platform/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedPost(t *testing.T, db *gorm.DB, tenantID uint) *model.Post {
	t.Helper()
	post := model.Post{TenantID: tenantID, Slug: "hello", AuthorID: 1, Title: "Hello", Status: model.PostPublished}
	require.NoError(t, db.Create(&post).Error)
	return &post
}

func TestRecordViewDedup(t *testing.T) {
	db := openTestDB(t)
	d, err := NewDeduplicator(db, configFor(PolicyDaily, "UTC"))
	require.NoError(t, err)
	post := seedPost(t, db, 1)

	res, err := d.RecordView(1, post.ID, UserIdentity(7))
	require.NoError(t, err)
	assert.True(t, res.IsNewEngagement)
	assert.Equal(t, int64(1), res.CurrentCount)

	// Same identity again today: duplicate, counter unchanged.
	res, err = d.RecordView(1, post.ID, UserIdentity(7))
	require.NoError(t, err)
	assert.False(t, res.IsNewEngagement)
	assert.Equal(t, int64(1), res.CurrentCount)

	// A different identity counts independently.
	res, err = d.RecordView(1, post.ID, IPIdentity("203.0.113.7"))
	require.NoError(t, err)
	assert.True(t, res.IsNewEngagement)
	assert.Equal(t, int64(2), res.CurrentCount)

	var views int64
	require.NoError(t, db.Model(&model.PostView{}).Where("post_id = ?", post.ID).Count(&views).Error)
	assert.Equal(t, int64(2), views, "counter and record set agree")
}

func TestRecordViewStaleRefresh(t *testing.T) {
	db := openTestDB(t)
	d, err := NewDeduplicator(db, configFor(PolicyDaily, "UTC"))
	require.NoError(t, err)
	post := seedPost(t, db, 1)

	_, err = d.RecordView(1, post.ID, UserIdentity(7))
	require.NoError(t, err)

	// Age the record past the last midnight; the next view counts again
	// by refreshing the existing row instead of inserting a second one.
	require.NoError(t, db.Model(&model.PostView{}).
		Where("tenant_id = ? AND post_id = ?", 1, post.ID).
		Update("viewed_at", time.Now().Add(-48*time.Hour)).Error)

	res, err := d.RecordView(1, post.ID, UserIdentity(7))
	require.NoError(t, err)
	assert.True(t, res.IsNewEngagement)
	assert.Equal(t, int64(2), res.CurrentCount)

	var views int64
	require.NoError(t, db.Model(&model.PostView{}).Where("post_id = ?", post.ID).Count(&views).Error)
	assert.Equal(t, int64(1), views, "stale records are refreshed, never duplicated")
}

func TestToggleLikeNetsToZero(t *testing.T) {
	db := openTestDB(t)
	d, err := NewDeduplicator(db, configFor(PolicyDaily, "UTC"))
	require.NoError(t, err)
	post := seedPost(t, db, 1)

	res, err := d.ToggleLike(1, post.ID, UserIdentity(7))
	require.NoError(t, err)
	assert.True(t, res.IsNewEngagement)
	assert.Equal(t, int64(1), res.CurrentCount)

	res, err = d.ToggleLike(1, post.ID, UserIdentity(7))
	require.NoError(t, err)
	assert.False(t, res.IsNewEngagement)
	assert.Equal(t, int64(0), res.CurrentCount)

	var likes int64
	require.NoError(t, db.Model(&model.PostLike{}).Where("post_id = ?", post.ID).Count(&likes).Error)
	assert.Equal(t, int64(0), likes)

	// A third call starts a fresh like.
	res, err = d.ToggleLike(1, post.ID, UserIdentity(7))
	require.NoError(t, err)
	assert.True(t, res.IsNewEngagement)
	assert.Equal(t, int64(1), res.CurrentCount)
}

func TestToggleLikeIndependentIdentities(t *testing.T) {
	db := openTestDB(t)
	d, err := NewDeduplicator(db, configFor(PolicyDaily, "UTC"))
	require.NoError(t, err)
	post := seedPost(t, db, 1)

	_, err = d.ToggleLike(1, post.ID, UserIdentity(7))
	require.NoError(t, err)
	res, err := d.ToggleLike(1, post.ID, IPIdentity("203.0.113.7"))
	require.NoError(t, err)
	assert.True(t, res.IsNewEngagement)
	assert.Equal(t, int64(2), res.CurrentCount)

	// Unliking one identity leaves the other's like in place.
	res, err = d.ToggleLike(1, post.ID, UserIdentity(7))
	require.NoError(t, err)
	assert.False(t, res.IsNewEngagement)
	assert.Equal(t, int64(1), res.CurrentCount)
}
