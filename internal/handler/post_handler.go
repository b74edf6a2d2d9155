package handler

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"blog-platform/internal/engagement"
	"blog-platform/internal/middleware"
	"blog-platform/internal/model"
	"blog-platform/pkg/apperr"
	"blog-platform/pkg/client"
	"blog-platform/pkg/database"
	"blog-platform/pkg/logger"
	"blog-platform/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreatePost creates a content item for the tenant. File linking in
// the storage service and the featured recompute both run as
// best-effort side tasks; the create succeeds without them.
func (h *Handler) CreatePost(c echo.Context) error {
	log := logger.FromContext(c)

	tenant := middleware.CurrentTenant(c)
	authorID, ok := middleware.CurrentUserID(c)
	if !ok {
		return apperr.Unauthenticated("authentication required")
	}

	var req struct {
		Title    string   `json:"title"`
		Slug     string   `json:"slug"`
		Content  string   `json:"content"`
		Status   string   `json:"status"`
		FileURLs []string `json:"file_urls"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.Title == "" || req.Slug == "" {
		return apperr.Validation("title and slug are required")
	}
	if req.Status == "" {
		req.Status = model.PostDraft
	}
	if req.Status != model.PostDraft && req.Status != model.PostPublished {
		return apperr.Validation("status must be %s or %s", model.PostDraft, model.PostPublished)
	}

	post := model.Post{
		TenantID: tenant.ID,
		Slug:     req.Slug,
		AuthorID: authorID,
		Title:    req.Title,
		Content:  req.Content,
		Status:   req.Status,
	}
	if req.Status == model.PostPublished {
		now := time.Now()
		post.PublishedAt = &now
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&post); result.Error != nil {
		log.Error("Failed to create post", zap.Error(result.Error))
		return result.Error
	}

	if len(req.FileURLs) > 0 {
		urls, postID := req.FileURLs, post.ID
		h.Tasks.Submit("link_post_files", func(ctx context.Context) error {
			return h.Storage.LinkFiles(ctx, client.FileLinkRequest{
				URLs:         urls,
				ResourceType: "post",
				ResourceID:   strconv.FormatUint(uint64(postID), 10),
			})
		})
	}
	h.submitFeaturedRecompute(tenant.ID)

	log.Info("Post created",
		zap.Uint("post_id", post.ID),
		zap.Uint("tenant_id", tenant.ID),
		zap.String("slug", post.Slug))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Post created successfully",
		"post":    post,
	})
}

// ListPosts returns the tenant's posts. Anonymous and non-admin
// callers only see published posts; admins also see drafts.
func (h *Handler) ListPosts(c echo.Context) error {
	tenant := middleware.CurrentTenant(c)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := database.GetDB().Where("tenant_id = ?", tenant.ID)
	if !middleware.IsAdmin(c) {
		query = query.Where("status = ?", model.PostPublished)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var total int64
	if err := query.Model(&model.Post{}).Count(&total).Error; err != nil {
		return apperr.Internal("failed to list posts").WithCause(err)
	}

	var posts []model.Post
	err := query.Order("published_at DESC NULLS LAST, id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&posts).Error
	if err != nil {
		return apperr.Internal("failed to list posts").WithCause(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"posts": posts,
		"page":  page,
		"limit": limit,
		"total": total,
	})
}

// GetPost returns one post by slug, records a deduplicated view and
// enriches the response with the author profile and the adjacent
// posts. The prev/next reads are independent and fetched concurrently.
func (h *Handler) GetPost(c echo.Context) error {
	log := logger.FromContext(c)

	tenant := middleware.CurrentTenant(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	query := database.GetDB().Where("tenant_id = ? AND slug = ?", tenant.ID, c.Param("slug"))
	if !middleware.IsAdmin(c) {
		query = query.Where("status = ?", model.PostPublished)
	}
	var post model.Post
	if err := query.First(&post).Error; err != nil {
		return apperr.NotFound("post not found")
	}

	res, err := h.Dedup.RecordView(tenant.ID, post.ID, h.engagementIdentity(c))
	if err != nil {
		// A broken view counter is not worth failing the read.
		log.Warn("Failed to record view", zap.Error(err), zap.Uint("post_id", post.ID))
	} else {
		prometheus.RecordEngagement("view", res.IsNewEngagement)
		post.ViewCount = res.CurrentCount
		if res.IsNewEngagement {
			h.submitFeaturedRecompute(tenant.ID)
		}
	}

	// Pure read fan-out: prev, next and author share no state.
	var (
		wg         sync.WaitGroup
		prev, next *model.Post
		author     *client.AuthorProfile
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		prev = adjacentPost(tenant.ID, post, true)
	}()
	go func() {
		defer wg.Done()
		next = adjacentPost(tenant.ID, post, false)
	}()
	go func() {
		defer wg.Done()
		ctx, cancel := context.WithTimeout(c.Request().Context(), h.Config.Services.OutboundTimeout)
		defer cancel()
		profile, err := h.Authors.GetPublicProfile(ctx, post.AuthorID)
		if err != nil {
			log.Warn("Author enrichment failed", zap.Error(err), zap.Uint("author_id", post.AuthorID))
			return
		}
		author = profile
	}()
	wg.Wait()

	return c.JSON(http.StatusOK, echo.Map{
		"post":   post,
		"prev":   prev,
		"next":   next,
		"author": author,
	})
}

// ToggleLike flips the caller's like on a post. Authenticated callers
// are tracked by user ID, anonymous ones by hashed IP, never both.
func (h *Handler) ToggleLike(c echo.Context) error {
	tenant := middleware.CurrentTenant(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var post model.Post
	err := database.GetDB().
		Where("tenant_id = ? AND status = ?", tenant.ID, model.PostPublished).
		First(&post, c.Param("id")).Error
	if err != nil {
		return apperr.NotFound("post not found")
	}

	res, err := h.Dedup.ToggleLike(tenant.ID, post.ID, h.engagementIdentity(c))
	if err != nil {
		return apperr.Internal("failed to record like").WithCause(err)
	}
	prometheus.RecordEngagement("like", res.IsNewEngagement)
	h.submitFeaturedRecompute(tenant.ID)

	return c.JSON(http.StatusOK, echo.Map{
		"is_new_engagement": res.IsNewEngagement,
		"like_count":        res.CurrentCount,
	})
}

// DeletePost removes a post; its linked files are released and the
// featured slot recomputed as side tasks.
func (h *Handler) DeletePost(c echo.Context) error {
	log := logger.FromContext(c)

	tenant := middleware.CurrentTenant(c)

	defer prometheus.TrackDBOperation("delete")(time.Now())
	var post model.Post
	if err := database.GetDB().Where("tenant_id = ?", tenant.ID).First(&post, c.Param("id")).Error; err != nil {
		return apperr.NotFound("post not found")
	}
	if err := database.GetDB().Delete(&post).Error; err != nil {
		return apperr.Internal("failed to delete post").WithCause(err)
	}

	postID := post.ID
	h.Tasks.Submit("unlink_post_files", func(ctx context.Context) error {
		return h.Storage.UnlinkFiles(ctx, client.FileLinkRequest{
			ResourceType: "post",
			ResourceID:   strconv.FormatUint(uint64(postID), 10),
		})
	})
	h.submitFeaturedRecompute(tenant.ID)

	log.Info("Post deleted", zap.Uint("post_id", post.ID), zap.Uint("tenant_id", tenant.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Post deleted successfully"})
}

// engagementIdentity derives the dedup key for this request: the
// authenticated user when present, else the hashed client IP. The two
// are mutually exclusive per call.
func (h *Handler) engagementIdentity(c echo.Context) string {
	if userID, ok := middleware.CurrentUserID(c); ok {
		return engagement.UserIdentity(userID)
	}
	return engagement.IPIdentity(c.RealIP())
}

func (h *Handler) submitFeaturedRecompute(tenantID uint) {
	h.Tasks.Submit("featured_recompute", func(ctx context.Context) error {
		err := h.Ranker.Recompute(tenantID)
		prometheus.RecordFeaturedRecompute(err)
		return err
	})
}

// adjacentPost fetches the published neighbor of a post in publication
// order; errors degrade to "no neighbor".
func adjacentPost(tenantID uint, post model.Post, older bool) *model.Post {
	if post.PublishedAt == nil {
		return nil
	}

	query := database.GetDB().
		Where("tenant_id = ? AND status = ? AND id <> ?", tenantID, model.PostPublished, post.ID)
	if older {
		query = query.Where("published_at < ?", *post.PublishedAt).Order("published_at DESC")
	} else {
		query = query.Where("published_at > ?", *post.PublishedAt).Order("published_at ASC")
	}

	var neighbor model.Post
	if err := query.Select("id", "tenant_id", "slug", "title", "published_at").
		First(&neighbor).Error; err != nil {
		return nil
	}
	return &neighbor
}
