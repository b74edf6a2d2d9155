package handler

import (
	"net/http"
	"time"

	"blog-platform/internal/middleware"
	"blog-platform/internal/model"
	"blog-platform/pkg/apperr"
	"blog-platform/pkg/database"
	"blog-platform/prometheus"

	"github.com/labstack/echo/v4"
)

// GetPublicProfile serves the author-enrichment view of a user. The
// route resolves the tenant optionally so author widgets on external
// pages degrade instead of failing; with a tenant resolved, the lookup
// is scoped to it.
func (h *Handler) GetPublicProfile(c echo.Context) error {
	defer prometheus.TrackDBOperation("query")(time.Now())

	query := database.GetDB().Model(&model.User{})
	if tenant := middleware.CurrentTenant(c); tenant != nil {
		query = query.Where("tenant_id = ?", tenant.ID)
	}

	var user model.User
	if err := query.First(&user, c.Param("id")).Error; err != nil {
		return apperr.NotFound("user not found")
	}
	return c.JSON(http.StatusOK, user.Public())
}

// GetUserInternal is the basic-lookup endpoint for sibling services
// inside the mesh; the internal-request gate keeps it off the public
// ingress.
func (h *Handler) GetUserInternal(c echo.Context) error {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	if err := database.GetDB().First(&user, c.Param("id")).Error; err != nil {
		return apperr.NotFound("user not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

// BatchUsers resolves a batch of user IDs to public profiles for the
// comment service's enrichment pass.
func (h *Handler) BatchUsers(c echo.Context) error {
	var req struct {
		IDs []uint `json:"ids"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if len(req.IDs) == 0 || len(req.IDs) > 200 {
		return apperr.Validation("ids must contain between 1 and 200 entries")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var users []model.User
	if err := database.GetDB().Where("id IN ?", req.IDs).Find(&users).Error; err != nil {
		return apperr.Internal("batch lookup failed").WithCause(err)
	}

	profiles := make(map[uint]model.PublicProfile, len(users))
	for i := range users {
		profiles[users[i].ID] = users[i].Public()
	}
	return c.JSON(http.StatusOK, echo.Map{"users": profiles})
}
