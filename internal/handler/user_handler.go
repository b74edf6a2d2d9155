package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"blog-platform/internal/guard"
	"blog-platform/internal/middleware"
	"blog-platform/internal/model"
	"blog-platform/pkg/apperr"
	"blog-platform/pkg/client"
	"blog-platform/pkg/database"
	"blog-platform/pkg/logger"
	"blog-platform/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListUsers returns the tenant's user accounts for the admin UI.
func (h *Handler) ListUsers(c echo.Context) error {
	tenant := middleware.CurrentTenant(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var users []model.User
	if err := database.GetDB().Where("tenant_id = ?", tenant.ID).Order("id").Find(&users).Error; err != nil {
		return apperr.Internal("failed to list users").WithCause(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// UpdateUserRole changes a user's role. The admin-protection rule and
// the tenant-isolation check run inside one transaction against the
// locked target row, so the target cannot change hands between check
// and write.
func (h *Handler) UpdateUserRole(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.Role != model.RoleUser && req.Role != model.RoleAdmin {
		return apperr.Validation("role must be %s or %s", model.RoleUser, model.RoleAdmin)
	}

	user, err := h.guardedUserUpdate(c, func(target *model.User, tx *gorm.DB) error {
		return tx.Model(target).Update("role", req.Role).Error
	})
	if err != nil {
		return err
	}

	log.Info("User role updated",
		zap.Uint("user_id", user.ID),
		zap.String("role", req.Role))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "User role updated successfully",
		"user":    user,
	})
}

// UpdateUserStatus suspends or reactivates a user under the same
// admin-protection rule as role changes.
func (h *Handler) UpdateUserStatus(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.Status != model.StatusActive && req.Status != model.StatusSuspended {
		return apperr.Validation("status must be %s or %s", model.StatusActive, model.StatusSuspended)
	}

	user, err := h.guardedUserUpdate(c, func(target *model.User, tx *gorm.DB) error {
		return tx.Model(target).Update("status", req.Status).Error
	})
	if err != nil {
		return err
	}

	log.Info("User status updated",
		zap.Uint("user_id", user.ID),
		zap.String("status", req.Status))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "User status updated successfully",
		"user":    user,
	})
}

// DeleteUser removes a non-privileged user from the tenant. Admin
// accounts are never deletable through this path, whoever asks. Avatar
// cleanup in the storage service is fire and forget.
func (h *Handler) DeleteUser(c echo.Context) error {
	log := logger.FromContext(c)

	tenant := middleware.CurrentTenant(c)

	var deleted model.User
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		var target model.User
		if err := database.LockForUpdate(tx).
			Where("tenant_id = ?", tenant.ID).First(&target, c.Param("id")).Error; err != nil {
			return apperr.NotFound("user not found")
		}
		if err := guard.EnsureCanDelete(&target); err != nil {
			prometheus.RecordAuthError("admin_protection")
			return err
		}
		if err := tx.Model(&target).Update("status", model.StatusDeleted).Error; err != nil {
			return err
		}
		if err := tx.Delete(&target).Error; err != nil {
			return err
		}
		deleted = target
		return nil
	})
	if err != nil {
		return err
	}

	userID := deleted.ID
	h.Tasks.Submit("avatar_cleanup", func(ctx context.Context) error {
		return h.Storage.UnlinkFiles(ctx, client.FileLinkRequest{
			ResourceType: "avatar",
			ResourceID:   strconv.FormatUint(uint64(userID), 10),
		})
	})

	log.Info("User deleted", zap.Uint("user_id", deleted.ID), zap.Uint("tenant_id", tenant.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully"})
}

// guardedUserUpdate loads the target inside the acting tenant, applies
// the admin-protection rule against the acting principal, and runs the
// mutation, all in one transaction.
func (h *Handler) guardedUserUpdate(c echo.Context, mutate func(*model.User, *gorm.DB) error) (*model.User, error) {
	tenant := middleware.CurrentTenant(c)
	actorID, ok := middleware.CurrentUserID(c)
	if !ok {
		return nil, apperr.Unauthenticated("authentication required")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var target model.User
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := database.LockForUpdate(tx).
			Where("tenant_id = ?", tenant.ID).First(&target, c.Param("id")).Error; err != nil {
			return apperr.NotFound("user not found")
		}
		if err := guard.EnsureCanModify(actorID, &target); err != nil {
			prometheus.RecordAuthError("admin_protection")
			return err
		}
		return mutate(&target, tx)
	})
	if err != nil {
		return nil, err
	}
	return &target, nil
}
