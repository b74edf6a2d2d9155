package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"blog-platform/internal/middleware"
	"blog-platform/internal/model"
	"blog-platform/internal/password"
	"blog-platform/pkg/apperr"
	"blog-platform/pkg/database"
	"blog-platform/pkg/jwtutil"
	"blog-platform/pkg/logger"
	"blog-platform/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Register creates a user account in the resolved tenant. Email is
// unique per tenant, and the candidate password is checked against the
// tenant's own policy, never a global one.
func (h *Handler) Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	tenant := middleware.CurrentTenant(c)
	if !tenant.AllowRegistration {
		prometheus.RecordAuthError("registration_disabled")
		return apperr.Forbidden("registration is disabled for this tenant")
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return apperr.Validation("invalid request body")
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_registration")
		return apperr.Validation("email and password are required")
	}

	if err := password.Validate(password.PolicyForTenant(tenant), req.Password); err != nil {
		prometheus.RecordAuthError("password_policy")
		return err
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var existing model.User
	result := database.GetDB().Where("tenant_id = ? AND email = ?", tenant.ID, req.Email).First(&existing)
	if result.Error == nil {
		prometheus.RecordAuthError("email_already_exists")
		return apperr.Validation("email already registered")
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return apperr.Internal("registration failed").WithCause(err)
	}

	user := model.User{
		TenantID: tenant.ID,
		Email:    req.Email,
		Password: &hashed,
		Name:     req.Name,
		Role:     model.RoleUser,
		Status:   model.StatusActive,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&user); result.Error != nil {
		// The pre-check above misses soft-deleted rows and loses races;
		// the unique index is the authority on duplicates.
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			prometheus.RecordAuthError("email_already_exists")
			return apperr.Validation("email already registered")
		}
		log.Error("Failed to create user", zap.Error(result.Error))
		return apperr.Internal("registration failed").WithCause(result.Error)
	}

	log.Info("User registered",
		zap.String("email", user.Email),
		zap.Uint("tenant_id", tenant.ID))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully",
		"user":    user.Public(),
	})
}

// Login authenticates a user of the resolved tenant and issues a
// session token bound to that tenant's signing material.
func (h *Handler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	tenant := middleware.CurrentTenant(c)

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return apperr.Validation("invalid request body")
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Where("tenant_id = ? AND email = ?", tenant.ID, req.Email).First(&user)
	if result.Error != nil {
		prometheus.RecordAuthError("user_not_found")
		return apperr.Unauthenticated("invalid credentials")
	}

	if user.Status == model.StatusSuspended {
		prometheus.RecordAuthError("account_suspended")
		return apperr.Forbidden("account is suspended")
	}
	if user.Status == model.StatusDeleted || user.Password == nil ||
		!password.Verify(*user.Password, req.Password) {
		prometheus.RecordAuthError("invalid_password")
		return apperr.Unauthenticated("invalid credentials")
	}

	token, err := h.Signer.Issue(tenant, user.ID, user.Role, user.Email)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return err
	}

	now := time.Now()
	if err := database.GetDB().Model(&user).UpdateColumn("last_login_at", now).Error; err != nil {
		// Last-login bookkeeping never blocks a login.
		log.Warn("Failed to update last login", zap.Error(err))
	}

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.Uint("tenant_id", tenant.ID),
		zap.String("role", user.Role))
	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user": echo.Map{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	})
}

// OAuthLogin signs in (or provisions) a user from an identity the
// gateway already verified against the tenant's OAuth provider. The
// admin allow-list is evaluated here, at login time; it is the only
// path that escalates a role to admin.
func (h *Handler) OAuthLogin(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	tenant := middleware.CurrentTenant(c)
	if !tenant.AllowOAuth {
		prometheus.RecordAuthError("oauth_disabled")
		return apperr.Forbidden("OAuth login is disabled for this tenant")
	}

	var req struct {
		Subject string `json:"subject"`
		Email   string `json:"email"`
		Name    string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return apperr.Validation("invalid request body")
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Subject == "" || req.Email == "" {
		prometheus.RecordAuthError("incomplete_oauth_login")
		return apperr.Validation("subject and email are required")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	err := database.GetDB().
		Where("tenant_id = ? AND (oauth_subject = ? OR email = ?)", tenant.ID, req.Subject, req.Email).
		First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = model.User{
			TenantID:     tenant.ID,
			Email:        req.Email,
			OAuthSubject: req.Subject,
			Name:         req.Name,
			Role:         model.RoleUser,
			Status:       model.StatusActive,
		}
		if h.isAdminEmail(req.Email) {
			user.Role = model.RoleAdmin
		}
		if result := database.GetDB().Create(&user); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
				prometheus.RecordAuthError("email_already_exists")
				return apperr.Validation("email already registered")
			}
			log.Error("Failed to create OAuth user", zap.Error(result.Error))
			return apperr.Internal("login failed").WithCause(result.Error)
		}
		log.Info("OAuth user provisioned",
			zap.String("email", user.Email),
			zap.Uint("tenant_id", tenant.ID),
			zap.String("role", user.Role))
	case err != nil:
		return apperr.Internal("login failed").WithCause(err)
	default:
		if user.Status == model.StatusSuspended {
			prometheus.RecordAuthError("account_suspended")
			return apperr.Forbidden("account is suspended")
		}
		updates := map[string]interface{}{
			"oauth_subject": req.Subject,
			"last_login_at": time.Now(),
		}
		if h.isAdminEmail(user.Email) && user.Role != model.RoleAdmin {
			updates["role"] = model.RoleAdmin
			user.Role = model.RoleAdmin
		}
		if err := database.GetDB().Model(&user).Updates(updates).Error; err != nil {
			log.Warn("Failed to update OAuth login bookkeeping", zap.Error(err))
		}
	}

	token, err := h.Signer.Issue(tenant, user.ID, user.Role, user.Email)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user": echo.Map{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	})
}

// RefreshToken verifies the presented token under the tenant's context
// and reissues it with a fresh expiry.
func (h *Handler) RefreshToken(c echo.Context) error {
	prometheus.RefreshCounter.Inc()

	tenant := middleware.CurrentTenant(c)

	var req struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil || req.Token == "" {
		prometheus.RecordAuthError("invalid_request")
		return apperr.Validation("token is required")
	}

	token, err := jwtutil.Refresh(h.Signer, tenant, req.Token)
	if err != nil {
		prometheus.RecordAuthError("refresh_failed")
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// GetProfile returns the authenticated user's own record.
func (h *Handler) GetProfile(c echo.Context) error {
	tenant := middleware.CurrentTenant(c)
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return apperr.Unauthenticated("authentication required")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := database.GetDB().Where("tenant_id = ?", tenant.ID).First(&user, userID).Error; err != nil {
		return apperr.NotFound("user not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

// UpdateProfile updates the authenticated user's display name.
func (h *Handler) UpdateProfile(c echo.Context) error {
	tenant := middleware.CurrentTenant(c)
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return apperr.Unauthenticated("authentication required")
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result := database.GetDB().Model(&model.User{}).
		Where("tenant_id = ? AND id = ?", tenant.ID, userID).
		Update("name", req.Name)
	if result.Error != nil {
		return apperr.Internal("profile update failed").WithCause(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("user not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated successfully"})
}

// ChangePassword verifies the current password and applies the
// tenant's policy to the new one.
func (h *Handler) ChangePassword(c echo.Context) error {
	log := logger.FromContext(c)

	tenant := middleware.CurrentTenant(c)
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return apperr.Unauthenticated("authentication required")
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := database.GetDB().Where("tenant_id = ?", tenant.ID).First(&user, userID).Error; err != nil {
		return apperr.NotFound("user not found")
	}

	if user.Password == nil || !password.Verify(*user.Password, req.CurrentPassword) {
		prometheus.RecordAuthError("invalid_password")
		return apperr.Unauthenticated("current password is incorrect")
	}
	if err := password.Validate(password.PolicyForTenant(tenant), req.NewPassword); err != nil {
		prometheus.RecordAuthError("password_policy")
		return err
	}

	hashed, err := password.Hash(req.NewPassword)
	if err != nil {
		return apperr.Internal("password change failed").WithCause(err)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&user).Update("password", hashed).Error; err != nil {
		log.Error("Failed to update password", zap.Error(err))
		return apperr.Internal("password change failed").WithCause(err)
	}

	log.Info("Password changed", zap.Uint("user_id", user.ID), zap.Uint("tenant_id", tenant.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Password changed successfully"})
}

func (h *Handler) isAdminEmail(email string) bool {
	for _, allowed := range h.Config.Auth.AdminEmails {
		if strings.EqualFold(allowed, email) {
			return true
		}
	}
	return false
}
