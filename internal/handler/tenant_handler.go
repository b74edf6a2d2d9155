package handler

import (
	"net/http"
	"time"

	"blog-platform/internal/middleware"
	"blog-platform/internal/model"
	"blog-platform/pkg/apperr"
	"blog-platform/pkg/database"
	"blog-platform/pkg/jwtutil"
	"blog-platform/pkg/logger"
	"blog-platform/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CreateTenant provisions a tenant with a fresh signing secret. The
// route is gated on the super-admin key; the secret is generated once
// here and never rotated through this API.
func (h *Handler) CreateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("create")

	var req struct {
		Name                     string `json:"name"`
		Domain                   string `json:"domain"`
		TokenTTLHours            int    `json:"token_ttl_hours"`
		AllowRegistration        *bool  `json:"allow_registration"`
		AllowOAuth               bool   `json:"allow_oauth"`
		OAuthClientID            string `json:"oauth_client_id"`
		OAuthClientSecret        string `json:"oauth_client_secret"`
		PasswordMinLength        int    `json:"password_min_length"`
		PasswordRequireUppercase bool   `json:"password_require_uppercase"`
		PasswordRequireNumber    bool   `json:"password_require_number"`
		PasswordRequireSpecial   bool   `json:"password_require_special"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.Name == "" || req.Domain == "" {
		return apperr.Validation("name and domain are required")
	}

	secret, err := jwtutil.GenerateTenantSecret()
	if err != nil {
		log.Error("Failed to generate tenant secret", zap.Error(err))
		return apperr.Internal("tenant creation failed").WithCause(err)
	}

	tenant := model.Tenant{
		Name:                     req.Name,
		Domain:                   req.Domain,
		Active:                   true,
		SigningSecret:            secret,
		TokenTTLHours:            req.TokenTTLHours,
		AllowRegistration:        true,
		AllowOAuth:               req.AllowOAuth,
		OAuthClientID:            req.OAuthClientID,
		OAuthClientSecret:        req.OAuthClientSecret,
		PasswordMinLength:        req.PasswordMinLength,
		PasswordRequireUppercase: req.PasswordRequireUppercase,
		PasswordRequireNumber:    req.PasswordRequireNumber,
		PasswordRequireSpecial:   req.PasswordRequireSpecial,
	}
	if req.AllowRegistration != nil {
		tenant.AllowRegistration = *req.AllowRegistration
	}
	if tenant.PasswordMinLength <= 0 {
		tenant.PasswordMinLength = 8
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&tenant); result.Error != nil {
		log.Error("Failed to create tenant", zap.Error(result.Error))
		prometheus.RecordTenantError(0, "creation_failed")
		return result.Error
	}

	h.refreshActiveTenantsGauge()
	log.Info("Tenant created", zap.String("name", tenant.Name), zap.Uint("id", tenant.ID))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Tenant created successfully",
		"tenant":  tenant,
	})
}

// UpdateTenant mutates tenant configuration. Tenants are never hard
// deleted; deactivation happens by clearing the active flag here. The
// signing secret is not updatable.
func (h *Handler) UpdateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("update")

	var req struct {
		Domain                   *string `json:"domain"`
		Active                   *bool   `json:"active"`
		TokenTTLHours            *int    `json:"token_ttl_hours"`
		AllowRegistration        *bool   `json:"allow_registration"`
		AllowOAuth               *bool   `json:"allow_oauth"`
		OAuthClientID            *string `json:"oauth_client_id"`
		OAuthClientSecret        *string `json:"oauth_client_secret"`
		PasswordMinLength        *int    `json:"password_min_length"`
		PasswordRequireUppercase *bool   `json:"password_require_uppercase"`
		PasswordRequireNumber    *bool   `json:"password_require_number"`
		PasswordRequireSpecial   *bool   `json:"password_require_special"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenant model.Tenant
	if err := database.GetDB().First(&tenant, c.Param("id")).Error; err != nil {
		prometheus.RecordTenantError(0, "not_found")
		return apperr.NotFound("tenant %q not found", c.Param("id"))
	}

	updates := map[string]interface{}{}
	if req.Domain != nil {
		updates["domain"] = *req.Domain
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if req.TokenTTLHours != nil {
		updates["token_ttl_hours"] = *req.TokenTTLHours
	}
	if req.AllowRegistration != nil {
		updates["allow_registration"] = *req.AllowRegistration
	}
	if req.AllowOAuth != nil {
		updates["allow_oauth"] = *req.AllowOAuth
	}
	if req.OAuthClientID != nil {
		updates["o_auth_client_id"] = *req.OAuthClientID
	}
	if req.OAuthClientSecret != nil {
		updates["o_auth_client_secret"] = *req.OAuthClientSecret
	}
	if req.PasswordMinLength != nil {
		updates["password_min_length"] = *req.PasswordMinLength
	}
	if req.PasswordRequireUppercase != nil {
		updates["password_require_uppercase"] = *req.PasswordRequireUppercase
	}
	if req.PasswordRequireNumber != nil {
		updates["password_require_number"] = *req.PasswordRequireNumber
	}
	if req.PasswordRequireSpecial != nil {
		updates["password_require_special"] = *req.PasswordRequireSpecial
	}
	if len(updates) == 0 {
		return apperr.Validation("no updatable fields in request")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&tenant).Updates(updates).Error; err != nil {
		log.Error("Failed to update tenant", zap.Error(err))
		prometheus.RecordTenantError(tenant.ID, "update_failed")
		return err
	}

	h.refreshActiveTenantsGauge()
	log.Info("Tenant updated", zap.Uint("id", tenant.ID))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Tenant updated successfully",
		"tenant":  tenant,
	})
}

// GetCurrentTenant returns the resolved tenant's public configuration,
// for the admin UI.
func (h *Handler) GetCurrentTenant(c echo.Context) error {
	prometheus.RecordTenantOperation("access")
	return c.JSON(http.StatusOK, echo.Map{"tenant": middleware.CurrentTenant(c)})
}

func (h *Handler) refreshActiveTenantsGauge() {
	var count int64
	if err := database.GetDB().Model(&model.Tenant{}).Where("active = ?", true).Count(&count).Error; err == nil {
		prometheus.UpdateActiveTenants(int(count))
	}
}
