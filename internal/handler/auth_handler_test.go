package handler

import (
	"net/http"
	"testing"

	"blog-platform/internal/model"
	"blog-platform/pkg/apperr"
	"blog-platform/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDuplicateEmail(t *testing.T) {
	db := openTestDB(t)
	tenant := seedTenant(t, db)
	h := &Handler{Config: &config.Config{}}

	body := `{"email":"u@alpha.test","password":"Sup3rSecret!","name":"U"}`
	c := jsonContext(t, http.MethodPost, "/auth/register", body, tenant)
	require.NoError(t, h.Register(c))

	c = jsonContext(t, http.MethodPost, "/auth/register", body, tenant)
	err := h.Register(c)
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Status)
}

func TestRegisterDuplicateOfSoftDeletedUser(t *testing.T) {
	// A soft-deleted account keeps its slot in the unique index but is
	// invisible to the pre-check, so the insert itself trips the
	// constraint. That must still read as a 400, never a 500.
	db := openTestDB(t)
	tenant := seedTenant(t, db)
	h := &Handler{Config: &config.Config{}}

	user := model.User{TenantID: tenant.ID, Email: "u@alpha.test", Role: model.RoleUser, Status: model.StatusActive}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Delete(&user).Error)

	c := jsonContext(t, http.MethodPost, "/auth/register",
		`{"email":"u@alpha.test","password":"Sup3rSecret!","name":"U"}`, tenant)
	err := h.Register(c)
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Status)
}

func TestRegisterHonorsTenantPolicy(t *testing.T) {
	db := openTestDB(t)
	tenant := seedTenant(t, db)
	tenant.PasswordRequireNumber = true
	h := &Handler{Config: &config.Config{}}

	c := jsonContext(t, http.MethodPost, "/auth/register",
		`{"email":"u@alpha.test","password":"NoDigitsHere!","name":"U"}`, tenant)
	err := h.Register(c)
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Contains(t, appErr.Message, "number")
}
