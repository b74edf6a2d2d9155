package handler

import (
	"net/http/httptest"
	"strings"
	"testing"

	"blog-platform/internal/model"
	"blog-platform/pkg/database"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// One connection so every session sees the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.Tenant{}, &model.User{}))

	database.DB = db
	t.Cleanup(func() { database.DB = nil })
	return db
}

func seedTenant(t *testing.T, db *gorm.DB) *model.Tenant {
	t.Helper()
	tenant := model.Tenant{
		Name:              "alpha",
		Domain:            "alpha.example.com",
		Active:            true,
		AllowRegistration: true,
		PasswordMinLength: 8,
	}
	require.NoError(t, db.Create(&tenant).Error)
	return &tenant
}

func jsonContext(t *testing.T, method, target, body string, tenant *model.Tenant) echo.Context {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := echo.New().NewContext(req, httptest.NewRecorder())
	if tenant != nil {
		c.Set("tenant", tenant)
	}
	return c
}
