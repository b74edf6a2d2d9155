package engagement

import (
	"testing"

	"blog-platform/internal/model"
	"blog-platform/pkg/config"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func configFor(policy, tz string) config.EngagementConfig {
	return config.EngagementConfig{Policy: policy, Timezone: tz}
}

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

	require.NoError(t, db.AutoMigrate(&model.Post{}, &model.PostView{}, &model.PostLike{}))
	return db
}
