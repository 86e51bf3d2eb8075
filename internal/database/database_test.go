package database_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pageza/leanfeast/backend/config"
	"github.com/pageza/leanfeast/backend/internal/database"
	"github.com/pageza/leanfeast/backend/internal/model"
	"github.com/pageza/leanfeast/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunMigrationsSQLite(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)

	for _, m := range model.All() {
		assert.True(t, db.Migrator().HasTable(m))
	}
	assert.False(t, db.Migrator().HasTable(&model.RecipeEmbedding{}))

	recipe := model.Recipe{Title: "Test", UserID: uuid.New(), ServingSize: 1}
	require.NoError(t, db.Create(&recipe).Error)
	assert.NotEqual(t, uuid.Nil, recipe.ID)

	// migrating twice is a no-op
	require.NoError(t, database.RunMigrations(db, zap.NewNop()))
}

func TestRunMigrationsPostgres(t *testing.T) {
	db := testhelpers.SetupPGVectorDB(t)

	assert.True(t, db.Migrator().HasTable(&model.RecipeEmbedding{}))

	var applied int64
	require.NoError(t, db.Table("migrations").Count(&applied).Error)
	assert.Equal(t, int64(2), applied)

	require.NoError(t, database.RunMigrations(db, zap.NewNop()))
	require.NoError(t, db.Table("migrations").Count(&applied).Error)
	assert.Equal(t, int64(2), applied)

	assert.NoError(t, database.HealthCheck(context.Background(), db))
}

func TestNewSQLite(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", SQLitePath: "file::memory:"}

	db, err := database.New(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, database.HealthCheck(context.Background(), db))
}
