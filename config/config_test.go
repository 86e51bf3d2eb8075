package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("CI", "true")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("DB_NAME", "leanfeast")
	t.Setenv("DB_SSL_MODE", "disable")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("IMAGE_WORKERS", "4")
	t.Setenv("IMAGE_JOB_TIMEOUT", "90s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.leanfeast.io, http://localhost:5173,")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "postgres", cfg.DBPassword)
	assert.Equal(t, "leanfeast", cfg.DBName)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, 4, cfg.ImageWorkers)
	assert.Equal(t, 90*time.Second, cfg.ImageJobTimeout)
	assert.Equal(t, []string{"https://app.leanfeast.io", "http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=leanfeast sslmode=disable", cfg.DSN())
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CI", "true")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 768, cfg.EmbeddingDimensions)
	assert.Equal(t, "https://api.spoonacular.com", cfg.SpoonacularBaseURL)
	assert.Equal(t, "https://image.pollinations.ai", cfg.PollinationsBaseURL)
	assert.Equal(t, "recipe-images", cfg.S3BucketName)
	assert.Equal(t, 5, cfg.GenerationLimit)
	assert.Equal(t, time.Hour, cfg.GenerationWindow)
	assert.True(t, cfg.AutoMigrate)
}

func TestLoadConfigValidation(t *testing.T) {
	t.Run("should require database settings for postgres", func(t *testing.T) {
		t.Setenv("CI", "true")
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("DB_DRIVER", "postgres")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_HOST: is required")
		assert.Contains(t, err.Error(), "DB_PASSWORD: is required")
	})

	t.Run("should reject malformed numbers", func(t *testing.T) {
		t.Setenv("CI", "true")
		t.Setenv("DB_DRIVER", "sqlite")
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("IMAGE_WORKERS", "many")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "IMAGE_WORKERS")
	})

	t.Run("should reject unknown drivers", func(t *testing.T) {
		t.Setenv("CI", "true")
		t.Setenv("DB_DRIVER", "mysql")
		t.Setenv("JWT_SECRET", "test-secret")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_DRIVER")
	})
}

func TestLoadConfigFromSecrets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jwt_secret"), []byte("from-secret\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gemini_key"), []byte("gm-key"), 0o600))

	t.Setenv("CI", "")
	t.Setenv("ENV", "test")
	t.Setenv("SECRETS_DIR", dir)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("GEMINI_API_KEY_FILE", filepath.Join(dir, "gemini_key"))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-secret", cfg.JWTSecret)
	assert.Equal(t, "gm-key", cfg.GeminiAPIKey)
}
