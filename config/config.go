package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort         string
	ServerHost         string
	CORSAllowedOrigins []string

	// Database configuration
	DBDriver    string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	SQLitePath  string
	AutoMigrate bool

	// Redis configuration
	RedisURL string

	// JWT configuration
	JWTSecret string

	// Logging configuration
	LogLevel       string
	LogFormat      string
	LogDevelopment bool

	// Generative model configuration
	GeminiAPIKey        string
	GenerationModel     string
	EmbeddingModel      string
	EmbeddingDimensions int
	EmbeddingCacheTTL   time.Duration

	// Nutrition analysis configuration
	SpoonacularAPIKey  string
	SpoonacularBaseURL string
	SpoonacularRPS     float64

	// Image generation configuration
	PollinationsBaseURL string
	ImageWorkers        int
	ImageQueueSize      int
	ImageJobTimeout     time.Duration

	// Object storage configuration
	S3BucketName    string
	S3Region        string
	S3PublicBaseURL string

	// Generation rate limit per user
	GenerationLimit  int
	GenerationWindow time.Duration
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()

	var get func(string) string
	switch env {
	case CI:
		get = os.Getenv
	case Development, Test:
		get = envThenSecret
	case Production:
		get = secretThenEnv
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	cfg, err := load(get)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", env, err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func load(get func(string) string) (*Config, error) {
	cfg := &Config{
		ServerPort:          orDefault(get("SERVER_PORT"), "8080"),
		ServerHost:          orDefault(get("SERVER_HOST"), "0.0.0.0"),
		CORSAllowedOrigins:  splitList(orDefault(get("CORS_ALLOWED_ORIGINS"), "http://localhost:5173")),
		DBDriver:            orDefault(get("DB_DRIVER"), "postgres"),
		DBHost:              get("DB_HOST"),
		DBPort:              orDefault(get("DB_PORT"), "5432"),
		DBUser:              get("DB_USER"),
		DBPassword:          get("DB_PASSWORD"),
		DBName:              get("DB_NAME"),
		DBSSLMode:           orDefault(get("DB_SSL_MODE"), "disable"),
		SQLitePath:          orDefault(get("SQLITE_PATH"), "leanfeast.db"),
		RedisURL:            get("REDIS_URL"),
		JWTSecret:           get("JWT_SECRET"),
		LogLevel:            orDefault(get("LOG_LEVEL"), "info"),
		LogFormat:           orDefault(get("LOG_FORMAT"), "json"),
		GeminiAPIKey:        get("GEMINI_API_KEY"),
		GenerationModel:     orDefault(get("GENERATION_MODEL"), "gemini-2.5-flash"),
		EmbeddingModel:      orDefault(get("EMBEDDING_MODEL"), "text-embedding-004"),
		SpoonacularAPIKey:   get("SPOONACULAR_API_KEY"),
		SpoonacularBaseURL:  orDefault(get("SPOONACULAR_BASE_URL"), "https://api.spoonacular.com"),
		PollinationsBaseURL: orDefault(get("POLLINATIONS_BASE_URL"), "https://image.pollinations.ai"),
		S3BucketName:        orDefault(get("S3_BUCKET_NAME"), "recipe-images"),
		S3Region:            orDefault(get("AWS_REGION"), "us-east-1"),
		S3PublicBaseURL:     get("S3_PUBLIC_BASE_URL"),
	}

	var err error
	if cfg.AutoMigrate, err = parseBool(get, "AUTO_MIGRATE", true); err != nil {
		return nil, err
	}
	if cfg.LogDevelopment, err = parseBool(get, "LOG_DEVELOPMENT", false); err != nil {
		return nil, err
	}
	if cfg.EmbeddingDimensions, err = parseInt(get, "EMBEDDING_DIMENSIONS", 768); err != nil {
		return nil, err
	}
	if cfg.ImageWorkers, err = parseInt(get, "IMAGE_WORKERS", 2); err != nil {
		return nil, err
	}
	if cfg.ImageQueueSize, err = parseInt(get, "IMAGE_QUEUE_SIZE", 64); err != nil {
		return nil, err
	}
	if cfg.GenerationLimit, err = parseInt(get, "GENERATION_RATE_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.EmbeddingCacheTTL, err = parseDuration(get, "EMBEDDING_CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ImageJobTimeout, err = parseDuration(get, "IMAGE_JOB_TIMEOUT", 3*time.Minute); err != nil {
		return nil, err
	}
	if cfg.GenerationWindow, err = parseDuration(get, "GENERATION_RATE_WINDOW", time.Hour); err != nil {
		return nil, err
	}
	if raw := get("SPOONACULAR_RPS"); raw != "" {
		if cfg.SpoonacularRPS, err = strconv.ParseFloat(raw, 64); err != nil {
			return nil, fmt.Errorf("invalid SPOONACULAR_RPS: %w", err)
		}
	} else {
		cfg.SpoonacularRPS = 1
	}

	return cfg, nil
}

// DSN returns the postgres connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// envThenSecret prefers environment variables and falls back to Docker secrets
func envThenSecret(name string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return secretFor(name)
}

// secretThenEnv prefers Docker secrets and falls back to environment variables
func secretThenEnv(name string) string {
	if v := secretFor(name); v != "" {
		return v
	}
	return os.Getenv(name)
}

// secretFor resolves NAME_FILE first, then the lowercase secret in SECRETS_DIR
func secretFor(name string) string {
	if path := os.Getenv(name + "_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return readSecret(strings.ToLower(name))
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

// splitList splits a comma separated value, dropping blanks
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseInt(get func(string) string, name string, def int) (int, error) {
	raw := get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

func parseBool(get func(string) string, name string, def bool) (bool, error) {
	raw := get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

func parseDuration(get func(string) string, name string, def time.Duration) (time.Duration, error) {
	raw := get(name)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}
