package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// requirement checks one field of a loaded Config
type requirement struct {
	field string
	value func(*Config) string
}

var (
	dbRequirements = []requirement{
		{"DB_HOST", func(c *Config) string { return c.DBHost }},
		{"DB_USER", func(c *Config) string { return c.DBUser }},
		{"DB_PASSWORD", func(c *Config) string { return c.DBPassword }},
		{"DB_NAME", func(c *Config) string { return c.DBName }},
	}

	// Environment-specific requirements
	requirements = map[Environment][]requirement{
		Development: {
			{"JWT_SECRET", func(c *Config) string { return c.JWTSecret }},
		},
		Test: {
			{"JWT_SECRET", func(c *Config) string { return c.JWTSecret }},
		},
		CI: {
			{"JWT_SECRET", func(c *Config) string { return c.JWTSecret }},
		},
		Production: {
			{"JWT_SECRET", func(c *Config) string { return c.JWTSecret }},
			{"REDIS_URL", func(c *Config) string { return c.RedisURL }},
			{"GEMINI_API_KEY", func(c *Config) string { return c.GeminiAPIKey }},
			{"SPOONACULAR_API_KEY", func(c *Config) string { return c.SpoonacularAPIKey }},
			{"S3_BUCKET_NAME", func(c *Config) string { return c.S3BucketName }},
		},
	}
)

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	var errs []ValidationError

	reqs := requirements[GetEnvironment()]
	if cfg.DBDriver == "postgres" {
		reqs = append(append([]requirement{}, reqs...), dbRequirements...)
	}
	for _, r := range reqs {
		if r.value(cfg) == "" {
			errs = append(errs, ValidationError{Field: r.field, Message: "is required"})
		}
	}

	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, ValidationError{Field: "DB_DRIVER", Message: fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}
	if cfg.EmbeddingDimensions <= 0 {
		errs = append(errs, ValidationError{Field: "EMBEDDING_DIMENSIONS", Message: "must be positive"})
	}
	if cfg.ImageWorkers <= 0 {
		errs = append(errs, ValidationError{Field: "IMAGE_WORKERS", Message: "must be positive"})
	}
	if cfg.ImageQueueSize <= 0 {
		errs = append(errs, ValidationError{Field: "IMAGE_QUEUE_SIZE", Message: "must be positive"})
	}
	if cfg.SpoonacularRPS <= 0 {
		errs = append(errs, ValidationError{Field: "SPOONACULAR_RPS", Message: "must be positive"})
	}

	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("configuration validation failed:\n%s", strings.Join(msgs, "\n"))
}
