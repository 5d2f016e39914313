package config

import (
	"os"
	"strconv"
)

func (c *Config) applyEnv() {
	c.Content.Dir = getEnv("CURRICULUM_CONTENT_DIR", c.Content.Dir)
	c.Content.Repo = getEnv("CURRICULUM_CONTENT_REPO", c.Content.Repo)
	c.Content.Branch = getEnv("CURRICULUM_CONTENT_BRANCH", c.Content.Branch)
	c.Content.CacheDir = getEnv("CURRICULUM_CACHE_DIR", c.Content.CacheDir)

	c.Validation.Strict = getEnvBool("CURRICULUM_STRICT", c.Validation.Strict)
	c.Validation.ReportDir = getEnv("CURRICULUM_REPORT_DIR", c.Validation.ReportDir)

	c.Publish.SQLitePath = getEnv("CURRICULUM_SQLITE_PATH", c.Publish.SQLitePath)
	c.Publish.PostgresDSN = getEnv("CURRICULUM_POSTGRES_DSN", getEnv("DATABASE_URL", c.Publish.PostgresDSN))
	c.Publish.PostgresSchema = getEnv("CURRICULUM_POSTGRES_SCHEMA", c.Publish.PostgresSchema)
	c.Publish.LocalDir = getEnv("CURRICULUM_LOCAL_DIR", c.Publish.LocalDir)
	c.Publish.MaxAttempts = getEnvInt("CURRICULUM_PUBLISH_ATTEMPTS", c.Publish.MaxAttempts)

	c.Notify.AMQPURL = getEnv("CURRICULUM_AMQP_URL", getEnv("RABBITMQ_URL", c.Notify.AMQPURL))

	c.Log.Level = getEnv("CURRICULUM_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("CURRICULUM_LOG_FORMAT", c.Log.Format)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
