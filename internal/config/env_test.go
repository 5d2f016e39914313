package config

import (
	"os"
	"testing"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{"returns default when not set", "TEST_KEY_UNSET", "default", "", "default"},
		{"returns env value when set", "TEST_KEY_SET", "default", "custom", "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		want         int
	}{
		{"returns default when not set", "TEST_INT_UNSET", 100, "", 100},
		{"parses valid int", "TEST_INT_VALID", 100, "42", 42},
		{"returns default on invalid int", "TEST_INT_INVALID", 100, "not-a-number", 100},
		{"parses negative int", "TEST_INT_NEG", 100, "-5", -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnvInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvInt(%q, %d) = %d, want %d", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue bool
		envValue     string
		want         bool
	}{
		{"returns default when not set", "TEST_BOOL_UNSET", true, "", true},
		{"parses true", "TEST_BOOL_TRUE", false, "true", true},
		{"parses 0 as false", "TEST_BOOL_ZERO", true, "0", false},
		{"returns default on invalid bool", "TEST_BOOL_INVALID", true, "yes", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnvBool(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v, want %v", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CURRICULUM_CONTENT_DIR", "/srv/content")
	t.Setenv("CURRICULUM_STRICT", "true")
	t.Setenv("CURRICULUM_PUBLISH_ATTEMPTS", "5")
	t.Setenv("DATABASE_URL", "postgres://fallback")
	t.Setenv("CURRICULUM_AMQP_URL", "amqp://primary")
	t.Setenv("RABBITMQ_URL", "amqp://fallback")

	cfg := Default()
	cfg.applyEnv()

	if cfg.Content.Dir != "/srv/content" {
		t.Errorf("Content.Dir = %q", cfg.Content.Dir)
	}
	if !cfg.Validation.Strict {
		t.Error("Validation.Strict should be true")
	}
	if cfg.Publish.MaxAttempts != 5 {
		t.Errorf("Publish.MaxAttempts = %d, want 5", cfg.Publish.MaxAttempts)
	}
	if cfg.Publish.PostgresDSN != "postgres://fallback" {
		t.Errorf("Publish.PostgresDSN = %q, want DATABASE_URL fallback", cfg.Publish.PostgresDSN)
	}
	if cfg.Notify.AMQPURL != "amqp://primary" {
		t.Errorf("Notify.AMQPURL = %q, CURRICULUM_AMQP_URL should win", cfg.Notify.AMQPURL)
	}
}
