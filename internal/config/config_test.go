package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Content.Branch != "main" {
		t.Errorf("Content.Branch = %q, want main", cfg.Content.Branch)
	}
	if cfg.Publish.PostgresSchema != "curriculum" {
		t.Errorf("Publish.PostgresSchema = %q", cfg.Publish.PostgresSchema)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Content.Dir != "" || cfg.Content.Repo != "" {
		t.Error("default content should be the embedded corpus")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curriculum.yaml")
	data := `content:
  dir: ./content
validation:
  strict: true
  report_dir: reports
publish:
  sqlite_path: out/catalog.db
  local_dir: out/json
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Content.Dir != "./content" || !cfg.Validation.Strict || cfg.Validation.ReportDir != "reports" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Publish.SQLitePath != "out/catalog.db" || cfg.Publish.LocalDir != "out/json" {
		t.Errorf("Publish = %+v", cfg.Publish)
	}
	// Unset keys keep their defaults
	if cfg.Publish.PostgresSchema != "curriculum" || cfg.Publish.MaxAttempts != 3 {
		t.Errorf("Publish defaults lost: %+v", cfg.Publish)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curriculum.yaml")
	os.WriteFile(path, []byte("log:\n  level: warn\n"), 0644)
	t.Setenv("CURRICULUM_LOG_LEVEL", "error")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, want error", cfg.Log.Level)
	}
}

func TestLoad_DefaultPathMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Publish.MaxAttempts != 3 {
		t.Errorf("expected defaults, got %+v", cfg.Publish)
	}
}

func TestLoad_DefaultPathPresent(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	os.WriteFile(filepath.Join(dir, DefaultPath), []byte("content:\n  dir: lessons\n"), 0644)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Content.Dir != "lessons" {
		t.Errorf("Content.Dir = %q, want lessons", cfg.Content.Dir)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"invalid yaml", "content: [", "parse config"},
		{"bad log format", "log:\n  format: xml\n", "log.format"},
		{"bad log level", "log:\n  level: loud\n", "log.level"},
		{"dir and repo", "content:\n  dir: a\n  repo: https://example.com/c.git\n", "mutually exclusive"},
		{"zero attempts", "publish:\n  max_attempts: 0\n", "max_attempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
			os.WriteFile(path, []byte(tt.content), 0644)

			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.want)
			}
		})
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load() of an explicit missing file should fail")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "curriculum.yaml")

	cfg := Default()
	cfg.Content.Repo = "https://example.com/content.git"
	cfg.Validation.Strict = true
	cfg.Publish.PostgresDSN = "postgres://secret"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "secret") {
		t.Error("Save() should not write the postgres DSN")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Content.Repo != cfg.Content.Repo || !loaded.Validation.Strict {
		t.Errorf("round trip lost settings: %+v", loaded)
	}
}
