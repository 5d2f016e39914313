package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/callumalpass/study-program/internal/validate"
)

func runCommand(t *testing.T, command string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	var out bytes.Buffer
	err := run(context.Background(), command, append(args, "--log-level", "error"), &out)
	return out.String(), err
}

func TestRun_UnknownCommand(t *testing.T) {
	if _, err := runCommand(t, "frobnicate"); !errors.Is(err, errUnknownCommand) {
		t.Errorf("run() error = %v, want errUnknownCommand", err)
	}
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), "version", nil, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), Version) {
		t.Errorf("output = %q", out.String())
	}
}

func TestValidate_BuiltinContent(t *testing.T) {
	out, err := runCommand(t, "validate", "--strict")
	if err != nil {
		t.Fatalf("validate error = %v\n%s", err, out)
	}
	if !strings.HasPrefix(out, "OK: 2 subjects") {
		t.Errorf("output = %q", out)
	}
}

func TestValidate_JSONAndReportDir(t *testing.T) {
	reports := t.TempDir()
	out, err := runCommand(t, "validate", "--json", "--report-dir", reports)
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}

	var report validate.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not a JSON report: %v", err)
	}
	if report.Subjects != 2 {
		t.Errorf("Subjects = %d, want 2", report.Subjects)
	}

	saved := filepath.Join(reports, "reports", report.RunID.String()+".json")
	if _, err := os.Stat(saved); err != nil {
		t.Errorf("report not saved: %v", err)
	}
}

func TestValidate_FailingContent(t *testing.T) {
	dir := t.TempDir()
	subject := filepath.Join(dir, "broken")
	os.MkdirAll(subject, 0755)
	os.WriteFile(filepath.Join(subject, "subject.yaml"), []byte("title: Broken\ntopics:\n  - id: t\n    file: t.yaml\n"), 0644)
	os.WriteFile(filepath.Join(subject, "t.yaml"), []byte(`exercises:
  - id: broken-1
    subject_id: broken
    topic_id: t
    kind: written
    title: Too hard
    description: Out of range
    difficulty: 9
    hints: []
    solution: n/a
`), 0644)

	out, err := runCommand(t, "validate", "--content", dir)
	if !errors.Is(err, errValidationFailed) {
		t.Fatalf("validate error = %v, want errValidationFailed", err)
	}
	if !strings.Contains(out, "FAILED") || !strings.Contains(out, "broken-1") {
		t.Errorf("output = %q", out)
	}
}

func TestList_Filters(t *testing.T) {
	out, err := runCommand(t, "list", "--subject", "cs101", "--kind", "coding")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if strings.Contains(out, "math102") {
		t.Error("list --subject cs101 should not show math102 exercises")
	}
	if strings.Contains(out, " written ") {
		t.Error("list --kind coding should not show written exercises")
	}

	if _, err := runCommand(t, "list", "--topic", "logic"); err == nil {
		t.Error("--topic without --subject should fail")
	}
	if _, err := runCommand(t, "list", "--difficulty", "9"); err == nil {
		t.Error("--difficulty 9 should fail")
	}
}

func TestInfo(t *testing.T) {
	out, err := runCommand(t, "info", "cs101-variables-3")
	if err != nil {
		t.Fatalf("info error = %v", err)
	}
	if !strings.Contains(out, "ID:         cs101-variables-3") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "Next: cs101-control-flow-1") {
		t.Errorf("output should name the next exercise: %q", out)
	}

	if _, err := runCommand(t, "info"); err == nil {
		t.Error("info without an ID should fail")
	}
	if _, err := runCommand(t, "info", "nonexistent"); err == nil {
		t.Error("info of an unknown exercise should fail")
	}
}

func TestStats(t *testing.T) {
	out, err := runCommand(t, "stats")
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	for _, want := range []string{"Subjects:  2", "Topics:    8", "By language:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestExportAndHistory(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "out", "catalog.db")
	jsonDir := filepath.Join(dir, "json")

	out, err := runCommand(t, "export", "--out", db, "--json-dir", jsonDir)
	if err != nil {
		t.Fatalf("export error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "-> sqlite") || !strings.Contains(out, "-> local") {
		t.Errorf("output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(jsonDir, "catalogs", "latest.json")); err != nil {
		t.Errorf("latest snapshot not written: %v", err)
	}

	out, err = runCommand(t, "history", "--db", db)
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	if strings.Count(out, "\n") != 2 {
		t.Errorf("history should list one publication:\n%s", out)
	}
}

func TestPublish_NoSinks(t *testing.T) {
	for _, key := range []string{"CURRICULUM_SQLITE_PATH", "CURRICULUM_POSTGRES_DSN", "DATABASE_URL", "CURRICULUM_LOCAL_DIR"} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	cfg := filepath.Join(dir, "curriculum.yaml")
	os.WriteFile(cfg, []byte("publish:\n  sqlite_path: \"\"\n"), 0644)

	if _, err := runCommand(t, "publish", "--config", cfg); err == nil || !strings.Contains(err.Error(), "no publication sinks") {
		t.Errorf("publish error = %v, want no sinks", err)
	}
}

func TestSync_RequiresRepo(t *testing.T) {
	if _, err := runCommand(t, "sync"); err == nil {
		t.Error("sync without content.repo should fail")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "DEBUG",
		"WARN":    "WARN",
		"warning": "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"bogus":   "INFO",
	}
	for in, want := range tests {
		if got := parseLogLevel(in).String(); got != want {
			t.Errorf("parseLogLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
