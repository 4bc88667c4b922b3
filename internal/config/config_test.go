package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidatesAfterNormalize(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docfactory.toml")
	content := `
[paths]
input_dir = "` + filepath.Join(dir, "in") + `"
index_dir = "` + filepath.Join(dir, "index") + `"

[processing]
workers = 3
blank_page_threshold = 0.1

[duplicates]
similarity_threshold = 0.9
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be reported as existing")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Processing.Workers != 3 {
		t.Fatalf("workers = %d, want 3", cfg.Processing.Workers)
	}
	if cfg.Duplicates.SimilarityThreshold != 0.9 {
		t.Fatalf("similarity threshold = %v", cfg.Duplicates.SimilarityThreshold)
	}
	// Unset sections fall back to defaults.
	if cfg.Retry.Attempts != defaultRetryAttempts {
		t.Fatalf("retry attempts = %d", cfg.Retry.Attempts)
	}
}

func TestNormalizeExtensions(t *testing.T) {
	cfg := Default()
	cfg.Processing.AllowedExtensions = []string{"PDF", " .Jpg ", ""}
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := []string{".pdf", ".jpg"}
	if len(cfg.Processing.AllowedExtensions) != len(want) {
		t.Fatalf("extensions = %v", cfg.Processing.AllowedExtensions)
	}
	for i, ext := range want {
		if cfg.Processing.AllowedExtensions[i] != ext {
			t.Fatalf("extensions = %v, want %v", cfg.Processing.AllowedExtensions, want)
		}
	}
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cfg.Processing.BlankPageThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for blank_page_threshold > 1")
	}

	cfg = Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cfg.Duplicates.SimilarityThreshold = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for similarity_threshold = 0")
	}
}

func TestValidateRejectsInputEqualsOutput(t *testing.T) {
	cfg := Default()
	cfg.Paths.InputDir = "/tmp/docs"
	cfg.Paths.OutputDir = "/tmp/docs"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error when input_dir == output_dir")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[processing]") {
		t.Fatal("sample config missing processing section")
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("expected error overwriting existing config")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DOCFACTORY_OCR_API_KEY", "env-key")
	cfg := Default()
	cfg.applyEnvOverrides()
	if cfg.OCR.APIKey != "env-key" {
		t.Fatalf("ocr api key = %q", cfg.OCR.APIKey)
	}
}
