package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes content to config.yaml in a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

// TestLoadWithFile_ValidYAML tests loading configuration from a valid YAML file.
func TestLoadWithFile_ValidYAML(t *testing.T) {
	configPath := writeConfig(t, `input:
  dir: docs
  persona: Researcher
  job: Literature review
heading:
  math_density: 0.2
embeddings:
  provider: hash
  dimension: 64
pipeline:
  workers: 4
`)

	cfg, err := LoadWithFile(configPath)
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil", err)
	}

	if cfg.Input.Dir != "docs" {
		t.Errorf("Input.Dir = %q, want docs", cfg.Input.Dir)
	}
	if cfg.Input.Persona != "Researcher" {
		t.Errorf("Input.Persona = %q, want Researcher", cfg.Input.Persona)
	}
	if cfg.Heading.MathDensity != 0.2 {
		t.Errorf("Heading.MathDensity = %v, want 0.2", cfg.Heading.MathDensity)
	}
	if cfg.Heading.WhitespaceRatio != 0.30 {
		t.Errorf("Heading.WhitespaceRatio = %v, want default 0.30", cfg.Heading.WhitespaceRatio)
	}
	if cfg.Embeddings.Provider != "hash" || cfg.Embeddings.Dimension != 64 {
		t.Errorf("Embeddings = %+v, want hash/64", cfg.Embeddings)
	}
	if cfg.Pipeline.Workers != 4 {
		t.Errorf("Pipeline.Workers = %d, want 4", cfg.Pipeline.Workers)
	}
	if !cfg.Ranking.Strict {
		t.Error("Ranking.Strict = false, want true (default)")
	}
}

// TestLoadWithFile_EnvironmentOverride tests that environment variables override YAML.
func TestLoadWithFile_EnvironmentOverride(t *testing.T) {
	configPath := writeConfig(t, `heading:
  math_density: 0.2
embeddings:
  timeout: 5s
`)

	t.Setenv("SECTIONRANK_HEADING_MATH_DENSITY", "0.25")
	t.Setenv("SECTIONRANK_EMBEDDINGS_BASE_URL", "http://tei:8080")
	t.Setenv("SECTIONRANK_RANKING_STRICT", "false")

	cfg, err := LoadWithFile(configPath)
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v, want nil", err)
	}

	if cfg.Heading.MathDensity != 0.25 {
		t.Errorf("Heading.MathDensity = %v, want 0.25 (from env override)", cfg.Heading.MathDensity)
	}
	if cfg.Embeddings.BaseURL != "http://tei:8080" {
		t.Errorf("Embeddings.BaseURL = %q, want http://tei:8080", cfg.Embeddings.BaseURL)
	}
	if cfg.Embeddings.Timeout.Duration() != 5*time.Second {
		t.Errorf("Embeddings.Timeout = %v, want 5s", cfg.Embeddings.Timeout.Duration())
	}
	if cfg.Ranking.Strict {
		t.Error("Ranking.Strict = true, want false (from env override)")
	}
}

// TestLoadWithFile_MissingFile tests that a missing file falls back to defaults.
func TestLoadWithFile_MissingFile(t *testing.T) {
	cfg, err := LoadWithFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFile() should not error on missing file, got: %v", err)
	}

	if cfg.Embeddings.Model != "sentence-transformers/all-MiniLM-L6-v2" {
		t.Errorf("Embeddings.Model = %q, want all-MiniLM-L6-v2 default", cfg.Embeddings.Model)
	}
	if cfg.Output.ReportFile != "final_output.json" {
		t.Errorf("Output.ReportFile = %q, want final_output.json", cfg.Output.ReportFile)
	}
	if !cfg.Output.WriteOutlines {
		t.Error("Output.WriteOutlines = false, want true (default)")
	}
}

// TestLoadWithFile_EmptyPath tests that an empty path loads defaults only.
func TestLoadWithFile_EmptyPath(t *testing.T) {
	cfg, err := LoadWithFile("")
	if err != nil {
		t.Fatalf("LoadWithFile(\"\") error = %v, want nil", err)
	}
	if cfg.Heading.H1Ratio != 1.5 || cfg.Heading.H2Ratio != 1.2 {
		t.Errorf("level ratios = %v/%v, want 1.5/1.2", cfg.Heading.H1Ratio, cfg.Heading.H2Ratio)
	}
}

// TestLoadWithFile_InvalidYAML tests handling of malformed YAML.
func TestLoadWithFile_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `heading:
  math_density: [not
  invalid syntax here
`)

	if _, err := LoadWithFile(configPath); err == nil {
		t.Error("LoadWithFile() should error on invalid YAML, got nil")
	}
}

// TestLoadWithFile_Validation tests configuration validation.
func TestLoadWithFile_Validation(t *testing.T) {
	configPath := writeConfig(t, `embeddings:
  provider: word2vec
`)

	_, err := LoadWithFile(configPath)
	if err == nil {
		t.Fatal("LoadWithFile() should error on unknown provider, got nil")
	}
	if !strings.Contains(err.Error(), "word2vec") {
		t.Errorf("Expected provider in error, got: %v", err)
	}
}

// TestLoadWithFile_FileTooLarge tests file size limit enforcement.
func TestLoadWithFile_FileTooLarge(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	largeContent := bytes.Repeat([]byte("# comment line\n"), 150000)
	if err := os.WriteFile(configPath, largeContent, 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadWithFile(configPath)
	if err == nil {
		t.Fatal("Expected error for large file, got nil")
	}
	if !strings.Contains(err.Error(), "too large") {
		t.Errorf("Expected 'too large' error, got: %v", err)
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"SECTIONRANK_HEADING_MATH_DENSITY": "heading.math_density",
		"SECTIONRANK_PIPELINE_WORKERS":     "pipeline.workers",
		"SECTIONRANK_EMBEDDINGS_API_KEY":   "embeddings.api_key",
		"SECTIONRANK_VERBOSE":              "verbose",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}
