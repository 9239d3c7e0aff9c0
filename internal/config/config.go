// Package config provides configuration loading for sectionrank.
//
// Configuration is loaded from an optional YAML file and environment variables
// with sensible defaults. Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete sectionrank configuration.
type Config struct {
	Input      InputConfig      `koanf:"input"`
	Output     OutputConfig     `koanf:"output"`
	Heading    HeadingConfig    `koanf:"heading"`
	Classifier ClassifierConfig `koanf:"classifier"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	Ranking    RankingConfig    `koanf:"ranking"`
	Layout     LayoutConfig     `koanf:"layout"`
	Pipeline   PipelineConfig   `koanf:"pipeline"`
	Outline    OutlineConfig    `koanf:"outline"`
	Logging    LoggingConfig    `koanf:"logging"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	Metrics    MetricsConfig    `koanf:"metrics"`
}

// InputConfig describes where documents and the query descriptor come from.
type InputConfig struct {
	Dir     string `koanf:"dir"`
	Persona string `koanf:"persona"`
	Job     string `koanf:"job"`
}

// OutputConfig controls what the batch run writes.
type OutputConfig struct {
	Dir           string `koanf:"dir"`
	ReportFile    string `koanf:"report_file"`
	WriteOutlines bool   `koanf:"write_outlines"`
	CandidatesCSV string `koanf:"candidates_csv"`
}

// HeadingConfig holds the heading gate thresholds.
type HeadingConfig struct {
	MinLength       int     `koanf:"min_length"`
	MaxLength       int     `koanf:"max_length"`
	WhitespaceRatio float64 `koanf:"whitespace_ratio"`
	MathDensity     float64 `koanf:"math_density"`
	AlnumRatio      float64 `koanf:"alnum_ratio"`
	FontTolerance   float64 `koanf:"font_tolerance"`
	MarginRatio     float64 `koanf:"margin_ratio"`
	H1Ratio         float64 `koanf:"h1_ratio"`
	H2Ratio         float64 `koanf:"h2_ratio"`
}

// ClassifierConfig points at the pre-trained heading model artifact.
type ClassifierConfig struct {
	ModelPath string `koanf:"model_path"`
}

// EmbeddingsConfig selects and configures the embedding provider.
type EmbeddingsConfig struct {
	Provider  string   `koanf:"provider"` // "fastembed", "tei" or "hash"
	Model     string   `koanf:"model"`
	CacheDir  string   `koanf:"cache_dir"`
	BaseURL   string   `koanf:"base_url"`
	APIKey    Secret   `koanf:"api_key"`
	BatchSize int      `koanf:"batch_size"`
	Dimension int      `koanf:"dimension"`
	Timeout   Duration `koanf:"timeout"`
	Retries   uint     `koanf:"retries"`

	// RateLimit caps TEI requests per second; zero means unlimited.
	RateLimit float64 `koanf:"rate_limit"`
	Burst     int     `koanf:"burst"`
}

// RankingConfig controls the relevance ranking stage.
type RankingConfig struct {
	// Strict makes embedding failures fatal. When false the report is
	// written unranked.
	Strict bool `koanf:"strict"`
}

// LayoutConfig selects the page-layout engine for PDFs.
type LayoutConfig struct {
	Engine     string `koanf:"engine"` // "native" or "mutool"
	MutoolPath string `koanf:"mutool_path"`
}

// PipelineConfig controls document-level parallelism.
type PipelineConfig struct {
	Workers int `koanf:"workers"`
}

// OutlineConfig controls outline building.
type OutlineConfig struct {
	TitlePolicy string `koanf:"title_policy"` // "first-h1" or "first-heading"
}

// LoggingConfig holds the subset of logging settings exposed to users.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	Protocol    string  `koanf:"protocol"`
	Insecure    bool    `koanf:"insecure"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// MetricsConfig controls the prometheus textfile export of run metrics.
type MetricsConfig struct {
	Textfile string `koanf:"textfile"`
}

// Default returns a configuration populated with defaults only.
func Default() *Config {
	cfg := &Config{
		Ranking: RankingConfig{Strict: true},
		Output:  OutputConfig{WriteOutlines: true},
	}
	applyDefaults(cfg)
	return cfg
}

var (
	validProviders    = map[string]bool{"fastembed": true, "tei": true, "hash": true}
	validEngines      = map[string]bool{"native": true, "mutool": true}
	validTitlePolicy  = map[string]bool{"first-h1": true, "first-heading": true}
	validLogFormats   = map[string]bool{"json": true, "console": true}
	validOTLPProtocol = map[string]bool{"grpc": true, "http/protobuf": true}
)

// Validate validates the configuration.
//
// Returns an error if:
//   - a threshold is outside its meaningful range
//   - the embedding provider, layout engine or title policy is unknown
//   - the worker count is not positive
func (c *Config) Validate() error {
	h := c.Heading
	if h.MinLength < 0 || h.MaxLength <= h.MinLength {
		return fmt.Errorf("invalid heading length bounds: min %d, max %d", h.MinLength, h.MaxLength)
	}
	for name, v := range map[string]float64{
		"whitespace_ratio": h.WhitespaceRatio,
		"math_density":     h.MathDensity,
		"alnum_ratio":      h.AlnumRatio,
		"font_tolerance":   h.FontTolerance,
		"margin_ratio":     h.MarginRatio,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("heading.%s must be between 0 and 1, got %v", name, v)
		}
	}
	if h.MarginRatio >= 0.5 {
		return errors.New("heading.margin_ratio must be below 0.5")
	}
	if h.H2Ratio <= 0 || h.H1Ratio < h.H2Ratio {
		return fmt.Errorf("invalid level ratios: h1 %v, h2 %v", h.H1Ratio, h.H2Ratio)
	}

	if !validProviders[c.Embeddings.Provider] {
		return fmt.Errorf("unknown embeddings provider %q", c.Embeddings.Provider)
	}
	if c.Embeddings.Provider == "tei" && c.Embeddings.BaseURL == "" {
		return errors.New("embeddings.base_url required for tei provider")
	}
	if c.Embeddings.Provider == "hash" && c.Embeddings.Dimension <= 0 {
		return errors.New("embeddings.dimension must be positive for hash provider")
	}
	if c.Embeddings.BatchSize <= 0 {
		return fmt.Errorf("embeddings.batch_size must be positive, got %d", c.Embeddings.BatchSize)
	}
	if c.Embeddings.RateLimit < 0 {
		return fmt.Errorf("embeddings.rate_limit must not be negative, got %g", c.Embeddings.RateLimit)
	}

	if !validEngines[c.Layout.Engine] {
		return fmt.Errorf("unknown layout engine %q", c.Layout.Engine)
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers must be >= 1, got %d", c.Pipeline.Workers)
	}
	if !validTitlePolicy[c.Outline.TitlePolicy] {
		return fmt.Errorf("unknown outline.title_policy %q", c.Outline.TitlePolicy)
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return errors.New("telemetry.endpoint required when telemetry is enabled")
		}
		if !validOTLPProtocol[c.Telemetry.Protocol] {
			return fmt.Errorf("unknown telemetry.protocol %q", c.Telemetry.Protocol)
		}
	}

	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Input.Dir == "" {
		cfg.Input.Dir = "input"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "output"
	}
	if cfg.Output.ReportFile == "" {
		cfg.Output.ReportFile = "final_output.json"
	}

	h := &cfg.Heading
	if h.MinLength == 0 {
		h.MinLength = 3
	}
	if h.MaxLength == 0 {
		h.MaxLength = 100
	}
	if h.WhitespaceRatio == 0 {
		h.WhitespaceRatio = 0.30
	}
	if h.MathDensity == 0 {
		h.MathDensity = 0.15
	}
	if h.AlnumRatio == 0 {
		h.AlnumRatio = 0.5
	}
	if h.FontTolerance == 0 {
		h.FontTolerance = 0.10
	}
	if h.MarginRatio == 0 {
		h.MarginRatio = 0.05
	}
	if h.H1Ratio == 0 {
		h.H1Ratio = 1.5
	}
	if h.H2Ratio == 0 {
		h.H2Ratio = 1.2
	}

	if cfg.Classifier.ModelPath == "" {
		cfg.Classifier.ModelPath = "model/heading_model.yaml"
	}

	// Embeddings defaults: local ONNX all-MiniLM-L6-v2
	e := &cfg.Embeddings
	if e.Provider == "" {
		e.Provider = "fastembed"
	}
	if e.Model == "" {
		e.Model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if e.CacheDir == "" {
		e.CacheDir = "local_cache"
	}
	if e.BatchSize == 0 {
		e.BatchSize = 256
	}
	if e.Dimension == 0 {
		e.Dimension = 384
	}
	if e.Timeout == 0 {
		e.Timeout = Duration(30 * time.Second)
	}
	if e.Retries == 0 {
		e.Retries = 3
	}

	if cfg.Layout.Engine == "" {
		cfg.Layout.Engine = "native"
	}
	if cfg.Layout.MutoolPath == "" {
		cfg.Layout.MutoolPath = "mutool"
	}
	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = 1
	}
	if cfg.Outline.TitlePolicy == "" {
		cfg.Outline.TitlePolicy = "first-h1"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	t := &cfg.Telemetry
	if t.Endpoint == "" {
		t.Endpoint = "localhost:4317"
	}
	if t.Protocol == "" {
		t.Protocol = "grpc"
	}
	if t.ServiceName == "" {
		t.ServiceName = "sectionrank"
	}
	if t.SampleRate == 0 {
		t.SampleRate = 1.0
	}
}
