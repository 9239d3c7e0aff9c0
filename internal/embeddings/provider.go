package embeddings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sectionrank/internal/config"
)

// Embedder turns text into vectors.
type Embedder interface {
	// EmbedDocuments embeds texts in one logical call, preserving order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedQuery embeds a single query text.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Provider is the interface for embedding providers.
type Provider interface {
	Embedder
	// Dimension returns the embedding dimension for the current model.
	Dimension() int
	// Close releases resources held by the provider.
	Close() error
}

// ProviderConfig holds configuration for creating an embedding provider.
type ProviderConfig struct {
	// Provider is the provider type: "fastembed", "tei" or "hash"
	Provider string
	// Model is the embedding model name
	Model string
	// BaseURL is the TEI URL (only used for TEI provider)
	BaseURL string
	// APIKey is sent as a bearer token to TEI when set
	APIKey string
	// CacheDir is the model cache directory (only used for FastEmbed)
	CacheDir string
	// BatchSize bounds the texts per inference or request batch
	BatchSize int
	// Dimension is the vector size of the hash provider
	Dimension int
	// Timeout and Retries apply to TEI requests
	Timeout time.Duration
	Retries uint
	// RateLimit and Burst throttle TEI requests; zero RateLimit is unlimited
	RateLimit float64
	Burst     int

	Logger *zap.Logger
}

// ProviderConfigFrom converts the application embedding settings.
func ProviderConfigFrom(c config.EmbeddingsConfig, logger *zap.Logger) ProviderConfig {
	return ProviderConfig{
		Provider:  c.Provider,
		Model:     c.Model,
		BaseURL:   c.BaseURL,
		APIKey:    c.APIKey.Value(),
		CacheDir:  c.CacheDir,
		BatchSize: c.BatchSize,
		Dimension: c.Dimension,
		Timeout:   c.Timeout.Duration(),
		Retries:   c.Retries,
		RateLimit: c.RateLimit,
		Burst:     c.Burst,
		Logger:    logger,
	}
}

// knownDimensions maps model names to their embedding dimensions.
var knownDimensions = map[string]int{
	"BAAI/bge-small-en-v1.5":                 384,
	"BAAI/bge-small-en":                      384,
	"BAAI/bge-base-en-v1.5":                  768,
	"BAAI/bge-base-en":                       768,
	"BAAI/bge-small-zh-v1.5":                 512,
	"sentence-transformers/all-MiniLM-L6-v2": 384,
	"fast-bge-small-en-v1.5":                 384,
	"fast-bge-small-en":                      384,
	"fast-bge-base-en-v1.5":                  768,
	"fast-bge-base-en":                       768,
	"fast-bge-small-zh-v1.5":                 512,
	"fast-all-MiniLM-L6-v2":                  384,
}

// detectDimensionFromModel returns the embedding dimension for a model name.
// Falls back to 384 if model is unknown.
func detectDimensionFromModel(model string) int {
	if dim, ok := knownDimensions[model]; ok {
		return dim
	}
	switch {
	case strings.Contains(model, "base"):
		return 768
	case strings.Contains(model, "large"):
		return 1024
	default:
		return 384
	}
}

// NewProvider creates an embedding provider based on the configuration.
func NewProvider(ctx context.Context, cfg ProviderConfig) (Provider, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Provider {
	case "fastembed", "":
		if _, err := EnsureONNXRuntime(ctx, cfg.CacheDir, logger); err != nil {
			return nil, err
		}
		return NewFastEmbedProvider(FastEmbedConfig{
			Model:     cfg.Model,
			CacheDir:  cfg.CacheDir,
			BatchSize: cfg.BatchSize,
		})
	case "tei":
		svc, err := NewService(Config{
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			APIKey:    cfg.APIKey,
			BatchSize: cfg.BatchSize,
			Timeout:   cfg.Timeout,
			Retries:   cfg.Retries,
			RateLimit: cfg.RateLimit,
			Burst:     cfg.Burst,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
		return &teiProvider{Service: svc, dimension: detectDimensionFromModel(cfg.Model)}, nil
	case "hash":
		return NewHashEmbedder(cfg.Dimension)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}

// teiProvider wraps Service to implement Provider interface.
type teiProvider struct {
	*Service
	dimension int
}

// Dimension returns the embedding dimension based on the configured model.
func (t *teiProvider) Dimension() int {
	return t.dimension
}

// Close is a no-op for TEI since it uses HTTP.
func (t *teiProvider) Close() error {
	return nil
}
