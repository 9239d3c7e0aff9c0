package embeddings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/sectionrank/internal/config"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ProviderConfig
		wantDim int
		wantErr error
	}{
		{
			name:    "tei provider with valid config",
			cfg:     ProviderConfig{Provider: "tei", BaseURL: "http://localhost:8080", Model: "sentence-transformers/all-MiniLM-L6-v2"},
			wantDim: 384,
		},
		{
			name:    "tei dimension guessed from model name",
			cfg:     ProviderConfig{Provider: "tei", BaseURL: "http://localhost:8080", Model: "intfloat/e5-large"},
			wantDim: 1024,
		},
		{
			name:    "tei provider without base URL",
			cfg:     ProviderConfig{Provider: "tei"},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "hash provider",
			cfg:     ProviderConfig{Provider: "hash", Dimension: 64},
			wantDim: 64,
		},
		{
			name:    "hash provider without dimension",
			cfg:     ProviderConfig{Provider: "hash"},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "unknown provider",
			cfg:     ProviderConfig{Provider: "unknown"},
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(context.Background(), tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer provider.Close()
			assert.Equal(t, tt.wantDim, provider.Dimension())
		})
	}
}

func TestProviderConfigFrom(t *testing.T) {
	c := config.Default().Embeddings
	c.Provider = "tei"
	c.BaseURL = "http://tei:8080"
	c.APIKey = config.Secret("s3cret")
	c.Timeout = config.Duration(5 * time.Second)
	c.RateLimit = 2.5
	c.Burst = 4

	pc := ProviderConfigFrom(c, nil)

	assert.Equal(t, "tei", pc.Provider)
	assert.Equal(t, "http://tei:8080", pc.BaseURL)
	assert.Equal(t, "s3cret", pc.APIKey)
	assert.Equal(t, 5*time.Second, pc.Timeout)
	assert.Equal(t, c.BatchSize, pc.BatchSize)
	assert.Equal(t, c.Retries, pc.Retries)
	assert.Equal(t, 2.5, pc.RateLimit)
	assert.Equal(t, 4, pc.Burst)
}

func TestDetectDimensionFromModel(t *testing.T) {
	assert.Equal(t, 384, detectDimensionFromModel("sentence-transformers/all-MiniLM-L6-v2"))
	assert.Equal(t, 768, detectDimensionFromModel("BAAI/bge-base-en-v1.5"))
	assert.Equal(t, 768, detectDimensionFromModel("custom-base-model"))
	assert.Equal(t, 1024, detectDimensionFromModel("custom-large-model"))
	assert.Equal(t, 384, detectDimensionFromModel("mystery"))
}
