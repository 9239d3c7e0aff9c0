package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTEI answers /embed with one vector per input, [len(input), index].
func fakeTEI(t *testing.T, status *atomic.Int32, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/embed" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if code := status.Load(); code != 0 {
			status.Store(0)
			http.Error(w, "overloaded", int(code))
			return
		}

		var req struct {
			Inputs   json.RawMessage `json:"inputs"`
			Truncate bool            `json:"truncate"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Truncate)

		var inputs []string
		if err := json.Unmarshal(req.Inputs, &inputs); err != nil {
			var single string
			require.NoError(t, json.Unmarshal(req.Inputs, &single))
			inputs = []string{single}
		}

		out := make([][]float32, len(inputs))
		for i, in := range inputs {
			out[i] = []float32{float32(len(in)), float32(i)}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}))
}

func TestNewService(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{"valid", "http://localhost:8080", false},
		{"trailing slash", "https://tei.internal/", false},
		{"empty base URL", "", true},
		{"no scheme", "localhost:8080", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(Config{BaseURL: tt.baseURL})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.False(t, strings.HasSuffix(svc.config.BaseURL, "/"))
			assert.Equal(t, 32, svc.config.BatchSize)
			assert.Equal(t, uint(3), svc.config.Retries)
		})
	}
}

func TestService_EmbedDocumentsBatchesInOrder(t *testing.T) {
	var status, calls atomic.Int32
	srv := fakeTEI(t, &status, &calls)
	defer srv.Close()

	svc, err := NewService(Config{BaseURL: srv.URL, BatchSize: 2})
	require.NoError(t, err)

	vectors, err := svc.EmbedDocuments(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})
	require.NoError(t, err)

	require.Len(t, vectors, 5)
	for i, v := range vectors {
		assert.Equal(t, float32(i+1), v[0], "vector %d out of order", i)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestService_EmbedQuery(t *testing.T) {
	var status, calls atomic.Int32
	srv := fakeTEI(t, &status, &calls)
	defer srv.Close()

	svc, err := NewService(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	v, err := svc.EmbedQuery(context.Background(), "Travel Planner. Plan a trip")
	require.NoError(t, err)
	assert.Equal(t, []float32{27, 0}, v)

	_, err = svc.EmbedQuery(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestService_RetriesServerErrors(t *testing.T) {
	var status, calls atomic.Int32
	status.Store(http.StatusServiceUnavailable)
	srv := fakeTEI(t, &status, &calls)
	defer srv.Close()

	svc, err := NewService(Config{BaseURL: srv.URL, Retries: 3})
	require.NoError(t, err)

	v, err := svc.EmbedDocuments(context.Background(), []string{"abc"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{3, 0}}, v)
	assert.Equal(t, int32(2), calls.Load())
}

func TestService_RateLimitSpacesRequests(t *testing.T) {
	var status, calls atomic.Int32
	srv := fakeTEI(t, &status, &calls)
	defer srv.Close()

	svc, err := NewService(Config{BaseURL: srv.URL, BatchSize: 1, RateLimit: 20, Burst: 1})
	require.NoError(t, err)

	start := time.Now()
	_, err = svc.EmbedDocuments(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, int32(3), calls.Load())
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond, "three requests at 20/s need two 50ms waits")
}

func TestService_RateLimitRespectsDeadline(t *testing.T) {
	var status, calls atomic.Int32
	srv := fakeTEI(t, &status, &calls)
	defer srv.Close()

	svc, err := NewService(Config{BaseURL: srv.URL, BatchSize: 1, RateLimit: 0.5, Burst: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = svc.EmbedDocuments(ctx, []string{"a", "b"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "the second request would wait past the deadline")
}

func TestService_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "input too long", http.StatusRequestEntityTooLarge)
	}))
	defer srv.Close()

	svc, err := NewService(Config{BaseURL: srv.URL, Retries: 5})
	require.NoError(t, err)

	_, err = svc.EmbedDocuments(context.Background(), []string{"abc"})
	require.ErrorIs(t, err, ErrEmbeddingFailed)
	assert.Contains(t, err.Error(), "413")
	assert.Equal(t, int32(1), calls.Load())
}

func TestService_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[1,2]]`))
	}))
	defer srv.Close()

	svc, err := NewService(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = svc.EmbedDocuments(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestService_SendsAPIKey(t *testing.T) {
	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[[1]]`))
	}))
	defer srv.Close()

	svc, err := NewService(Config{BaseURL: srv.URL, APIKey: "tok"})
	require.NoError(t, err)

	_, err = svc.EmbedQuery(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", auth.Load())
}

func TestService_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`[[1]]`))
	}))
	defer srv.Close()

	svc, err := NewService(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = svc.EmbedQuery(ctx, "q")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
