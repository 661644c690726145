package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/Aman-CERP/docfinder/internal/errors"
	"github.com/Aman-CERP/docfinder/internal/logging"
)

// fakeOllama serves /api/tags and /api/embed. Each input text gets a
// vector whose first component is its length.
type fakeOllama struct {
	models     []string
	dims       int
	embedCalls atomic.Int64
	failFirst  atomic.Int64
	status     int
}

func (f *fakeOllama) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, _ *http.Request) {
		var resp OllamaModelListResponse
		for _, m := range f.models {
			resp.Models = append(resp.Models, OllamaModelInfo{Name: m})
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		f.embedCalls.Add(1)
		if f.failFirst.Load() > 0 {
			f.failFirst.Add(-1)
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		if f.status != 0 {
			http.Error(w, "bad request", f.status)
			return
		}
		var req OllamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := OllamaEmbedResponse{Model: req.Model}
		for _, text := range req.Input {
			vec := make([]float64, f.dims)
			vec[0] = float64(len(text))
			vec[1] = 1
			resp.Embeddings = append(resp.Embeddings, vec)
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	return mux
}

func newTestOllama(t *testing.T, f *fakeOllama, mutate func(*OllamaConfig)) *OllamaEmbedder {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	cfg := DefaultOllamaConfig()
	cfg.Host = srv.URL
	cfg.Retry = ferrors.RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := NewOllamaEmbedder(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// ============================================================================
// TS01: Discovery
// ============================================================================

func TestOllamaEmbedder_ResolvesTaggedModelAndDimensions(t *testing.T) {
	// Given: a server with the tagged model installed
	f := &fakeOllama{models: []string{"all-minilm:latest"}, dims: 8}

	// When: the embedder starts
	e := newTestOllama(t, f, nil)

	// Then: the tagged name is used and dimensions are probed
	assert.Equal(t, "all-minilm:latest", e.ModelName())
	assert.Equal(t, 8, e.Dimensions())
	assert.True(t, e.Available(context.Background()))
}

func TestOllamaEmbedder_FallsBackToInstalledModel(t *testing.T) {
	f := &fakeOllama{models: []string{"nomic-embed-text:v1.5"}, dims: 8}

	e := newTestOllama(t, f, nil)

	assert.Equal(t, "nomic-embed-text:v1.5", e.ModelName())
}

func TestOllamaEmbedder_NoModelInstalled(t *testing.T) {
	srv := httptest.NewServer((&fakeOllama{models: []string{"llama3"}, dims: 8}).handler(t))
	defer srv.Close()
	cfg := DefaultOllamaConfig()
	cfg.Host = srv.URL

	_, err := NewOllamaEmbedder(context.Background(), cfg, logging.Discard())

	require.Error(t, err)
	assert.True(t, ferrors.HasCode(err, ferrors.ErrCodeModelNotFound))
}

func TestOllamaEmbedder_UnreachableServer(t *testing.T) {
	// Given: a closed server
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	cfg := DefaultOllamaConfig()
	cfg.Host = srv.URL

	// When: the embedder starts
	_, err := NewOllamaEmbedder(context.Background(), cfg, logging.Discard())

	// Then: the backend is reported unavailable
	require.Error(t, err)
	assert.True(t, ferrors.HasCode(err, ferrors.ErrCodeEmbeddingUnavailable))
}

// ============================================================================
// TS02: Embedding
// ============================================================================

func TestOllamaEmbedder_EmbedBatch_SplitsAndPreservesOrder(t *testing.T) {
	// Given: batch size 2 and five texts, one blank
	f := &fakeOllama{models: []string{"all-minilm"}, dims: 4}
	e := newTestOllama(t, f, func(c *OllamaConfig) { c.BatchSize = 2 })
	f.embedCalls.Store(0)

	// When: embedding
	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "bb", " ", "ccc", "dddd"})

	// Then: blank input is a zero vector and the rest keep their order
	require.NoError(t, err)
	require.Len(t, vecs, 5)
	assert.Equal(t, int64(2), f.embedCalls.Load())
	assert.Equal(t, make([]float32, 4), vecs[2])
	assert.Greater(t, vecs[1][0], vecs[0][0])
	assert.Greater(t, vecs[4][0], vecs[3][0])
	assert.InDelta(t, 1.0, vectorMagnitude(vecs[0]), 0.001)
}

func TestOllamaEmbedder_TruncatesLongInput(t *testing.T) {
	f := &fakeOllama{models: []string{"all-minilm"}, dims: 4}
	e := newTestOllama(t, f, func(c *OllamaConfig) { c.MaxInputChars = 3 })

	long, err := e.Embed(context.Background(), "abcdefgh")
	require.NoError(t, err)
	short, err := e.Embed(context.Background(), "abc")
	require.NoError(t, err)

	assert.Equal(t, short, long)
}

func TestOllamaEmbedder_RetriesServerErrors(t *testing.T) {
	f := &fakeOllama{models: []string{"all-minilm"}, dims: 4}
	e := newTestOllama(t, f, nil)
	f.failFirst.Store(2)

	vec, err := e.Embed(context.Background(), "retry me")

	require.NoError(t, err)
	assert.Len(t, vec, 4)
}

func TestOllamaEmbedder_DoesNotRetryClientErrors(t *testing.T) {
	f := &fakeOllama{models: []string{"all-minilm"}, dims: 4}
	e := newTestOllama(t, f, nil)
	f.status = http.StatusBadRequest
	f.embedCalls.Store(0)

	_, err := e.Embed(context.Background(), "bad")

	require.Error(t, err)
	assert.True(t, ferrors.HasCode(err, ferrors.ErrCodeEmbeddingFailed))
	assert.Equal(t, int64(1), f.embedCalls.Load())
}

func TestOllamaEmbedder_OpenCircuitIsBackendUnavailable(t *testing.T) {
	// Given: a backend that keeps rejecting requests
	f := &fakeOllama{models: []string{"all-minilm"}, dims: 4}
	e := newTestOllama(t, f, nil)
	f.status = http.StatusBadRequest
	for range 5 {
		_, err := e.Embed(context.Background(), "bad")
		require.Error(t, err)
	}
	calls := f.embedCalls.Load()

	// When: embedding once the breaker has tripped
	_, err := e.Embed(context.Background(), "bad")

	// Then: the backend is reported unavailable without another request
	require.Error(t, err)
	assert.True(t, ferrors.HasCode(err, ferrors.ErrCodeEmbeddingUnavailable))
	assert.ErrorIs(t, err, ferrors.ErrCircuitOpen)
	assert.Equal(t, calls, f.embedCalls.Load())
}

func TestOllamaEmbedder_ClosedRejectsCalls(t *testing.T) {
	f := &fakeOllama{models: []string{"all-minilm"}, dims: 4}
	e := newTestOllama(t, f, nil)
	require.NoError(t, e.Close())

	_, err := e.Embed(context.Background(), "x")

	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, e.Available(context.Background()))
}

// ============================================================================
// TS03: Factory
// ============================================================================

func TestNewEmbedder_StaticWithCache(t *testing.T) {
	e, err := NewEmbedder(context.Background(), Options{Provider: ProviderStatic, CacheSize: 10})

	require.NoError(t, err)
	cached, ok := e.(*CachedEmbedder)
	require.True(t, ok)
	assert.IsType(t, &StaticEmbedder{}, cached.Inner())
}

func TestNewEmbedder_UnreachableOllamaDoesNotFallBack(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewEmbedder(context.Background(), Options{Provider: ProviderOllama, Host: srv.URL, Logger: logging.Discard()})

	require.Error(t, err)
	assert.True(t, ferrors.HasCode(err, ferrors.ErrCodeEmbeddingUnavailable))
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider("Static")
	require.NoError(t, err)
	assert.Equal(t, ProviderStatic, p)

	p, err = ParseProvider("")
	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, p)

	_, err = ParseProvider("openai")
	assert.Error(t, err)
}
