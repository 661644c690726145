package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	ferrors "github.com/Aman-CERP/docfinder/internal/errors"
)

// OllamaEmbedder generates embeddings using Ollama's HTTP API
type OllamaEmbedder struct {
	client    *http.Client
	transport *http.Transport
	config    OllamaConfig
	breaker   *ferrors.CircuitBreaker
	logger    *slog.Logger

	mu        sync.RWMutex
	modelName string
	dims      int
	closed    bool
}

var _ Embedder = (*OllamaEmbedder)(nil)

// NewOllamaEmbedder creates a new Ollama embedder. Unless SkipHealthCheck is
// set, it resolves an installed model and probes its dimension; an
// unreachable server yields ERR_302_EMBEDDING_UNAVAILABLE.
func NewOllamaEmbedder(ctx context.Context, cfg OllamaConfig, logger *slog.Logger) (*OllamaEmbedder, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultOllamaHost
	}
	cfg.Host = strings.TrimRight(cfg.Host, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.FallbackModels == nil {
		cfg.FallbackModels = FallbackOllamaModels
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchSize > MaxBatchSize {
		cfg.BatchSize = MaxBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = OllamaConnectTimeout
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = DefaultMaxInputChars
	}
	if cfg.Retry.Multiplier == 0 {
		cfg.Retry = ferrors.DefaultRetryConfig()
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = OllamaPoolSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	// No client-level timeout: each request gets its own context deadline.
	transport := &http.Transport{
		MaxIdleConns:        cfg.PoolSize,
		MaxIdleConnsPerHost: cfg.PoolSize,
		MaxConnsPerHost:     cfg.PoolSize * 2,
		IdleConnTimeout:     10 * time.Second,
	}

	e := &OllamaEmbedder{
		client:    &http.Client{Transport: transport},
		transport: transport,
		config:    cfg,
		breaker:   ferrors.NewCircuitBreaker("ollama", ferrors.WithMaxFailures(5), ferrors.WithResetTimeout(30*time.Second)),
		logger:    logger,
		modelName: cfg.Model,
		dims:      cfg.Dimensions,
	}

	if !cfg.SkipHealthCheck {
		checkCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()

		modelName, err := e.findAvailableModel(checkCtx)
		if err != nil {
			transport.CloseIdleConnections()
			return nil, err
		}
		e.modelName = modelName

		if cfg.Dimensions == 0 {
			vecs, err := e.doEmbed(ctx, []string{"dimension detection"})
			if err != nil {
				transport.CloseIdleConnections()
				return nil, fmt.Errorf("detect embedding dimensions: %w", err)
			}
			e.dims = len(vecs[0])
		}
		logger.Info("embedding backend ready",
			slog.String("backend", "ollama"),
			slog.String("model", e.modelName),
			slog.Int("dimensions", e.dims))
	}

	if e.dims == 0 {
		e.dims = StaticDimensions
	}
	return e, nil
}

// listModels gets installed models from Ollama
func (e *OllamaEmbedder) listModels(ctx context.Context) ([]OllamaModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.config.Host+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, ferrors.EmbeddingUnavailable("ollama", err).
			WithSuggestion("Start Ollama with 'ollama serve' or use --embedder static")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var result OllamaModelListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, ferrors.New(ferrors.ErrCodeEmbeddingFailed, "decode model list", err)
	}
	return result.Models, nil
}

// findAvailableModel resolves the configured model, then the fallbacks,
// against installed names with or without a tag.
func (e *OllamaEmbedder) findAvailableModel(ctx context.Context) (string, error) {
	models, err := e.listModels(ctx)
	if err != nil {
		return "", err
	}

	available := make(map[string]string) // normalized -> actual
	for _, m := range models {
		name := strings.ToLower(m.Name)
		available[name] = m.Name
		base := strings.Split(name, ":")[0]
		if _, exists := available[base]; !exists {
			available[base] = m.Name
		}
	}

	candidates := append([]string{e.config.Model}, e.config.FallbackModels...)
	for _, c := range candidates {
		name := strings.ToLower(c)
		if actual, ok := available[name]; ok {
			return actual, nil
		}
		if actual, ok := available[strings.Split(name, ":")[0]]; ok {
			return actual, nil
		}
	}

	return "", ferrors.New(ferrors.ErrCodeModelNotFound,
		fmt.Sprintf("no embedding model installed (tried %s)", strings.Join(candidates, ", ")), nil).
		WithSuggestion("Run 'ollama pull " + e.config.Model + "'")
}

// Embed generates the embedding for a single text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings in requests of at most BatchSize texts.
// Blank texts get a zero vector without a request.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	closed := e.closed
	dims := e.dims
	e.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	var idx []int
	var pending []string
	for i, text := range texts {
		trimmed := strings.TrimSpace(Truncate(text, e.config.MaxInputChars))
		if trimmed == "" {
			results[i] = make([]float32, dims)
			continue
		}
		idx = append(idx, i)
		pending = append(pending, trimmed)
	}

	for start := 0; start < len(pending); start += e.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+e.config.BatchSize, len(pending))

		vecs, err := e.embedWithRetry(ctx, pending[start:end])
		if err != nil {
			return nil, err
		}
		for i, v := range vecs {
			results[idx[start+i]] = v
		}
	}
	return results, nil
}

// embedWithRetry runs one request through the circuit breaker and the
// retry policy. Only transient failures are retried.
func (e *OllamaEmbedder) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	retry := e.config.Retry
	retry.ShouldRetry = ferrors.IsRetryable

	vecs, err := ferrors.CircuitExecute(e.breaker, func() ([][]float32, error) {
		return ferrors.RetryWithResult(ctx, retry, func() ([][]float32, error) {
			vecs, err := e.doEmbed(ctx, texts)
			if err != nil {
				e.logger.Debug("embedding request failed",
					slog.Int("texts", len(texts)),
					slog.String("error", err.Error()))
			}
			return vecs, err
		})
	})
	if errors.Is(err, ferrors.ErrCircuitOpen) {
		return nil, ferrors.EmbeddingUnavailable("ollama", err).
			WithSuggestion("Ollama failed repeatedly; check 'ollama ps' and retry in a minute")
	}
	return vecs, err
}

// doEmbed performs a single /api/embed request with its own deadline.
func (e *OllamaEmbedder) doEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	model := e.modelName
	e.mu.RUnlock()

	body, err := json.Marshal(OllamaEmbedRequest{Model: model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, e.config.Host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if reqCtx.Err() != nil {
			return nil, ferrors.New(ferrors.ErrCodeNetworkTimeout,
				fmt.Sprintf("embedding request timed out after %s", e.config.Timeout), err)
		}
		return nil, ferrors.EmbeddingUnavailable("ollama", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var apiResult OllamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResult); err != nil {
		return nil, ferrors.New(ferrors.ErrCodeEmbeddingFailed, "decode embedding response", err)
	}
	if len(apiResult.Embeddings) != len(texts) {
		return nil, ferrors.New(ferrors.ErrCodeEmbeddingFailed,
			fmt.Sprintf("backend returned %d embeddings for %d texts", len(apiResult.Embeddings), len(texts)), nil)
	}

	e.mu.RLock()
	dims := e.dims
	e.mu.RUnlock()

	embeddings := make([][]float32, len(apiResult.Embeddings))
	for i, emb := range apiResult.Embeddings {
		if dims > 0 && len(emb) != dims {
			return nil, ferrors.New(ferrors.ErrCodeEmbeddingFailed,
				fmt.Sprintf("embedding has %d dimensions, expected %d", len(emb), dims), nil)
		}
		if len(emb) == 0 {
			return nil, ferrors.New(ferrors.ErrCodeEmbeddingFailed, "empty embedding returned", nil)
		}
		vec := make([]float32, len(emb))
		for j, v := range emb {
			vec[j] = float32(v)
		}
		embeddings[i] = normalizeVector(vec)
	}
	return embeddings, nil
}

// statusError classifies a non-200 response. Server errors are transient,
// client errors are not.
func statusError(resp *http.Response) error {
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := fmt.Sprintf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))

	fe := ferrors.New(ferrors.ErrCodeEmbeddingFailed, msg, nil).
		WithDetail("status", fmt.Sprint(resp.StatusCode))
	if resp.StatusCode == http.StatusNotFound && strings.Contains(strings.ToLower(msg), "model") {
		fe = ferrors.New(ferrors.ErrCodeModelNotFound, msg, nil)
	}
	fe.Retryable = resp.StatusCode >= 500
	return fe
}

// Dimensions returns the embedding dimension
func (e *OllamaEmbedder) Dimensions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dims
}

// ModelName returns the resolved model identifier
func (e *OllamaEmbedder) ModelName() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.modelName
}

// Available checks if Ollama is running and the model is installed
func (e *OllamaEmbedder) Available(ctx context.Context) bool {
	e.mu.RLock()
	closed := e.closed
	model := strings.ToLower(e.modelName)
	e.mu.RUnlock()
	if closed {
		return false
	}

	models, err := e.listModels(ctx)
	if err != nil {
		return false
	}
	for _, m := range models {
		name := strings.ToLower(m.Name)
		if name == model || strings.Split(name, ":")[0] == strings.Split(model, ":")[0] {
			return true
		}
	}
	return false
}

// Close releases idle connections.
func (e *OllamaEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.transport.CloseIdleConnections()
	return nil
}
