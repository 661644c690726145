package embed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ferrors "github.com/Aman-CERP/docfinder/internal/errors"
)

// ProviderType represents an embedding provider
type ProviderType string

const (
	// ProviderOllama uses the Ollama HTTP API (default).
	ProviderOllama ProviderType = "ollama"

	// ProviderStatic uses hashed features. Offline and deterministic.
	ProviderStatic ProviderType = "static"
)

// ParseProvider maps a configured name to a ProviderType.
func ParseProvider(name string) (ProviderType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", string(ProviderOllama):
		return ProviderOllama, nil
	case string(ProviderStatic):
		return ProviderStatic, nil
	default:
		return "", ferrors.ConfigError(fmt.Sprintf("unknown embedding provider %q", name), nil).
			WithSuggestion("Use 'ollama' or 'static'")
	}
}

// Options selects and configures an embedder.
type Options struct {
	Provider      ProviderType
	Model         string
	Host          string
	BatchSize     int
	MaxInputChars int
	Timeout       time.Duration

	// CacheSize enables the LRU query cache when positive.
	CacheSize int

	Logger *slog.Logger
}

// NewEmbedder creates the embedder named by opts.Provider. An unreachable
// Ollama is an error; there is no silent fallback to static embeddings,
// since vectors from different backends cannot share an index.
func NewEmbedder(ctx context.Context, opts Options) (Embedder, error) {
	var embedder Embedder

	switch opts.Provider {
	case ProviderStatic:
		embedder = NewStaticEmbedder()

	case ProviderOllama, "":
		cfg := DefaultOllamaConfig()
		if opts.Host != "" {
			cfg.Host = opts.Host
		}
		if opts.Model != "" {
			cfg.Model = opts.Model
		}
		if opts.BatchSize > 0 {
			cfg.BatchSize = opts.BatchSize
		}
		if opts.MaxInputChars > 0 {
			cfg.MaxInputChars = opts.MaxInputChars
		}
		if opts.Timeout > 0 {
			cfg.Timeout = opts.Timeout
		}

		ollama, err := NewOllamaEmbedder(ctx, cfg, opts.Logger)
		if err != nil {
			return nil, fmt.Errorf("ollama unavailable: %w", err)
		}
		embedder = ollama

	default:
		return nil, ferrors.ConfigError(fmt.Sprintf("unknown embedding provider %q", opts.Provider), nil)
	}

	if opts.CacheSize > 0 {
		embedder = NewCachedEmbedder(embedder, opts.CacheSize)
	}
	return embedder, nil
}
