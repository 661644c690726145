package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Aman-CERP/docfinder/internal/embed"
	ferrors "github.com/Aman-CERP/docfinder/internal/errors"
	"github.com/Aman-CERP/docfinder/internal/store"
)

// Ranker answers queries against a store. It only reads and is safe for
// concurrent use.
type Ranker struct {
	store    Searcher
	embedder embed.Embedder
	cfg      Config
	logger   *slog.Logger
}

// RankerOption configures a Ranker.
type RankerOption func(*Ranker)

// WithLogger sets the ranker's logger.
func WithLogger(logger *slog.Logger) RankerOption {
	return func(r *Ranker) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRanker creates a Ranker. Zero TopK, multiplier, granularity and match
// mode take the defaults; boosts are used as given.
func NewRanker(s Searcher, embedder embed.Embedder, cfg Config, opts ...RankerOption) (*Ranker, error) {
	if s == nil {
		return nil, fmt.Errorf("store is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	def := DefaultConfig()
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = def.DefaultTopK
	}
	if cfg.OverFetchMultiplier <= 0 {
		cfg.OverFetchMultiplier = def.OverFetchMultiplier
	}
	if cfg.TitleBoost < 0 || cfg.ContentBoost < 0 {
		return nil, ferrors.ConfigError("boosts must not be negative", nil)
	}
	switch cfg.Granularity {
	case "":
		cfg.Granularity = def.Granularity
	case GranularityDocument, GranularityChunk:
	default:
		return nil, ferrors.ConfigError(fmt.Sprintf("unknown granularity %q", cfg.Granularity), nil)
	}
	switch cfg.MatchMode {
	case "":
		cfg.MatchMode = def.MatchMode
	case MatchPhrase, MatchTokens:
	default:
		return nil, ferrors.ConfigError(fmt.Sprintf("unknown match mode %q", cfg.MatchMode), nil)
	}

	r := &Ranker{store: s, embedder: embedder, cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Config returns the effective configuration.
func (r *Ranker) Config() Config {
	return r.cfg
}

// Retrieve returns up to topK results for query, best first.
func (r *Ranker) Retrieve(ctx context.Context, query string, topK int) ([]*Result, error) {
	return r.Search(ctx, query, Options{TopK: topK})
}

// Search is Retrieve with per-query options.
func (r *Ranker) Search(ctx context.Context, query string, opts Options) ([]*Result, error) {
	start := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ferrors.New(ferrors.ErrCodeQueryEmpty, "query is empty", nil).
			WithSuggestion("Type a few words describing the document you are looking for")
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = r.cfg.DefaultTopK
	}
	granularity := opts.Granularity
	if granularity == "" {
		granularity = r.cfg.Granularity
	}

	if err := r.store.CheckModel(r.embedder.ModelName(), r.embedder.Dimensions()); err != nil {
		return nil, err
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		if _, ok := ferrors.As(err); ok {
			return nil, err
		}
		if errors.Is(err, ferrors.ErrCircuitOpen) {
			return nil, ferrors.EmbeddingUnavailable(r.embedder.ModelName(), err)
		}
		return nil, ferrors.New(ferrors.ErrCodeSearchFailed, "embed query", err)
	}

	m := newMatcher(query, r.cfg.MatchMode)
	inScope := scopeFilter(opts.Scopes)
	k := r.candidateCount(topK)

	var results []*Result
	var candidates int
	for {
		hits, err := r.store.Search(ctx, vec, k)
		if err != nil {
			return nil, ferrors.New(ferrors.ErrCodeSearchFailed, "vector search", err)
		}
		candidates = len(hits)
		results = r.rank(hits, m, inScope, granularity)
		// Collapsing to documents or dropping out-of-scope hits can leave
		// fewer than topK; widen the window until the store runs out.
		if len(results) >= topK || len(hits) < k {
			break
		}
		k *= 2
	}
	if len(results) > topK {
		results = results[:topK]
	}

	needles := m.needles()
	for i, res := range results {
		res.Rank = i + 1
		res.Snippet = makeSnippet(res.ChunkText, needles)
		res.Highlights = calculateHighlights(res.Snippet, needles)
	}

	r.logger.Debug("search_complete",
		slog.String("query", query),
		slog.Int("candidates", candidates),
		slog.Int("results", len(results)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return results, nil
}

// rank boosts in-scope hits, sorts them and, at document granularity,
// keeps the best chunk of each document.
func (r *Ranker) rank(hits []store.Hit, m *matcher, inScope func(string) bool, granularity Granularity) []*Result {
	results := make([]*Result, 0, len(hits))
	for i, h := range hits {
		if !inScope(h.Chunk.DocumentPath) {
			continue
		}
		boost, title, content := r.boost(m, h.Chunk.DocumentPath, h.Chunk.Text)
		results = append(results, &Result{
			Path:           h.Chunk.DocumentPath,
			ChunkIndex:     h.Chunk.Index,
			ChunkText:      h.Chunk.Text,
			BaseSimilarity: h.Similarity,
			Boost:          boost,
			FinalScore:     h.Similarity + boost,
			TitleMatch:     title,
			ContentMatch:   content,
			similarityRank: i + 1,
		})
	}

	sortResults(results)
	if granularity == GranularityDocument {
		results = bestPerDocument(results)
	}
	return results
}

// candidateCount is topK times the over-fetch multiplier, at least topK.
func (r *Ranker) candidateCount(topK int) int {
	return max(topK*r.cfg.OverFetchMultiplier, topK)
}

// sortResults orders by final score, then raw similarity rank, then file
// base name, full path and chunk index.
func sortResults(results []*Result) {
	slices.SortStableFunc(results, func(a, b *Result) int {
		if a.FinalScore != b.FinalScore {
			if a.FinalScore > b.FinalScore {
				return -1
			}
			return 1
		}
		if a.similarityRank != b.similarityRank {
			return a.similarityRank - b.similarityRank
		}
		if c := strings.Compare(filepath.Base(a.Path), filepath.Base(b.Path)); c != 0 {
			return c
		}
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return a.ChunkIndex - b.ChunkIndex
	})
}

// bestPerDocument keeps the first result of each path from sorted results.
func bestPerDocument(results []*Result) []*Result {
	seen := make(map[string]struct{}, len(results))
	out := results[:0]
	for _, res := range results {
		if _, dup := seen[res.Path]; dup {
			continue
		}
		seen[res.Path] = struct{}{}
		out = append(out, res)
	}
	return out
}

// scopeFilter returns a predicate matching paths inside any scope. No
// scopes matches everything.
func scopeFilter(scopes []string) func(path string) bool {
	normalized := make([]string, 0, len(scopes))
	for _, s := range scopes {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		if abs, err := filepath.Abs(s); err == nil {
			s = abs
		}
		normalized = append(normalized, strings.TrimSuffix(filepath.Clean(s), string(filepath.Separator))+string(filepath.Separator))
	}
	if len(normalized) == 0 {
		return func(string) bool { return true }
	}

	return func(path string) bool {
		for _, scope := range normalized {
			if strings.HasPrefix(path, scope) {
				return true
			}
		}
		return false
	}
}
