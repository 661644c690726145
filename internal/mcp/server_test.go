package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docfinder/internal/async"
	"github.com/Aman-CERP/docfinder/internal/config"
	ferrors "github.com/Aman-CERP/docfinder/internal/errors"
	"github.com/Aman-CERP/docfinder/internal/index"
	"github.com/Aman-CERP/docfinder/internal/logging"
	"github.com/Aman-CERP/docfinder/internal/search"
	"github.com/Aman-CERP/docfinder/internal/store"
	"github.com/Aman-CERP/docfinder/pkg/docfinder"
)

// mockFinder implements Finder for testing.
type mockFinder struct {
	root string

	indexFn  func(ctx context.Context, path string) (*index.Report, error)
	searchFn func(ctx context.Context, query string, opts search.Options) ([]*search.Result, error)
	statusFn func(ctx context.Context) (*docfinder.Status, error)

	lastIndexPath string
	lastSearch    search.Options
}

func (m *mockFinder) Root() string { return m.root }

func (m *mockFinder) IndexFolder(ctx context.Context, path string) (*index.Report, error) {
	m.lastIndexPath = path
	if m.indexFn != nil {
		return m.indexFn(ctx, path)
	}
	return &index.Report{Root: path}, nil
}

func (m *mockFinder) SearchWithOptions(ctx context.Context, query string, opts search.Options) ([]*search.Result, error) {
	m.lastSearch = opts
	if m.searchFn != nil {
		return m.searchFn(ctx, query, opts)
	}
	return []*search.Result{}, nil
}

func (m *mockFinder) Status(ctx context.Context) (*docfinder.Status, error) {
	if m.statusFn != nil {
		return m.statusFn(ctx)
	}
	return &docfinder.Status{Root: m.root}, nil
}

var _ Finder = (*mockFinder)(nil)

func newTestServer(t *testing.T, f *mockFinder) *Server {
	t.Helper()
	s, err := NewServer(f, WithLogger(logging.Discard()))
	require.NoError(t, err)
	return s
}

// =============================================================================
// Construction
// =============================================================================

func TestNewServer_RequiresFinder(t *testing.T) {
	_, err := NewServer(nil)

	assert.Error(t, err)
}

func TestNewServer_Registers(t *testing.T) {
	s := newTestServer(t, &mockFinder{root: "/docs"})

	assert.NotNil(t, s.MCPServer())
}

// =============================================================================
// index_folder
// =============================================================================

func TestHandleIndexFolder_DefaultsToServedFolder(t *testing.T) {
	// Given: a finder serving /docs
	f := &mockFinder{root: "/docs", indexFn: func(_ context.Context, path string) (*index.Report, error) {
		return &index.Report{
			Root:     path,
			Indexed:  3,
			Skipped:  1,
			Chunks:   9,
			Failed:   []index.FileFailure{{Path: "/docs/scan.pdf", Kind: "empty", Reason: "no text layer"}},
			Duration: 2 * time.Second,
		}, nil
	}}
	s := newTestServer(t, f)

	// When: indexing without a path
	res, out, err := s.handleIndexFolder(context.Background(), nil, IndexFolderInput{})

	// Then: the served folder is indexed and the report is returned
	require.NoError(t, err)
	assert.Equal(t, "/docs", f.lastIndexPath)
	assert.Equal(t, 3, out.Indexed)
	assert.Equal(t, 1, out.Unchanged)
	assert.Equal(t, 9, out.Chunks)
	assert.InDelta(t, 2.0, out.Seconds, 1e-9)
	require.Len(t, out.Failed, 1)
	assert.Equal(t, "empty", out.Failed[0].Kind)

	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text := res.Content[0].(*mcp.TextContent).Text
	assert.Contains(t, text, "Indexed 3 documents (9 chunks)")
	assert.Contains(t, text, "/docs/scan.pdf (empty): no text layer")
}

func TestHandleIndexFolder_ResolvesRelativePath(t *testing.T) {
	f := &mockFinder{root: "/docs"}
	s := newTestServer(t, f)

	_, _, err := s.handleIndexFolder(context.Background(), nil, IndexFolderInput{Path: "work"})

	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/docs", "work"), f.lastIndexPath)
}

func TestHandleIndexFolder_MapsPathDenied(t *testing.T) {
	f := &mockFinder{root: "/docs", indexFn: func(context.Context, string) (*index.Report, error) {
		return nil, ferrors.PathDenied("/etc", "system directory")
	}}
	s := newTestServer(t, f)

	_, _, err := s.handleIndexFolder(context.Background(), nil, IndexFolderInput{Path: "/etc"})

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodePathDenied, mcpErr.Code)
}

// =============================================================================
// search
// =============================================================================

func TestHandleSearch_ReturnsResults(t *testing.T) {
	// Given: a finder with one match
	f := &mockFinder{root: "/docs", searchFn: func(context.Context, string, search.Options) ([]*search.Result, error) {
		return []*search.Result{{
			Path:           "/docs/budget.txt",
			ChunkIndex:     1,
			Snippet:        "quarterly budget review",
			BaseSimilarity: 0.5,
			FinalScore:     0.65,
			ContentMatch:   true,
			Rank:           1,
		}}, nil
	}}
	s := newTestServer(t, f)

	// When: searching with scopes and a limit
	res, out, err := s.handleSearch(context.Background(), nil, SearchInput{
		Query:       "budget",
		Limit:       5,
		Granularity: "chunk",
		Scope:       []string{"finance", "/abs"},
	})

	// Then: options are passed through and results converted
	require.NoError(t, err)
	assert.Equal(t, 5, f.lastSearch.TopK)
	assert.Equal(t, search.GranularityChunk, f.lastSearch.Granularity)
	assert.Equal(t, []string{filepath.Join("/docs", "finance"), "/abs"}, f.lastSearch.Scopes)

	require.Len(t, out.Results, 1)
	assert.Equal(t, "/docs/budget.txt", out.Results[0].Path)
	assert.Equal(t, 1, out.Results[0].Chunk)
	assert.InDelta(t, 0.65, out.Results[0].Score, 1e-9)
	assert.True(t, out.Results[0].ContentMatch)

	text := res.Content[0].(*mcp.TextContent).Text
	assert.Contains(t, text, "budget.txt (score: 0.65)")
	assert.Contains(t, text, "matches text")
	assert.Contains(t, text, "> quarterly budget review")
}

func TestHandleSearch_ClampsLimit(t *testing.T) {
	// Zero asks the finder for its configured default.
	tests := []struct {
		in, want int
	}{
		{0, 0},
		{-3, 0},
		{7, 7},
		{500, maxLimit},
	}
	for _, tt := range tests {
		f := &mockFinder{root: "/docs"}
		s := newTestServer(t, f)

		_, _, err := s.handleSearch(context.Background(), nil, SearchInput{Query: "q", Limit: tt.in})

		require.NoError(t, err)
		assert.Equal(t, tt.want, f.lastSearch.TopK, "limit %d", tt.in)
	}
}

func TestHandleSearch_UsesConfiguredTopK(t *testing.T) {
	// Given: a real finder configured for 4 results over 6 documents
	root := t.TempDir()
	for i := range 6 {
		require.NoError(t, os.WriteFile(filepath.Join(root, fmt.Sprintf("note%d.txt", i)),
			[]byte(fmt.Sprintf("meeting note number %d", i)), 0o644))
	}
	cfg := config.NewConfig()
	cfg.Embeddings.Provider = "static"
	cfg.Search.TopK = 4
	f, err := docfinder.Open(context.Background(), docfinder.Options{Root: root, Config: cfg, Logger: logging.Discard()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	_, err = f.IndexFolder(context.Background(), root)
	require.NoError(t, err)
	s, err := NewServer(f, WithLogger(logging.Discard()))
	require.NoError(t, err)

	// When: searching without a limit
	_, out, err := s.handleSearch(context.Background(), nil, SearchInput{Query: "meeting note"})

	// Then: the configured default applies
	require.NoError(t, err)
	assert.Len(t, out.Results, 4)
}

func TestHandleSearch_InvalidInput(t *testing.T) {
	s := newTestServer(t, &mockFinder{root: "/docs"})

	_, _, err := s.handleSearch(context.Background(), nil, SearchInput{Query: "   "})
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)

	_, _, err = s.handleSearch(context.Background(), nil, SearchInput{Query: "q", Granularity: "paragraph"})
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
}

func TestHandleSearch_EmptyResults(t *testing.T) {
	s := newTestServer(t, &mockFinder{root: "/docs"})

	res, out, err := s.handleSearch(context.Background(), nil, SearchInput{Query: "nothing"})

	require.NoError(t, err)
	assert.NotNil(t, out.Results)
	assert.Empty(t, out.Results)
	assert.Contains(t, res.Content[0].(*mcp.TextContent).Text, `No documents found for "nothing"`)
}

func TestHandleSearch_BackendDown(t *testing.T) {
	f := &mockFinder{root: "/docs", searchFn: func(context.Context, string, search.Options) ([]*search.Result, error) {
		return nil, ferrors.EmbeddingUnavailable("ollama", errors.New("connection refused"))
	}}
	s := newTestServer(t, f)

	_, _, err := s.handleSearch(context.Background(), nil, SearchInput{Query: "q"})

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeEmbeddingFailed, mcpErr.Code)
	assert.Contains(t, mcpErr.Message, "ollama")
}

// =============================================================================
// index_status and resources
// =============================================================================

func TestHandleIndexStatus(t *testing.T) {
	// Given: an index with a run in flight
	f := &mockFinder{root: "/docs", statusFn: func(context.Context) (*docfinder.Status, error) {
		return &docfinder.Status{
			Root:   "/docs",
			Store:  store.Stats{Documents: 4, Chunks: 20, Model: "nomic-embed-text", Dimensions: 768, SizeBytes: 4096},
			Active: &async.IndexProgressSnapshot{Status: "indexing", Stage: "embedding", FilesTotal: 10, FilesProcessed: 4},
		}, nil
	}}
	s := newTestServer(t, f)

	// When: asking for status
	_, out, err := s.handleIndexStatus(context.Background(), nil, IndexStatusInput{})

	// Then: store stats and progress are reported
	require.NoError(t, err)
	assert.Equal(t, 4, out.Documents)
	assert.Equal(t, 20, out.Chunks)
	assert.Equal(t, "nomic-embed-text", out.Model)
	assert.Equal(t, int64(4096), out.IndexBytes)
	require.NotNil(t, out.Indexing)
	assert.Equal(t, "embedding", out.Indexing.Stage)
}

func TestHandleStatusResource(t *testing.T) {
	t.Run("returns status as JSON", func(t *testing.T) {
		s := newTestServer(t, &mockFinder{root: "/docs"})
		req := &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: statusURI}}

		result, err := s.handleStatusResource(context.Background(), req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, statusURI, result.Contents[0].URI)
		var got map[string]any
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		assert.Equal(t, "/docs", got["folder"])
	})

	t.Run("returns error when status fails", func(t *testing.T) {
		s := newTestServer(t, &mockFinder{root: "/docs", statusFn: func(context.Context) (*docfinder.Status, error) {
			return nil, store.ErrClosed
		}})
		req := &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: statusURI}}

		_, err := s.handleStatusResource(context.Background(), req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading status")
	})
}
