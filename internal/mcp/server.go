package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/docfinder/internal/index"
	"github.com/Aman-CERP/docfinder/internal/search"
	"github.com/Aman-CERP/docfinder/pkg/docfinder"
	"github.com/Aman-CERP/docfinder/pkg/version"
)

const maxLimit = 50

// Finder is the part of docfinder.Finder the server uses.
type Finder interface {
	Root() string
	IndexFolder(ctx context.Context, path string) (*index.Report, error)
	SearchWithOptions(ctx context.Context, query string, opts search.Options) ([]*search.Result, error)
	Status(ctx context.Context) (*docfinder.Status, error)
}

// Server bridges MCP clients with a Finder.
type Server struct {
	mcp    *mcp.Server
	finder Finder
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a server with its tools and resources registered.
func NewServer(finder Finder, opts ...Option) (*Server, error) {
	if finder == nil {
		return nil, errors.New("finder is required")
	}

	s := &Server{finder: finder, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{Name: "docfinder", Version: version.Version},
		nil,
	)
	s.registerTools()
	s.registerResources()
	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Serve runs the server over stdio until ctx is cancelled or the client
// disconnects.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp_server_started", slog.String("folder", s.finder.Root()))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("mcp_server_stopped")
	return nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_folder",
		Description: "Index the PDF, DOCX and TXT documents in a folder so they can be searched by meaning. Unchanged documents are skipped, so re-running is cheap.",
	}, s.handleIndexFolder)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search",
		Description: "Find documents by what they are about. Describe the content in plain words; exact file names and phrases rank higher.",
	}, s.handleSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_status",
		Description: "Report how many documents are indexed, which embedding model built the index, and the progress of any run in flight.",
	}, s.handleIndexStatus)

	s.logger.Debug("mcp_tools_registered", slog.Int("count", 3))
}

func (s *Server) handleIndexFolder(ctx context.Context, _ *mcp.CallToolRequest, input IndexFolderInput) (
	*mcp.CallToolResult,
	IndexFolderOutput,
	error,
) {
	requestID := newRequestID()
	folder := s.resolve(input.Path)
	s.logger.Info("index_folder_started", slog.String("request_id", requestID), slog.String("folder", folder))

	report, err := s.finder.IndexFolder(ctx, folder)
	if err != nil {
		s.logger.Error("index_folder_failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))
		return nil, IndexFolderOutput{}, MapError(err)
	}

	out := toIndexFolderOutput(folder, report)
	s.logger.Info("index_folder_completed",
		slog.String("request_id", requestID),
		slog.Int("indexed", out.Indexed),
		slog.Int("failed", len(out.Failed)))

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: FormatReport(out)}},
	}, out, nil
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, NewInvalidParamsError("query cannot be empty or whitespace only")
	}
	granularity := search.Granularity(input.Granularity)
	switch granularity {
	case "", search.GranularityDocument, search.GranularityChunk:
	default:
		return nil, SearchOutput{}, NewInvalidParamsError(fmt.Sprintf("granularity must be %q or %q", search.GranularityDocument, search.GranularityChunk))
	}

	start := time.Now()
	requestID := newRequestID()
	limit := clampLimit(input.Limit, maxLimit)
	scopes := make([]string, 0, len(input.Scope))
	for _, sc := range input.Scope {
		scopes = append(scopes, s.resolve(sc))
	}

	results, err := s.finder.SearchWithOptions(ctx, input.Query, search.Options{
		TopK:        limit,
		Granularity: granularity,
		Scopes:      scopes,
	})
	if err != nil {
		s.logger.Error("search_failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))
		return nil, SearchOutput{}, MapError(err)
	}

	out := SearchOutput{Results: make([]SearchResultOutput, 0, len(results))}
	for _, r := range results {
		out.Results = append(out.Results, toSearchResultOutput(r))
	}
	s.logger.Info("search_completed",
		slog.String("request_id", requestID),
		slog.String("query", input.Query),
		slog.Int("result_count", len(out.Results)),
		slog.Duration("duration", time.Since(start)))

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: FormatSearchResults(input.Query, out.Results)}},
	}, out, nil
}

func (s *Server) handleIndexStatus(ctx context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (
	*mcp.CallToolResult,
	IndexStatusOutput,
	error,
) {
	out, err := s.status(ctx)
	if err != nil {
		return nil, IndexStatusOutput{}, MapError(err)
	}
	return nil, out, nil
}

func (s *Server) status(ctx context.Context) (IndexStatusOutput, error) {
	st, err := s.finder.Status(ctx)
	if err != nil {
		return IndexStatusOutput{}, err
	}
	return IndexStatusOutput{
		Folder:        st.Root,
		Documents:     st.Store.Documents,
		Chunks:        st.Store.Chunks,
		Model:         st.Store.Model,
		Dimensions:    st.Store.Dimensions,
		IndexBytes:    st.Store.SizeBytes,
		IncompleteRun: st.IncompleteRun,
		Indexing:      st.Active,
	}, nil
}

// resolve makes path absolute against the served folder.
func (s *Server) resolve(path string) string {
	path = strings.TrimSpace(path)
	switch {
	case path == "":
		return s.finder.Root()
	case filepath.IsAbs(path) || strings.HasPrefix(path, "~"):
		return path
	default:
		return filepath.Join(s.finder.Root(), path)
	}
}

func toIndexFolderOutput(folder string, r *index.Report) IndexFolderOutput {
	out := IndexFolderOutput{
		Folder:    folder,
		Indexed:   r.Indexed,
		Unchanged: r.Skipped,
		Removed:   r.Removed,
		Chunks:    r.Chunks,
		Seconds:   r.Duration.Seconds(),
	}
	for _, f := range r.Failed {
		out.Failed = append(out.Failed, FailureOutput{Path: f.Path, Kind: f.Kind, Reason: f.Reason})
	}
	return out
}

func toSearchResultOutput(r *search.Result) SearchResultOutput {
	return SearchResultOutput{
		Path:         r.Path,
		Chunk:        r.ChunkIndex,
		Snippet:      r.Snippet,
		Score:        r.FinalScore,
		Similarity:   r.BaseSimilarity,
		TitleMatch:   r.TitleMatch,
		ContentMatch: r.ContentMatch,
	}
}

// clampLimit caps limit at hi. Non-positive values become 0 so the
// configured search.top_k applies.
func clampLimit(limit, hi int) int {
	if limit <= 0 {
		return 0
	}
	return min(limit, hi)
}

// newRequestID returns a short ID for log correlation.
func newRequestID() string {
	return uuid.NewString()[:8]
}
