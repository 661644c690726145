package mcp

import "github.com/Aman-CERP/docfinder/internal/async"

// IndexFolderInput defines the input schema for the index_folder tool.
type IndexFolderInput struct {
	Path string `json:"path,omitempty" jsonschema:"folder to index; relative paths resolve against the served folder, empty means the served folder"`
}

// IndexFolderOutput summarizes an indexing run.
type IndexFolderOutput struct {
	Folder    string          `json:"folder"`
	Indexed   int             `json:"indexed" jsonschema:"documents added or updated"`
	Unchanged int             `json:"unchanged" jsonschema:"documents skipped because their content did not change"`
	Removed   int             `json:"removed" jsonschema:"documents dropped because they no longer exist"`
	Chunks    int             `json:"chunks" jsonschema:"chunks written by this run"`
	Failed    []FailureOutput `json:"failed,omitempty" jsonschema:"documents that could not be read"`
	Seconds   float64         `json:"seconds"`
}

// FailureOutput is one document that could not be indexed.
type FailureOutput struct {
	Path   string `json:"path"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// SearchInput defines the input schema for the search tool.
type SearchInput struct {
	Query       string   `json:"query" jsonschema:"what the document is about, in plain words"`
	Limit       int      `json:"limit,omitempty" jsonschema:"maximum number of results, at most 50; defaults to the configured search.top_k"`
	Granularity string   `json:"granularity,omitempty" jsonschema:"document (best passage per file) or chunk (every passage)"`
	Scope       []string `json:"scope,omitempty" jsonschema:"only return documents under these folders (OR logic)"`
}

// SearchOutput defines the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results" jsonschema:"results, best first"`
}

// SearchResultOutput is one ranked result.
type SearchResultOutput struct {
	Path         string  `json:"path" jsonschema:"absolute path of the document"`
	Chunk        int     `json:"chunk" jsonschema:"position of the passage within the document"`
	Snippet      string  `json:"snippet" jsonschema:"excerpt around the match"`
	Score        float64 `json:"score" jsonschema:"similarity plus match boosts"`
	Similarity   float64 `json:"similarity"`
	TitleMatch   bool    `json:"title_match,omitempty" jsonschema:"query found in the file name"`
	ContentMatch bool    `json:"content_match,omitempty" jsonschema:"query found in the passage"`
}

// IndexStatusInput defines the input schema for the index_status tool (no parameters).
type IndexStatusInput struct{}

// IndexStatusOutput defines the output schema for the index_status tool.
type IndexStatusOutput struct {
	Folder        string                       `json:"folder"`
	Documents     int                          `json:"documents"`
	Chunks        int                          `json:"chunks"`
	Model         string                       `json:"model,omitempty" jsonschema:"embedding model the index was built with"`
	Dimensions    int                          `json:"dimensions,omitempty"`
	IndexBytes    int64                        `json:"index_size_bytes"`
	IncompleteRun bool                         `json:"incomplete_run" jsonschema:"the last run did not finish"`
	Indexing      *async.IndexProgressSnapshot `json:"indexing,omitempty" jsonschema:"present while a run is active"`
}
