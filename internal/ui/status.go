package ui

import (
	"encoding/json"
	"fmt"
	"io"
)

// StatusInfo describes an index for display.
type StatusInfo struct {
	Folder        string      `json:"folder"`
	DataDir       string      `json:"data_dir"`
	Documents     int         `json:"documents"`
	Chunks        int         `json:"chunks"`
	Model         string      `json:"model,omitempty"`
	Dimensions    int         `json:"dimensions,omitempty"`
	SizeBytes     int64       `json:"size_bytes"`
	ANN           bool        `json:"ann"`
	Recovered     bool        `json:"recovered"`
	IncompleteRun bool        `json:"incomplete_run"`
	Active        *ActiveInfo `json:"active,omitempty"`
}

// ActiveInfo describes a run in progress.
type ActiveInfo struct {
	Stage          string `json:"stage"`
	FilesProcessed int    `json:"files_processed"`
	FilesTotal     int    `json:"files_total"`
}

// StatusRenderer prints StatusInfo.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{out: out, styles: GetStyles(noColor)}
}

// Render writes a human-readable report.
func (r *StatusRenderer) Render(info StatusInfo) error {
	label := r.styles.Label.Render
	w := r.out

	_, _ = fmt.Fprintln(w, r.styles.Header.Render("Index: "+info.Folder))
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "  %s %d\n", label("Documents:"), info.Documents)
	_, _ = fmt.Fprintf(w, "  %s %d\n", label("Chunks:   "), info.Chunks)
	if info.Model != "" {
		_, _ = fmt.Fprintf(w, "  %s %s (%d dims)\n", label("Model:    "), info.Model, info.Dimensions)
	} else {
		_, _ = fmt.Fprintf(w, "  %s %s\n", label("Model:    "), r.styles.Dim.Render("none yet"))
	}
	search := "exact scan"
	if info.ANN {
		search = "HNSW"
	}
	_, _ = fmt.Fprintf(w, "  %s %s\n", label("Search:   "), search)
	_, _ = fmt.Fprintf(w, "  %s %s (%s)\n", label("Storage:  "), info.DataDir, FormatBytes(info.SizeBytes))

	switch {
	case info.Active != nil:
		_, _ = fmt.Fprintf(w, "\n  %s %s, %d/%d files\n", r.styles.Accent.Render("Indexing:"),
			info.Active.Stage, info.Active.FilesProcessed, info.Active.FilesTotal)
	case info.IncompleteRun:
		_, _ = fmt.Fprintf(w, "\n  %s the last run did not finish; run 'docfinder index' to catch up\n",
			r.styles.Warning.Render("Incomplete:"))
	}
	if info.Recovered {
		_, _ = fmt.Fprintf(w, "  %s the store was unreadable and has been reset\n", r.styles.Warning.Render("Recovered:"))
	}
	return nil
}

// RenderJSON writes info as indented JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

// FormatBytes formats a byte count for display.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
