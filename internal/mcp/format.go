package mcp

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FormatSearchResults renders results as markdown for clients that show
// text content.
func FormatSearchResults(query string, results []SearchResultOutput) string {
	if len(results) == 0 {
		return fmt.Sprintf("No documents found for %q", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Documents matching %q\n\n", query)
	for i, r := range results {
		fmt.Fprintf(&sb, "### %d. %s (score: %.2f)\n", i+1, filepath.Base(r.Path), r.Score)
		fmt.Fprintf(&sb, "`%s`", r.Path)
		if reason := matchReason(r); reason != "" {
			fmt.Fprintf(&sb, " · %s", reason)
		}
		sb.WriteString("\n\n")
		if r.Snippet != "" {
			fmt.Fprintf(&sb, "> %s\n\n", r.Snippet)
		}
	}
	return sb.String()
}

func matchReason(r SearchResultOutput) string {
	switch {
	case r.TitleMatch && r.ContentMatch:
		return "matches file name and text"
	case r.TitleMatch:
		return "matches file name"
	case r.ContentMatch:
		return "matches text"
	default:
		return ""
	}
}

// FormatReport renders an indexing summary as markdown.
func FormatReport(out IndexFolderOutput) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Indexed %d documents (%d chunks) in %s in %.1fs; %d unchanged, %d removed.\n",
		out.Indexed, out.Chunks, out.Folder, out.Seconds, out.Unchanged, out.Removed)
	if len(out.Failed) > 0 {
		fmt.Fprintf(&sb, "\n%d documents could not be read:\n", len(out.Failed))
		for _, f := range out.Failed {
			fmt.Fprintf(&sb, "- %s (%s): %s\n", f.Path, f.Kind, f.Reason)
		}
	}
	return sb.String()
}
