// Package output formats CLI messages and search results.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Aman-CERP/docfinder/internal/search"
	"github.com/Aman-CERP/docfinder/internal/ui"
)

// Format selects how results are printed.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text or json)", s)
	}
}

// Writer provides formatted output for CLI.
type Writer struct {
	out    io.Writer
	styles ui.Styles
}

// New creates a Writer. Color is used only when out is a terminal and
// NO_COLOR is unset.
func New(out io.Writer) *Writer {
	return NewWithColor(out, ui.IsTTY(out) && !ui.DetectNoColor())
}

// NewWithColor creates a Writer with an explicit color choice.
func NewWithColor(out io.Writer, color bool) *Writer {
	return &Writer{out: out, styles: ui.GetStyles(!color)}
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status(w.styles.Success.Render("✓"), msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status(w.styles.Warning.Render("!"), msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status(w.styles.Error.Render("✗"), msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// JSON writes v as indented JSON.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ResultsOptions controls text rendering of results.
type ResultsOptions struct {
	// Explain adds the similarity and boost breakdown to each result.
	Explain bool

	// Chunk shows the chunk index next to the path.
	Chunk bool
}

// Results prints ranked results for query in the given format.
func (w *Writer) Results(query string, results []*search.Result, format Format, opts ResultsOptions) error {
	if format == FormatJSON {
		if results == nil {
			results = []*search.Result{}
		}
		return w.JSON(results)
	}

	if len(results) == 0 {
		w.Status("", fmt.Sprintf("No results found for %q", query))
		return nil
	}

	w.Statusf(w.styles.Accent.Render("?"), "Found %d results for %q:", len(results), query)
	w.Newline()
	for _, r := range results {
		location := r.Path
		if opts.Chunk {
			location = fmt.Sprintf("%s#%d", r.Path, r.ChunkIndex)
		}
		score := w.styles.Score.Render(fmt.Sprintf("(score: %.3f)", r.FinalScore))
		_, _ = fmt.Fprintf(w.out, "%d. %s %s\n", r.Rank, w.styles.Path.Render(location), score)

		if opts.Explain {
			_, _ = fmt.Fprintf(w.out, "   %s\n", w.styles.Dim.Render(explain(r)))
		}
		if r.Snippet != "" {
			_, _ = fmt.Fprintf(w.out, "   %s\n", w.highlight(r.Snippet, r.Highlights))
		}
		w.Newline()
	}
	return nil
}

func explain(r *search.Result) string {
	var matched []string
	if r.TitleMatch {
		matched = append(matched, "title")
	}
	if r.ContentMatch {
		matched = append(matched, "content")
	}
	m := "none"
	if len(matched) > 0 {
		m = strings.Join(matched, "+")
	}
	return fmt.Sprintf("similarity %.3f + boost %.2f (match: %s)", r.BaseSimilarity, r.Boost, m)
}

// highlight renders the byte ranges of text in the accent style. Ranges
// must be sorted; overlapping or out-of-bounds ranges are skipped.
func (w *Writer) highlight(text string, ranges []search.Range) string {
	if len(ranges) == 0 {
		return text
	}
	var b strings.Builder
	pos := 0
	for _, rg := range ranges {
		if rg.Start < pos || rg.End > len(text) || rg.Start >= rg.End {
			continue
		}
		b.WriteString(text[pos:rg.Start])
		b.WriteString(w.styles.Accent.Render(text[rg.Start:rg.End]))
		pos = rg.End
	}
	b.WriteString(text[pos:])
	return b.String()
}
