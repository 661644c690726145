package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docfinder/internal/search"
)

// =============================================================================
// Messages
// =============================================================================

func TestWriter_Messages(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer)
		want  string
	}{
		{"status", func(w *Writer) { w.Status("*", "Checking index") }, "* Checking index\n"},
		{"status without icon", func(w *Writer) { w.Status("", "indented") }, "   indented\n"},
		{"success", func(w *Writer) { w.Successf("Indexed %d files", 3) }, "✓ Indexed 3 files\n"},
		{"warning", func(w *Writer) { w.Warning("config changed") }, "! config changed\n"},
		{"error", func(w *Writer) { w.Errorf("cannot open %s", "x") }, "✗ cannot open x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a writer without color
			buf := &bytes.Buffer{}
			w := NewWithColor(buf, false)

			// When: writing a message
			tt.write(w)

			// Then: the text is printed as is
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestNew_NoColorForBuffers(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Success("done")

	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	f, err = ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("yaml")
	assert.Error(t, err)
}

// =============================================================================
// Results
// =============================================================================

func sampleResults() []*search.Result {
	return []*search.Result{
		{
			Path:           "/docs/budget.txt",
			ChunkIndex:     2,
			Snippet:        "the budget meeting is on friday",
			BaseSimilarity: 0.61,
			Boost:          0.15,
			FinalScore:     0.76,
			Rank:           1,
			ContentMatch:   true,
			Highlights:     []search.Range{{Start: 4, End: 10}},
		},
		{
			Path:       "/docs/travel.txt",
			Snippet:    "flight to lisbon",
			FinalScore: 0.31,
			Rank:       2,
		},
	}
}

func TestWriter_ResultsText(t *testing.T) {
	// Given: two ranked results
	buf := &bytes.Buffer{}
	w := NewWithColor(buf, false)

	// When: printing as text
	require.NoError(t, w.Results("budget", sampleResults(), FormatText, ResultsOptions{}))

	// Then: rank, path, score and snippet are shown
	out := buf.String()
	assert.Contains(t, out, `Found 2 results for "budget"`)
	assert.Contains(t, out, "1. /docs/budget.txt (score: 0.760)")
	assert.Contains(t, out, "2. /docs/travel.txt (score: 0.310)")
	assert.Contains(t, out, "the budget meeting is on friday")
	assert.NotContains(t, out, "similarity")
}

func TestWriter_ResultsExplainAndChunk(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWithColor(buf, false)

	require.NoError(t, w.Results("budget", sampleResults(), FormatText, ResultsOptions{Explain: true, Chunk: true}))

	out := buf.String()
	assert.Contains(t, out, "/docs/budget.txt#2")
	assert.Contains(t, out, "similarity 0.610 + boost 0.15 (match: content)")
	assert.Contains(t, out, "(match: none)")
}

func TestWriter_ResultsEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWithColor(buf, false)

	require.NoError(t, w.Results("nothing", nil, FormatText, ResultsOptions{}))

	assert.Contains(t, buf.String(), `No results found for "nothing"`)
}

func TestWriter_ResultsJSON(t *testing.T) {
	// Given: results and an empty result set
	buf := &bytes.Buffer{}
	w := NewWithColor(buf, false)

	// When: printing as JSON
	require.NoError(t, w.Results("budget", sampleResults(), FormatJSON, ResultsOptions{}))

	// Then: the output decodes back to the same ranking
	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "/docs/budget.txt", got[0]["path"])
	assert.Equal(t, float64(1), got[0]["rank"])
	assert.Equal(t, true, got[0]["content_match"])

	buf.Reset()
	require.NoError(t, w.Results("x", nil, FormatJSON, ResultsOptions{}))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriter_Highlight(t *testing.T) {
	w := NewWithColor(&bytes.Buffer{}, false)

	assert.Equal(t, "abc def", w.highlight("abc def", []search.Range{{Start: 0, End: 3}, {Start: 1, End: 2}, {Start: 4, End: 99}}))
	assert.Equal(t, "plain", w.highlight("plain", nil))
}
