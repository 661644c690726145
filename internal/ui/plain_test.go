package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainRenderer_ProgressLines(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf, WithFolder("/docs")))
	require.NoError(t, r.Start(context.Background()))

	// When: files are processed
	r.UpdateProgress(ProgressEvent{Stage: StageScanning})
	r.UpdateProgress(ProgressEvent{Stage: StageExtracting, Current: 0, Total: 3, CurrentFile: "/docs/a.txt"})
	r.UpdateProgress(ProgressEvent{Stage: StageEmbedding, Current: 0, Total: 3, CurrentFile: "/docs/a.txt"})

	// Then: each change is a line with the stage tag
	out := buf.String()
	assert.Contains(t, out, "Indexing /docs")
	assert.Contains(t, out, "[EXTRACT] 0/3 /docs/a.txt")
	assert.Contains(t, out, "[EMBED] 0/3 /docs/a.txt")
	assert.NotContains(t, out, "\x1b[")
}

func TestPlainRenderer_SkipsRepeatedUpdates(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))
	ev := ProgressEvent{Stage: StageExtracting, Current: 1, Total: 2, CurrentFile: "b.txt"}

	r.UpdateProgress(ev)
	ev.Chunks = 5
	r.UpdateProgress(ev)

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestPlainRenderer_AddError(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	r.AddError(ErrorEvent{File: "scan.pdf", Kind: "empty", Err: errors.New("no text layer")})
	r.AddError(ErrorEvent{File: "x.txt", Err: errors.New("boom")})

	assert.Contains(t, buf.String(), "FAILED: scan.pdf (empty): no text layer")
	assert.Contains(t, buf.String(), "FAILED: x.txt: boom")
}

func TestPlainRenderer_Complete(t *testing.T) {
	tests := []struct {
		name  string
		stats CompletionStats
		want  []string
	}{
		{
			name:  "success",
			stats: CompletionStats{Indexed: 4, Chunks: 12, Skipped: 2, Removed: 1, Duration: 1500 * time.Millisecond, Model: "nomic-embed-text"},
			want:  []string{"Indexed 4 files (12 chunks) in 1.5s; 2 unchanged, 1 removed", "Model: nomic-embed-text"},
		},
		{
			name:  "failures",
			stats: CompletionStats{Indexed: 1, Failed: 2},
			want:  []string{", 2 failed"},
		},
		{
			name:  "cancelled",
			stats: CompletionStats{Indexed: 3, Cancelled: true},
			want:  []string{"Cancelled after indexing 3 files"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			r := NewPlainRenderer(NewConfig(buf))

			r.Complete(tt.stats)

			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}
