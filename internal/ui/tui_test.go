package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTUIRenderer_RejectsNonTTY(t *testing.T) {
	r, err := NewTUIRenderer(NewConfig(&bytes.Buffer{}))

	assert.Error(t, err)
	assert.Nil(t, r)
}

func TestIndexModel_ScanningView(t *testing.T) {
	// Given: a model before any file is found
	m := newIndexModel(NewProgressTracker(), "/docs", NoColorStyles(), nil)

	// When: rendering
	view := m.View()

	// Then: the stages and header are shown
	assert.Contains(t, view, "docfinder • /docs")
	assert.Contains(t, view, "Scanning")
	assert.Contains(t, view, "Looking for documents")
}

func TestIndexModel_ProgressView(t *testing.T) {
	tracker := NewProgressTracker()
	tracker.Apply(ProgressEvent{Stage: StageEmbedding, Current: 3, Total: 6, CurrentFile: "/docs/plan.docx", Chunks: 9, Skipped: 1})
	m := newIndexModel(tracker, "", NoColorStyles(), nil)

	view := m.View()

	assert.Contains(t, view, "50%")
	assert.Contains(t, view, "3 / 6 files")
	assert.Contains(t, view, "9 chunks")
	assert.Contains(t, view, "1 unchanged")
	assert.Contains(t, view, "/docs/plan.docx")
}

func TestIndexModel_InterruptCallsHandler(t *testing.T) {
	// Given: a model with an interrupt handler
	interrupted := false
	m := newIndexModel(NewProgressTracker(), "", NoColorStyles(), func() { interrupted = true })

	// When: ctrl+c is pressed
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	// Then: the run is cancelled and the view waits for completion
	assert.True(t, interrupted)
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "Cancelling")
}

func TestIndexModel_CompleteQuits(t *testing.T) {
	tracker := NewProgressTracker()
	tracker.AddError(ErrorEvent{File: "/docs/scan.pdf", Kind: "empty"})
	m := newIndexModel(tracker, "", NoColorStyles(), nil)

	_, cmd := m.Update(completeMsg(CompletionStats{Indexed: 2, Chunks: 5, Failed: 1, Duration: 3 * time.Second}))
	require.NotNil(t, cmd)

	view := m.View()
	assert.Contains(t, view, "Index up to date")
	assert.Contains(t, view, "2 files, 5 chunks")
	assert.Contains(t, view, "1 files failed")
	assert.Contains(t, view, "scan.pdf (empty)")
}

func TestIndexModel_CancelledSummary(t *testing.T) {
	m := newIndexModel(NewProgressTracker(), "", NoColorStyles(), nil)

	m.Update(completeMsg(CompletionStats{Indexed: 1, Cancelled: true}))

	assert.Contains(t, m.View(), "processed files are kept")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "5s", formatDuration(5*time.Second))
	assert.Equal(t, "2m", formatDuration(2*time.Minute))
	assert.Equal(t, "2m 5s", formatDuration(2*time.Minute+5*time.Second))
	assert.Equal(t, "1h 30m", formatDuration(90*time.Minute))
}

func TestTruncatePath(t *testing.T) {
	long := "/home/user/" + strings.Repeat("x", 50) + "/report.pdf"

	got := truncatePath(long, 20)

	assert.Len(t, []rune(got), 20)
	assert.True(t, strings.HasPrefix(got, "..."))
	assert.True(t, strings.HasSuffix(got, "report.pdf"))
	assert.Equal(t, "short.txt", truncatePath("short.txt", 20))
}
