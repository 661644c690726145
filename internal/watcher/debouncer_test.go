package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docfinder/internal/logging"
)

func newTestDebouncer(t *testing.T, window time.Duration) *Debouncer {
	t.Helper()
	d := NewDebouncer(window, logging.Discard())
	t.Cleanup(d.Stop)
	return d
}

func receive(t *testing.T, d *Debouncer) []FileEvent {
	t.Helper()
	select {
	case batch := <-d.Output():
		return batch
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for debounced batch")
		return nil
	}
}

func TestDebouncer_SingleEventPassesThrough(t *testing.T) {
	// Given: a debouncer with a short window
	d := newTestDebouncer(t, 30*time.Millisecond)

	// When: one event is added
	d.Add(FileEvent{Path: "report.pdf", Operation: OpCreate, Timestamp: time.Now()})

	// Then: it comes out after the window
	batch := receive(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, "report.pdf", batch[0].Path)
	assert.Equal(t, OpCreate, batch[0].Operation)
}

func TestDebouncer_RepeatedWritesCoalesce(t *testing.T) {
	d := newTestDebouncer(t, 80*time.Millisecond)

	for range 5 {
		d.Add(FileEvent{Path: "notes.txt", Operation: OpModify, Timestamp: time.Now()})
		time.Sleep(10 * time.Millisecond)
	}

	batch := receive(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, OpModify, batch[0].Operation)
}

func TestDebouncer_CreateThenDeleteCancels(t *testing.T) {
	// Given: a file created and removed inside one window
	d := newTestDebouncer(t, 30*time.Millisecond)
	d.Add(FileEvent{Path: "~draft.docx", Operation: OpCreate})
	d.Add(FileEvent{Path: "~draft.docx", Operation: OpDelete})

	// Then: nothing is emitted
	select {
	case batch := <-d.Output():
		assert.Empty(t, batch)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncer_BatchIsSortedByPath(t *testing.T) {
	d := newTestDebouncer(t, 30*time.Millisecond)

	d.Add(FileEvent{Path: "c.txt", Operation: OpDelete})
	d.Add(FileEvent{Path: "a.txt", Operation: OpCreate})
	d.Add(FileEvent{Path: "b.pdf", Operation: OpModify})

	batch := receive(t, d)
	require.Len(t, batch, 3)
	assert.Equal(t, []string{"a.txt", "b.pdf", "c.txt"}, []string{batch[0].Path, batch[1].Path, batch[2].Path})
}

func TestDebouncer_StopClosesOutput(t *testing.T) {
	d := NewDebouncer(30*time.Millisecond, logging.Discard())
	d.Add(FileEvent{Path: "a.txt", Operation: OpCreate})

	d.Stop()
	d.Stop()

	_, ok := <-d.Output()
	assert.False(t, ok)
}

func TestMergeOps(t *testing.T) {
	tests := []struct {
		name           string
		earlier, later Operation
		want           Operation
		keep           bool
	}{
		{"create then modify", OpCreate, OpModify, OpCreate, true},
		{"create then delete", OpCreate, OpDelete, 0, false},
		{"delete then create", OpDelete, OpCreate, OpModify, true},
		{"modify then delete", OpModify, OpDelete, OpDelete, true},
		{"modify then modify", OpModify, OpModify, OpModify, true},
		{"rename then create", OpRename, OpCreate, OpCreate, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, keep := mergeOps(tt.earlier, tt.later)
			assert.Equal(t, tt.keep, keep)
			if tt.keep {
				assert.Equal(t, tt.want, op)
			}
		})
	}
}
