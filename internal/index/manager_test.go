package index

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docfinder/internal/chunk"
	"github.com/Aman-CERP/docfinder/internal/embed"
	ferrors "github.com/Aman-CERP/docfinder/internal/errors"
	"github.com/Aman-CERP/docfinder/internal/extract"
	"github.com/Aman-CERP/docfinder/internal/logging"
	"github.com/Aman-CERP/docfinder/internal/pathguard"
	"github.com/Aman-CERP/docfinder/internal/scanner"
	"github.com/Aman-CERP/docfinder/internal/store"
)

// =============================================================================
// Fixtures
// =============================================================================

type fixture struct {
	root    string
	dataDir string
	store   *store.SQLiteStore
	deps    Dependencies
}

func newFixture(t *testing.T, guardOpts ...pathguard.Option) *fixture {
	t.Helper()
	dataDir := t.TempDir()
	s, err := store.Open(context.Background(), dataDir, store.Options{Logger: logging.Discard()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return &fixture{
		root:    t.TempDir(),
		dataDir: dataDir,
		store:   s,
		deps: Dependencies{
			Store:     s,
			Embedder:  embed.NewStaticEmbedder(),
			Extractor: extract.New(extract.DefaultOptions()),
			Chunker:   chunk.New(chunk.WithMaxLength(200), chunk.WithOverlap(20)),
			Scanner:   scanner.New(pathguard.New(guardOpts...), logging.Discard()),
		},
	}
}

func (f *fixture) manager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	m, err := NewManager(f.deps, append([]Option{WithLogger(logging.Discard()), WithWorkers(2)}, opts...)...)
	require.NoError(t, err)
	return m
}

func (f *fixture) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(f.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writeDOCX builds a minimal .docx with one paragraph per line.
func (f *fixture) writeDOCX(t *testing.T, rel string, lines ...string) string {
	t.Helper()
	path := filepath.Join(f.root, rel)
	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()

	zw := zip.NewWriter(out)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	body := ""
	for _, l := range lines {
		body += `<w:p><w:r><w:t>` + l + `</w:t></w:r></w:p>`
	}
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return path
}

func (f *fixture) entries(t *testing.T) map[string]store.IndexEntry {
	t.Helper()
	list, err := f.store.IndexEntries(context.Background())
	require.NoError(t, err)
	out := make(map[string]store.IndexEntry, len(list))
	for _, e := range list {
		out[e.Path] = e
	}
	return out
}

// renamedEmbedder reports a different model with the same vectors.
type renamedEmbedder struct {
	embed.Embedder
	name string
}

func (r renamedEmbedder) ModelName() string { return r.name }

// failingEmbedder fails every batch with err.
type failingEmbedder struct {
	embed.Embedder
	err error
}

func (f failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, f.err
}

// gatedExtractor passes the file named pass straight through and blocks
// on every other file until release is closed or the context ends.
type gatedExtractor struct {
	inner   Extractor
	pass    string
	release chan struct{}
}

func (g *gatedExtractor) Extract(ctx context.Context, path string) (string, error) {
	if filepath.Base(path) != g.pass {
		select {
		case <-g.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.inner.Extract(ctx, path)
}

// =============================================================================
// Construction
// =============================================================================

func TestNewManager_NilDependency(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*Dependencies)
	}{
		{"store", func(d *Dependencies) { d.Store = nil }},
		{"embedder", func(d *Dependencies) { d.Embedder = nil }},
		{"extractor", func(d *Dependencies) { d.Extractor = nil }},
		{"chunker", func(d *Dependencies) { d.Chunker = nil }},
		{"scanner", func(d *Dependencies) { d.Scanner = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := f.deps
			tt.mutate(&deps)

			_, err := NewManager(deps)

			assert.ErrorIs(t, err, ErrNilDependency)
		})
	}
}

// =============================================================================
// Indexing
// =============================================================================

func TestIndexFolder_IndexesSupportedDocuments(t *testing.T) {
	// Given: a folder with a txt, a docx, an unsupported file and an
	// ignored directory
	f := newFixture(t)
	txt := f.write(t, "notes.txt", "Quarterly budget review for the finance team.")
	docx := f.writeDOCX(t, "Q1_financial_review_march.docx", "Revenue grew in March.", "Costs were flat.")
	f.write(t, "readme.md", "# not indexed")
	f.write(t, "node_modules/pkg/LICENSE.txt", "MIT")

	// When: indexing
	report, err := f.manager(t).IndexFolder(context.Background(), f.root)

	// Then: both documents are indexed and nothing else
	require.NoError(t, err)
	assert.Equal(t, 2, report.Indexed)
	assert.Equal(t, 0, report.Skipped)
	assert.Empty(t, report.Failed)
	assert.Positive(t, report.Chunks)
	assert.NotEmpty(t, report.RunID)

	entries := f.entries(t)
	assert.Len(t, entries, 2)
	assert.Contains(t, entries, txt)
	assert.Contains(t, entries, docx)
	assert.NotEmpty(t, entries[txt].Fingerprint.ContentHash)
	assert.Equal(t, report.Chunks, f.store.Count())
}

func TestIndexFolder_IsIdempotent(t *testing.T) {
	// Given: an indexed folder
	f := newFixture(t)
	f.write(t, "a.txt", "alpha document body")
	f.write(t, "b.txt", "bravo document body")
	m := f.manager(t)
	_, err := m.IndexFolder(context.Background(), f.root)
	require.NoError(t, err)
	before := f.entries(t)

	// When: indexing again without changes
	report, err := m.IndexFolder(context.Background(), f.root)

	// Then: everything is skipped and the entries are untouched
	require.NoError(t, err)
	assert.Equal(t, 0, report.Indexed)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 0, report.Removed)
	assert.Equal(t, before, f.entries(t))
}

func TestIndexFolder_ReindexesOnlyChangedFiles(t *testing.T) {
	f := newFixture(t)
	a := f.write(t, "a.txt", "original content")
	f.write(t, "b.txt", "stable content")
	m := f.manager(t)
	_, err := m.IndexFolder(context.Background(), f.root)
	require.NoError(t, err)

	// When: one file changes
	require.NoError(t, os.WriteFile(a, []byte("rewritten content about invoices"), 0o644))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(a, later, later))

	report, err := m.IndexFolder(context.Background(), f.root)

	// Then: only it is re-indexed
	require.NoError(t, err)
	assert.Equal(t, 1, report.Indexed)
	assert.Equal(t, 1, report.Skipped)

	entry := f.entries(t)[a]
	require.Len(t, entry.ChunkIDs, 1)
	hits, err := f.store.Search(context.Background(), mustEmbed(t, "rewritten content about invoices"), 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "rewritten content about invoices", hits[0].Chunk.Text)
}

func TestIndexFolder_RemovesDeletedFiles(t *testing.T) {
	f := newFixture(t)
	a := f.write(t, "a.txt", "soon gone")
	b := f.write(t, "b.txt", "still here")
	m := f.manager(t)
	_, err := m.IndexFolder(context.Background(), f.root)
	require.NoError(t, err)

	require.NoError(t, os.Remove(a))
	report, err := m.IndexFolder(context.Background(), f.root)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)
	entries := f.entries(t)
	assert.NotContains(t, entries, a)
	assert.Contains(t, entries, b)
	assert.Equal(t, 1, f.store.Count())
}

func TestIndexFolder_LeavesOtherRootsAlone(t *testing.T) {
	// Given: two folders indexed into one store
	f := newFixture(t)
	f.write(t, "a.txt", "first root")
	other := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(other, "b.txt"), []byte("second root"), 0o644))
	m := f.manager(t)
	_, err := m.IndexFolder(context.Background(), f.root)
	require.NoError(t, err)
	_, err = m.IndexFolder(context.Background(), other)
	require.NoError(t, err)

	// When: re-indexing the first
	report, err := m.IndexFolder(context.Background(), f.root)

	// Then: the second root's document is not treated as deleted
	require.NoError(t, err)
	assert.Equal(t, 0, report.Removed)
	assert.Len(t, f.entries(t), 2)
}

func TestIndexFolder_TouchedButUnchangedIsSkipped(t *testing.T) {
	f := newFixture(t)
	a := f.write(t, "a.txt", "same bytes")
	m := f.manager(t)
	_, err := m.IndexFolder(context.Background(), f.root)
	require.NoError(t, err)
	indexedAt := f.entries(t)[a].IndexedAt

	// When: only the mtime changes
	later := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(a, later, later))
	report, err := m.IndexFolder(context.Background(), f.root)

	// Then: the content hash matches, so only the fingerprint is refreshed
	require.NoError(t, err)
	assert.Equal(t, 0, report.Indexed)
	assert.Equal(t, 1, report.Skipped)
	entry := f.entries(t)[a]
	assert.True(t, entry.Fingerprint.ModTime.Equal(later))
	assert.True(t, entry.IndexedAt.Equal(indexedAt))
}

func TestIndexFolder_HashModeDetectsSameSizeEdits(t *testing.T) {
	// Given: hash fingerprinting and an edit that keeps size and mtime
	f := newFixture(t)
	a := f.write(t, "a.txt", "cat sat")
	m := f.manager(t, WithFingerprintMode(FingerprintHash))
	_, err := m.IndexFolder(context.Background(), f.root)
	require.NoError(t, err)
	info, err := os.Stat(a)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(a, []byte("dog sat"), 0o644))
	require.NoError(t, os.Chtimes(a, info.ModTime(), info.ModTime()))

	// When: re-indexing
	report, err := m.IndexFolder(context.Background(), f.root)

	// Then: the change is still picked up
	require.NoError(t, err)
	assert.Equal(t, 1, report.Indexed)
}

// =============================================================================
// Failures
// =============================================================================

func TestIndexFolder_PartialFailureDoesNotHaltRun(t *testing.T) {
	// Given: nine good documents and one corrupt docx
	f := newFixture(t)
	for i := range 9 {
		f.write(t, fmt.Sprintf("doc%02d.txt", i), fmt.Sprintf("document number %d", i))
	}
	bad := f.write(t, "broken.docx", "this is not a zip archive")

	// When: indexing
	report, err := f.manager(t).IndexFolder(context.Background(), f.root)

	// Then: the good nine are indexed and the bad one is reported
	require.NoError(t, err)
	assert.Equal(t, 9, report.Indexed)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, bad, report.Failed[0].Path)
	assert.Equal(t, string(extract.Corrupt), report.Failed[0].Kind)
	assert.NotContains(t, f.entries(t), bad)
}

func TestIndexFolder_FailedReextractionDropsStaleEntry(t *testing.T) {
	f := newFixture(t)
	doc := f.writeDOCX(t, "report.docx", "valid paragraph")
	m := f.manager(t)
	_, err := m.IndexFolder(context.Background(), f.root)
	require.NoError(t, err)
	require.Contains(t, f.entries(t), doc)

	// When: the document is replaced by garbage
	require.NoError(t, os.WriteFile(doc, []byte("garbage"), 0o644))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(doc, later, later))
	report, err := m.IndexFolder(context.Background(), f.root)

	// Then: the old entry is gone and the failure is reported
	require.NoError(t, err)
	require.Len(t, report.Failed, 1)
	assert.NotContains(t, f.entries(t), doc)
	assert.Equal(t, 0, f.store.Count())

	// And: the next run retries it
	report, err = m.IndexFolder(context.Background(), f.root)
	require.NoError(t, err)
	assert.Len(t, report.Failed, 1)
}

func TestIndexFolder_DeniedRoot(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.txt", "secret")
	f.deps.Scanner = scanner.New(pathguard.New(pathguard.WithRoots(f.root)), logging.Discard())

	report, err := f.manager(t).IndexFolder(context.Background(), f.root)

	require.Error(t, err)
	assert.True(t, ferrors.HasCode(err, ferrors.ErrCodePathDenied))
	assert.Nil(t, report)
	assert.Empty(t, f.entries(t))
}

func TestIndexFolder_NewlyProtectedDirectoryIsRemoved(t *testing.T) {
	// Given: a document indexed before its directory was protected
	f := newFixture(t)
	secret := f.write(t, "private/salaries.txt", "salary table")
	f.write(t, "public.txt", "hello")
	_, err := f.manager(t).IndexFolder(context.Background(), f.root)
	require.NoError(t, err)
	require.Contains(t, f.entries(t), secret)

	// When: re-indexing with the directory denied
	f.deps.Scanner = scanner.New(pathguard.New(pathguard.WithRoots(filepath.Join(f.root, "private"))), logging.Discard())
	report, err := f.manager(t).IndexFolder(context.Background(), f.root)

	// Then: its content is no longer in the index
	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)
	assert.NotContains(t, f.entries(t), secret)
}

func TestIndexFolder_ModelMismatchIsRefused(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.txt", "content")
	_, err := f.manager(t).IndexFolder(context.Background(), f.root)
	require.NoError(t, err)

	f.deps.Embedder = renamedEmbedder{Embedder: embed.NewStaticEmbedder(), name: "other-model"}
	report, err := f.manager(t).IndexFolder(context.Background(), f.root)

	require.Error(t, err)
	assert.True(t, ferrors.HasCode(err, ferrors.ErrCodeModelMismatch))
	assert.Nil(t, report)
}

func TestIndexFolder_EmbeddingUnavailableAbortsRun(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.txt", "first")
	f.write(t, "b.txt", "second")
	f.deps.Embedder = failingEmbedder{
		Embedder: embed.NewStaticEmbedder(),
		err:      ferrors.EmbeddingUnavailable("ollama", errors.New("connection refused")),
	}

	report, err := f.manager(t).IndexFolder(context.Background(), f.root)

	require.Error(t, err)
	assert.True(t, ferrors.HasCode(err, ferrors.ErrCodeEmbeddingUnavailable))
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Indexed)
	assert.Empty(t, report.Failed)
	assert.Empty(t, f.entries(t))
}

func TestIndexFolder_BackendOutageKeepsEditedDocuments(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"open circuit", ferrors.ErrCircuitOpen, ferrors.ErrCodeEmbeddingUnavailable},
		{"server error", ferrors.New(ferrors.ErrCodeEmbeddingFailed, "model runner has unexpectedly stopped", nil), ferrors.ErrCodeEmbeddingFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: two indexed documents that were both edited since
			f := newFixture(t)
			a := f.write(t, "a.txt", "first version")
			b := f.write(t, "b.txt", "second version")
			_, err := f.manager(t).IndexFolder(context.Background(), f.root)
			require.NoError(t, err)
			later := time.Now().Add(time.Hour)
			for _, p := range []string{a, b} {
				require.NoError(t, os.WriteFile(p, []byte("edited text"), 0o644))
				require.NoError(t, os.Chtimes(p, later, later))
			}

			// When: the embedding backend fails during the next run
			f.deps.Embedder = failingEmbedder{Embedder: embed.NewStaticEmbedder(), err: tt.err}
			report, err := f.manager(t).IndexFolder(context.Background(), f.root)

			// Then: the run fails and the previous entries are still there
			require.Error(t, err)
			assert.True(t, ferrors.HasCode(err, tt.code))
			require.NotNil(t, report)
			assert.Empty(t, report.Failed)
			entries := f.entries(t)
			assert.Contains(t, entries, a)
			assert.Contains(t, entries, b)
			assert.Equal(t, 2, f.store.Count())
		})
	}
}

func TestIndexFolder_ReportsRecoveredStore(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, store.DBFileName), []byte("not a database"), 0o644))
	s, err := store.Open(context.Background(), dataDir, store.Options{Logger: logging.Discard()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	f := newFixture(t)
	f.deps.Store = s
	f.write(t, "a.txt", "content")

	report, err := f.manager(t).IndexFolder(context.Background(), f.root)

	require.NoError(t, err)
	assert.True(t, report.StoreRecovered)
	assert.Equal(t, 1, report.Indexed)
}

// =============================================================================
// Background runs
// =============================================================================

func TestStart_CoalescesRunsOnSameRoot(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.txt", "one")
	f.write(t, "b.txt", "two")
	gate := &gatedExtractor{inner: f.deps.Extractor, release: make(chan struct{})}
	f.deps.Extractor = gate
	m := f.manager(t)

	// When: starting twice while the first run is blocked
	first := m.Start(context.Background(), f.root)
	second := m.Start(context.Background(), f.root)

	// Then: both handles are the same run
	assert.Same(t, first, second)
	assert.Equal(t, first.ID(), second.ID())
	active, ok := m.Active(f.root)
	assert.True(t, ok)
	assert.Same(t, first, active)

	close(gate.release)
	report, err := first.Wait()
	require.NoError(t, err)
	assert.Equal(t, 2, report.Indexed)

	// And: a later Start begins a new run
	third := m.Start(context.Background(), f.root)
	assert.NotEqual(t, first.ID(), third.ID())
	_, err = third.Wait()
	require.NoError(t, err)
}

func TestStart_CoalescedRunOutlivesFirstCaller(t *testing.T) {
	// Given: a blocked run started by one caller and joined by another
	f := newFixture(t)
	f.write(t, "a.txt", "one")
	f.write(t, "b.txt", "two")
	gate := &gatedExtractor{inner: f.deps.Extractor, release: make(chan struct{})}
	f.deps.Extractor = gate
	m := f.manager(t)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	first := m.Start(firstCtx, f.root)

	type result struct {
		report *Report
		err    error
	}
	joined := make(chan result, 1)
	go func() {
		report, err := m.IndexFolder(context.Background(), f.root)
		joined <- result{report, err}
	}()
	require.Eventually(t, func() bool {
		first.mu.Lock()
		defer first.mu.Unlock()
		return first.callers == 2
	}, 5*time.Second, 10*time.Millisecond)

	// When: the first caller goes away before the run can finish
	cancelFirst()
	require.Never(t, func() bool {
		select {
		case <-first.Done():
			return true
		default:
			return false
		}
	}, 100*time.Millisecond, 10*time.Millisecond)
	close(gate.release)

	// Then: the waiter gets a complete run
	got := <-joined
	require.NoError(t, got.err)
	assert.Equal(t, 2, got.report.Indexed)
	assert.Equal(t, 2, f.store.Count())
}

func TestStart_RunStopsWhenAllCallersLeave(t *testing.T) {
	// Given: one blocked run shared by two callers
	f := newFixture(t)
	f.write(t, "a.txt", "one")
	gate := &gatedExtractor{inner: f.deps.Extractor, release: make(chan struct{})}
	f.deps.Extractor = gate
	m := f.manager(t)

	ctxA, cancelA := context.WithCancel(context.Background())
	ctxB, cancelB := context.WithCancel(context.Background())
	run := m.Start(ctxA, f.root)
	assert.Same(t, run, m.Start(ctxB, f.root))

	// When: both contexts end
	cancelA()
	cancelB()

	// Then: the run is cancelled and a new Start begins a fresh run
	_, err := run.Wait()
	assert.ErrorIs(t, err, context.Canceled)
	require.Eventually(t, func() bool {
		_, ok := m.Active(f.root)
		return !ok
	}, 5*time.Second, 10*time.Millisecond)

	close(gate.release)
	next := m.Start(context.Background(), f.root)
	assert.NotEqual(t, run.ID(), next.ID())
	report, err := next.Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, report.Indexed)
}

func TestIndexFolder_CancelledSoleCallerStopsRun(t *testing.T) {
	// Given: a blocked run with a single caller
	f := newFixture(t)
	f.write(t, "a.txt", "one")
	gate := &gatedExtractor{inner: f.deps.Extractor, release: make(chan struct{})}
	f.deps.Extractor = gate
	m := f.manager(t)
	ctx, cancel := context.WithCancel(context.Background())

	// When: the caller's context ends mid-run
	time.AfterFunc(50*time.Millisecond, cancel)
	report, err := m.IndexFolder(ctx, f.root)

	// Then: the run stops without indexing the blocked file
	assert.ErrorIs(t, err, context.Canceled)
	if report != nil {
		assert.Zero(t, report.Indexed)
	}
	assert.Zero(t, f.store.Count())
	_, ok := m.Active(f.root)
	assert.False(t, ok)
}

func TestStart_CancelKeepsProcessedFiles(t *testing.T) {
	// Given: a run whose second file blocks
	f := newFixture(t)
	a := f.write(t, "a.txt", "processed before cancel")
	f.write(t, "b.txt", "never reached")
	f.write(t, "c.txt", "never reached either")
	gate := &gatedExtractor{inner: f.deps.Extractor, pass: "a.txt", release: make(chan struct{})}
	f.deps.Extractor = gate
	m := f.manager(t)

	run := m.Start(context.Background(), f.root)
	require.Eventually(t, func() bool {
		return run.Progress().FilesProcessed >= 1
	}, 5*time.Second, 10*time.Millisecond)

	// When: cancelling
	run.Cancel()
	report, err := run.Wait()

	// Then: the first file stays indexed and the rest are untouched
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Indexed)
	entries := f.entries(t)
	assert.Len(t, entries, 1)
	assert.Contains(t, entries, a)
	assert.Equal(t, "cancelled", run.Progress().Status)
}

func TestStart_DifferentRootsBothComplete(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.txt", "first root")
	other := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(other, "b.txt"), []byte("second root"), 0o644))
	m := f.manager(t)

	r1 := m.Start(context.Background(), f.root)
	r2 := m.Start(context.Background(), other)
	assert.NotEqual(t, r1.ID(), r2.ID())

	rep1, err1 := r1.Wait()
	rep2, err2 := r2.Wait()
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, 1, rep1.Indexed)
	assert.Equal(t, 1, rep2.Indexed)
	assert.Len(t, f.entries(t), 2)
}

func TestUnderRoot(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "docs")
	assert.True(t, underRoot(root, filepath.Join(root, "a.txt")))
	assert.True(t, underRoot(root, filepath.Join(root, "sub", "b.txt")))
	assert.False(t, underRoot(root, root))
	assert.False(t, underRoot(root, filepath.Join(string(filepath.Separator), "docs2", "a.txt")))
}

func mustEmbed(t *testing.T, text string) []float32 {
	t.Helper()
	v, err := embed.NewStaticEmbedder().Embed(context.Background(), text)
	require.NoError(t, err)
	return v
}
