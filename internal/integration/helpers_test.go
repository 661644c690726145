// Package integration exercises the indexing and search pipeline end to
// end with real components and the static embedder.
package integration

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docfinder/internal/chunk"
	"github.com/Aman-CERP/docfinder/internal/embed"
	"github.com/Aman-CERP/docfinder/internal/extract"
	"github.com/Aman-CERP/docfinder/internal/index"
	"github.com/Aman-CERP/docfinder/internal/logging"
	"github.com/Aman-CERP/docfinder/internal/pathguard"
	"github.com/Aman-CERP/docfinder/internal/scanner"
	"github.com/Aman-CERP/docfinder/internal/search"
	"github.com/Aman-CERP/docfinder/internal/store"
)

// pipeline is one folder wired to a store, manager and ranker.
type pipeline struct {
	root    string
	store   *store.SQLiteStore
	guard   *pathguard.Guard
	manager *index.Manager
	ranker  *search.Ranker
}

func newPipeline(t *testing.T, root string, ann bool) *pipeline {
	t.Helper()
	ctx := context.Background()
	logger := logging.Discard()

	s, err := store.Open(ctx, filepath.Join(t.TempDir(), "index"), store.Options{ANN: ann, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	emb := embed.NewStaticEmbedder()
	guard := pathguard.New()

	manager, err := index.NewManager(index.Dependencies{
		Store:     s,
		Embedder:  emb,
		Extractor: extract.New(extract.DefaultOptions()),
		Chunker:   chunk.New(chunk.WithMaxLength(200), chunk.WithOverlap(20)),
		Scanner:   scanner.New(guard, logger),
	}, index.WithWorkers(2), index.WithLogger(logger))
	require.NoError(t, err)

	ranker, err := search.NewRanker(s, emb, search.DefaultConfig(), search.WithLogger(logger))
	require.NoError(t, err)

	return &pipeline{root: root, store: s, guard: guard, manager: manager, ranker: ranker}
}

func (p *pipeline) index(t *testing.T) *index.Report {
	t.Helper()
	report, err := p.manager.IndexFolder(context.Background(), p.root)
	require.NoError(t, err)
	return report
}

func (p *pipeline) search(t *testing.T, query string, opts search.Options) []*search.Result {
	t.Helper()
	results, err := p.ranker.Search(context.Background(), query, opts)
	require.NoError(t, err)
	return results
}

func paths(results []*search.Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = filepath.Base(r.Path)
	}
	return out
}

func writeText(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writeDOCX writes a minimal Word document with one paragraph per entry.
func writeDOCX(t *testing.T, root, rel string, paragraphs ...string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, "<w:p><w:r><w:t>%s</w:t></w:r></w:p>", p)
	}

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return path
}

// createLibrary lays out a small personal document folder.
func createLibrary(t *testing.T, root string) {
	t.Helper()
	writeText(t, root, "finance/budget_2024.txt",
		"Quarterly budget review. Marketing spend rose while travel expenses fell. "+
			"The finance team will revisit the forecast in March.")
	writeDOCX(t, root, "work/meeting_notes.docx",
		"Weekly meeting notes",
		"Action items: ship the onboarding guide and schedule the launch review.")
	writeText(t, root, "home/garden.txt",
		"Plant tomatoes and basil after the last frost. Water the seedlings every morning.")
	writeText(t, root, "travel/porto.txt",
		"Train to Porto on Friday, hotel near the river, dinner reservation at eight.")
}
