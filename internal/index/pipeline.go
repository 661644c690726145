package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/Aman-CERP/docfinder/internal/async"
	ferrors "github.com/Aman-CERP/docfinder/internal/errors"
	"github.com/Aman-CERP/docfinder/internal/extract"
	"github.com/Aman-CERP/docfinder/internal/store"
)

// extraction is the outcome of extracting one file.
type extraction struct {
	text string
	err  error
}

// processAll extracts, chunks, embeds and persists the planned files in
// path order. Extraction runs ahead on a bounded pool; everything after it
// is sequential, and cancellation is honored between files.
func (m *Manager) processAll(ctx context.Context, todo []plan, report *Report, progress *async.IndexProgress, logger *slog.Logger) error {
	if len(todo) == 0 {
		return nil
	}

	pool, err := ants.NewPool(m.cfg.workers)
	if err != nil {
		return ferrors.InternalError("create extraction pool", err)
	}
	defer pool.Release()

	// Workers stop early once the run returns.
	extractCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	window := m.cfg.workers * 2
	pending := make([]chan extraction, len(todo))
	submitted := 0
	submit := func() error {
		i := submitted
		ch := make(chan extraction, 1)
		pending[i] = ch
		path := todo[i].file.AbsPath
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					ch <- extraction{err: fmt.Errorf("extractor panic: %v", r)}
				}
			}()
			text, err := m.extractor.Extract(extractCtx, path)
			ch <- extraction{text: text, err: err}
		})
		if err != nil {
			wg.Done()
			return ferrors.InternalError("submit extraction", err)
		}
		submitted++
		return nil
	}

	for i, p := range todo {
		if err := ctx.Err(); err != nil {
			return err
		}
		for submitted < len(todo) && submitted < i+window {
			if err := submit(); err != nil {
				return err
			}
		}

		progress.SetStage(async.StageExtracting, -1)
		progress.SetCurrentFile(p.file.Path)

		var res extraction
		select {
		case res = <-pending[i]:
		case <-ctx.Done():
			return ctx.Err()
		}

		if res.err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := m.recordFailure(ctx, p, res.err, report, logger); err != nil {
				return err
			}
			progress.FileFailed()
			continue
		}

		// Only extraction fails a single file. An embedding or store error
		// stops the run and leaves the previous entry in place.
		n, err := m.indexDocument(ctx, p, res.text, progress)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		report.Indexed++
		report.Chunks += n
		progress.AddChunks(n)
		progress.FileProcessed()
		logger.Debug("document_indexed", slog.String("path", p.file.AbsPath), slog.Int("chunks", n))
	}
	return nil
}

// indexDocument chunks and embeds text, then replaces the document's
// entry in one store transaction. It returns the chunk count.
func (m *Manager) indexDocument(ctx context.Context, p plan, text string, progress *async.IndexProgress) (int, error) {
	path := p.file.AbsPath
	pieces := m.chunker.Split(text)

	chunks := make([]store.Chunk, len(pieces))
	texts := make([]string, len(pieces))
	for i, c := range pieces {
		chunks[i] = store.Chunk{
			ID:           store.ChunkID(path, c.Index),
			DocumentPath: path,
			Index:        c.Index,
			Text:         c.Text,
			Start:        c.Start,
			End:          c.End,
		}
		texts[i] = c.Text
	}

	progress.SetStage(async.StageEmbedding, -1)
	vectors := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += m.cfg.batchSize {
		end := min(i+m.cfg.batchSize, len(texts))
		batch, err := m.embedder.EmbedBatch(ctx, texts[i:end])
		if err != nil {
			return 0, embedError(path, err)
		}
		if len(batch) != end-i {
			return 0, ferrors.New(ferrors.ErrCodeEmbeddingFailed,
				fmt.Sprintf("embedder returned %d vectors for %d chunks", len(batch), end-i), nil)
		}
		vectors = append(vectors, batch...)
	}

	progress.SetStage(async.StagePersisting, -1)
	doc := store.Document{Path: path, Fingerprint: p.fp, IndexedAt: time.Now()}
	if err := m.store.ReplaceDocument(ctx, doc, chunks, vectors); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// recordFailure notes a per-file failure. A previously indexed version is
// removed; it will be retried on the next run since it has no entry.
func (m *Manager) recordFailure(ctx context.Context, p plan, cause error, report *Report, logger *slog.Logger) error {
	failure := FileFailure{Path: p.file.AbsPath, Kind: failureKind(cause), Reason: cause.Error()}
	report.Failed = append(report.Failed, failure)
	logger.Warn("file_failed",
		slog.String("path", failure.Path),
		slog.String("kind", failure.Kind),
		slog.String("error", failure.Reason))

	if p.existing {
		if err := m.store.DeleteByDocument(ctx, p.file.AbsPath); err != nil {
			return err
		}
	}
	return nil
}

func failureKind(err error) string {
	if f, ok := extract.AsFailure(err); ok {
		return string(f.Kind)
	}
	if errors.Is(err, extract.ErrUnsupported) {
		return "unsupported"
	}
	if code := ferrors.GetCode(err); code != "" {
		return code
	}
	return "error"
}

// embedError attaches path to an embedding failure. Errors without a code
// become ERR_302 when the breaker is open and ERR_502 otherwise.
func embedError(path string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case ferrors.GetCode(err) != "":
		return fmt.Errorf("embed %s: %w", path, err)
	case errors.Is(err, ferrors.ErrCircuitOpen):
		return ferrors.EmbeddingUnavailable("embedder", err).WithDetail("path", path)
	default:
		return ferrors.New(ferrors.ErrCodeEmbeddingFailed, "embed "+path, err)
	}
}
