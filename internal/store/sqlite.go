package store

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	ferrors "github.com/Aman-CERP/docfinder/internal/errors"
)

// entry is the in-memory copy of one chunk row.
type entry struct {
	chunk  Chunk
	vector []float32
	norm   float64
	seq    int64
}

// SQLiteStore is the single writer of persisted vector data.
//
// Every chunk row carries its vector, so a vector never exists without its
// chunk. Writes commit to SQLite first, then swap the in-memory index under
// mu; readers see a document either entirely before or entirely after a
// replacement.
type SQLiteStore struct {
	writeMu sync.Mutex // serializes writers

	mu      sync.RWMutex
	db      *sql.DB
	dir     string
	path    string
	logger  *slog.Logger
	byID    map[string]*entry
	byDoc   map[string][]string // path -> chunk ids in index order
	ann     *annIndex
	nextSeq int64
	dims    int
	model   string
	closed  bool

	recovered bool
}

// Open opens or creates the store in dir. A store that fails its integrity
// check, or whose rows cannot be decoded, is discarded and recreated empty;
// Recovered then reports true.
func Open(ctx context.Context, dir string, opts Options) (*SQLiteStore, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ferrors.New(ferrors.ErrCodeStoreFailed, "create data directory", err).
			WithDetail("dir", dir)
	}

	s := &SQLiteStore{
		dir:    dir,
		path:   filepath.Join(dir, DBFileName),
		logger: logger,
	}
	if opts.ANN {
		s.ann = newANNIndex()
	}

	if err := validateIntegrity(s.path); err != nil {
		s.discard(ferrors.StoreCorrupt("integrity check failed", err))
	}

	if err := s.open(ctx); err != nil {
		if !ferrors.HasCode(err, ferrors.ErrCodeStoreCorrupt) {
			return nil, err
		}
		s.discard(err)
		if err := s.open(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// validateIntegrity checks an existing database file before it is used.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// discard removes the database files after corruption was detected.
func (s *SQLiteStore) discard(cause error) {
	s.logger.Warn("store_corrupt",
		slog.String("path", s.path),
		slog.String("error", cause.Error()))

	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
	for _, p := range []string{s.path, s.path + "-wal", s.path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("store_remove_failed", slog.String("path", p), slog.String("error", err.Error()))
		}
	}
	s.recovered = true
	s.logger.Info("store_recovered", slog.String("path", s.path), slog.String("reason", "corruption detected, full re-index required"))
}

func (s *SQLiteStore) open(ctx context.Context) error {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return ferrors.New(ferrors.ErrCodeStoreFailed, "open database", err)
	}

	// Single connection: pragmas are per-connection and SQLite has one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return ferrors.StoreCorrupt("set pragma", err)
		}
	}

	s.db = db
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		s.db = nil
		return ferrors.StoreCorrupt("initialize schema", err)
	}
	if err := s.load(ctx); err != nil {
		_ = db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS documents (
		path         TEXT PRIMARY KEY,
		mod_time     INTEGER NOT NULL,
		size         INTEGER NOT NULL,
		content_hash TEXT NOT NULL,
		indexed_at   INTEGER NOT NULL
	);

	-- One row per chunk; the embedding lives in the same row.
	CREATE TABLE IF NOT EXISTS chunks (
		id           TEXT PRIMARY KEY,
		seq          INTEGER NOT NULL UNIQUE,
		doc_path     TEXT NOT NULL REFERENCES documents(path) ON DELETE CASCADE,
		chunk_index  INTEGER NOT NULL,
		text         TEXT NOT NULL,
		start_offset INTEGER NOT NULL,
		end_offset   INTEGER NOT NULL,
		vector       BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_doc ON chunks(doc_path);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}

	var version string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES ('schema_version', ?)`, strconv.Itoa(schemaVersion))
		return err
	case err != nil:
		return err
	case version != strconv.Itoa(schemaVersion):
		return fmt.Errorf("unsupported schema version %s", version)
	}
	return nil
}

// load reads every chunk into memory. Any row that cannot be decoded makes
// the whole store corrupt; partial indexes are never served.
func (s *SQLiteStore) load(ctx context.Context) error {
	s.byID = make(map[string]*entry)
	s.byDoc = make(map[string][]string)
	s.nextSeq = 1
	s.model, s.dims = "", 0
	if s.ann != nil {
		s.ann.reset()
	}

	meta, err := s.readMeta(ctx)
	if err != nil {
		return ferrors.StoreCorrupt("read metadata", err)
	}
	s.model = meta["model"]
	if d := meta["dimensions"]; d != "" {
		if s.dims, err = strconv.Atoi(d); err != nil {
			return ferrors.StoreCorrupt("invalid dimensions in metadata", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, doc_path, chunk_index, text, start_offset, end_offset, vector
		FROM chunks ORDER BY doc_path, chunk_index`)
	if err != nil {
		return ferrors.StoreCorrupt("read chunks", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var e entry
		var blob []byte
		if err := rows.Scan(&e.chunk.ID, &e.seq, &e.chunk.DocumentPath, &e.chunk.Index,
			&e.chunk.Text, &e.chunk.Start, &e.chunk.End, &blob); err != nil {
			return ferrors.StoreCorrupt("scan chunk", err)
		}
		if e.vector, err = decodeVector(blob); err != nil {
			return ferrors.StoreCorrupt(fmt.Sprintf("chunk %s", e.chunk.ID), err)
		}
		if s.dims == 0 {
			s.dims = len(e.vector)
		}
		if len(e.vector) != s.dims {
			return ferrors.StoreCorrupt(fmt.Sprintf("chunk %s", e.chunk.ID),
				ErrDimensionMismatch{Expected: s.dims, Got: len(e.vector)})
		}
		s.insertEntry(&e)
	}
	if err := rows.Err(); err != nil {
		return ferrors.StoreCorrupt("read chunks", err)
	}

	s.logger.Debug("store_loaded",
		slog.String("path", s.path),
		slog.Int("chunks", len(s.byID)),
		slog.Int("documents", len(s.byDoc)))
	return nil
}

func (s *SQLiteStore) readMeta(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

// insertEntry adds e to the in-memory index. Caller holds mu or owns s.
func (s *SQLiteStore) insertEntry(e *entry) {
	e.norm = norm(e.vector)
	id, path := e.chunk.ID, e.chunk.DocumentPath

	old, exists := s.byID[id]
	if exists && old.chunk.DocumentPath != path {
		s.byDoc[old.chunk.DocumentPath] = slices.DeleteFunc(s.byDoc[old.chunk.DocumentPath],
			func(x string) bool { return x == id })
		exists = false
	}
	if !exists {
		s.byDoc[path] = append(s.byDoc[path], id)
	}

	s.byID[id] = e
	if e.seq >= s.nextSeq {
		s.nextSeq = e.seq + 1
	}
	if s.ann != nil {
		s.ann.add(id, e.vector, e.norm)
	}
}

// removeDocument drops a document's entries from memory. Caller holds mu.
func (s *SQLiteStore) removeDocument(path string) {
	for _, id := range s.byDoc[path] {
		delete(s.byID, id)
		if s.ann != nil {
			s.ann.remove(id)
		}
	}
	delete(s.byDoc, path)
}

func (s *SQLiteStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// checkDims verifies vector lengths against the recorded dimension.
func (s *SQLiteStore) checkDims(vectors ...[]float32) error {
	s.mu.RLock()
	dims := s.dims
	s.mu.RUnlock()

	for _, v := range vectors {
		if dims == 0 {
			dims = len(v)
		}
		if len(v) != dims || len(v) == 0 {
			return ErrDimensionMismatch{Expected: dims, Got: len(v)}
		}
	}
	return nil
}

// recordDims persists the dimension on first write. Caller holds writeMu.
func (s *SQLiteStore) recordDims(ctx context.Context, tx *sql.Tx, dims int) error {
	s.mu.RLock()
	known := s.dims
	s.mu.RUnlock()
	if known != 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta (key, value) VALUES ('dimensions', ?)`, strconv.Itoa(dims))
	return err
}

const insertChunkSQL = `
	INSERT INTO chunks (id, seq, doc_path, chunk_index, text, start_offset, end_offset, vector)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		doc_path = excluded.doc_path,
		chunk_index = excluded.chunk_index,
		text = excluded.text,
		start_offset = excluded.start_offset,
		end_offset = excluded.end_offset,
		vector = excluded.vector`

// seqFor keeps the insertion rank of an existing chunk id.
func (s *SQLiteStore) seqFor(id string, next *int64) int64 {
	s.mu.RLock()
	e, ok := s.byID[id]
	s.mu.RUnlock()
	if ok {
		return e.seq
	}
	seq := *next
	*next++
	return seq
}

// Upsert inserts or replaces one chunk and its vector. The document row is
// created with an empty fingerprint if it does not exist yet. Repeating an
// upsert of the same chunk id keeps its original insertion rank.
func (s *SQLiteStore) Upsert(ctx context.Context, chunk Chunk, vector []float32) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if chunk.ID == "" {
		chunk.ID = ChunkID(chunk.DocumentPath, chunk.Index)
	}
	if err := s.checkDims(vector); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	next := s.nextSeq
	s.mu.RUnlock()
	seq := s.seqFor(chunk.ID, &next)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.recordDims(ctx, tx, len(vector)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO documents (path, mod_time, size, content_hash, indexed_at)
			VALUES (?, 0, 0, '', ?) ON CONFLICT(path) DO NOTHING`,
			chunk.DocumentPath, time.Now().UnixNano()); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, insertChunkSQL, chunk.ID, seq, chunk.DocumentPath, chunk.Index,
			chunk.Text, chunk.Start, chunk.End, encodeVector(vector))
		return err
	})
	if err != nil {
		return ferrors.New(ferrors.ErrCodeStoreFailed, "upsert chunk", err).WithDetail("path", chunk.DocumentPath)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dims == 0 {
		s.dims = len(vector)
	}
	s.insertEntry(&entry{chunk: chunk, vector: slices.Clone(vector), seq: seq})
	return nil
}

// ReplaceDocument atomically replaces a document's chunks and vectors and
// records its fingerprint. Zero chunks is valid: the document is recorded
// as indexed with no searchable content.
func (s *SQLiteStore) ReplaceDocument(ctx context.Context, doc Document, chunks []Chunk, vectors [][]float32) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	if err := s.checkDims(vectors...); err != nil {
		return err
	}
	if doc.IndexedAt.IsZero() {
		doc.IndexedAt = time.Now()
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	next := s.nextSeq
	s.mu.RUnlock()

	entries := make([]*entry, len(chunks))
	for i, c := range chunks {
		c.DocumentPath = doc.Path
		if c.ID == "" {
			c.ID = ChunkID(doc.Path, c.Index)
		}
		entries[i] = &entry{chunk: c, vector: slices.Clone(vectors[i]), seq: s.seqFor(c.ID, &next)}
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if len(vectors) > 0 {
			if err := s.recordDims(ctx, tx, len(vectors[0])); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE doc_path = ?`, doc.Path); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO documents (path, mod_time, size, content_hash, indexed_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				mod_time = excluded.mod_time,
				size = excluded.size,
				content_hash = excluded.content_hash,
				indexed_at = excluded.indexed_at`,
			doc.Path, doc.Fingerprint.ModTime.UnixNano(), doc.Fingerprint.Size,
			doc.Fingerprint.ContentHash, doc.IndexedAt.UnixNano()); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, insertChunkSQL)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()
		for _, e := range entries {
			c := e.chunk
			if _, err := stmt.ExecContext(ctx, c.ID, e.seq, c.DocumentPath, c.Index,
				c.Text, c.Start, c.End, encodeVector(e.vector)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ferrors.New(ferrors.ErrCodeStoreFailed, "replace document", err).WithDetail("path", doc.Path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dims == 0 && len(vectors) > 0 {
		s.dims = len(vectors[0])
	}
	s.removeDocument(doc.Path)
	for _, e := range entries {
		s.insertEntry(e)
	}
	return nil
}

// DeleteByDocument removes a document and all of its chunks and vectors.
// Deleting an unknown path is a no-op.
func (s *SQLiteStore) DeleteByDocument(ctx context.Context, path string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE doc_path = ?`, path); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE path = ?`, path)
		return err
	})
	if err != nil {
		return ferrors.New(ferrors.ErrCodeStoreFailed, "delete document", err).WithDetail("path", path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeDocument(path)
	return nil
}

// TouchDocument updates only the recorded fingerprint of a document.
func (s *SQLiteStore) TouchDocument(ctx context.Context, path string, fp Fingerprint) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET mod_time = ?, size = ?, content_hash = ? WHERE path = ?`,
		fp.ModTime.UnixNano(), fp.Size, fp.ContentHash, path)
	if err != nil {
		return ferrors.New(ferrors.ErrCodeStoreFailed, "touch document", err).WithDetail("path", path)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ferrors.New(ferrors.ErrCodeFileNotFound, "document not indexed: "+path, nil)
	}
	return nil
}

// EnsureModel records the embedding model on first use. Afterwards a
// different model or dimension is ERR_402_MODEL_MISMATCH, unless the store
// holds no chunks.
func (s *SQLiteStore) EnsureModel(ctx context.Context, model string, dims int) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	curModel, curDims, count := s.model, s.dims, len(s.byID)
	s.mu.RUnlock()

	if curModel == model && curDims == dims {
		return nil
	}
	if err := modelMismatch(curModel, curDims, count, model, dims); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta (key, value) VALUES ('model', ?)`, model); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta (key, value) VALUES ('dimensions', ?)`, strconv.Itoa(dims))
		return err
	})
	if err != nil {
		return ferrors.New(ferrors.ErrCodeStoreFailed, "record model", err)
	}

	s.mu.Lock()
	s.model, s.dims = model, dims
	s.mu.Unlock()
	return nil
}

// CheckModel reports ERR_402_MODEL_MISMATCH when the store holds chunks
// embedded by a model other than model or with other dimensions. Unlike
// EnsureModel it never records anything.
func (s *SQLiteStore) CheckModel(model string, dims int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return modelMismatch(s.model, s.dims, len(s.byID), model, dims)
}

func modelMismatch(curModel string, curDims, count int, model string, dims int) error {
	if count == 0 || (curDims == dims && (curModel == "" || curModel == model)) {
		return nil
	}
	return ferrors.New(ferrors.ErrCodeModelMismatch,
		fmt.Sprintf("index was built with %s (%d dims), embedder is %s (%d dims)", curModel, curDims, model, dims), nil).
		WithDetail("stored_model", curModel).
		WithDetail("model", model).
		WithSuggestion("Re-index with 'docfinder index --reset' or switch back to " + curModel)
}

// Search returns the k chunks most similar to query by exact cosine
// similarity, best first, ties broken by insertion order. With ANN enabled
// the graph proposes candidates which are then scored exactly.
func (s *SQLiteStore) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	if k <= 0 || len(s.byID) == 0 {
		return []Hit{}, nil
	}
	if len(query) != s.dims {
		return nil, ErrDimensionMismatch{Expected: s.dims, Got: len(query)}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	qNorm := norm(query)
	score := func(e *entry) Hit {
		return Hit{Chunk: e.chunk, Similarity: cosine(query, qNorm, e.vector, e.norm), Seq: e.seq}
	}

	var hits []Hit
	if s.ann != nil && qNorm > 0 {
		for _, id := range s.ann.candidates(query, qNorm, k) {
			hits = append(hits, score(s.byID[id]))
		}
	} else {
		hits = make([]Hit, 0, len(s.byID))
		for _, e := range s.byID {
			hits = append(hits, score(e))
		}
	}

	slices.SortFunc(hits, func(a, b Hit) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// IndexEntries returns every document with its chunk ids, ordered by path.
func (s *SQLiteStore) IndexEntries(ctx context.Context) ([]IndexEntry, error) {
	return s.queryEntries(ctx, `
		SELECT path, mod_time, size, content_hash, indexed_at FROM documents ORDER BY path`)
}

// IndexEntry returns the entry for path, or nil if it is not indexed.
func (s *SQLiteStore) IndexEntry(ctx context.Context, path string) (*IndexEntry, error) {
	entries, err := s.queryEntries(ctx, `
		SELECT path, mod_time, size, content_hash, indexed_at FROM documents WHERE path = ?`, path)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

func (s *SQLiteStore) queryEntries(ctx context.Context, query string, args ...any) ([]IndexEntry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ferrors.New(ferrors.ErrCodeStoreFailed, "query documents", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []IndexEntry
	for rows.Next() {
		var ie IndexEntry
		var mod, indexed int64
		if err := rows.Scan(&ie.Path, &mod, &ie.Fingerprint.Size, &ie.Fingerprint.ContentHash, &indexed); err != nil {
			return nil, ferrors.New(ferrors.ErrCodeStoreFailed, "scan document", err)
		}
		ie.Fingerprint.ModTime = time.Unix(0, mod)
		ie.IndexedAt = time.Unix(0, indexed)
		entries = append(entries, ie)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.New(ferrors.ErrCodeStoreFailed, "query documents", err)
	}

	s.mu.RLock()
	for i := range entries {
		entries[i].ChunkIDs = slices.Clone(s.byDoc[entries[i].Path])
	}
	s.mu.RUnlock()
	return entries, nil
}

// Reset removes all documents, chunks and the recorded model.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, q := range []string{
			`DELETE FROM chunks`,
			`DELETE FROM documents`,
			`DELETE FROM meta WHERE key IN ('model', 'dimensions')`,
		} {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ferrors.New(ferrors.ErrCodeStoreFailed, "reset store", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]*entry)
	s.byDoc = make(map[string][]string)
	s.model, s.dims = "", 0
	s.nextSeq = 1
	if s.ann != nil {
		s.ann.reset()
	}
	return nil
}

// Stats summarizes the store contents.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	if err := s.checkOpen(); err != nil {
		return Stats{}, err
	}

	var docs int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&docs); err != nil {
		return Stats{}, ferrors.New(ferrors.ErrCodeStoreFailed, "count documents", err)
	}

	var size int64
	for _, p := range []string{s.path, s.path + "-wal"} {
		if info, err := os.Stat(p); err == nil {
			size += info.Size()
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Path:       s.path,
		Documents:  docs,
		Chunks:     len(s.byID),
		Model:      s.model,
		Dimensions: s.dims,
		SizeBytes:  size,
		ANN:        s.ann != nil,
	}, nil
}

// Count returns the number of stored chunks.
func (s *SQLiteStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Model returns the recorded model identifier, or "" before first use.
func (s *SQLiteStore) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// Recovered reports whether Open discarded a corrupt store.
func (s *SQLiteStore) Recovered() bool {
	return s.recovered
}

// Dir returns the data directory.
func (s *SQLiteStore) Dir() string {
	return s.dir
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.ann != nil {
		s.logger.Debug("ann_closed", slog.Int("orphans", s.ann.orphans()))
	}
	return s.db.Close()
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
