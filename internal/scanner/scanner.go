package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Aman-CERP/docfinder/internal/extract"
	"github.com/Aman-CERP/docfinder/internal/pathguard"
)

// resultBuffer sizes the results channel.
const resultBuffer = 64

// Scanner discovers supported documents in a folder.
type Scanner struct {
	guard  *pathguard.Guard
	logger *slog.Logger
}

// New creates a Scanner. A nil guard uses the platform defaults.
func New(guard *pathguard.Guard, logger *slog.Logger) *Scanner {
	if guard == nil {
		guard = pathguard.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{guard: guard, logger: logger}
}

// Guard returns the path guard used by the scanner.
func (s *Scanner) Guard() *pathguard.Guard {
	return s.guard
}

// Scan discovers all supported documents under opts.RootDir.
// It returns a channel of ScanResult that streams files as they are
// discovered. The channel is closed when scanning is complete.
// A denied root is returned as a PathDenied error before any walking.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions) (<-chan ScanResult, error) {
	if opts == nil {
		opts = &ScanOptions{}
	}

	rootDir := opts.RootDir
	if rootDir == "" {
		rootDir = "."
	}
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", absRoot)
	}
	if err := s.guard.Check(absRoot); err != nil {
		return nil, err
	}

	results := make(chan ScanResult, resultBuffer)
	go func() {
		defer close(results)
		s.scan(ctx, absRoot, opts, results)
	}()
	return results, nil
}

// Collect runs Scan to completion and returns the documents sorted by
// path. The first walk error, or the context error, is returned with the
// files found so far.
func (s *Scanner) Collect(ctx context.Context, opts *ScanOptions) ([]*FileInfo, error) {
	results, err := s.Scan(ctx, opts)
	if err != nil {
		return nil, err
	}

	var files []*FileInfo
	var firstErr error
	for r := range results {
		if r.Error != nil {
			if firstErr == nil {
				firstErr = r.Error
			}
			continue
		}
		files = append(files, r.File)
	}
	if firstErr == nil {
		firstErr = ctx.Err()
	}

	slices.SortFunc(files, func(a, b *FileInfo) int {
		return strings.Compare(a.AbsPath, b.AbsPath)
	})
	return files, firstErr
}

func (s *Scanner) scan(ctx context.Context, absRoot string, opts *ScanOptions, results chan<- ScanResult) {
	found := 0
	err := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			// Unreadable entries are skipped; the root itself was stat'ed.
			s.logger.Debug("scan_entry_unreadable", slog.String("path", path), slog.String("error", err.Error()))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == absRoot {
			return nil
		}

		if d.IsDir() {
			if denied := s.guard.CheckEntry(absRoot, path, true); denied != nil {
				s.logger.Debug("scan_dir_denied", slog.String("path", path), slog.String("error", denied.Error()))
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 && !opts.FollowSymlinks {
			return nil
		}
		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			return nil
		}

		kind, ok := extract.KindForPath(path)
		if !ok {
			return nil
		}
		if denied := s.guard.CheckEntry(absRoot, path, false); denied != nil {
			s.logger.Debug("scan_file_denied", slog.String("path", path), slog.String("error", denied.Error()))
			return nil
		}

		info, err := os.Stat(path) // follows an allowed symlink
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}

		fileInfo := &FileInfo{
			Path:    filepath.ToSlash(rel),
			AbsPath: path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Kind:    kind,
		}

		select {
		case results <- ScanResult{File: fileInfo}:
		case <-ctx.Done():
			return ctx.Err()
		}

		found++
		if opts.ProgressFunc != nil {
			opts.ProgressFunc(found)
		}
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		select {
		case results <- ScanResult{Error: err}:
		case <-ctx.Done():
		}
	}
}
