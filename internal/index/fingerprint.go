package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/docfinder/internal/scanner"
	"github.com/Aman-CERP/docfinder/internal/store"
)

// action is what a run does with one scanned file.
type action int

const (
	actionSkip    action = iota // fingerprint unchanged
	actionTouch                 // content unchanged, fingerprint refreshed
	actionProcess               // new or changed
)

// plan pairs a scanned file with its decided action.
type plan struct {
	file     *scanner.FileInfo
	fp       store.Fingerprint
	action   action
	existing bool
}

// hashFile returns the hex sha256 of a file's content.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// planFiles decides an action for every file. Hashes are computed in
// parallel, bounded by workers. An unreadable file is planned for
// processing so the extractor reports the failure.
func planFiles(ctx context.Context, files []*scanner.FileInfo, known map[string]store.IndexEntry, mode FingerprintMode, workers int) ([]plan, error) {
	plans := make([]plan, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, f := range files {
		entry, existing := known[f.AbsPath]
		plans[i] = plan{
			file:     f,
			fp:       store.Fingerprint{ModTime: f.ModTime, Size: f.Size},
			action:   actionProcess,
			existing: existing,
		}

		if existing && mode == FingerprintMtime &&
			entry.Fingerprint.Size == f.Size && entry.Fingerprint.ModTime.Equal(f.ModTime) {
			plans[i].fp.ContentHash = entry.Fingerprint.ContentHash
			plans[i].action = actionSkip
			continue
		}

		p := &plans[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			hash, err := hashFile(f.AbsPath)
			if err != nil {
				return nil
			}
			p.fp.ContentHash = hash
			if existing && entry.Fingerprint.ContentHash == hash {
				if entry.Fingerprint.Size == f.Size && entry.Fingerprint.ModTime.Equal(f.ModTime) {
					p.action = actionSkip
				} else {
					p.action = actionTouch
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fingerprint files: %w", err)
	}
	return plans, nil
}
