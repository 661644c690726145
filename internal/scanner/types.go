// Package scanner discovers indexable documents under a folder. It streams
// results as it walks and never descends into directories the path guard
// rejects.
package scanner

import (
	"time"

	"github.com/Aman-CERP/docfinder/internal/extract"
)

// FileInfo contains metadata about a discovered document.
type FileInfo struct {
	Path    string       // Relative path to the scan root, slash separated
	AbsPath string       // Absolute path
	Size    int64        // File size in bytes
	ModTime time.Time    // Last modification time
	Kind    extract.Kind // PDF, DOCX or TXT
}

// ScanOptions configures the scanner behavior.
type ScanOptions struct {
	// RootDir is the folder to scan.
	RootDir string

	// FollowSymlinks includes symlinked files (default: false). Symlinked
	// directories are never followed.
	FollowSymlinks bool

	// ProgressFunc is called with the running count of discovered documents.
	ProgressFunc func(found int)
}

// ScanResult is returned from the scanner channel.
type ScanResult struct {
	File  *FileInfo
	Error error
}
