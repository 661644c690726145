package watcher

import (
	"path/filepath"

	"github.com/Aman-CERP/docfinder/internal/extract"
	"github.com/Aman-CERP/docfinder/internal/pathguard"
)

// filter decides which raw events under root matter for indexing.
type filter struct {
	root  string
	guard *pathguard.Guard
}

// relevant reports whether a change at abs should reach the debouncer, and
// rewrites it as a config change when it touches the folder config.
func (f *filter) relevant(abs string, isDir bool, op Operation) (Operation, bool) {
	if abs == f.root {
		return op, false
	}
	if !isDir && IsConfigFile(abs) && filepath.Dir(abs) == f.root {
		return OpConfigChange, true
	}
	if isDir {
		return op, f.guard.CheckEntry(f.root, abs, true) == nil
	}
	if !extract.IsSupported(abs) {
		// A deleted directory is indistinguishable from a deleted
		// extensionless file; both may hold indexed documents.
		if (op == OpDelete || op == OpRename) && filepath.Ext(abs) == "" {
			return op, f.guard.CheckEntry(f.root, abs, true) == nil
		}
		return op, false
	}
	return op, f.guard.CheckEntry(f.root, abs, false) == nil
}

// descend reports whether a directory should be watched or walked.
func (f *filter) descend(abs string) bool {
	return abs == f.root || f.guard.CheckEntry(f.root, abs, true) == nil
}

func (f *filter) rel(abs string) string {
	rel, err := filepath.Rel(f.root, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}
