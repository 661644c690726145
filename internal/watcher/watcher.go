package watcher

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/Aman-CERP/docfinder/internal/ignore"
	"github.com/Aman-CERP/docfinder/internal/pathguard"
)

// Operation is the kind of change an event reports.
type Operation int

const (
	OpCreate Operation = iota
	OpModify
	OpDelete
	OpRename
	// OpConfigChange reports an edit to the folder's .docfinder config file.
	OpConfigChange
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	case OpConfigChange:
		return "CONFIG_CHANGE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one change, with Path relative to the watched root.
type FileEvent struct {
	Path      string
	Operation Operation
	IsDir     bool
	Timestamp time.Time
}

// configFileNames are the per-folder config files. They are hidden, so
// the guard would otherwise drop their events.
var configFileNames = map[string]struct{}{
	".docfinder.yaml": {},
	".docfinder.yml":  {},
	".docfinder.toml": {},
	ignore.FileName:   {},
}

// IsConfigFile reports whether name is a folder config or exclusion file.
func IsConfigFile(name string) bool {
	_, ok := configFileNames[filepath.Base(name)]
	return ok
}

// Options configures a HybridWatcher.
type Options struct {
	// DebounceWindow is how long the folder must be quiet before a batch
	// is emitted. Default: 500ms
	DebounceWindow time.Duration

	// PollInterval applies in polling mode. Default: 5s
	PollInterval time.Duration

	// EventBufferSize bounds queued batches. Default: 100
	EventBufferSize int

	// Guard filters entries the same way the scanner does. Default: the
	// platform guard.
	Guard *pathguard.Guard

	// ForcePolling skips fsnotify.
	ForcePolling bool

	Logger *slog.Logger
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  500 * time.Millisecond,
		PollInterval:    5 * time.Second,
		EventBufferSize: 100,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	if o.Guard == nil {
		o.Guard = pathguard.New()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
