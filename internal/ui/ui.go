// Package ui renders indexing progress and index status in the terminal:
// a bubbletea view for interactive terminals and plain lines for pipes
// and CI.
package ui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/docfinder/internal/async"
)

// Stage is a step of an indexing run as shown to the user.
type Stage int

const (
	StageScanning Stage = iota
	StageExtracting
	StageEmbedding
	StagePersisting
	StageComplete
)

// String returns the human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageScanning:
		return "Scanning"
	case StageExtracting:
		return "Extracting"
	case StageEmbedding:
		return "Embedding"
	case StagePersisting:
		return "Saving"
	case StageComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Icon returns the short tag used in plain output.
func (s Stage) Icon() string {
	switch s {
	case StageScanning:
		return "SCAN"
	case StageExtracting:
		return "EXTRACT"
	case StageEmbedding:
		return "EMBED"
	case StagePersisting:
		return "SAVE"
	case StageComplete:
		return "DONE"
	default:
		return "???"
	}
}

// StageOf maps a progress snapshot's stage name to a Stage.
func StageOf(name string) Stage {
	switch async.IndexingStage(name) {
	case async.StageScanning:
		return StageScanning
	case async.StageExtracting:
		return StageExtracting
	case async.StageEmbedding:
		return StageEmbedding
	case async.StagePersisting:
		return StagePersisting
	default:
		return StageComplete
	}
}

// ProgressEvent is one progress update, counted in files.
type ProgressEvent struct {
	Stage       Stage
	Current     int
	Total       int
	CurrentFile string
	Skipped     int
	Failed      int
	Chunks      int
}

// ErrorEvent is a file that could not be indexed.
type ErrorEvent struct {
	File string
	Kind string
	Err  error
}

// CompletionStats summarizes a finished run.
type CompletionStats struct {
	Indexed   int
	Skipped   int
	Removed   int
	Failed    int
	Chunks    int
	Duration  time.Duration
	Cancelled bool
	Model     string
}

// Renderer displays a run.
type Renderer interface {
	Start(ctx context.Context) error
	UpdateProgress(event ProgressEvent)
	AddError(event ErrorEvent)
	Complete(stats CompletionStats)
	Stop() error
}

// Config configures a renderer.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
	// Folder is shown in the header.
	Folder string
	// OnInterrupt is called when the user presses ctrl+c in the TUI.
	OnInterrupt func()
}

// ConfigOption modifies a Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) { c.ForcePlain = force }
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) { c.NoColor = noColor }
}

// WithFolder sets the folder shown in the header.
func WithFolder(dir string) ConfigOption {
	return func(c *Config) { c.Folder = dir }
}

// WithInterrupt sets the ctrl+c handler for the TUI.
func WithInterrupt(fn func()) ConfigOption {
	return func(c *Config) { c.OnInterrupt = fn }
}

// NewConfig creates a Config writing to output.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: output, NoColor: DetectNoColor()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewRenderer returns the TUI for interactive terminals and plain output
// for pipes, CI, or when plain output is forced.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain || !IsTTY(cfg.Output) || DetectCI() {
		return NewPlainRenderer(cfg)
	}
	tui, err := NewTUIRenderer(cfg)
	if err != nil {
		return NewPlainRenderer(cfg)
	}
	return tui
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor reports whether NO_COLOR is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI reports whether we are running under a CI system.
func DetectCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
