// Package async runs indexing in the background and publishes a
// thread-safe progress snapshot while it works.
package async

import (
	"sync"
	"time"
)

// IndexingStatus represents the overall state of a run.
type IndexingStatus string

const (
	// StatusIndexing indicates indexing is in progress.
	StatusIndexing IndexingStatus = "indexing"
	// StatusReady indicates indexing is complete and search is available.
	StatusReady IndexingStatus = "ready"
	// StatusError indicates indexing failed with an error.
	StatusError IndexingStatus = "error"
	// StatusCancelled indicates the run was cancelled; processed files stay indexed.
	StatusCancelled IndexingStatus = "cancelled"
)

// IndexingStage represents the current stage of a run.
type IndexingStage string

const (
	StageIdle       IndexingStage = "idle"
	StageScanning   IndexingStage = "scanning"
	StageExtracting IndexingStage = "extracting"
	StageEmbedding  IndexingStage = "embedding"
	StagePersisting IndexingStage = "persisting"
)

// IndexProgressSnapshot is an immutable snapshot of indexing progress.
type IndexProgressSnapshot struct {
	Status         string  `json:"status"`
	Stage          string  `json:"stage"`
	CurrentFile    string  `json:"current_file,omitempty"`
	FilesTotal     int     `json:"files_total"`
	FilesProcessed int     `json:"files_processed"`
	FilesSkipped   int     `json:"files_skipped"`
	FilesFailed    int     `json:"files_failed"`
	ChunksIndexed  int     `json:"chunks_indexed"`
	ProgressPct    float64 `json:"progress_pct"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
	ErrorMessage   string  `json:"error_message,omitempty"`
}

// IndexProgress provides thread-safe tracking of indexing progress.
type IndexProgress struct {
	mu sync.RWMutex

	status         IndexingStatus
	stage          IndexingStage
	currentFile    string
	filesTotal     int
	filesProcessed int
	filesSkipped   int
	filesFailed    int
	chunksIndexed  int
	startTime      time.Time
	errorMessage   string
}

// NewIndexProgress creates a new progress tracker initialized for indexing.
func NewIndexProgress() *IndexProgress {
	return &IndexProgress{
		status:    StatusIndexing,
		stage:     StageScanning,
		startTime: time.Now(),
	}
}

// SetStage updates the current stage. A negative total leaves the file
// total unchanged.
func (p *IndexProgress) SetStage(stage IndexingStage, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stage = stage
	if total >= 0 {
		p.filesTotal = total
	}
}

// SetCurrentFile records the file being worked on.
func (p *IndexProgress) SetCurrentFile(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.currentFile = path
}

// FileProcessed counts a file that was indexed or removed.
func (p *IndexProgress) FileProcessed() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.filesProcessed++
}

// FileSkipped counts an unchanged file.
func (p *IndexProgress) FileSkipped() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.filesProcessed++
	p.filesSkipped++
}

// FileFailed counts a file whose extraction failed.
func (p *IndexProgress) FileFailed() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.filesProcessed++
	p.filesFailed++
}

// AddChunks adds to the number of persisted chunks.
func (p *IndexProgress) AddChunks(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.chunksIndexed += n
}

// SetError marks the run as failed with an error message.
func (p *IndexProgress) SetError(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusError
	p.stage = StageIdle
	p.errorMessage = message
}

// SetCancelled marks the run as cancelled.
func (p *IndexProgress) SetCancelled() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusCancelled
	p.stage = StageIdle
	p.currentFile = ""
}

// SetReady marks the run as complete and ready for search.
func (p *IndexProgress) SetReady() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusReady
	p.stage = StageIdle
	p.currentFile = ""
}

// IsIndexing returns true if indexing is still in progress.
func (p *IndexProgress) IsIndexing() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.status == StatusIndexing
}

// Snapshot returns an immutable copy of the current progress state.
func (p *IndexProgress) Snapshot() IndexProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var progressPct float64
	if p.filesTotal > 0 {
		progressPct = float64(p.filesProcessed) / float64(p.filesTotal) * 100.0
	}

	return IndexProgressSnapshot{
		Status:         string(p.status),
		Stage:          string(p.stage),
		CurrentFile:    p.currentFile,
		FilesTotal:     p.filesTotal,
		FilesProcessed: p.filesProcessed,
		FilesSkipped:   p.filesSkipped,
		FilesFailed:    p.filesFailed,
		ChunksIndexed:  p.chunksIndexed,
		ProgressPct:    progressPct,
		ElapsedSeconds: int(time.Since(p.startTime).Seconds()),
		ErrorMessage:   p.errorMessage,
	}
}
