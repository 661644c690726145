package ui

import (
	"sync"
	"time"
)

// etaSmoothing weights a new ETA estimate against the previous one.
const etaSmoothing = 0.3

// ProgressTracker holds the latest progress event plus timing. It is safe
// for concurrent use.
type ProgressTracker struct {
	mu         sync.Mutex
	event      ProgressEvent
	start      time.Time
	stageStart time.Time
	lastETA    time.Duration
	errors     []ErrorEvent
}

// ProgressStats is a snapshot of a ProgressTracker.
type ProgressStats struct {
	ProgressEvent
	Fraction float64
	ETA      time.Duration
	Elapsed  time.Duration
	Errors   int
}

// NewProgressTracker creates a tracker starting at StageScanning.
func NewProgressTracker() *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{start: now, stageStart: now}
}

// Apply records an update. Leaving the scan restarts ETA estimation.
func (p *ProgressTracker) Apply(ev ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.event.Stage == StageScanning && ev.Stage != StageScanning {
		p.stageStart = time.Now()
		p.lastETA = 0
	}
	p.event = ev
}

// AddError records a failed file.
func (p *ProgressTracker) AddError(ev ErrorEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors = append(p.errors, ev)
}

// Errors returns the recorded failures.
func (p *ProgressTracker) Errors() []ErrorEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ErrorEvent(nil), p.errors...)
}

// Stats returns the current snapshot.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	var frac float64
	if p.event.Total > 0 {
		frac = min(float64(p.event.Current)/float64(p.event.Total), 1)
	}
	return ProgressStats{
		ProgressEvent: p.event,
		Fraction:      frac,
		ETA:           p.eta(frac),
		Elapsed:       time.Since(p.start),
		Errors:        len(p.errors),
	}
}

// eta extrapolates from progress since scanning finished, smoothed so that
// one slow document does not make the estimate jump. Must hold p.mu.
func (p *ProgressTracker) eta(frac float64) time.Duration {
	if frac <= 0 || frac >= 1 {
		return 0
	}
	elapsed := time.Since(p.stageStart)
	raw := time.Duration(float64(elapsed)/frac) - elapsed
	if raw < 0 {
		return 0
	}
	if p.lastETA == 0 {
		p.lastETA = raw
		return raw
	}
	p.lastETA = time.Duration(etaSmoothing*float64(raw) + (1-etaSmoothing)*float64(p.lastETA))
	return p.lastETA
}
