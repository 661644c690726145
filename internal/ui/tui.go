package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// TUIRenderer draws a live progress panel with bubbletea.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	tracker *ProgressTracker
	model   *indexModel
	program *tea.Program
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewTUIRenderer creates a TUI renderer. It fails when the output is not
// a terminal.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}
	tracker := NewProgressTracker()
	return &TUIRenderer{
		cfg:     cfg,
		tracker: tracker,
		model:   newIndexModel(tracker, cfg.Folder, GetStyles(cfg.NoColor), cfg.OnInterrupt),
		done:    make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.program != nil {
		return nil
	}

	ctx, r.cancel = context.WithCancel(ctx)
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}
	r.program = tea.NewProgram(r.model, opts...)

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return nil
}

// UpdateProgress implements Renderer.
func (r *TUIRenderer) UpdateProgress(ev ProgressEvent) {
	r.tracker.Apply(ev)
	r.send(progressMsg{})
}

// AddError implements Renderer.
func (r *TUIRenderer) AddError(ev ErrorEvent) {
	r.tracker.AddError(ev)
	r.send(progressMsg{})
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(stats CompletionStats) {
	r.send(completeMsg(stats))
}

func (r *TUIRenderer) send(msg tea.Msg) {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Stop implements Renderer. It waits briefly for the final frame.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p == nil {
		return nil
	}

	select {
	case <-r.done:
	case <-time.After(500 * time.Millisecond):
		p.Quit()
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
		}
	}
	if r.cancel != nil {
		r.cancel()
	}
	return nil
}

type progressMsg struct{}
type completeMsg CompletionStats
type tickMsg time.Time

// indexModel is the bubbletea model for an indexing run.
type indexModel struct {
	tracker   *ProgressTracker
	folder    string
	styles    Styles
	interrupt func()
	spinner  spinner.Model
	bar      progress.Model
	width    int
	complete bool
	stats    CompletionStats
	quitting bool
}

func newIndexModel(tracker *ProgressTracker, folder string, styles Styles, interrupt func()) *indexModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Accent

	return &indexModel{
		tracker:   tracker,
		folder:    folder,
		styles:    styles,
		interrupt: interrupt,
		spinner:   s,
		bar: progress.New(
			progress.WithSolidFill(ColorAccent),
			progress.WithWidth(40),
			progress.WithoutPercentage(),
		),
		width: 80,
	}
}

// Init implements tea.Model.
func (m *indexModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model.
func (m *indexModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// The terminal is in raw mode, so ctrl+c arrives here rather than
		// as a signal. The run is cancelled and the view stays up until it
		// reports completion.
		if msg.String() == "ctrl+c" && !m.quitting {
			m.quitting = true
			if m.interrupt != nil {
				m.interrupt()
			} else {
				return m, tea.Quit
			}
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(20, msg.Width-30)
	case completeMsg:
		m.complete = true
		m.stats = CompletionStats(msg)
		return m, tea.Quit
	case tickMsg:
		return m, tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *indexModel) View() string {
	if m.complete {
		return m.viewComplete()
	}
	if m.quitting {
		return "Cancelling...\n"
	}

	st := m.tracker.Stats()
	width := max(40, m.width-4)

	lines := []string{m.viewStages(st.Stage)}
	if st.Total == 0 {
		lines = append(lines, m.spinner.View()+" "+m.styles.Label.Render("Looking for documents..."))
	} else {
		pct := m.styles.Accent.Render(fmt.Sprintf("%3.0f%%", st.Fraction*100))
		lines = append(lines, m.bar.ViewAs(st.Fraction)+"  "+pct)
		counts := fmt.Sprintf("%d / %d files  •  %d chunks", st.Current, st.Total, st.Chunks)
		if st.Skipped > 0 {
			counts += fmt.Sprintf("  •  %d unchanged", st.Skipped)
		}
		if st.ETA > 0 {
			counts += "  •  ETA " + formatDuration(st.ETA)
		}
		lines = append(lines, m.styles.Label.Render(counts))
	}
	if st.CurrentFile != "" {
		lines = append(lines, m.styles.Dim.Render(truncatePath(st.CurrentFile, width-4)))
	}
	if st.Errors > 0 {
		lines = append(lines, m.styles.Warning.Render(fmt.Sprintf("%d files could not be read", st.Errors)))
	}

	title := "docfinder"
	if m.folder != "" {
		title += " • " + m.folder
	}
	panel := m.styles.Panel.Width(width).Render(strings.Join(lines, "\n"))
	return m.styles.Header.Render(title) + "\n" + panel + "\n" + m.styles.Dim.Render("ctrl+c to stop (indexed files are kept)") + "\n"
}

func (m *indexModel) viewStages(current Stage) string {
	stages := []Stage{StageScanning, StageExtracting, StageEmbedding, StagePersisting}
	parts := make([]string, 0, len(stages))
	for _, s := range stages {
		switch {
		case s < current:
			parts = append(parts, m.styles.Success.Render("● "+s.String()))
		case s == current:
			parts = append(parts, m.styles.Accent.Render(m.spinner.View()+" "+s.String()))
		default:
			parts = append(parts, m.styles.Dim.Render("○ "+s.String()))
		}
	}
	return strings.Join(parts, m.styles.Dim.Render(" → "))
}

func (m *indexModel) viewComplete() string {
	s := m.stats
	head := m.styles.Success.Render("✓ Index up to date")
	if s.Cancelled {
		head = m.styles.Warning.Render("Indexing cancelled; processed files are kept")
	}
	label := m.styles.Label.Render
	value := m.styles.Accent.Render

	lines := []string{
		head,
		"",
		fmt.Sprintf("%s %s", label("Indexed:  "), value(fmt.Sprintf("%d files, %d chunks", s.Indexed, s.Chunks))),
		fmt.Sprintf("%s %s", label("Unchanged:"), value(fmt.Sprintf("%d", s.Skipped))),
		fmt.Sprintf("%s %s", label("Removed:  "), value(fmt.Sprintf("%d", s.Removed))),
		fmt.Sprintf("%s %s", label("Duration: "), value(formatDuration(s.Duration))),
	}
	if s.Failed > 0 {
		lines = append(lines, "", m.styles.Error.Render(fmt.Sprintf("✗ %d files failed", s.Failed)))
		for _, e := range m.tracker.Errors() {
			lines = append(lines, m.styles.Dim.Render("  "+truncatePath(e.File, max(40, m.width-12))+" ("+e.Kind+")"))
		}
	}
	return m.styles.Panel.Width(max(40, m.width-4)).Render(strings.Join(lines, "\n")) + "\n"
}

// formatDuration rounds d for display.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		if s := int(d.Seconds()) % 60; s != 0 {
			return fmt.Sprintf("%dm %ds", int(d.Minutes()), s)
		}
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// truncatePath shortens path from the left, keeping the file name.
func truncatePath(path string, maxLen int) string {
	r := []rune(path)
	if maxLen < 4 || len(r) <= maxLen {
		return path
	}
	return "..." + string(r[len(r)-maxLen+3:])
}

var _ Renderer = (*TUIRenderer)(nil)
