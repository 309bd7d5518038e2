// Package tui shows a packaging run in the terminal: a spinner, the most
// recent log lines, and a final success or error box.
package tui

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// MaxLogLines is how many log lines stay visible under the spinner.
const MaxLogLines = 10

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4ECDC4")).
			MarginBottom(1)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	successBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#95E1A3")).
			Padding(1, 2)

	errorBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF6B6B")).
			Padding(1, 2)
)

// Job does the work while the view is shown. Lines written to logs appear
// under the spinner. The summary is shown in the success box.
type Job func(ctx context.Context, logs io.Writer) (summary string, err error)

type (
	// LogMsg carries one log line from the job.
	LogMsg struct {
		Line string
	}

	// DoneMsg is sent when the job returns.
	DoneMsg struct {
		Summary string
		Err     error
	}
)

// Model is the Bubble Tea model for a single job.
type Model struct {
	title      string
	spinner    spinner.Model
	logs       []string
	lines      <-chan string
	job        tea.Cmd
	cancel     context.CancelFunc
	cancelling bool
	done       bool
	summary    string
	err        error
}

// NewModel creates a model that runs job when started.
func NewModel(title string, job Job) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))

	ctx, cancel := context.WithCancel(context.Background())
	lines := make(chan string, 64)

	return Model{
		title:   title,
		spinner: sp,
		logs:    make([]string, 0, MaxLogLines),
		lines:   lines,
		job:     runJob(ctx, job, lines),
		cancel:  cancel,
	}
}

// runJob runs job in a tea.Cmd. The channel is closed once the job's output
// has been flushed, so no LogMsg is produced after the job returns.
func runJob(ctx context.Context, job Job, lines chan<- string) tea.Cmd {
	return func() tea.Msg {
		w := &lineWriter{emit: func(line string) { lines <- line }}
		summary, err := job(ctx, w)
		w.Flush()
		close(lines)
		return DoneMsg{Summary: summary, Err: err}
	}
}

func waitForLine(lines <-chan string) tea.Cmd {
	return func() tea.Msg {
		line, ok := <-lines
		if !ok {
			return nil
		}
		return LogMsg{Line: line}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.job, waitForLine(m.lines))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && !m.done {
			// the job sees the cancelled context and returns its error
			m.cancelling = true
			m.cancel()
		}
		return m, nil

	case LogMsg:
		m.logs = append(m.logs, msg.Line)
		if len(m.logs) > MaxLogLines {
			m.logs = m.logs[len(m.logs)-MaxLogLines:]
		}
		return m, waitForLine(m.lines)

	case DoneMsg:
		m.done = true
		m.summary = msg.Summary
		m.err = msg.Err
		m.cancel()
		return m, tea.Quit

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")

	if m.done {
		if m.err != nil {
			b.WriteString(errorBox.Render(errorStyle.Render("Packaging failed") + "\n\n" + m.err.Error()))
		} else {
			b.WriteString(successBox.Render("Packaging complete\n\n" + m.summary))
		}
		b.WriteString("\n")
		return b.String()
	}

	status := "working..."
	if m.cancelling {
		status = warningStyle.Render("cancelling...")
	}
	b.WriteString(m.spinner.View() + " " + status + "\n\n")
	for _, line := range m.logs {
		b.WriteString(dimStyle.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n" + dimStyle.Render("ctrl+c: cancel") + "\n")
	return b.String()
}

// Err returns the job's error once the model is done.
func (m Model) Err() error { return m.err }

// Run shows the view while job runs and returns the job's error.
func Run(title string, job Job, opts ...tea.ProgramOption) error {
	p := tea.NewProgram(NewModel(title, job), opts...)
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("running terminal view: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return fmt.Errorf("unexpected model type %T", final)
	}
	return m.Err()
}

// lineWriter splits written bytes into lines. Safe for concurrent use.
type lineWriter struct {
	mu   sync.Mutex
	buf  bytes.Buffer
	emit func(string)
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		i := bytes.IndexByte(w.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := string(w.buf.Next(i + 1))
		w.emit(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

// Flush emits a trailing partial line, if any.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}
