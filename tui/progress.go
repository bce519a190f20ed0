package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/amorin/promptforge/generator"
	"github.com/amorin/promptforge/tui/styles"
)

// ProgressMsg reports how many requests have been generated so far
type ProgressMsg struct {
	Done  int
	Total int
}

// DoneMsg signals that the generation run finished
type DoneMsg struct {
	Summary *generator.Summary
	Err     error
}

// ProgressModel is a minimal TUI model for a generation run
type ProgressModel struct {
	styles  *styles.Styles
	spinner spinner.Model
	bar     progress.Model

	// Run description
	outputFile string
	total      int

	// State
	done      int
	width     int
	startedAt time.Time
	finished  bool
	cancelled bool
	summary   *generator.Summary
	err       error
}

// NewProgress creates a progress TUI for a run of total requests
func NewProgress(total int, outputFile string) ProgressModel {
	st := styles.NewStyles(styles.DefaultTheme)

	s := spinner.New(spinner.WithSpinner(spinner.Line))
	s.Style = st.Spinner

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return ProgressModel{
		styles:     st,
		spinner:    s,
		bar:        bar,
		outputFile: outputFile,
		total:      total,
		startedAt:  time.Now(),
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

		// Keep the bar inside the terminal with a small margin
		w := msg.Width - 6
		if w > 60 {
			w = 60
		}
		if w < 10 {
			w = 10
		}
		m.bar.Width = w
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		}
		return m, nil

	case ProgressMsg:
		m.done = msg.Done
		if msg.Total > 0 {
			cmd := m.bar.SetPercent(float64(msg.Done) / float64(msg.Total))
			return m, cmd
		}
		return m, nil

	case DoneMsg:
		m.finished = true
		m.done = m.total
		m.summary = msg.Summary
		m.err = msg.Err
		return m, tea.Quit

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd

	case spinner.TickMsg:
		if !m.finished {
			s, cmd := m.spinner.Update(msg)
			m.spinner = s
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

func (m ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("promptforge"))
	b.WriteString("\n\n")

	if m.finished {
		b.WriteString(m.finalView())
		return b.String()
	}

	if m.cancelled {
		b.WriteString(m.styles.Warning.Render("Cancelling..."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("%s Generating %d requests\n\n", m.spinner.View(), m.total))
	b.WriteString("  " + m.bar.View() + "\n\n")
	elapsed := time.Since(m.startedAt).Round(time.Second)
	b.WriteString(m.styles.Label.Render(fmt.Sprintf("  %d/%d requests in %s", m.done, m.total, elapsed)))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Help.Render("  esc or ctrl+c to cancel"))
	b.WriteString("\n")

	return b.String()
}

func (m ProgressModel) finalView() string {
	if m.err != nil {
		return m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	}

	var b strings.Builder
	b.WriteString(m.styles.Success.Render(fmt.Sprintf("Wrote %d requests to %s", m.total, m.outputFile)))
	b.WriteString("\n")

	if m.summary != nil {
		var lines []string
		lines = append(lines, m.summaryLine("multimodal", fmt.Sprintf("%d", m.summary.MultimodalRequests)))
		lines = append(lines, m.summaryLine("text only", fmt.Sprintf("%d", m.summary.TextRequests)))
		lines = append(lines, m.summaryLine("images", fmt.Sprintf("%d (%s detail)", m.summary.TotalImages, m.summary.Quality)))
		lines = append(lines, m.summaryLine("est. tokens", fmt.Sprintf("%d text + %d image", m.summary.TextTokens, m.summary.ImageTokens)))
		lines = append(lines, m.summaryLine("seed", fmt.Sprintf("%d", m.summary.Seed)))
		lines = append(lines, m.summaryLine("elapsed", fmt.Sprintf("%.1fs", float64(m.summary.ElapsedMs)/1000)))
		b.WriteString(m.styles.SummaryBox.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}

	return b.String()
}

func (m ProgressModel) summaryLine(label, value string) string {
	return m.styles.Label.Render(fmt.Sprintf("%-12s", label)) + " " + m.styles.Value.Render(value)
}

// Cancelled reports whether the user aborted the run
func (m ProgressModel) Cancelled() bool {
	return m.cancelled
}

// Err returns the error the run finished with, if any
func (m ProgressModel) Err() error {
	return m.err
}
