package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"reposcope/internal/index"
)

type indexingModel struct {
	spinner spinner.Model
	phase   string
	current int
	total   int
	done    bool
	stats   index.Stats
	err     error
}

func newIndexingModel() indexingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle
	return indexingModel{spinner: sp, phase: "Walking files..."}
}

// indexDoneMsg is sent when indexing completes.
type indexDoneMsg struct {
	stats index.Stats
	err   error
}

// indexProgressMsg is sent from the indexing goroutine through the program.
type indexProgressMsg struct {
	phase   string
	current int
	total   int
}

func runIndex(cfg Config, model string) tea.Cmd {
	return func() tea.Msg {
		stats, err := cfg.Backend.Index(context.Background(), model, func(phase string, current, total int) {
			if cfg.program != nil && cfg.program.p != nil {
				cfg.program.p.Send(indexProgressMsg{phase: phase, current: current, total: total})
			}
		})
		return indexDoneMsg{stats: stats, err: err}
	}
}

func (m indexingModel) Update(msg tea.Msg) (indexingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case indexDoneMsg:
		m.done = true
		m.stats = msg.stats
		m.err = msg.err
	case indexProgressMsg:
		m.phase = msg.phase
		m.current = msg.current
		m.total = msg.total
	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m indexingModel) View() string {
	s := "\n"
	s += titleStyle.Render("  Indexing") + "\n\n"

	if m.done {
		if m.err != nil {
			s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
			s += dimStyle.Render("  Enter to retry • q to quit") + "\n"
			return s
		}
		s += successStyle.Render("  ✓ Indexing complete") + "\n\n"
		s += fmt.Sprintf("  Files:     %d total, %d indexed, %d skipped\n",
			m.stats.FilesTotal, m.stats.FilesIndexed, m.stats.FilesSkipped)
		s += fmt.Sprintf("  Chunks:    %d\n", m.stats.ChunksTotal)
		s += fmt.Sprintf("  Summaries: %d reused, %d failed\n", m.stats.SummariesReused, m.stats.SummariesFailed)
		s += "\n"
		s += dimStyle.Render("  Enter to start asking") + "\n"
		return s
	}

	s += fmt.Sprintf("  %s %s\n", m.spinner.View(), m.phase)
	if m.total > 0 {
		s += fmt.Sprintf("  %d / %d\n", m.current, m.total)
	}
	s += "\n"
	s += dimStyle.Render("  This may take a while for large codebases...") + "\n"
	return s
}
