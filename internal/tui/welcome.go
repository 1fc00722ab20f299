package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// IndexStatus describes the stored index of the project.
type IndexStatus struct {
	Ready       bool
	Files       int
	Chunks      int
	StaleReason string
}

type welcomeModel struct {
	status IndexStatus
	err    error
	ready  bool // true once the check has completed
}

// checkIndexMsg is sent after checking the index status.
type checkIndexMsg struct {
	status IndexStatus
	err    error
}

func checkIndex(b Backend) tea.Cmd {
	return func() tea.Msg {
		st, err := b.Status(context.Background())
		return checkIndexMsg{status: st, err: err}
	}
}

func (m welcomeModel) Update(msg tea.Msg) (welcomeModel, tea.Cmd) {
	if msg, ok := msg.(checkIndexMsg); ok {
		m.status = msg.status
		m.err = msg.err
		m.ready = true
	}
	return m, nil
}

func (m welcomeModel) View(root string) string {
	s := "\n"
	s += titleStyle.Render("  ◆ reposcope") + "\n"
	s += subtitleStyle.Render("  Grounded answers about "+root) + "\n\n"

	if !m.ready {
		s += dimStyle.Render("  Checking index...") + "\n"
		return s
	}

	switch {
	case m.err != nil:
		s += errorStyle.Render("  ✗ "+m.err.Error()) + "\n"
	case m.status.Ready && m.status.StaleReason != "":
		s += warnStyle.Render("  ⚠ Index stale") + "\n"
		s += dimStyle.Render("    "+m.status.StaleReason) + "\n"
	case m.status.Ready:
		s += successStyle.Render(fmt.Sprintf("  ✓ Index ready (%d files, %d chunks)", m.status.Files, m.status.Chunks)) + "\n"
	default:
		s += warnStyle.Render("  ✗ No index found") + "\n"
	}

	s += "\n"
	if m.status.Ready {
		s += dimStyle.Render("  Enter to ask questions • r to re-index • q to quit") + "\n"
	} else {
		s += dimStyle.Render("  Enter to index this repository • q to quit") + "\n"
	}
	return s
}
