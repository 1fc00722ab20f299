package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"reposcope/internal/rag"
	"reposcope/internal/session"
)

// askModel is the question prompt shown in intent and the progress shown
// in analyze.
type askModel struct {
	input   textinput.Model
	spinner spinner.Model
}

func newAskModel() askModel {
	ti := textinput.New()
	ti.Placeholder = "Ask a question about this repository..."
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle
	return askModel{input: ti, spinner: sp}
}

// answersMsg is sent when a question has been answered.
type answersMsg struct {
	answers []rag.Answer
	err     error
}

func runAsk(b Backend, question string) tea.Cmd {
	return func() tea.Msg {
		answers, err := b.Ask(context.Background(), question)
		return answersMsg{answers: answers, err: err}
	}
}

func (m askModel) intentView(s *session.Session, width int) string {
	m.input.Width = max(width-4, 20)
	out := "\n"
	out += titleStyle.Render("  Ask") + "\n"
	out += subtitleStyle.Render("  "+s.Root) + "\n\n"
	if s.Err != nil {
		out += errorStyle.Render("  Last question failed: "+s.Err.Error()) + "\n\n"
	}
	out += "  " + m.input.View() + "\n\n"
	out += helpStyle.Render("  Enter ask • Esc change repository • Ctrl+C quit") + "\n"
	return out
}

func (m askModel) analyzeView(s *session.Session) string {
	out := "\n"
	out += titleStyle.Render("  Analyzing") + "\n\n"
	out += intentStyle.Render("  "+s.Question) + "\n\n"
	out += "  " + m.spinner.View() + " " + dimStyle.Render("Decomposing, searching and explaining...") + "\n"
	return out
}
