package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"reposcope/internal/rag"
	"reposcope/internal/session"
)

// learnModel shows one answer at a time.
type learnModel struct {
	viewport viewport.Model
	renderer *glamour.TermRenderer
	width    int
}

func (m *learnModel) resize(width, height int) {
	m.width = width
	// Header (2 lines) and status bar (1 line).
	m.viewport = viewport.New(width, max(height-3, 5))
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width-2, 20)),
	)
	if err == nil {
		m.renderer = r
	}
}

func (m *learnModel) show(s *session.Session) {
	a, ok := s.Current()
	if !ok {
		m.viewport.SetContent(dimStyle.Render("No intents were found in the question."))
		return
	}
	m.viewport.SetContent(m.renderAnswer(a))
	m.viewport.GotoTop()
}

func (m learnModel) renderMarkdown(content string) string {
	if m.renderer == nil {
		return bodyStyle.Render(content)
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return bodyStyle.Render(content)
	}
	return strings.TrimRight(rendered, "\n")
}

func (m learnModel) renderAnswer(a rag.Answer) string {
	var sb strings.Builder
	conf := string(a.Result.Confidence)
	style, ok := confidenceStyles[conf]
	if !ok {
		style = dimStyle
	}
	fmt.Fprintf(&sb, "%s %s %s\n\n",
		dimStyle.Render("mode: "+string(a.Search.Mode)+" •"),
		dimStyle.Render("grounding: "+string(a.Search.Assessment.Reason)+" •"),
		style.Render("confidence: "+conf),
	)
	sb.WriteString(m.renderMarkdown(a.Result.Explanation))
	sb.WriteString("\n")
	return sb.String()
}

func (m learnModel) View(s *session.Session) string {
	cur, total := s.Position()
	title := "No answer"
	if a, ok := s.Current(); ok {
		title = fmt.Sprintf("Intent %d/%d: %s", cur, total, a.Intent.Text)
	}
	statusBar := statusBarStyle.
		Width(m.width).
		Render("reposcope • ←/→ intents • ↑/↓ scroll • Enter ask another • u change repository • q quit")

	return lipgloss.JoinVertical(
		lipgloss.Left,
		intentStyle.Render(title),
		"",
		m.viewport.View(),
		statusBar,
	)
}
