package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"reposcope/internal/llm"
)

// setupModel picks the completion model used for summaries and answers.
type setupModel struct {
	models []llm.OllamaModel
	cursor int
	loaded bool
	err    error
}

// fetchModelsMsg is sent when the installed models are known.
type fetchModelsMsg struct {
	models []llm.OllamaModel
	err    error
}

func fetchModels(b Backend) tea.Cmd {
	return func() tea.Msg {
		models, err := b.Models(context.Background())
		return fetchModelsMsg{models: models, err: err}
	}
}

func (m setupModel) Update(msg tea.Msg) (setupModel, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchModelsMsg:
		m.models = msg.models
		m.err = msg.err
		m.loaded = true
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.models)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

// selected returns the highlighted model name, or "" to keep the configured
// one.
func (m setupModel) selected() string {
	if m.cursor < len(m.models) {
		return m.models[m.cursor].Name
	}
	return ""
}

func (m setupModel) View() string {
	s := "\n"
	s += titleStyle.Render("  Choose a model") + "\n"
	s += subtitleStyle.Render("  Used for file summaries, reranking and explanations") + "\n\n"

	if !m.loaded {
		s += dimStyle.Render("  Loading models...") + "\n"
		return s
	}
	if m.err != nil {
		s += errorStyle.Render("  Could not list models: "+m.err.Error()) + "\n\n"
		s += dimStyle.Render("  Enter to index with the configured model") + "\n"
		return s
	}
	if len(m.models) == 0 {
		s += warnStyle.Render("  No completion models installed") + "\n\n"
		s += dimStyle.Render("  Enter to index without summaries") + "\n"
		return s
	}
	for i, model := range m.models {
		line := fmt.Sprintf("%s (%s)", model.Name, model.HumanSize())
		if i == m.cursor {
			s += selectedStyle.Render("  > "+line) + "\n"
		} else {
			s += listItemStyle.Render("    "+line) + "\n"
		}
	}
	s += "\n" + helpStyle.Render("  ↑/↓ select • Enter confirm") + "\n"
	return s
}
