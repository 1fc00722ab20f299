// Package tui is the interactive front end. Every screen is a view of the
// current session state; key handlers move the session through its
// transitions.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"reposcope/internal/index"
	"reposcope/internal/llm"
	"reposcope/internal/rag"
	"reposcope/internal/session"
)

// Backend does the work behind the screens.
type Backend interface {
	// Status reports the stored index of the project.
	Status(ctx context.Context) (IndexStatus, error)
	// Models lists models the user may pick before indexing. A nil list
	// skips the choice.
	Models(ctx context.Context) ([]llm.OllamaModel, error)
	// Index rebuilds the index, using model when it is not empty.
	Index(ctx context.Context, model string, progress index.ProgressFunc) (index.Stats, error)
	// Ask answers a question against the current index.
	Ask(ctx context.Context, question string) ([]rag.Answer, error)
}

// programRef lets background goroutines send messages. It is set after
// tea.NewProgram returns but before Run.
type programRef struct {
	p *tea.Program
}

// Config holds what the CLI layer passes in.
type Config struct {
	Root    string
	Backend Backend

	program *programRef
}

// uploadStep is the screen shown while the session is in upload.
type uploadStep int

const (
	stepWelcome uploadStep = iota
	stepSetup
	stepIndexing
)

// Model is the top-level Bubble Tea model.
type Model struct {
	cfg    Config
	sess   *session.Session
	step   uploadStep
	width  int
	height int

	welcome  welcomeModel
	setup    setupModel
	indexing indexingModel
	ask      askModel
	learn    learnModel
}

// New creates a TUI model for a fresh session.
func New(cfg Config) Model {
	m := Model{
		cfg:  cfg,
		sess: session.New(),
		ask:  newAskModel(),
	}
	m.learn.viewport = viewport.New(80, 20)
	return m
}

// Session exposes the session driving the screens.
func (m Model) Session() *session.Session { return m.sess }

func (m Model) Init() tea.Cmd {
	return checkIndex(m.cfg.Backend)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.learn.resize(msg.Width, msg.Height)
		if m.sess.State() == session.StateLearn {
			m.learn.show(m.sess)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.sess.State() != session.StateIntent {
				return m, tea.Quit
			}
		}
	}

	switch m.sess.State() {
	case session.StateUpload:
		return m.updateUpload(msg)
	case session.StateIntent:
		return m.updateIntent(msg)
	case session.StateAnalyze:
		return m.updateAnalyze(msg)
	case session.StateLearn:
		return m.updateLearn(msg)
	}
	return m, nil
}

func isKey(msg tea.Msg, keys ...string) bool {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return false
	}
	for _, want := range keys {
		if k.String() == want {
			return true
		}
	}
	return false
}

func (m Model) updateUpload(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.step {
	case stepWelcome:
		m.welcome, cmd = m.welcome.Update(msg)
		if !m.welcome.ready {
			return m, cmd
		}
		if isKey(msg, "enter") && m.welcome.status.Ready {
			st := m.welcome.status
			return m.enterIntent(index.Stats{FilesIndexed: st.Files, ChunksTotal: st.Chunks})
		}
		if isKey(msg, "enter", "r") {
			m.step = stepSetup
			m.setup = setupModel{}
			return m, fetchModels(m.cfg.Backend)
		}

	case stepSetup:
		m.setup, cmd = m.setup.Update(msg)
		if isKey(msg, "enter") && m.setup.loaded {
			m.step = stepIndexing
			m.indexing = newIndexingModel()
			return m, tea.Batch(m.indexing.spinner.Tick, runIndex(m.cfg, m.setup.selected()))
		}

	case stepIndexing:
		m.indexing, cmd = m.indexing.Update(msg)
		if isKey(msg, "enter") && m.indexing.done {
			if m.indexing.err != nil {
				m.step = stepSetup
				return m, fetchModels(m.cfg.Backend)
			}
			return m.enterIntent(m.indexing.stats)
		}
	}
	return m, cmd
}

func (m Model) enterIntent(stats index.Stats) (tea.Model, tea.Cmd) {
	if err := m.sess.Indexed(m.cfg.Root, stats); err != nil {
		return m, nil
	}
	m.ask.input.Reset()
	return m, textinput.Blink
}

func (m Model) updateIntent(msg tea.Msg) (tea.Model, tea.Cmd) {
	if isKey(msg, "esc") {
		if err := m.sess.ChangeRepository(); err != nil {
			return m, nil
		}
		m.step = stepWelcome
		m.welcome = welcomeModel{}
		return m, checkIndex(m.cfg.Backend)
	}
	if isKey(msg, "enter") {
		question := m.ask.input.Value()
		if err := m.sess.Submit(question); err != nil {
			return m, nil
		}
		m.ask.input.Reset()
		return m, tea.Batch(m.ask.spinner.Tick, runAsk(m.cfg.Backend, m.sess.Question))
	}
	var cmd tea.Cmd
	m.ask.input, cmd = m.ask.input.Update(msg)
	return m, cmd
}

func (m Model) updateAnalyze(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case answersMsg:
		err := msg.err
		if err == nil && len(msg.answers) == 0 {
			err = errors.New("no answerable intent in the question")
		}
		if err != nil {
			_ = m.sess.Failed(err)
			return m, textinput.Blink
		}
		_ = m.sess.Analyzed(msg.answers)
		m.learn.show(m.sess)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.ask.spinner, cmd = m.ask.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateLearn(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch {
	case isKey(msg, "right", "l", "n"):
		if m.sess.Next() {
			m.learn.show(m.sess)
		}
		return m, nil
	case isKey(msg, "left", "h", "p"):
		if m.sess.Prev() {
			m.learn.show(m.sess)
		}
		return m, nil
	case isKey(msg, "enter", "a"):
		_ = m.sess.AskAnother()
		return m, textinput.Blink
	case isKey(msg, "u"):
		_ = m.sess.ChangeRepository()
		m.step = stepWelcome
		m.welcome = welcomeModel{}
		return m, checkIndex(m.cfg.Backend)
	}
	var cmd tea.Cmd
	m.learn.viewport, cmd = m.learn.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	switch m.sess.State() {
	case session.StateUpload:
		switch m.step {
		case stepSetup:
			return m.setup.View()
		case stepIndexing:
			return m.indexing.View()
		}
		return m.welcome.View(m.cfg.Root)
	case session.StateIntent:
		return m.ask.intentView(m.sess, m.width)
	case session.StateAnalyze:
		return m.ask.analyzeView(m.sess)
	case session.StateLearn:
		return m.learn.View(m.sess)
	}
	return ""
}

// Run starts the TUI program.
func Run(cfg Config) error {
	ref := &programRef{}
	cfg.program = ref
	p := tea.NewProgram(New(cfg), tea.WithAltScreen())
	ref.p = p
	_, err := p.Run()
	return err
}
