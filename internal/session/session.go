// Package session models the interactive flow as a state machine: pick a
// repository (upload), ask a question (intent), wait for answers (analyze),
// and read them (learn).
package session

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"reposcope/internal/index"
	"reposcope/internal/rag"
)

// State is a step of the flow.
type State string

const (
	StateUpload  State = "upload"
	StateIntent  State = "intent"
	StateAnalyze State = "analyze"
	StateLearn   State = "learn"
)

var transitions = map[State][]State{
	StateUpload:  {StateIntent},
	StateIntent:  {StateAnalyze, StateUpload},
	StateAnalyze: {StateLearn, StateIntent},
	StateLearn:   {StateIntent, StateUpload},
}

var (
	// ErrTransition is returned for a move the current state does not allow.
	ErrTransition = errors.New("invalid session transition")
	// ErrEmptyQuestion is returned when submitting a blank question.
	ErrEmptyQuestion = errors.New("question is empty")
)

// Session is the context every step handler receives. The zero value is
// not usable; call New.
type Session struct {
	ID    string
	state State

	Root     string
	Stats    index.Stats
	Question string
	Answers  []rag.Answer
	current  int
	// Err is the failure of the last analysis, cleared by the next submit.
	Err error
}

// New starts a session in the upload state.
func New() *Session {
	return &Session{ID: uuid.NewString(), state: StateUpload}
}

// State returns the current step.
func (s *Session) State() State { return s.state }

// CanMove reports whether next is reachable from the current state.
func (s *Session) CanMove(next State) bool {
	return slices.Contains(transitions[s.state], next)
}

func (s *Session) move(next State) error {
	if !s.CanMove(next) {
		return fmt.Errorf("%w: %s -> %s", ErrTransition, s.state, next)
	}
	s.state = next
	return nil
}

// Indexed records the indexed repository and moves to intent.
func (s *Session) Indexed(root string, stats index.Stats) error {
	if err := s.move(StateIntent); err != nil {
		return err
	}
	s.Root = root
	s.Stats = stats
	return nil
}

// Submit records a question and moves to analyze.
func (s *Session) Submit(question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return ErrEmptyQuestion
	}
	if err := s.move(StateAnalyze); err != nil {
		return err
	}
	s.Question = question
	s.Answers = nil
	s.current = 0
	s.Err = nil
	return nil
}

// Analyzed stores the answers and moves to learn.
func (s *Session) Analyzed(answers []rag.Answer) error {
	if err := s.move(StateLearn); err != nil {
		return err
	}
	s.Answers = answers
	s.current = 0
	return nil
}

// Failed records an analysis failure and returns to intent.
func (s *Session) Failed(err error) error {
	if s.state != StateAnalyze {
		return fmt.Errorf("%w: failure outside analyze", ErrTransition)
	}
	if err := s.move(StateIntent); err != nil {
		return err
	}
	s.Err = err
	return nil
}

// AskAnother returns to intent for a new question about the same
// repository.
func (s *Session) AskAnother() error {
	if s.state != StateLearn {
		return fmt.Errorf("%w: %s -> %s", ErrTransition, s.state, StateIntent)
	}
	return s.move(StateIntent)
}

// ChangeRepository returns to upload, forgetting the repository and any
// answers.
func (s *Session) ChangeRepository() error {
	if err := s.move(StateUpload); err != nil {
		return err
	}
	s.Root = ""
	s.Stats = index.Stats{}
	s.Question = ""
	s.Answers = nil
	s.current = 0
	s.Err = nil
	return nil
}

// Current returns the answer being read in learn.
func (s *Session) Current() (rag.Answer, bool) {
	if s.state != StateLearn || len(s.Answers) == 0 {
		return rag.Answer{}, false
	}
	return s.Answers[s.current], true
}

// Position returns the 1-based index of the current answer and the total.
func (s *Session) Position() (int, int) {
	if len(s.Answers) == 0 {
		return 0, 0
	}
	return s.current + 1, len(s.Answers)
}

// Next moves to the following answer, reporting whether it moved.
func (s *Session) Next() bool {
	if s.state != StateLearn || s.current+1 >= len(s.Answers) {
		return false
	}
	s.current++
	return true
}

// Prev moves to the previous answer, reporting whether it moved.
func (s *Session) Prev() bool {
	if s.state != StateLearn || s.current == 0 {
		return false
	}
	s.current--
	return true
}
