package tui

import (
	"context"
	"fmt"
	"sync"
)

// Answer is one scripted reply for ScriptedPrompter.
type Answer struct {
	Text      string
	Confirmed bool

	// Cancel makes the prompt return ErrCancelled.
	Cancel bool
}

// ScriptedPrompter answers prompts from a fixed script for testing.
type ScriptedPrompter struct {
	mu      sync.Mutex
	answers []Answer
	asked   []string
}

// NewScriptedPrompter creates a prompter replying with answers in order.
func NewScriptedPrompter(answers ...Answer) *ScriptedPrompter {
	return &ScriptedPrompter{answers: answers}
}

func (s *ScriptedPrompter) next(title string) (Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.asked = append(s.asked, title)
	if len(s.answers) == 0 {
		return Answer{}, fmt.Errorf("unexpected prompt %q", title)
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	if a.Cancel {
		return Answer{}, ErrCancelled
	}
	return a, nil
}

func (s *ScriptedPrompter) Input(ctx context.Context, p InputPrompt) (string, error) {
	a, err := s.next(p.Title)
	if err != nil {
		return "", err
	}
	value := a.Text
	if value == "" {
		value = p.Default
	}
	if p.Validate != nil {
		if err := p.Validate(value); err != nil {
			return "", err
		}
	}
	return value, nil
}

func (s *ScriptedPrompter) Confirm(ctx context.Context, title string, def bool) (bool, error) {
	a, err := s.next(title)
	if err != nil {
		return false, err
	}
	return a.Confirmed, nil
}

func (s *ScriptedPrompter) Select(ctx context.Context, p SelectPrompt) (string, error) {
	a, err := s.next(p.Title)
	if err != nil {
		return "", err
	}
	for _, o := range p.Options {
		if o.Value == a.Text {
			return a.Text, nil
		}
	}
	return "", fmt.Errorf("%q is not an option of %q", a.Text, p.Title)
}

// Asked returns the titles of every prompt shown so far.
func (s *ScriptedPrompter) Asked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.asked...)
}

// Remaining reports how many scripted answers are unused.
func (s *ScriptedPrompter) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}
