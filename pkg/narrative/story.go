package narrative

import "fmt"

// Engine is the narrative engine port: feed it an asset, then walk it line
// by line. The dialogue session only ever talks to this interface.
type Engine interface {
	CanContinue() bool
	Continue() (string, error)
	CurrentTags() []string
	CurrentChoices() []Choice
	ChooseChoiceIndex(index int) error
}

// Opener creates an engine for an asset.
type Opener func(asset Asset) (Engine, error)

// Choice is a pending choice as reported by the engine.
type Choice struct {
	Index int
	Text  string
}

// Story is the scripted runtime for Script assets.
type Story struct {
	script *Script

	knot  string
	next  int
	ended bool

	tags    []string
	choices []Choice
	pending []ChoiceSpec
}

var _ Engine = (*Story)(nil)

// Open parses an asset and positions a story at its start knot.
func Open(asset Asset) (Engine, error) {
	script, err := ParseScript(asset.Data)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", asset.Name, err)
	}
	return NewStory(script), nil
}

// NewStory starts a story from an already parsed script.
func NewStory(script *Script) *Story {
	return &Story{
		script: script,
		knot:   script.Start,
	}
}

// CanContinue reports whether another line is available without a choice.
func (s *Story) CanContinue() bool {
	if s.ended || len(s.choices) > 0 {
		return false
	}
	return s.next < len(s.script.Knots[s.knot])
}

// Continue returns the next line and updates the current tags and choices.
func (s *Story) Continue() (string, error) {
	if !s.CanContinue() {
		return "", ErrCannotContinue
	}

	step := s.script.Knots[s.knot][s.next]
	s.next++

	s.tags = append([]string(nil), step.Tags...)
	s.choices = nil
	s.pending = nil
	for i, c := range step.Choices {
		s.choices = append(s.choices, Choice{Index: i, Text: c.Text})
		s.pending = append(s.pending, c)
	}

	if step.Divert != "" {
		s.divert(step.Divert)
	}
	return step.Text, nil
}

// CurrentTags returns the tags of the last line.
func (s *Story) CurrentTags() []string {
	return s.tags
}

// CurrentChoices returns the choices waiting for a selection.
func (s *Story) CurrentChoices() []Choice {
	return s.choices
}

// ChooseChoiceIndex commits a pending choice and follows its divert.
func (s *Story) ChooseChoiceIndex(index int) error {
	if index < 0 || index >= len(s.pending) {
		return fmt.Errorf("%w: %d of %d", ErrInvalidChoice, index, len(s.pending))
	}
	target := s.pending[index].Divert
	s.choices = nil
	s.pending = nil
	s.divert(target)
	return nil
}

// Position returns the current knot and the index of the next step.
func (s *Story) Position() (string, int) {
	return s.knot, s.next
}

func (s *Story) divert(target string) {
	if target == End {
		s.ended = true
		return
	}
	s.knot = target
	s.next = 0
}
