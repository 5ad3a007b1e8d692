// Package narrative holds the narrative engine port used by the dialogue
// session and a small scripted runtime that plays compiled story assets.
//
// A story asset is a graph of named knots. Each knot is an ordered list of
// steps; a step yields one line of text with its tags and may offer choices
// or divert to another knot. Assets are YAML; JSON assets parse the same way.
//
//	start: intro
//	knots:
//	  intro:
//	    - text: "Hi!"
//	      tags: ["speaker:senku", "senku:active"]
//	    - text: "Which way?"
//	      choices:
//	        - text: Left
//	          divert: left
//	  left:
//	    - text: "Left it is."
package narrative

import (
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// End is the divert target that stops the story.
const End = "END"

const defaultStartKnot = "start"

var (
	ErrEmptyAsset     = errors.New("narrative asset is empty")
	ErrUnknownKnot    = errors.New("unknown knot")
	ErrCannotContinue = errors.New("story cannot continue")
	ErrInvalidChoice  = errors.New("invalid choice index")
)

// Asset is an opaque compiled story handed to the engine.
type Asset struct {
	Name string
	Data []byte
}

// Script is the decoded form of a story asset.
type Script struct {
	Start string            `yaml:"start" json:"start"`
	Knots map[string][]Step `yaml:"knots" json:"knots"`
}

// Step is one line of a knot.
type Step struct {
	Text    string       `yaml:"text" json:"text"`
	Tags    []string     `yaml:"tags,omitempty" json:"tags,omitempty"`
	Choices []ChoiceSpec `yaml:"choices,omitempty" json:"choices,omitempty"`
	Divert  string       `yaml:"divert,omitempty" json:"divert,omitempty"`
}

// ChoiceSpec is an authored choice and the knot it leads to.
type ChoiceSpec struct {
	Text   string `yaml:"text" json:"text"`
	Divert string `yaml:"divert" json:"divert"`
}

// ParseScript decodes and validates a story asset.
func ParseScript(data []byte) (*Script, error) {
	if len(data) == 0 {
		return nil, ErrEmptyAsset
	}

	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse story: %w", err)
	}
	if s.Start == "" {
		s.Start = defaultStartKnot
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that the start knot and every divert target exist.
func (s *Script) Validate() error {
	if _, ok := s.Knots[s.Start]; !ok {
		return fmt.Errorf("start knot %q: %w", s.Start, ErrUnknownKnot)
	}

	var errs []error
	for _, name := range s.KnotNames() {
		for i, step := range s.Knots[name] {
			if err := s.checkTarget(step.Divert); err != nil {
				errs = append(errs, fmt.Errorf("knot %q step %d divert: %w", name, i, err))
			}
			for j, c := range step.Choices {
				if c.Divert == "" {
					errs = append(errs, fmt.Errorf("knot %q step %d choice %d has no divert: %w", name, i, j, ErrUnknownKnot))
					continue
				}
				if err := s.checkTarget(c.Divert); err != nil {
					errs = append(errs, fmt.Errorf("knot %q step %d choice %d: %w", name, i, j, err))
				}
			}
		}
	}
	return errors.Join(errs...)
}

func (s *Script) checkTarget(target string) error {
	if target == "" || target == End {
		return nil
	}
	if _, ok := s.Knots[target]; !ok {
		return fmt.Errorf("%q: %w", target, ErrUnknownKnot)
	}
	return nil
}

// KnotNames returns the knot names in a stable order.
func (s *Script) KnotNames() []string {
	names := make([]string, 0, len(s.Knots))
	for name := range s.Knots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
