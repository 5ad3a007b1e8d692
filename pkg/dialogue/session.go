package dialogue

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jwebster45206/dialogue-engine/pkg/narrative"
	"github.com/jwebster45206/dialogue-engine/pkg/schedule"
	"github.com/jwebster45206/dialogue-engine/pkg/typewriter"
)

// NoFocus means no choice slot is selected.
const NoFocus = -1

// Slot is one choice button.
type Slot struct {
	Visible bool
	Text    string
	Index   int // choice index reported by the engine
}

// Session plays one narrative asset from start to end.
type Session struct {
	id     uuid.UUID
	asset  string
	story  narrative.Engine
	d      *Director
	logger *slog.Logger

	state  State
	panel  bool
	line   string
	writer *typewriter.Typewriter

	slots    []Slot
	rendered int
	focus    int

	focusToken *schedule.Token
}

func newSession(d *Director, asset string, story narrative.Engine) *Session {
	id := uuid.New()
	s := &Session{
		id:     id,
		asset:  asset,
		story:  story,
		d:      d,
		logger: d.logger.With("session_id", id.String(), "asset", asset),
		state:  StateIdle,
		writer: typewriter.New(d.sched, d.cfg.TypingSpeed),
		slots:  make([]Slot, d.cfg.ChoiceSlots),
		focus:  NoFocus,
	}
	s.writer.OnStep = func(visible, total int) {
		s.emit(Event{Type: EventRevealStep, Visible: visible})
	}
	return s
}

// ID returns the session's unique id.
func (s *Session) ID() uuid.UUID { return s.id }

// Asset returns the name of the asset being played.
func (s *Session) Asset() string { return s.asset }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Focus returns the focused choice slot or NoFocus.
func (s *Session) Focus() int { return s.focus }

func (s *Session) start() {
	s.logger.Info("Dialogue started")
	s.panel = true
	s.line = ""
	s.hideChoices()
	s.state = StateRevealing
	s.emit(Event{Type: EventSessionStarted})
	s.advance()
}

// Continue moves to the next line. It only applies while the session waits
// for continue with no choices pending; otherwise the input is ignored and
// ErrNotAwaitingContinue is returned.
func (s *Session) Continue() error {
	if s.state != StateAwaitingContinue || len(s.story.CurrentChoices()) > 0 {
		return fmt.Errorf("%w: state %s", ErrNotAwaitingContinue, s.state)
	}
	s.advance()
	return nil
}

// Choose commits the choice shown in slot index and advances the story.
// Selecting outside the rendered slots, or when no choices are pending, is
// rejected without changing anything.
func (s *Session) Choose(index int) error {
	if s.state != StateAwaitingChoice {
		err := fmt.Errorf("%w: no choices pending (state %s)", ErrInvalidChoice, s.state)
		s.diagnose("Choice rejected", err)
		return err
	}
	if index < 0 || index >= s.rendered {
		err := fmt.Errorf("%w: index %d, %d choices shown", ErrInvalidChoice, index, s.rendered)
		s.diagnose("Choice rejected", err)
		return err
	}

	slot := s.slots[index]
	if err := s.story.ChooseChoiceIndex(slot.Index); err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidChoice, err)
		s.diagnose("Choice rejected by story", err)
		return err
	}

	s.logger.Debug("Choice made", "index", index, "text", slot.Text)
	s.focusToken.Cancel()
	s.hideChoices()
	s.emit(Event{Type: EventChoiceMade, Index: index, Choices: []string{slot.Text}})
	s.advance()
	return nil
}

// ChooseFocused commits the focused choice.
func (s *Session) ChooseFocused() error {
	return s.Choose(s.focus)
}

// MoveFocus moves the focused choice by delta, clamped to the shown slots.
func (s *Session) MoveFocus(delta int) {
	if s.state != StateAwaitingChoice || s.rendered == 0 {
		return
	}
	f := s.focus
	if f == NoFocus {
		f = 0
	} else {
		f += delta
	}
	s.focus = max(0, min(f, s.rendered-1))
}

// Skip fast-forwards the current reveal. It reports whether a reveal was in
// flight.
func (s *Session) Skip() bool {
	if s.state != StateRevealing {
		return false
	}
	return s.writer.Skip()
}

func (s *Session) advance() {
	if !s.story.CanContinue() {
		s.end("story exhausted")
		return
	}

	s.writer.Cancel()
	line, err := s.story.Continue()
	if err != nil {
		s.diagnose("Story failed to continue", err)
		s.end("story error")
		return
	}

	// An empty line with nothing after it is how a story ends on a line that
	// only carries side effects. Its tags are not dispatched.
	if line == "" && !s.story.CanContinue() {
		s.end("empty final line")
		return
	}

	lineTags := s.story.CurrentTags()
	if err := s.d.interp.Apply(lineTags); err != nil {
		s.emitErrors(err)
	}
	s.reveal(line, lineTags)
}

func (s *Session) reveal(line string, lineTags []string) {
	s.line = line
	s.hideChoices()
	s.state = StateRevealing
	s.emit(Event{Type: EventLineStarted, Line: line, Tags: lineTags})
	s.writer.Start(line, s.revealed)
}

func (s *Session) revealed() {
	s.emit(Event{Type: EventLineRevealed, Line: s.line})
	s.presentChoices()
}

func (s *Session) presentChoices() {
	choices := s.story.CurrentChoices()
	s.hideChoices()
	if len(choices) == 0 {
		s.state = StateAwaitingContinue
		return
	}

	if len(choices) > len(s.slots) {
		err := fmt.Errorf("%w: %d choices for %d slots", ErrChoiceOverflow, len(choices), len(s.slots))
		s.diagnose("More choices were given than the UI can support", err)
	}

	n := min(len(choices), len(s.slots))
	texts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s.slots[i] = Slot{Visible: true, Text: choices[i].Text, Index: choices[i].Index}
		texts = append(texts, choices[i].Text)
	}
	s.rendered = n

	// Focus is cleared now and set on the next frame; setting it in the same
	// frame as the clear is not picked up by the UI.
	s.focus = NoFocus
	s.focusToken.Cancel()
	s.focusToken = s.d.sched.NextFrame(func() {
		if s.state == StateAwaitingChoice && s.rendered > 0 {
			s.focus = 0
		}
	})

	s.state = StateAwaitingChoice
	s.emit(Event{Type: EventChoicesPresented, Choices: texts})
}

func (s *Session) hideChoices() {
	for i := range s.slots {
		s.slots[i] = Slot{}
	}
	s.rendered = 0
	s.focus = NoFocus
}

func (s *Session) end(reason string) {
	if s.state == StateEnding || !s.panel {
		return
	}
	s.logger.Info("Dialogue ending", "reason", reason)
	s.writer.Cancel()
	s.focusToken.Cancel()
	s.state = StateEnding
	s.emit(Event{Type: EventSessionEnding})
	s.d.sched.After(s.d.cfg.ExitGrace, s.reset)
}

func (s *Session) reset() {
	s.panel = false
	s.line = ""
	s.hideChoices()
	s.state = StateIdle
	s.d.release(s)
	s.logger.Info("Dialogue ended")
	s.emit(Event{Type: EventSessionEnded})
}

func (s *Session) diagnose(msg string, err error) {
	s.logger.Error(msg, "error", err)
	s.emit(Event{Type: EventDiagnostic, Error: err.Error()})
}

func (s *Session) emitErrors(err error) {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			s.emit(Event{Type: EventDiagnostic, Error: e.Error()})
		}
		return
	}
	s.emit(Event{Type: EventDiagnostic, Error: err.Error()})
}

func (s *Session) emit(e Event) {
	e.SessionID = s.id
	if e.Asset == "" {
		e.Asset = s.asset
	}
	s.d.notify(e)
}
