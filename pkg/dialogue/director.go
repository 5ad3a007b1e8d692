// Package dialogue plays narrative assets: it advances the story line by line,
// dispatches each line's tags to the stage, reveals the text on a timer and
// presents choices.
//
// A Director owns the one session that may be active at a time. Hosts hold
// the Director and pass it to whatever needs the session; there is no global
// lookup.
package dialogue

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/dialogue-engine/pkg/narrative"
	"github.com/jwebster45206/dialogue-engine/pkg/schedule"
	"github.com/jwebster45206/dialogue-engine/pkg/stage"
	"github.com/jwebster45206/dialogue-engine/pkg/tags"
	"github.com/jwebster45206/dialogue-engine/pkg/typewriter"
)

var (
	ErrSessionActive       = errors.New("a dialogue session is already active")
	ErrNoSession           = errors.New("no dialogue session is active")
	ErrNotAwaitingContinue = errors.New("session is not waiting for continue")
	ErrInvalidChoice       = errors.New("invalid choice")
	ErrChoiceOverflow      = errors.New("more choices than the UI can show")
)

// Config holds the timing and layout of dialogue playback.
type Config struct {
	TypingSpeed time.Duration // delay after each revealed character
	ExitGrace   time.Duration // pause between the last line and the reset
	ChoiceSlots int           // number of choice buttons in the UI
}

// DefaultConfig is 40ms per character, a 200ms exit pause and three choice slots.
func DefaultConfig() Config {
	return Config{
		TypingSpeed: typewriter.DefaultDelay,
		ExitGrace:   200 * time.Millisecond,
		ChoiceSlots: 3,
	}
}

// Director creates sessions and guarantees at most one is active.
type Director struct {
	cfg    Config
	sched  *schedule.Scheduler
	stage  *stage.Stage
	interp *tags.Interpreter
	open   narrative.Opener
	logger *slog.Logger

	observers []Observer
	active    *Session
}

// Option customises a Director.
type Option func(*Director)

// WithOpener replaces the narrative engine used to open assets.
func WithOpener(open narrative.Opener) Option {
	return func(d *Director) { d.open = open }
}

// WithObserver subscribes an observer from construction.
func WithObserver(o Observer) Option {
	return func(d *Director) { d.observers = append(d.observers, o) }
}

// NewDirector wires a director to its scheduler and stage.
func NewDirector(cfg Config, sched *schedule.Scheduler, st *stage.Stage, logger *slog.Logger, opts ...Option) *Director {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ChoiceSlots < 0 {
		cfg.ChoiceSlots = 0
	}
	d := &Director{
		cfg:    cfg,
		sched:  sched,
		stage:  st,
		interp: tags.NewInterpreter(st, logger),
		open:   narrative.Open,
		logger: logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Subscribe adds an observer for every future event.
func (d *Director) Subscribe(o Observer) {
	d.observers = append(d.observers, o)
}

// Stage returns the stage the director dispatches to.
func (d *Director) Stage() *stage.Stage {
	return d.stage
}

// Config returns the playback configuration.
func (d *Director) Config() Config {
	return d.cfg
}

// Active returns the running session, or nil.
func (d *Director) Active() *Session {
	return d.active
}

// Playing reports whether a session is active.
func (d *Director) Playing() bool {
	return d.active != nil
}

// Enter opens asset and starts playing it. If a session is already active the
// call is rejected: the running session is left untouched and
// ErrSessionActive is returned.
func (d *Director) Enter(asset narrative.Asset) (*Session, error) {
	if d.active != nil {
		err := fmt.Errorf("%w: %q is playing, %q ignored", ErrSessionActive, d.active.asset, asset.Name)
		d.logger.Warn("Dialogue entered while another is playing",
			"active_session", d.active.id,
			"active_asset", d.active.asset,
			"asset", asset.Name,
		)
		d.notify(Event{Type: EventDiagnostic, SessionID: d.active.id, Asset: asset.Name, Error: err.Error()})
		return nil, err
	}

	story, err := d.open(asset)
	if err != nil {
		d.logger.Error("Failed to open narrative asset", "asset", asset.Name, "error", err)
		return nil, fmt.Errorf("failed to open %q: %w", asset.Name, err)
	}

	s := newSession(d, asset.Name, story)
	d.active = s
	s.start()
	return s, nil
}

// Continue forwards a continue input to the active session.
func (d *Director) Continue() error {
	if d.active == nil {
		return ErrNoSession
	}
	return d.active.Continue()
}

// Choose forwards a choice selection to the active session.
func (d *Director) Choose(index int) error {
	if d.active == nil {
		return ErrNoSession
	}
	return d.active.Choose(index)
}

// Skip fast-forwards the active session's reveal.
func (d *Director) Skip() bool {
	if d.active == nil {
		return false
	}
	return d.active.Skip()
}

func (d *Director) release(s *Session) {
	if d.active == s {
		d.active = nil
	}
}

func (d *Director) notify(e Event) {
	e.At = d.sched.Now()
	for _, o := range d.observers {
		o.Notify(e)
	}
}
