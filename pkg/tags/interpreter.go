package tags

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/dialogue-engine/pkg/actor"
	"github.com/jwebster45206/dialogue-engine/pkg/stage"
)

type handler func(value string) error

// Interpreter dispatches parsed tags to the stage. The handler table is built
// once from the cast: every member contributes a portrait key ("gen") and one
// key per body region ("gen_left_arm").
type Interpreter struct {
	stage    *stage.Stage
	handlers map[string]handler
	logger   *slog.Logger
}

// NewInterpreter builds the dispatch table for st's cast.
func NewInterpreter(st *stage.Stage, logger *slog.Logger) *Interpreter {
	if logger == nil {
		logger = slog.Default()
	}
	in := &Interpreter{
		stage:    st,
		handlers: make(map[string]handler),
		logger:   logger,
	}

	in.handlers[KeySpeaker] = in.speaker
	in.handlers[KeyBackground] = in.background
	in.handlers[KeySoundEffect] = in.sound

	for _, name := range st.Names() {
		in.handlers[name] = in.portrait(name)
		for _, r := range actor.Regions {
			in.handlers[name+"_"+r.String()] = in.region(name, r)
		}
	}
	return in
}

// Known reports whether key has a handler.
func (in *Interpreter) Known(key string) bool {
	_, ok := in.handlers[key]
	return ok
}

// Apply parses and dispatches a line's raw tags in order. Bad tags are logged
// and skipped; the remaining tags still run. The returned error joins every
// diagnostic and is never a reason to stop the dialogue.
func (in *Interpreter) Apply(raw []string) error {
	var errs []error
	for _, r := range raw {
		t, err := Parse(r)
		if err != nil {
			in.logger.Error("Tag could not be parsed", "tag", r, "error", err)
			errs = append(errs, err)
			continue
		}
		if err := in.Dispatch(t); err != nil {
			in.logger.Warn("Tag was not handled", "tag", r, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispatch runs the handler for a single parsed tag.
func (in *Interpreter) Dispatch(t Tag) error {
	h, ok := in.handlers[t.Key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTag, t.Key)
	}
	return h(t.Value)
}

func (in *Interpreter) speaker(value string) error {
	if value == Null {
		return in.stage.ShowSpeaker("")
	}
	if in.stage.Actor(value) == nil {
		return fmt.Errorf("%w: %q", ErrUnknownSpeaker, value)
	}
	return in.stage.ShowSpeaker(value)
}

func (in *Interpreter) portrait(name string) handler {
	return func(value string) error {
		switch value {
		case Null:
			in.stage.SetPortrait(name, actor.PortraitHidden)
			return nil
		case Active:
			in.stage.SetPortrait(name, actor.PortraitActive)
			return nil
		}

		m, _ := in.stage.Member(name)
		pose, ok := m.Pose(value)
		if !ok {
			return fmt.Errorf("%w: %s has no pose %q", ErrUnknownPose, name, value)
		}
		in.stage.ApplyPose(name, pose)
		return nil
	}
}

func (in *Interpreter) region(name string, r actor.Region) handler {
	return func(value string) error {
		in.stage.PlayRegion(name, r, value)
		return nil
	}
}

func (in *Interpreter) background(value string) error {
	in.stage.PlayBackground(value)
	return nil
}

func (in *Interpreter) sound(value string) error {
	clip, ok := in.stage.SoundClip(value)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSound, value)
	}
	in.stage.PlaySound(stage.ChannelSFX, clip)
	return nil
}
