// Package stage owns the presentation state the dialogue drives: the cast's
// actor states, name tags, the background layer and sound effects. Actual
// rendering and audio are behind the Animator and AudioPlayer ports.
package stage

import (
	"fmt"
	"log/slog"

	"github.com/jwebster45206/dialogue-engine/pkg/actor"
)

// Well-known non-character tracks.
const (
	TrackBackground = "background"
	TrackTitle      = "title"
)

// Channel is an audio output.
type Channel string

const (
	ChannelSFX     Channel = "sfx"
	ChannelBGM     Channel = "bgm"
	ChannelOpening Channel = "opening"
)

// Animator plays a named animation clip on a track.
type Animator interface {
	Play(track, clip string)
}

// AudioPlayer plays a clip on a channel, replacing whatever was playing there.
type AudioPlayer interface {
	Play(channel Channel, clip string)
}

// Stage holds every actor's state and forwards effects to the ports.
type Stage struct {
	order   []string
	members map[string]actor.Member
	actors  map[string]*actor.State
	sounds  map[string]string

	background string
	speaker    string

	animator Animator
	audio    AudioPlayer
	logger   *slog.Logger
}

// New builds a stage for the configured cast. All portraits and name tags
// start hidden.
func New(cfg Config, animator Animator, audio AudioPlayer, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Stage{
		members:  make(map[string]actor.Member, len(cfg.Cast)),
		actors:   make(map[string]*actor.State, len(cfg.Cast)),
		sounds:   make(map[string]string, len(cfg.Sounds)),
		animator: animator,
		audio:    audio,
		logger:   logger,
	}
	for _, m := range cfg.Cast {
		if _, dup := s.members[m.Name]; dup {
			logger.Warn("Duplicate cast member ignored", "name", m.Name)
			continue
		}
		s.order = append(s.order, m.Name)
		s.members[m.Name] = m
		s.actors[m.Name] = actor.NewState(m.Name)
	}
	for k, v := range cfg.Sounds {
		s.sounds[k] = v
	}
	return s
}

// Names returns the cast names in configuration order.
func (s *Stage) Names() []string {
	return append([]string(nil), s.order...)
}

// Member returns the cast entry for name.
func (s *Stage) Member(name string) (actor.Member, bool) {
	m, ok := s.members[name]
	return m, ok
}

// Actor returns the live state of a cast member, or nil.
func (s *Stage) Actor(name string) *actor.State {
	return s.actors[name]
}

// Speaker returns the character whose name tag is shown, or "".
func (s *Stage) Speaker() string {
	return s.speaker
}

// Background returns the clip last played on the background layer.
func (s *Stage) Background() string {
	return s.background
}

// ShowSpeaker shows name's tag and hides every other one. An empty name
// hides all tags.
func (s *Stage) ShowSpeaker(name string) error {
	if name != "" {
		if _, ok := s.actors[name]; !ok {
			return fmt.Errorf("speaker %q is not in the cast", name)
		}
	}
	for n, a := range s.actors {
		a.NameTag = n == name
	}
	s.speaker = name
	return nil
}

// SetPortrait switches a character's portrait and plays the matching clip.
func (s *Stage) SetPortrait(name string, mode actor.Portrait) {
	a, ok := s.actors[name]
	if !ok {
		return
	}
	m := s.members[name]
	a.Portrait = mode
	clip := m.HiddenClip()
	if mode == actor.PortraitActive {
		clip = m.ActiveClip()
	}
	s.play(actor.PortraitTrack(name), clip)
}

// PlayRegion plays clip on one body region of a character.
func (s *Stage) PlayRegion(name string, r actor.Region, clip string) {
	a, ok := s.actors[name]
	if !ok {
		return
	}
	a.SetClip(r, clip)
	s.play(actor.Track(name, r), clip)
}

// ApplyPose plays every clip of a pose on its region.
func (s *Stage) ApplyPose(name string, p actor.Pose) {
	for _, r := range actor.Regions {
		if clip := p.Clip(r); clip != "" {
			s.PlayRegion(name, r, clip)
		}
	}
}

// PlayBackground plays clip on the background layer.
func (s *Stage) PlayBackground(clip string) {
	s.background = clip
	s.play(TrackBackground, clip)
}

// Play forwards an animation on an arbitrary track, e.g. the title card.
func (s *Stage) Play(track, clip string) {
	s.play(track, clip)
}

// SoundClip resolves a symbolic sound key to its clip.
func (s *Stage) SoundClip(key string) (string, bool) {
	clip, ok := s.sounds[key]
	return clip, ok
}

// PlaySound plays clip on channel.
func (s *Stage) PlaySound(ch Channel, clip string) {
	s.logger.Debug("Playing sound", "channel", ch, "clip", clip)
	if s.audio != nil {
		s.audio.Play(ch, clip)
	}
}

func (s *Stage) play(track, clip string) {
	s.logger.Debug("Playing animation", "track", track, "clip", clip)
	if s.animator != nil {
		s.animator.Play(track, clip)
	}
}
