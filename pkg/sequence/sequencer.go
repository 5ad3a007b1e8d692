// Package sequence plays an episode: a title card followed by several
// dialogue assets back to back, then hands over to the challenge phase.
package sequence

import (
	"errors"
	"log/slog"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/narrative"
	"github.com/jwebster45206/dialogue-engine/pkg/schedule"
	"github.com/jwebster45206/dialogue-engine/pkg/stage"
)

// Phase is where the sequencer is in the episode.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseTitle
	PhaseDialogue
	PhaseChallenge
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseTitle:
		return "title"
	case PhaseDialogue:
		return "dialogue"
	case PhaseChallenge:
		return "challenge"
	default:
		return "unknown"
	}
}

// Loader fetches a story asset by name.
type Loader func(name string) (narrative.Asset, error)

// Sequencer chains the dialogues of an episode on a director.
type Sequencer struct {
	ep       Episode
	director *dialogue.Director
	sched    *schedule.Scheduler
	load     Loader
	logger   *slog.Logger

	phase        Phase
	index        int
	titleVisible bool
	blocked      bool // current dialogue waits for a foreign session to end

	// OnChallenge runs once every dialogue has been played.
	OnChallenge func()
}

// New creates a sequencer and subscribes it to the director's events.
func New(ep Episode, d *dialogue.Director, sched *schedule.Scheduler, load Loader, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Sequencer{
		ep:       ep,
		director: d,
		sched:    sched,
		load:     load,
		logger:   logger,
	}
	d.Subscribe(q)
	return q
}

// Phase returns the current phase.
func (q *Sequencer) Phase() Phase { return q.phase }

// Index returns the position of the current dialogue.
func (q *Sequencer) Index() int { return q.index }

// Title returns the title text and whether it is still shown.
func (q *Sequencer) Title() (string, bool) {
	return q.ep.Title, q.titleVisible
}

// Episode returns the episode being played.
func (q *Sequencer) Episode() Episode { return q.ep }

// Start plays the opening sound and title card, then enters the first
// dialogue once the title animation has finished.
func (q *Sequencer) Start() {
	if q.phase != PhaseIdle {
		q.logger.Warn("Sequence already started", "phase", q.phase)
		return
	}
	st := q.director.Stage()

	q.phase = PhaseTitle
	q.index = 0
	if q.ep.Opening != "" {
		st.PlaySound(stage.ChannelOpening, q.ep.Opening)
	}
	q.titleVisible = true
	q.sched.After(q.ep.TitleDuration, func() { q.titleVisible = false })
	st.Play(stage.TrackTitle, TitleClip)
	q.sched.After(q.ep.TitleAnimation, q.startCurrent)
}

// Notify advances to the next dialogue when a session ends.
func (q *Sequencer) Notify(e dialogue.Event) {
	if e.Type != dialogue.EventSessionEnded || q.phase != PhaseDialogue {
		return
	}
	if q.blocked {
		q.startCurrent()
		return
	}
	q.next()
}

func (q *Sequencer) next() {
	q.index++
	if q.index < len(q.ep.Dialogues) {
		q.startCurrent()
		return
	}
	q.phase = PhaseChallenge
	q.logger.Info("All dialogues have been played", "count", len(q.ep.Dialogues))
	if q.OnChallenge != nil {
		q.OnChallenge()
	}
}

func (q *Sequencer) startCurrent() {
	if q.index >= len(q.ep.Dialogues) {
		q.next()
		return
	}
	q.phase = PhaseDialogue
	q.blocked = false
	dl := q.ep.Dialogues[q.index]

	asset, err := q.load(dl.Story)
	if err != nil {
		q.logger.Error("Failed to load dialogue, skipping", "story", dl.Story, "error", err)
		q.next()
		return
	}

	if dl.BGM != "" {
		q.director.Stage().PlaySound(stage.ChannelBGM, dl.BGM)
	}
	if _, err := q.director.Enter(asset); err != nil {
		if errors.Is(err, dialogue.ErrSessionActive) {
			q.logger.Warn("Another dialogue is playing, waiting for it to end", "story", dl.Story)
			q.blocked = true
			return
		}
		q.logger.Error("Failed to start dialogue, skipping", "story", dl.Story, "error", err)
		q.next()
	}
}
