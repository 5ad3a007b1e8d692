package sequence

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/narrative"
	"github.com/jwebster45206/dialogue-engine/pkg/schedule"
	"github.com/jwebster45206/dialogue-engine/pkg/stage"
)

const frame = 40 * time.Millisecond

var stories = map[string]string{
	"intro": `
knots:
  start:
    - text: "Hi!"
      tags: ["speaker:senku"]
`,
	"outro": `
knots:
  start:
    - text: "Bye."
      tags: ["speaker:gen"]
`,
}

type fixture struct {
	sched *schedule.Scheduler
	rec   *stage.Recorder
	d     *dialogue.Director
	ended []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{sched: schedule.New(), rec: stage.NewRecorder()}
	st := stage.New(stage.DefaultConfig(), f.rec, f.rec.AudioPlayer(), logger)
	f.d = dialogue.NewDirector(dialogue.DefaultConfig(), f.sched, st, logger,
		dialogue.WithObserver(dialogue.ObserverFunc(func(e dialogue.Event) {
			if e.Type == dialogue.EventSessionEnded {
				f.ended = append(f.ended, e.Asset)
			}
		})),
	)
	return f
}

func load(name string) (narrative.Asset, error) {
	src, ok := stories[name]
	if !ok {
		return narrative.Asset{}, errors.New("no such story")
	}
	return narrative.Asset{Name: name, Data: []byte(src)}, nil
}

func testEpisode(names ...string) Episode {
	ep := DefaultEpisode()
	ep.Opening = "Opening_Theme"
	for _, n := range names {
		ep.Dialogues = append(ep.Dialogues, Dialogue{Story: n, BGM: "BGM_" + n})
	}
	return ep
}

// run plays the episode to the end, pressing continue whenever a line is
// fully shown.
func (f *fixture) run(t *testing.T, q *Sequencer) {
	t.Helper()
	for i := 0; i < 10000 && q.Phase() != PhaseChallenge; i++ {
		if s := f.d.Active(); s != nil && s.State() == dialogue.StateAwaitingContinue {
			require.NoError(t, s.Continue())
		}
		f.sched.Tick(frame)
	}
}

func TestSequencer_PlaysEpisode(t *testing.T) {
	f := newFixture(t)
	q := New(testEpisode("intro", "outro"), f.d, f.sched, load, nil)
	challenges := 0
	q.OnChallenge = func() { challenges++ }

	q.Start()
	assert.Equal(t, PhaseTitle, q.Phase())
	assert.Equal(t, "Opening_Theme", f.rec.Current(string(stage.ChannelOpening)))
	assert.Equal(t, TitleClip, f.rec.Current(stage.TrackTitle))
	assert.False(t, f.d.Playing())

	f.sched.Tick(2 * time.Second)
	assert.Equal(t, PhaseDialogue, q.Phase())
	require.True(t, f.d.Playing())
	assert.Equal(t, "intro", f.d.Active().Asset())
	assert.Equal(t, "BGM_intro", f.rec.Current(string(stage.ChannelBGM)))

	f.run(t, q)

	assert.Equal(t, PhaseChallenge, q.Phase())
	assert.Equal(t, 1, challenges)
	assert.Equal(t, 2, q.Index())
	assert.Equal(t, []string{"intro", "outro"}, f.ended)
	assert.Equal(t, "BGM_outro", f.rec.Current(string(stage.ChannelBGM)))
	assert.False(t, f.d.Playing())
}

func TestSequencer_TitleVisibility(t *testing.T) {
	f := newFixture(t)
	q := New(testEpisode("intro"), f.d, f.sched, load, nil)
	q.Start()

	title, visible := q.Title()
	assert.Equal(t, "Episode 1", title)
	assert.True(t, visible)

	f.sched.Tick(4 * time.Second)
	_, visible = q.Title()
	assert.True(t, visible)

	f.sched.Tick(time.Second)
	_, visible = q.Title()
	assert.False(t, visible)
}

func TestSequencer_SkipsMissingStory(t *testing.T) {
	f := newFixture(t)
	q := New(testEpisode("missing", "outro"), f.d, f.sched, load, nil)
	q.Start()

	f.sched.Tick(2 * time.Second)
	require.True(t, f.d.Playing())
	assert.Equal(t, "outro", f.d.Active().Asset())
	assert.Equal(t, 1, q.Index())

	f.run(t, q)
	assert.Equal(t, []string{"outro"}, f.ended)
}

func TestSequencer_AllMissing(t *testing.T) {
	f := newFixture(t)
	q := New(testEpisode("a", "b"), f.d, f.sched, load, nil)
	done := false
	q.OnChallenge = func() { done = true }

	q.Start()
	f.sched.Tick(2 * time.Second)

	assert.True(t, done)
	assert.Equal(t, PhaseChallenge, q.Phase())
	assert.False(t, f.d.Playing())
}

func TestSequencer_StartTwice(t *testing.T) {
	f := newFixture(t)
	q := New(testEpisode("intro"), f.d, f.sched, load, nil)
	q.Start()
	q.Start()

	titles := 0
	for _, c := range f.rec.Calls() {
		if c.Track == stage.TrackTitle {
			titles++
		}
	}
	assert.Equal(t, 1, titles)
}

func TestSequencer_IgnoresForeignSessions(t *testing.T) {
	f := newFixture(t)
	q := New(testEpisode("intro"), f.d, f.sched, load, nil)

	// a session played before the episode starts must not advance it
	asset, err := load("outro")
	require.NoError(t, err)
	_, err = f.d.Enter(asset)
	require.NoError(t, err)
	for i := 0; i < 100 && f.d.Playing(); i++ {
		if s := f.d.Active(); s.State() == dialogue.StateAwaitingContinue {
			require.NoError(t, s.Continue())
		}
		f.sched.Tick(frame)
	}

	assert.Equal(t, PhaseIdle, q.Phase())
	assert.Equal(t, 0, q.Index())
}

func TestSequencer_WaitsForForeignSession(t *testing.T) {
	f := newFixture(t)
	q := New(testEpisode("intro"), f.d, f.sched, load, nil)
	q.Start()

	asset, err := load("outro")
	require.NoError(t, err)
	_, err = f.d.Enter(asset)
	require.NoError(t, err)

	f.sched.Tick(2 * time.Second)
	assert.Equal(t, "outro", f.d.Active().Asset())
	assert.Equal(t, 0, q.Index())

	f.run(t, q)
	assert.Equal(t, []string{"outro", "intro"}, f.ended)
	assert.Equal(t, PhaseChallenge, q.Phase())
}

func TestParseEpisode(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    Episode
		wantErr bool
	}{
		{
			name: "defaults kept",
			yaml: `
dialogues:
  - story: intro
    bgm: BGM_Lab
`,
			want: Episode{
				Title:          "Episode 1",
				TitleDuration:  5 * time.Second,
				TitleAnimation: 2 * time.Second,
				Dialogues:      []Dialogue{{Story: "intro", BGM: "BGM_Lab"}},
			},
		},
		{
			name: "overrides",
			yaml: `
title: "Stone World"
title_duration: 3s
title_animation: 1500ms
opening: Opening_Theme
dialogues:
  - story: a
  - story: b
`,
			want: Episode{
				Title:          "Stone World",
				TitleDuration:  3 * time.Second,
				TitleAnimation: 1500 * time.Millisecond,
				Opening:        "Opening_Theme",
				Dialogues:      []Dialogue{{Story: "a"}, {Story: "b"}},
			},
		},
		{name: "no dialogues", yaml: `title: x`, wantErr: true},
		{name: "dialogue without story", yaml: "dialogues:\n  - bgm: x\n", wantErr: true},
		{name: "negative duration", yaml: "title_duration: -1s\ndialogues:\n  - story: a\n", wantErr: true},
		{name: "bad yaml", yaml: "dialogues: [", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEpisode([]byte(tt.yaml))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEpisode_Stories(t *testing.T) {
	ep := testEpisode("intro", "outro")
	assert.Equal(t, []string{"intro", "outro"}, ep.Stories())
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "title", PhaseTitle.String())
	assert.Equal(t, "challenge", PhaseChallenge.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
