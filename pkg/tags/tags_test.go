package tags

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/dialogue-engine/pkg/actor"
	"github.com/jwebster45206/dialogue-engine/pkg/stage"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Tag
		wantErr  bool
	}{
		{name: "simple", raw: "speaker:gen", expected: Tag{Key: "speaker", Value: "gen"}},
		{name: "whitespace trimmed", raw: "  gen_head :  nod_left ", expected: Tag{Key: "gen_head", Value: "nod_left"}},
		{name: "tabs trimmed", raw: "\tbg_effect:\tshake\n", expected: Tag{Key: "bg_effect", Value: "shake"}},
		{name: "no colon", raw: "speaker", wantErr: true},
		{name: "two colons", raw: "speaker:gen:extra", wantErr: true},
		{name: "value containing colon", raw: "sound_effect:a:b", wantErr: true},
		{name: "empty key", raw: ":gen", wantErr: true},
		{name: "empty value", raw: "speaker:  ", wantErr: true},
		{name: "empty string", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedTag)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseAll_SkipsMalformed(t *testing.T) {
	parsed, err := ParseAll([]string{"speaker:gen", "broken", "gen:think"})
	assert.ErrorIs(t, err, ErrMalformedTag)
	assert.Equal(t, []Tag{{"speaker", "gen"}, {"gen", "think"}}, parsed)
}

func newInterpreter(t *testing.T) (*Interpreter, *stage.Stage, *stage.Recorder) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := stage.NewRecorder()
	st := stage.New(stage.DefaultConfig(), rec, rec.AudioPlayer(), logger)
	return NewInterpreter(st, logger), st, rec
}

func TestInterpreter_Speaker(t *testing.T) {
	in, st, _ := newInterpreter(t)

	require.NoError(t, in.Apply([]string{"speaker:senku"}))
	assert.True(t, st.Actor("senku").NameTag)
	assert.False(t, st.Actor("gen").NameTag)

	require.NoError(t, in.Apply([]string{"speaker:gen"}))
	assert.False(t, st.Actor("senku").NameTag)
	assert.True(t, st.Actor("gen").NameTag)

	require.NoError(t, in.Apply([]string{"speaker:null"}))
	assert.False(t, st.Actor("senku").NameTag)
	assert.False(t, st.Actor("gen").NameTag)

	err := in.Apply([]string{"speaker:kohaku"})
	assert.ErrorIs(t, err, ErrUnknownSpeaker)
}

func TestInterpreter_Portrait(t *testing.T) {
	tests := []struct {
		name     string
		tag      string
		portrait actor.Portrait
		clips    map[string]string
		wantErr  error
	}{
		{
			name:     "active shows portrait",
			tag:      "gen:active",
			portrait: actor.PortraitActive,
			clips:    map[string]string{"gen.portrait": "Gen_default"},
		},
		{
			name:     "null hides portrait",
			tag:      "senku:null",
			portrait: actor.PortraitHidden,
			clips:    map[string]string{"senku.portrait": "Senku_null"},
		},
		{
			name: "senku think pose",
			tag:  "senku:think",
			clips: map[string]string{
				"senku.head":      "nod_right",
				"senku.left_arm":  "0",
				"senku.right_arm": "1",
				"senku.portrait":  "",
			},
		},
		{
			name: "gen bingo2 pose",
			tag:  "gen:bingo2",
			clips: map[string]string{
				"gen.head":      "default",
				"gen.left_arm":  "0",
				"gen.right_arm": "2",
			},
		},
		{
			name:    "unknown pose",
			tag:     "senku:reach_out",
			wantErr: ErrUnknownPose,
			clips:   map[string]string{"senku.left_arm": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, st, rec := newInterpreter(t)
			err := in.Apply([]string{tt.tag})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			key, _ := Parse(tt.tag)
			assert.Equal(t, tt.portrait, st.Actor(key.Key).Portrait)
			for track, clip := range tt.clips {
				assert.Equal(t, clip, rec.Current(track), track)
			}
		})
	}
}

func TestInterpreter_RegionsAndEffects(t *testing.T) {
	in, st, rec := newInterpreter(t)

	err := in.Apply([]string{
		"gen_head:nod_left",
		"gen_face:smirk",
		"senku_left_arm:point",
		"senku_right_arm:wave",
		"bg_effect:flash",
		"sound_effect:water_flow",
	})
	require.NoError(t, err)

	assert.Equal(t, "nod_left", st.Actor("gen").Clip(actor.RegionHead))
	assert.Equal(t, "smirk", rec.Current("gen.face"))
	assert.Equal(t, "point", rec.Current("senku.left_arm"))
	assert.Equal(t, "wave", rec.Current("senku.right_arm"))
	assert.Equal(t, "flash", st.Background())
	assert.Equal(t, "SFX_WaterFlow", rec.Current(string(stage.ChannelSFX)))
}

func TestInterpreter_LaterTagsOverride(t *testing.T) {
	in, st, _ := newInterpreter(t)
	require.NoError(t, in.Apply([]string{"gen:think", "gen_left_arm:wave"}))
	assert.Equal(t, "wave", st.Actor("gen").Clip(actor.RegionLeftArm))

	require.NoError(t, in.Apply([]string{"gen_left_arm:wave", "gen:think"}))
	assert.Equal(t, "1", st.Actor("gen").Clip(actor.RegionLeftArm))
}

func TestInterpreter_DiagnosticsDoNotStopProcessing(t *testing.T) {
	in, st, rec := newInterpreter(t)

	err := in.Apply([]string{
		"no separator",
		"weather:rain",
		"sound_effect:thunder",
		"speaker:gen",
		"a:b:c",
		"gen:active",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedTag)
	assert.ErrorIs(t, err, ErrUnknownTag)
	assert.ErrorIs(t, err, ErrUnknownSound)
	assert.True(t, st.Actor("gen").NameTag, "valid tags after bad ones must still run")
	assert.Equal(t, actor.PortraitActive, st.Actor("gen").Portrait)
	assert.Empty(t, rec.Current(string(stage.ChannelSFX)))

	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	assert.Len(t, joined.Unwrap(), 4)
}

func TestInterpreter_Known(t *testing.T) {
	in, _, _ := newInterpreter(t)
	for _, key := range []string{"speaker", "bg_effect", "sound_effect", "gen", "senku_face", "gen_right_arm"} {
		assert.True(t, in.Known(key), key)
	}
	assert.False(t, in.Known("gen_tail"))
	assert.False(t, in.Known("kohaku"))
}
