package typewriter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/dialogue-engine/pkg/schedule"
)

func countSteps(text string) int {
	r := NewReveal(text)
	n := 0
	for r.Step() {
		n++
	}
	return n
}

func TestReveal_SuspensionPoints(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{name: "plain text", text: "Hello", expected: 5},
		{name: "markup span is atomic", text: "a<b>c", expected: 2},
		{name: "markup only", text: "<color=red></color>", expected: 0},
		{name: "empty line", text: "", expected: 0},
		{name: "nested bracket inside span", text: "x<a<b>y", expected: 2},
		{name: "unterminated span eats rest", text: "ab<cd", expected: 2},
		{name: "multibyte runes", text: "héé!", expected: 4},
		{name: "closing bracket outside span is visible", text: "a>b", expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, countSteps(tt.text))
			assert.Equal(t, tt.expected, CountVisible(tt.text))
		})
	}
}

func TestPlain(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		n        int
		expected string
	}{
		{name: "prefix", text: "Hello", n: 2, expected: "He"},
		{name: "strips markup", text: "<b>Hi</b> there", n: -1, expected: "Hi there"},
		{name: "prefix across markup", text: "a<i>bc</i>d", n: 2, expected: "ab"},
		{name: "zero", text: "abc", n: 0, expected: ""},
		{name: "beyond length", text: "abc", n: 10, expected: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Plain(tt.text, tt.n))
		})
	}
}

func TestReveal_Finish(t *testing.T) {
	r := NewReveal("a<b>cd")
	require.True(t, r.Step())
	r.Finish()
	assert.True(t, r.Done())
	assert.Equal(t, 3, r.Visible())
	assert.False(t, r.Step())
}

func TestTypewriter_RevealTiming(t *testing.T) {
	s := schedule.New()
	tw := New(s, 40*time.Millisecond)

	var stamps []time.Duration
	tw.OnStep = func(visible, total int) {
		stamps = append(stamps, s.Now())
	}
	finished := false
	tw.Start("Hi!", func() { finished = true })

	// first character is shown without waiting
	require.Len(t, stamps, 1)
	assert.Equal(t, 1, tw.Current().Visible())

	for i := 0; i < 3; i++ {
		assert.False(t, finished)
		s.Tick(40 * time.Millisecond)
	}

	assert.True(t, finished)
	assert.False(t, tw.Active())
	assert.Equal(t, []time.Duration{0, 40 * time.Millisecond, 80 * time.Millisecond}, stamps)
}

func TestTypewriter_MarkupOnlyCompletesInstantly(t *testing.T) {
	s := schedule.New()
	tw := New(s, 40*time.Millisecond)
	steps := 0
	tw.OnStep = func(int, int) { steps++ }

	finished := false
	tw.Start("<sprite=1>", func() { finished = true })

	assert.True(t, finished)
	assert.Zero(t, steps)
	assert.Zero(t, s.Pending())
}

func TestTypewriter_StartCancelsInFlight(t *testing.T) {
	s := schedule.New()
	tw := New(s, 40*time.Millisecond)

	firstDone := false
	tw.Start("first line", func() { firstDone = true })
	s.Tick(40 * time.Millisecond)

	secondDone := false
	tw.Start("ok", func() { secondDone = true })

	s.Drain(40*time.Millisecond, 100)
	assert.False(t, firstDone, "abandoned reveal must never complete")
	assert.True(t, secondDone)
	assert.Equal(t, "ok", tw.Current().Text())
}

func TestTypewriter_Skip(t *testing.T) {
	s := schedule.New()
	tw := New(s, 40*time.Millisecond)

	finished := 0
	tw.Start("a long line", func() { finished++ })
	require.True(t, tw.Active())

	assert.True(t, tw.Skip())
	assert.Equal(t, 1, finished)
	assert.True(t, tw.Current().Done())

	s.Drain(40*time.Millisecond, 100)
	assert.Equal(t, 1, finished, "skipped reveal must not complete twice")
	assert.False(t, tw.Skip())
}
