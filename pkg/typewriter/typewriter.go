package typewriter

import (
	"time"

	"github.com/jwebster45206/dialogue-engine/pkg/schedule"
)

// DefaultDelay is the pause after each revealed character.
const DefaultDelay = 40 * time.Millisecond

// Scheduler is the subset of schedule.Scheduler the typewriter needs.
type Scheduler interface {
	After(d time.Duration, fn func()) *schedule.Token
}

// Typewriter drives a Reveal on a scheduler. Only one line is ever in flight:
// starting a new line cancels the previous one.
type Typewriter struct {
	sched Scheduler
	delay time.Duration

	current *Reveal
	token   *schedule.Token
	done    func()

	// OnStep is called after every revealed character, before the delay.
	OnStep func(visible, total int)
}

// New creates a typewriter with the given per-character delay.
func New(sched Scheduler, delay time.Duration) *Typewriter {
	if delay < 0 {
		delay = 0
	}
	return &Typewriter{
		sched: sched,
		delay: delay,
	}
}

// Start cancels any in-flight reveal and begins revealing text. The first
// character is revealed immediately. done runs once the line is fully shown,
// unless the reveal is cancelled first.
func (t *Typewriter) Start(text string, done func()) {
	t.Cancel()

	r := NewReveal(text)
	t.current = r
	t.done = done

	var step func()
	step = func() {
		if t.current != r {
			return
		}
		if r.Step() {
			if t.OnStep != nil {
				t.OnStep(r.Visible(), r.Total())
			}
			t.token = t.sched.After(t.delay, step)
			return
		}
		t.finish()
	}
	step()
}

// Skip reveals the rest of the in-flight line and completes it immediately.
// It reports whether there was anything to skip.
func (t *Typewriter) Skip() bool {
	if !t.Active() {
		return false
	}
	t.token.Cancel()
	t.current.Finish()
	t.finish()
	return true
}

// Cancel abandons the in-flight reveal without completing it.
func (t *Typewriter) Cancel() {
	t.token.Cancel()
	t.token = nil
	t.done = nil
}

// Active reports whether a reveal is still running.
func (t *Typewriter) Active() bool {
	return t.token.Pending()
}

// Current returns the reveal for the most recent line, or nil.
func (t *Typewriter) Current() *Reveal {
	return t.current
}

// Delay returns the per-character delay.
func (t *Typewriter) Delay() time.Duration {
	return t.delay
}

func (t *Typewriter) finish() {
	t.token = nil
	done := t.done
	t.done = nil
	if done != nil {
		done()
	}
}
