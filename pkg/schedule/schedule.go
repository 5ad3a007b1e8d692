package schedule

import (
	"sort"
	"time"
)

// Token is the cancellation handle returned for every scheduled task.
// Cancelling a token guarantees its task never runs.
type Token struct {
	cancelled bool
	done      bool
}

// Cancel prevents the task from running. Safe to call on a nil token
// and after the task has already run.
func (t *Token) Cancel() {
	if t == nil {
		return
	}
	t.cancelled = true
}

// Cancelled reports whether Cancel was called before the task ran.
func (t *Token) Cancelled() bool {
	return t != nil && t.cancelled
}

// Pending reports whether the task is still waiting to run.
func (t *Token) Pending() bool {
	return t != nil && !t.cancelled && !t.done
}

type entry struct {
	due   time.Duration
	frame uint64
	seq   uint64
	fn    func()
	token *Token
}

// Scheduler is a frame-driven cooperative scheduler. The host calls Tick once
// per rendered frame; tasks become runnable once their delay has elapsed.
// A task scheduled while a tick is running is never run in that same tick.
//
// Scheduler is not safe for concurrent use. All calls must come from the
// goroutine that drives Tick.
type Scheduler struct {
	now   time.Duration
	frame uint64
	seq   uint64
	queue []*entry
}

// New creates an empty scheduler at time zero.
func New() *Scheduler {
	return &Scheduler{}
}

// Now returns the simulated time elapsed across all ticks.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// Frame returns the number of ticks processed.
func (s *Scheduler) Frame() uint64 {
	return s.frame
}

// After schedules fn to run on the first tick at which at least d has elapsed.
func (s *Scheduler) After(d time.Duration, fn func()) *Token {
	if d < 0 {
		d = 0
	}
	return s.push(s.now+d, fn)
}

// NextFrame schedules fn to run on the next tick regardless of elapsed time.
func (s *Scheduler) NextFrame(fn func()) *Token {
	return s.push(s.now, fn)
}

func (s *Scheduler) push(due time.Duration, fn func()) *Token {
	s.seq++
	tok := &Token{}
	s.queue = append(s.queue, &entry{
		due:   due,
		frame: s.frame + 1,
		seq:   s.seq,
		fn:    fn,
		token: tok,
	})
	return tok
}

// Tick advances the clock by dt, then runs every runnable task in due order.
// It returns the number of tasks that ran.
func (s *Scheduler) Tick(dt time.Duration) int {
	if dt < 0 {
		dt = 0
	}
	s.frame++
	s.now += dt

	var ready, waiting []*entry
	for _, e := range s.queue {
		switch {
		case e.token.cancelled:
			// dropped
		case e.frame <= s.frame && e.due <= s.now:
			ready = append(ready, e)
		default:
			waiting = append(waiting, e)
		}
	}
	s.queue = waiting

	sort.SliceStable(ready, func(i, j int) bool {
		if ready[i].due != ready[j].due {
			return ready[i].due < ready[j].due
		}
		return ready[i].seq < ready[j].seq
	})

	ran := 0
	for _, e := range ready {
		// an earlier task in this batch may have cancelled a later one
		if e.token.cancelled {
			continue
		}
		e.token.done = true
		e.fn()
		ran++
	}
	return ran
}

// Pending returns the number of tasks waiting to run.
func (s *Scheduler) Pending() int {
	n := 0
	for _, e := range s.queue {
		if !e.token.cancelled {
			n++
		}
	}
	return n
}

// Drain ticks by step until no tasks remain or maxTicks is reached.
// It returns the number of ticks taken.
func (s *Scheduler) Drain(step time.Duration, maxTicks int) int {
	ticks := 0
	for s.Pending() > 0 && ticks < maxTicks {
		s.Tick(step)
		ticks++
	}
	return ticks
}
