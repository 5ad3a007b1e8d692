package stage

import "sync"

// Call is one recorded animation or sound.
type Call struct {
	Track string // animation track or audio channel
	Clip  string
}

// Recorder implements Animator, and AudioPlayer through AudioPlayer(), by remembering every call and
// the clip currently playing on each track. Hosts without real rendering use
// it as their presentation layer.
type Recorder struct {
	mu      sync.Mutex
	calls   []Call
	current map[string]string
}

var (
	_ Animator    = (*Recorder)(nil)
	_ AudioPlayer = audioRecorder{}
)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{current: make(map[string]string)}
}

// Play records an animation clip on a track.
func (r *Recorder) Play(track, clip string) {
	r.record(track, clip)
}

// AudioPlayer returns a view of the recorder usable as an AudioPlayer.
func (r *Recorder) AudioPlayer() AudioPlayer {
	return audioRecorder{r}
}

type audioRecorder struct{ r *Recorder }

func (a audioRecorder) Play(ch Channel, clip string) {
	a.r.record(string(ch), clip)
}

func (r *Recorder) record(track, clip string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Track: track, Clip: clip})
	r.current[track] = clip
}

// Calls returns every recorded call in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Current returns the clip last played on track.
func (r *Recorder) Current(track string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current[track]
}

// Reset forgets all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
	r.current = make(map[string]string)
}
