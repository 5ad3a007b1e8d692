package dialogue

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies what happened in a session.
type EventType string

const (
	EventSessionStarted   EventType = "session.started"
	EventLineStarted      EventType = "line.started"
	EventRevealStep       EventType = "reveal.step"
	EventLineRevealed     EventType = "line.revealed"
	EventChoicesPresented EventType = "choices.presented"
	EventChoiceMade       EventType = "choice.made"
	EventSessionEnding    EventType = "session.ending"
	EventSessionEnded     EventType = "session.ended"
	EventDiagnostic       EventType = "diagnostic"
)

// Event is delivered to observers synchronously, on the scheduler goroutine.
type Event struct {
	Type      EventType     `json:"type"`
	SessionID uuid.UUID     `json:"session_id"`
	Asset     string        `json:"asset,omitempty"`
	Line      string        `json:"line,omitempty"`
	Tags      []string      `json:"tags,omitempty"`
	Visible   int           `json:"visible,omitempty"` // characters shown, for reveal.step
	Choices   []string      `json:"choices,omitempty"`
	Index     int           `json:"index"`           // chosen slot, for choice.made
	Error     string        `json:"error,omitempty"` // for diagnostic
	At        time.Duration `json:"at"`              // scheduler time
}

// Observer receives session events. The sequencer uses session.ended to move
// on to the next asset.
type Observer interface {
	Notify(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Notify calls f.
func (f ObserverFunc) Notify(e Event) { f(e) }
