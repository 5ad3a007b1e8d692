package dialogue

import (
	"github.com/google/uuid"

	"github.com/jwebster45206/dialogue-engine/pkg/typewriter"
)

// View is a snapshot of what the dialogue UI should show.
type View struct {
	SessionID    uuid.UUID
	Asset        string
	State        State
	PanelVisible bool
	Text         string // full line including markup
	Visible      int    // characters revealed so far
	Total        int    // revealable characters in the line
	Plain        string // revealed characters with markup stripped
	Slots        []Slot
	Focus        int
}

// View returns the session's current presentation.
func (s *Session) View() View {
	v := View{
		SessionID:    s.id,
		Asset:        s.asset,
		State:        s.state,
		PanelVisible: s.panel,
		Text:         s.line,
		Slots:        append([]Slot(nil), s.slots...),
		Focus:        s.focus,
	}
	if r := s.writer.Current(); r != nil && s.line != "" {
		v.Visible = r.Visible()
		v.Total = r.Total()
		v.Plain = typewriter.Plain(s.line, v.Visible)
	}
	return v
}

// Line returns the line currently on screen.
func (s *Session) Line() string {
	return s.line
}

// PanelVisible reports whether the dialogue panel is shown.
func (s *Session) PanelVisible() bool {
	return s.panel
}

// Slots returns a copy of the choice slots.
func (s *Session) Slots() []Slot {
	return append([]Slot(nil), s.slots...)
}
