package dialogue

// State is the lifecycle position of a session.
type State int

const (
	StateIdle State = iota
	StateRevealing
	StateAwaitingContinue
	StateAwaitingChoice
	StateEnding
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRevealing:
		return "revealing"
	case StateAwaitingContinue:
		return "awaiting_continue"
	case StateAwaitingChoice:
		return "awaiting_choice"
	case StateEnding:
		return "ending"
	default:
		return "unknown"
	}
}
