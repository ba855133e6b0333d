package driver

// State tracks one utterance through the orchestrator. Completed,
// Cancelled and Failed are terminal; a new Speak call starts the cycle
// over.
type State int32

const (
	StateIdle State = iota
	StateSpeaking
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpeaking:
		return "speaking"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
