package engine

// Phase is the state of the engine's state machine
type Phase int

const (
	Idle Phase = iota
	Running
	Paused
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Event names the change a Snapshot reports
type Event int

const (
	EventStarted Event = iota
	EventTick
	EventPaused
	EventResumed
	EventStopped   // terminated early
	EventCompleted // countdown reached zero
	EventClosed
)

func (e Event) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventTick:
		return "tick"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventStopped:
		return "stopped"
	case EventCompleted:
		return "completed"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}
