package player

// State is the playback engine state.
//
//	IDLE -> START (Start) -> PLAY -> FINISH (drained or stalled) -> IDLE
//	START|PLAY -> PAUSE (Stop) -> IDLE
type State int

const (
	StateIdle State = iota
	StateStart
	StatePlay
	StateFinish
	StatePause
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStart:
		return "start"
	case StatePlay:
		return "play"
	case StateFinish:
		return "finish"
	case StatePause:
		return "pause"
	}
	return "unknown"
}

func (s State) acceptsAudio() bool {
	return s == StateStart || s == StatePlay
}

// Transition describes a state change. ID is the playback id at the time of
// the change, which is already cleared when a stop moves to PAUSE.
type Transition struct {
	From State
	To   State
	ID   string
}
