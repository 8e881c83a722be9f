package watch

// State is the position of the dispatcher in its lifecycle.
type State int32

const (
	StateIdle State = iota
	StateWatching
	StateDispatching
	StateExit
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWatching:
		return "watching"
	case StateDispatching:
		return "dispatching"
	case StateExit:
		return "exit"
	default:
		return "unknown"
	}
}
