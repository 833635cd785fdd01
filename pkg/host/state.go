package host

import "fmt"

// State is a service host lifecycle state.
type State int32

const (
	NotStarted State = iota
	Starting
	Running
	StopRequested
	Stopped
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case StopRequested:
		return "stop_requested"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
