package service

import "github.com/tbg-racing/rankingsaver/pkg/metrics"

// State is the tournament tracking state of a server session.
//
//	Idle --start--> Tracking --stop--> Stopping --map end--> Idle
//
// Start is accepted in every state and always lands in Tracking.
type State int

const (
	Idle State = iota
	Tracking
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Tracking:
		return "tracking"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Recording reports whether map results are saved in this state.
func (s State) Recording() bool {
	return s == Tracking || s == Stopping
}

func (s State) metric() int {
	switch s {
	case Tracking:
		return metrics.StateTracking
	case Stopping:
		return metrics.StateStopping
	default:
		return metrics.StateIdle
	}
}
