package orchestrator

// State is the orchestrator's position in a run
type State int32

const (
	StateIdle State = iota
	StateScanning
	StateDeleting
	StatePruning
	StateReporting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateDeleting:
		return "deleting"
	case StatePruning:
		return "pruning"
	case StateReporting:
		return "reporting"
	default:
		return "unknown"
	}
}
