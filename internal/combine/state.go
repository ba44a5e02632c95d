package combine

// State is the lifecycle position of a Controller.
type State int

const (
	StateInit State = iota
	StateSchemaResolved
	StateDryRunReported
	StateMerging
	StateComplete
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateSchemaResolved:
		return "SCHEMA_RESOLVED"
	case StateDryRunReported:
		return "DRY_RUN_REPORTED"
	case StateMerging:
		return "MERGING"
	case StateComplete:
		return "COMPLETE"
	case StateClosed:
		return "CLOSED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
