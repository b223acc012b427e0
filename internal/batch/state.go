package batch

// State is the lifecycle position of one record.
type State string

const (
	StatePending      State = "pending"
	StateResolving    State = "resolving"
	StateLocating     State = "locating"
	StateTransforming State = "transforming"
	StateMapping      State = "mapping"
	StateUploading    State = "uploading"
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
	StateSkipped      State = "skipped"
)

// IsTerminal reports whether a record in this state is finished.
func (s State) IsTerminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateSkipped:
		return true
	default:
		return false
	}
}

func (s State) String() string {
	return string(s)
}
