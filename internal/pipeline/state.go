package pipeline

// State is a step of a generation run. Runs move forward through the states in
// declaration order and end in StateDone or StateFailed.
type State string

const (
	StateReceived   State = "received"
	StateExtracting State = "extracting"
	StateComposing  State = "composing"
	StateCompleting State = "completing"
	StateSplitting  State = "splitting"
	StateRendering  State = "rendering"
	StatePersisting State = "persisting"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// StateHook observes every transition of a run.
type StateHook func(runID string, from, to State)
