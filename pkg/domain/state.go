package domain

// ChainMode selects how a chain drives its steps.
type ChainMode string

const (
	ModeSequential ChainMode = "sequential" // Steps run one after another
	ModeParallel   ChainMode = "parallel"   // Every step fires during the activation pass
)

// StepMode selects whether a chain waits for a step to signal completion.
type StepMode string

const (
	StepBlocking      StepMode = "blocking"        // Chain waits for the step's completion signal
	StepFireAndForget StepMode = "fire_and_forget" // Chain advances right after the action returns
)

// ChainState is the externally observable lifecycle of a chain.
type ChainState string

const (
	StateNotStarted ChainState = "not_started"
	StateRunning    ChainState = "running"
	StateFinished   ChainState = "finished"
	StateStopped    ChainState = "stopped" // Finished through explicit cancellation
)

// Terminal reports whether the state can no longer change.
func (s ChainState) Terminal() bool {
	return s == StateFinished || s == StateStopped
}

// ChainInfo is a read-only snapshot of a live chain, used by adapters.
type ChainInfo struct {
	ID       string     `json:"id"`
	Mode     ChainMode  `json:"mode"`
	State    ChainState `json:"state"`
	Cursor   int        `json:"cursor"`
	Steps    int        `json:"steps"`
	Embedded []string   `json:"embedded,omitempty"`
}
