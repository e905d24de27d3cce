package entity

import "time"

// State is the decision reached for one tracked page during a pass.
type State string

const (
	StateNew               State = "new"
	StateUnchanged         State = "unchanged"
	StateChanged           State = "changed"
	StateExtractionFailed  State = "extraction_failed"
	StatePersistenceFailed State = "persistence_failed"
	// StateAborted marks a URL left unfinished because the pass was cancelled.
	StateAborted State = "aborted"
)

// Outcome is the result of processing one URL.
type Outcome struct {
	URL      string
	Identity string
	State    State
	Changes  ChangeSet
	Err      error
}

// Failed reports whether the URL ended in an error state.
func (o Outcome) Failed() bool {
	return o.State == StateExtractionFailed || o.State == StatePersistenceFailed
}

// PassReport summarizes one pass over every tracked URL.
type PassReport struct {
	StartedAt       time.Time
	Duration        time.Duration
	Outcomes        []Outcome
	OutboxDelivered int
}

// Count returns how many outcomes ended in state.
func (r *PassReport) Count(state State) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == state {
			n++
		}
	}
	return n
}

// Failures returns the outcomes that ended in an error state.
func (r *PassReport) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			out = append(out, o)
		}
	}
	return out
}
