package models

import "time"

// RunStatus is the terminal state of a run.
type RunStatus string

const (
	// RunCompleted means at least one specialist produced usable content.
	RunCompleted RunStatus = "completed"
	// RunClarification means the router asked the user for more detail.
	// This is a first-class terminal state, not an error path.
	RunClarification RunStatus = "clarification"
	// RunFailed means every activated specialist degraded with no usable
	// content.
	RunFailed RunStatus = "failed"
)

// RunState is the per-query aggregate owned by the orchestrator for the
// life of one run. The history root snapshot is read-only once handed to
// the specialist loops; each loop mutates only its own private branch, and
// the orchestrator is the only writer of the joined fields below.
type RunState struct {
	ID       string
	Query    string
	UserID   string
	UserRole string

	// History is the root snapshot seeded to every loop: the user's query
	// and nothing else.
	History []Message

	Decision   RoutingDecision
	Iterations map[SpecialistName]int
	Completed  map[SpecialistName]bool
	Degraded   map[SpecialistName]bool

	finalResponse string
	finalSet      bool
}

// NewRunState creates the state for one query. It is discarded after the
// response is returned; nothing persists across queries.
func NewRunState(id, query, userID, userRole string) *RunState {
	return &RunState{
		ID:         id,
		Query:      query,
		UserID:     userID,
		UserRole:   userRole,
		History:    []Message{UserMessage(query)},
		Iterations: make(map[SpecialistName]int),
		Completed:  make(map[SpecialistName]bool),
		Degraded:   make(map[SpecialistName]bool),
	}
}

// SetFinalResponse records the run's answer. Exactly one of synthesizer
// output, single-specialist output, or clarification text may land here;
// later calls are rejected.
func (s *RunState) SetFinalResponse(text string) bool {
	if s.finalSet {
		return false
	}
	s.finalResponse = text
	s.finalSet = true
	return true
}

// FinalResponse returns the recorded answer, if set.
func (s *RunState) FinalResponse() (string, bool) {
	return s.finalResponse, s.finalSet
}

// RunResult is the contract returned to the surrounding service layer.
type RunResult struct {
	RunID               string
	FinalResponse       string
	RoutingDecision     RoutingDecision
	SpecialistsInvolved []SpecialistName
	Status              RunStatus
	Degraded            bool
	Iterations          map[SpecialistName]int
	TokensIn            int64
	TokensOut           int64
	Duration            time.Duration
}
