package extraction

import "fmt"

// Phase is a step of the extraction run state machine
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePreparing
	PhaseRunning
	PhaseFinalizingSuccess
	PhaseFinalizingCancelled
	PhaseFinalizingFailed
	PhaseTerminal
)

var phaseNames = map[Phase]string{
	PhaseIdle:                "idle",
	PhasePreparing:           "preparing",
	PhaseRunning:             "running",
	PhaseFinalizingSuccess:   "finalizing-success",
	PhaseFinalizingCancelled: "finalizing-cancelled",
	PhaseFinalizingFailed:    "finalizing-failed",
	PhaseTerminal:            "terminal",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// IsFinalizing reports whether the phase is one of the three finalize branches
func (p Phase) IsFinalizing() bool {
	return p == PhaseFinalizingSuccess || p == PhaseFinalizingCancelled || p == PhaseFinalizingFailed
}

var allowedTransitions = map[Phase][]Phase{
	PhaseIdle:                {PhasePreparing},
	PhasePreparing:           {PhaseRunning, PhaseFinalizingFailed},
	PhaseRunning:             {PhaseFinalizingSuccess, PhaseFinalizingCancelled, PhaseFinalizingFailed},
	PhaseFinalizingSuccess:   {PhaseTerminal},
	PhaseFinalizingCancelled: {PhaseTerminal},
	PhaseFinalizingFailed:    {PhaseTerminal},
}

// CanTransitionTo reports whether next directly follows p
func (p Phase) CanTransitionTo(next Phase) bool {
	for _, allowed := range allowedTransitions[p] {
		if allowed == next {
			return true
		}
	}
	return false
}

// State is the mutable state of one run. It is owned by the run goroutine and is not
// safe for concurrent use.
type State struct {
	phase   Phase
	history []Phase
	status  string
}

// NewState returns a State in PhaseIdle
func NewState() *State {
	return &State{phase: PhaseIdle, history: []Phase{PhaseIdle}}
}

// Phase returns the current phase
func (s *State) Phase() Phase {
	return s.phase
}

// Status returns the last human-readable status message
func (s *State) Status() string {
	return s.status
}

// SetStatus records a human-readable status message
func (s *State) SetStatus(status string) {
	s.status = status
}

// History returns the phases visited so far, in order
func (s *State) History() []Phase {
	out := make([]Phase, len(s.history))
	copy(out, s.history)
	return out
}

// Advance moves to next, rejecting transitions the state machine does not allow
func (s *State) Advance(next Phase) error {
	if !s.phase.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.phase, next)
	}
	s.phase = next
	s.history = append(s.history, next)
	return nil
}
