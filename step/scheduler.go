package step

import (
	"context"

	"go.uber.org/multierr"

	"go.viam.com/spindexer/logging"
)

// A Scheduler holds the top-level steps that are active and advances each of them once per
// control-loop tick. It owns nothing but the list membership. It must only be used from the
// control thread.
type Scheduler struct {
	logger     logging.Logger
	active     []Step
	generation uint64
	// inFlight counts the steps of the tick being advanced that are still live: those kept so
	// far, the one running and those not yet reached.
	inFlight int
}

// NewScheduler returns an empty scheduler.
func NewScheduler(logger logging.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// Schedule appends steps to the active list. Steps scheduled from inside Advance are first
// advanced on the following tick.
func (s *Scheduler) Schedule(steps ...Step) {
	s.active = append(s.active, steps...)
}

// Advance advances every active step once. Steps that complete or fail are dropped; the errors
// of every failed step are logged and returned combined.
func (s *Scheduler) Advance(ctx context.Context) error {
	snapshot := s.active
	s.active = nil
	gen := s.generation

	var errs error
	next := make([]Step, 0, len(snapshot))
	defer func() { s.inFlight = 0 }()
	for i, st := range snapshot {
		s.inFlight = len(next) + len(snapshot) - i
		more, err := st.Advance(ctx)
		if err != nil {
			s.logger.Errorw("step failed", "error", err)
			errs = multierr.Append(errs, err)
			continue
		}
		if more {
			next = append(next, st)
		}
		if s.generation != gen {
			// Cleared from inside a step.
			break
		}
	}
	if s.generation != gen {
		return errs
	}
	s.active = append(next, s.active...)
	return errs
}

// Clear drops every active step without advancing it again. Steps get no chance to release the
// actuators they were driving; callers must command a safe state themselves.
func (s *Scheduler) Clear() {
	if n := s.Count(); n > 0 {
		s.logger.Warnw("clearing scheduler", "abandoned", n)
	}
	s.active = nil
	s.inFlight = 0
	s.generation++
}

// IsEmpty reports whether no step is active.
func (s *Scheduler) IsEmpty() bool {
	return s.Count() == 0
}

// Count returns the number of active steps. Called from inside Advance it includes the step
// being advanced.
func (s *Scheduler) Count() int {
	return len(s.active) + s.inFlight
}
