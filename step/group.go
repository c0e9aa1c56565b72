package step

import (
	"context"

	"go.uber.org/multierr"
)

type sequence struct {
	steps  []Step
	cursor int
}

// Sequence runs steps one after another. Only the step at the cursor is advanced; a step
// never starts before every earlier step has completed.
func Sequence(steps ...Step) Step {
	return &sequence{steps: steps}
}

func (s *sequence) Advance(ctx context.Context) (bool, error) {
	if s.cursor >= len(s.steps) {
		return false, nil
	}
	more, err := s.steps[s.cursor].Advance(ctx)
	if err != nil {
		s.cursor = len(s.steps)
		return false, err
	}
	if !more {
		s.cursor++
	}
	return s.cursor < len(s.steps), nil
}

type parallel struct {
	running []Step
	done    bool
}

// Parallel advances every unfinished step each tick in registration order and completes when
// all of them have completed. A failure in any step ends the group with the combined error of
// that tick.
func Parallel(steps ...Step) Step {
	return &parallel{running: steps}
}

func (s *parallel) Advance(ctx context.Context) (bool, error) {
	if s.done {
		return false, nil
	}
	var errs error
	still := s.running[:0:0]
	for _, child := range s.running {
		more, err := child.Advance(ctx)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if more {
			still = append(still, child)
		}
	}
	s.running = still
	if errs != nil || len(s.running) == 0 {
		s.done = true
		s.running = nil
		return false, errs
	}
	return true, nil
}

type race struct {
	steps []Step
	done  bool
}

// Race advances its steps in registration order and completes in the same tick as the first
// one to complete. Steps after the winner are not advanced in that tick and the others are
// abandoned without any further call.
func Race(steps ...Step) Step {
	return &race{steps: steps}
}

func (s *race) Advance(ctx context.Context) (bool, error) {
	if s.done {
		return false, nil
	}
	for _, child := range s.steps {
		more, err := child.Advance(ctx)
		if err != nil || !more {
			s.done = true
			s.steps = nil
			return false, err
		}
	}
	if len(s.steps) == 0 {
		s.done = true
		return false, nil
	}
	return true, nil
}

type deadline struct {
	others   []Step
	deadline Step
	done     bool
}

// Deadline advances every step each tick, but only the last one decides when the group ends.
// The others run for their effect; any that complete early are not advanced again and any still
// running when the deadline completes are abandoned.
func Deadline(steps ...Step) Step {
	if len(steps) == 0 {
		return &deadline{done: true}
	}
	return &deadline{
		others:   append([]Step(nil), steps[:len(steps)-1]...),
		deadline: steps[len(steps)-1],
	}
}

func (s *deadline) Advance(ctx context.Context) (bool, error) {
	if s.done {
		return false, nil
	}
	still := s.others[:0:0]
	for _, child := range s.others {
		more, err := child.Advance(ctx)
		if err != nil {
			s.done = true
			return false, err
		}
		if more {
			still = append(still, child)
		}
	}
	s.others = still
	more, err := s.deadline.Advance(ctx)
	if err != nil || !more {
		s.done = true
		s.others = nil
		return false, err
	}
	return true, nil
}
