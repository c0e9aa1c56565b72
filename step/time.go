package step

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// ErrTimedOut is returned by a Timeout step whose child did not finish in time.
var ErrTimedOut = errors.New("step timed out")

type wait struct {
	clk      clock.Clock
	d        time.Duration
	deadline time.Time
	started  bool
}

// Wait returns a step that completes once d has elapsed on clk, measured from its first advance.
func Wait(clk clock.Clock, d time.Duration) Step {
	return &wait{clk: clk, d: d}
}

func (s *wait) Advance(ctx context.Context) (bool, error) {
	if !s.started {
		s.started = true
		s.deadline = s.clk.Now().Add(s.d)
	}
	return s.clk.Now().Before(s.deadline), nil
}

type timeout struct {
	clk      clock.Clock
	d        time.Duration
	child    Step
	deadline time.Time
	started  bool
	done     bool
}

// Timeout bounds child to d of clk time from its first advance. If child is still running at
// the deadline it is abandoned and the step fails with an error wrapping ErrTimedOut. This is the
// watchdog for steps that wait on a sensor transition that may never come.
func Timeout(clk clock.Clock, d time.Duration, child Step) Step {
	return &timeout{clk: clk, d: d, child: child}
}

func (s *timeout) Advance(ctx context.Context) (bool, error) {
	if s.done {
		return false, nil
	}
	if !s.started {
		s.started = true
		s.deadline = s.clk.Now().Add(s.d)
	}
	more, err := s.child.Advance(ctx)
	if err != nil || !more {
		s.done = true
		return false, err
	}
	if !s.clk.Now().Before(s.deadline) {
		s.done = true
		return false, errors.Wrapf(ErrTimedOut, "after %v", s.d)
	}
	return true, nil
}
