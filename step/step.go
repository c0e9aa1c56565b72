// Package step implements cooperative, non-blocking units of work and the combinators and
// scheduler that advance them once per control-loop tick.
//
// Every Step follows one polarity convention: Advance returns true while the step must be
// called again on a later tick and false once it has completed. A non-nil error means the step
// failed; it is complete and must not be advanced again.
package step

import (
	"context"
)

// A Step is a unit of work advanced once per tick. Advance performs one bounded increment of
// work and never blocks.
type Step interface {
	Advance(ctx context.Context) (bool, error)
}

// Func adapts a function to a Step.
type Func func(ctx context.Context) (bool, error)

// Advance calls f.
func (f Func) Advance(ctx context.Context) (bool, error) {
	return f(ctx)
}

type instant struct {
	fn   func(ctx context.Context) error
	done bool
}

// Instant returns a step that runs fn on its first advance and completes in the same tick.
func Instant(fn func(ctx context.Context) error) Step {
	return &instant{fn: fn}
}

func (s *instant) Advance(ctx context.Context) (bool, error) {
	if s.done {
		return false, nil
	}
	s.done = true
	return false, s.fn(ctx)
}

type waitUntil struct {
	cond func(ctx context.Context) (bool, error)
	done bool
}

// WaitUntil returns a step that keeps running until cond reports true.
func WaitUntil(cond func(ctx context.Context) (bool, error)) Step {
	return &waitUntil{cond: cond}
}

func (s *waitUntil) Advance(ctx context.Context) (bool, error) {
	if s.done {
		return false, nil
	}
	ok, err := s.cond(ctx)
	if err != nil || ok {
		s.done = true
		return false, err
	}
	return true, nil
}

type forever struct {
	fn func(ctx context.Context) error
}

// Forever returns a step that runs fn every tick and never completes on its own. It ends only
// when fn fails or an enclosing Race or Deadline abandons it.
func Forever(fn func(ctx context.Context) error) Step {
	return &forever{fn: fn}
}

func (s *forever) Advance(ctx context.Context) (bool, error) {
	if err := s.fn(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Idle is a step that never completes and does nothing. It is useful as the deadline of a group
// that should run until abandoned.
func Idle() Step {
	return Func(func(context.Context) (bool, error) { return true, nil })
}

type repeat struct {
	factory func() Step
	times   int
	count   int
	current Step
	done    bool
}

// Repeat runs a fresh step from factory to completion, times times in a row. A negative times
// repeats until a run fails.
func Repeat(times int, factory func() Step) Step {
	return &repeat{factory: factory, times: times, done: times == 0}
}

func (s *repeat) Advance(ctx context.Context) (bool, error) {
	if s.done {
		return false, nil
	}
	if s.current == nil {
		s.current = s.factory()
	}
	more, err := s.current.Advance(ctx)
	if err != nil {
		s.done = true
		return false, err
	}
	if !more {
		s.current = nil
		s.count++
		if s.times >= 0 && s.count >= s.times {
			s.done = true
		}
	}
	return !s.done, nil
}
