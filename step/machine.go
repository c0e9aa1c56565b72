package step

import (
	"context"
	"slices"

	"github.com/pkg/errors"
)

// A State describes one phase of a Machine. Enter runs when the machine moves into the state,
// Exit when it leaves. Tick runs every tick while the state is current and reports the next
// state when a transition is due. Next lists the states Tick may move to.
type State[S comparable] struct {
	Enter func(ctx context.Context) error
	Tick  func(ctx context.Context) (next S, transition bool, err error)
	Exit  func(ctx context.Context) error
	Next  []S
}

// A Machine is a step driven by an explicit state enum and transition table. It enters the
// initial state on its first advance, takes at most one transition per tick, and completes on
// entering the final state.
type Machine[S comparable] struct {
	initial S
	final   S
	states  map[S]State[S]

	current S
	started bool
	done    bool
	onEnter []func(S)
}

// NewMachine builds a machine from its transition table. Every state named as an initial,
// final or next state must be present in states.
func NewMachine[S comparable](initial, final S, states map[S]State[S]) (*Machine[S], error) {
	if _, ok := states[initial]; !ok {
		return nil, errors.Errorf("initial state %v is not defined", initial)
	}
	if _, ok := states[final]; !ok {
		return nil, errors.Errorf("final state %v is not defined", final)
	}
	for from, st := range states {
		for _, to := range st.Next {
			if _, ok := states[to]; !ok {
				return nil, errors.Errorf("state %v lists undefined next state %v", from, to)
			}
		}
		if from != final && st.Tick == nil {
			return nil, errors.Errorf("state %v has no tick function", from)
		}
	}
	return &Machine[S]{initial: initial, final: final, states: states, current: initial}, nil
}

// OnEnter registers fn to be called with each state the machine enters, including the
// initial one.
func (m *Machine[S]) OnEnter(fn func(S)) {
	m.onEnter = append(m.onEnter, fn)
}

// Current returns the current state.
func (m *Machine[S]) Current() S {
	return m.current
}

// Done reports whether the machine reached its final state or failed.
func (m *Machine[S]) Done() bool {
	return m.done
}

// Reset rewinds the machine so the next advance re-enters the initial state.
func (m *Machine[S]) Reset() {
	m.current = m.initial
	m.started = false
	m.done = false
}

// Advance runs the current state's tick and at most one transition.
func (m *Machine[S]) Advance(ctx context.Context) (bool, error) {
	if m.done {
		return false, nil
	}
	if !m.started {
		m.started = true
		m.current = m.initial
		if err := m.enter(ctx, m.initial); err != nil {
			m.done = true
			return false, err
		}
		if m.current == m.final {
			m.done = true
			return false, nil
		}
	}

	st := m.states[m.current]
	next, transition, err := st.Tick(ctx)
	if err != nil {
		m.done = true
		return false, errors.Wrapf(err, "in state %v", m.current)
	}
	if !transition {
		return true, nil
	}
	if !slices.Contains(st.Next, next) {
		m.done = true
		return false, errors.Errorf("illegal transition %v -> %v", m.current, next)
	}
	if st.Exit != nil {
		if err := st.Exit(ctx); err != nil {
			m.done = true
			return false, errors.Wrapf(err, "leaving state %v", m.current)
		}
	}
	m.current = next
	if err := m.enter(ctx, next); err != nil {
		m.done = true
		return false, err
	}
	if next == m.final {
		m.done = true
		return false, nil
	}
	return true, nil
}

func (m *Machine[S]) enter(ctx context.Context, s S) error {
	for _, fn := range m.onEnter {
		fn(s)
	}
	if enter := m.states[s].Enter; enter != nil {
		if err := enter(ctx); err != nil {
			return errors.Wrapf(err, "entering state %v", s)
		}
	}
	return nil
}
