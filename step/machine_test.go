package step

import (
	"context"
	"errors"
	"testing"

	"go.viam.com/test"
)

type light int

const (
	red light = iota
	green
	yellow
	off
)

func TestMachineTransitions(t *testing.T) {
	var entered []light
	var exits int
	ticksInGreen := 0
	states := map[light]State[light]{
		red: {
			Tick: func(context.Context) (light, bool, error) { return green, true, nil },
			Next: []light{green},
		},
		green: {
			Enter: func(context.Context) error { ticksInGreen = 0; return nil },
			Tick: func(context.Context) (light, bool, error) {
				ticksInGreen++
				return yellow, ticksInGreen == 3, nil
			},
			Exit: func(context.Context) error { exits++; return nil },
			Next: []light{yellow},
		},
		yellow: {
			Tick: func(context.Context) (light, bool, error) { return off, true, nil },
			Next: []light{off, red},
		},
		off: {},
	}
	m, err := NewMachine(red, off, states)
	test.That(t, err, test.ShouldBeNil)
	m.OnEnter(func(s light) { entered = append(entered, s) })

	results := drain(t, m, 20)
	flipsOnce(t, results)
	test.That(t, entered, test.ShouldResemble, []light{red, green, yellow, off})
	test.That(t, exits, test.ShouldEqual, 1)
	// red->green, three ticks in green, yellow->off
	test.That(t, len(results), test.ShouldEqual, 5)
	test.That(t, m.Current(), test.ShouldEqual, off)
	test.That(t, m.Done(), test.ShouldBeTrue)

	m.Reset()
	entered = nil
	flipsOnce(t, drain(t, m, 20))
	test.That(t, entered, test.ShouldResemble, []light{red, green, yellow, off})
}

func TestMachineValidation(t *testing.T) {
	tick := func(context.Context) (light, bool, error) { return red, false, nil }
	_, err := NewMachine(red, off, map[light]State[light]{off: {}})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "initial state")

	_, err = NewMachine(red, off, map[light]State[light]{red: {Tick: tick}})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "final state")

	_, err = NewMachine(red, off, map[light]State[light]{red: {Tick: tick, Next: []light{green}}, off: {}})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "undefined next state")

	_, err = NewMachine(red, off, map[light]State[light]{red: {}, off: {}})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no tick function")
}

func TestMachineIllegalTransition(t *testing.T) {
	m, err := NewMachine(red, off, map[light]State[light]{
		red: {
			Tick: func(context.Context) (light, bool, error) { return off, true, nil },
			Next: []light{green},
		},
		green: {Tick: func(context.Context) (light, bool, error) { return off, true, nil }, Next: []light{off}},
		off:   {},
	})
	test.That(t, err, test.ShouldBeNil)
	more, err := m.Advance(context.Background())
	test.That(t, more, test.ShouldBeFalse)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "illegal transition")
	test.That(t, m.Current(), test.ShouldEqual, red)
}

func TestMachineTickError(t *testing.T) {
	boom := errors.New("sensor unplugged")
	m, err := NewMachine(red, off, map[light]State[light]{
		red: {Tick: func(context.Context) (light, bool, error) { return red, false, boom }},
		off: {},
	})
	test.That(t, err, test.ShouldBeNil)
	more, err := m.Advance(context.Background())
	test.That(t, more, test.ShouldBeFalse)
	test.That(t, errors.Is(err, boom), test.ShouldBeTrue)
	more, err = m.Advance(context.Background())
	test.That(t, more, test.ShouldBeFalse)
	test.That(t, err, test.ShouldBeNil)
}
