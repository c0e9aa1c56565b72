// Package transfer implements the belt that carries game pieces between the intake, the indexer
// and the shooter.
package transfer

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"go.viam.com/spindexer/components/motor"
	"go.viam.com/spindexer/logging"
	"go.viam.com/spindexer/step"
)

// State is the direction the transfer was last commanded to run.
type State int

// The transfer states.
const (
	Stopped State = iota
	Forward
	Reverse
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Transfer owns the transfer motor. It is a single shared resource: any behavior may command
// it, and the last command in a tick wins.
type Transfer struct {
	motor  motor.Motor
	logger logging.Logger
	power  float64
	state  State
	// sent is false until the first command reaches the motor, so the initial Stop is not
	// skipped as redundant.
	sent bool
}

// New returns a transfer running motor at power when commanded forward or reverse.
func New(m motor.Motor, power float64, logger logging.Logger) (*Transfer, error) {
	if power <= 0 || power > 1 {
		return nil, errors.Errorf("transfer power must be in (0, 1], got %v", power)
	}
	return &Transfer{motor: m, power: power, logger: logger}, nil
}

// State returns the last commanded state.
func (t *Transfer) State() State {
	return t.state
}

// SetPower changes the power used for forward and reverse. A running transfer picks it up on
// its next command.
func (t *Transfer) SetPower(power float64) error {
	if power <= 0 || power > 1 {
		return errors.Errorf("transfer power must be in (0, 1], got %v", power)
	}
	t.power = power
	return nil
}

// Set commands the transfer into s. Repeating the current command does not reach the motor.
func (t *Transfer) Set(ctx context.Context, s State) error {
	if t.sent && s == t.state {
		return nil
	}
	var err error
	switch s {
	case Stopped:
		err = t.motor.Stop(ctx, nil)
	case Forward:
		err = t.motor.SetPower(ctx, t.power, nil)
	case Reverse:
		err = t.motor.SetPower(ctx, -t.power, nil)
	default:
		return errors.Errorf("unknown transfer state %v", s)
	}
	if err != nil {
		return errors.Wrapf(err, "transfer %v", s)
	}
	if t.state != s {
		t.logger.Debugw("transfer", "from", t.state, "to", s)
	}
	t.state = s
	t.sent = true
	return nil
}

// Forward runs the transfer toward the shooter.
func (t *Transfer) Forward(ctx context.Context) error { return t.Set(ctx, Forward) }

// Reverse runs the transfer back toward the intake.
func (t *Transfer) Reverse(ctx context.Context) error { return t.Set(ctx, Reverse) }

// Stop stops the transfer.
func (t *Transfer) Stop(ctx context.Context) error { return t.Set(ctx, Stopped) }

// ForceStop stops the motor even if the transfer believes it is already stopped.
func (t *Transfer) ForceStop(ctx context.Context) error {
	t.sent = false
	return t.Set(ctx, Stopped)
}

// SetStep returns a step that commands s and completes in the same tick.
func (t *Transfer) SetStep(s State) step.Step {
	return step.Instant(func(ctx context.Context) error { return t.Set(ctx, s) })
}
