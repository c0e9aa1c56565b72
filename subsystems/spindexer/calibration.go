package spindexer

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"go.viam.com/spindexer/step"
)

// CalibrationState is a phase of the homing run.
type CalibrationState int

// The calibration states, in the order a run moves through them.
const (
	Start CalibrationState = iota
	MoveOffSensor
	SeekFast
	BackOff
	SeekSlow
	Done
)

func (c CalibrationState) String() string {
	switch c {
	case Start:
		return "Start"
	case MoveOffSensor:
		return "MoveOffSensor"
	case SeekFast:
		return "SeekFast"
	case BackOff:
		return "BackOff"
	case SeekSlow:
		return "SeekSlow"
	case Done:
		return "Done"
	default:
		return fmt.Sprintf("CalibrationState(%d)", int(c))
	}
}

// Calibrate returns a step that homes the carrier: it approaches the home switch fast, backs off,
// and approaches again slowly so the recorded edge does not depend on approach speed. While it
// runs Update leaves the motor alone. On completion the carrier is zeroed and held at zero.
//
// The run never times out on its own; wrap it in step.Timeout to guard against a dead switch.
func (s *Spindexer) Calibrate() *step.Machine[CalibrationState] {
	c := &calibration{s: s}
	m, err := step.NewMachine(Start, Done, map[CalibrationState]step.State[CalibrationState]{
		Start:         {Enter: c.begin, Tick: c.start, Next: []CalibrationState{MoveOffSensor, SeekFast}},
		MoveOffSensor: {Tick: c.moveOffSensor, Next: []CalibrationState{SeekFast}},
		SeekFast:      {Tick: c.seekFast, Next: []CalibrationState{BackOff}},
		BackOff:       {Tick: c.backOff, Next: []CalibrationState{SeekSlow}},
		SeekSlow:      {Tick: c.seekSlow, Next: []CalibrationState{Done}},
		Done:          {},
	})
	if err != nil {
		// The table above is fixed; an error here is a programming mistake.
		panic(err)
	}
	m.OnEnter(func(state CalibrationState) {
		s.logger.Debugw("calibration", "state", state)
		s.sink.Put("calibration_state", state.String())
	})
	return m
}

// AbortCalibration releases the motor from an abandoned calibration run. The carrier stays
// unzeroed.
func (s *Spindexer) AbortCalibration() {
	if s.isCalibrating {
		s.logger.Warn("calibration aborted")
	}
	s.isCalibrating = false
}

type calibration struct {
	s             *Spindexer
	backOffTarget float64
}

func (c *calibration) begin(ctx context.Context) error {
	// Must hold before the first motor command of the run.
	c.s.isCalibrating = true
	c.s.isZeroed = false
	c.s.pidf.Reset()
	return nil
}

func (c *calibration) power(ctx context.Context, pct float64) error {
	if err := c.s.motor.SetPower(ctx, pct, nil); err != nil {
		return errors.Wrap(err, "spindexer motor")
	}
	return nil
}

func (c *calibration) stop(ctx context.Context) error {
	if err := c.s.motor.Stop(ctx, nil); err != nil {
		return errors.Wrap(err, "spindexer motor")
	}
	return nil
}

func (c *calibration) triggered(ctx context.Context) (bool, error) {
	t, err := c.s.home.Triggered(ctx, nil)
	if err != nil {
		return false, errors.Wrap(err, "spindexer home switch")
	}
	return t, nil
}

func (c *calibration) start(ctx context.Context) (CalibrationState, bool, error) {
	on, err := c.triggered(ctx)
	if err != nil {
		return Start, false, err
	}
	if on {
		return MoveOffSensor, true, c.power(ctx, -c.s.cfg.MoveOffPower)
	}
	return SeekFast, true, c.power(ctx, c.s.cfg.FastPower)
}

func (c *calibration) moveOffSensor(ctx context.Context) (CalibrationState, bool, error) {
	on, err := c.triggered(ctx)
	if err != nil || on {
		return MoveOffSensor, false, err
	}
	return SeekFast, true, c.power(ctx, c.s.cfg.FastPower)
}

func (c *calibration) seekFast(ctx context.Context) (CalibrationState, bool, error) {
	on, err := c.triggered(ctx)
	if err != nil || !on {
		return SeekFast, false, err
	}
	if err := c.stop(ctx); err != nil {
		return SeekFast, false, err
	}
	ticks, err := c.s.rawTicks(ctx)
	if err != nil {
		return SeekFast, false, err
	}
	c.backOffTarget = ticks - c.s.cfg.BackOffTicks
	return BackOff, true, c.power(ctx, -c.s.cfg.SlowPower)
}

func (c *calibration) backOff(ctx context.Context) (CalibrationState, bool, error) {
	ticks, err := c.s.rawTicks(ctx)
	if err != nil || ticks > c.backOffTarget {
		return BackOff, false, err
	}
	return SeekSlow, true, c.power(ctx, c.s.cfg.SlowPower)
}

func (c *calibration) seekSlow(ctx context.Context) (CalibrationState, bool, error) {
	on, err := c.triggered(ctx)
	if err != nil || !on {
		return SeekSlow, false, err
	}
	if err := c.stop(ctx); err != nil {
		return SeekSlow, false, err
	}
	ticks, err := c.s.rawTicks(ctx)
	if err != nil {
		return SeekSlow, false, err
	}
	s := c.s
	s.zeroRefTicks = ticks + s.cfg.SensorOffsetTicks
	s.targetTicks = 0
	s.pidf.Reset()
	s.isZeroed = true
	// Cleared only once the zero reference is in place.
	s.isCalibrating = false
	s.logger.Infow("spindexer calibrated", "zero_reference_ticks", s.zeroRefTicks)
	return Done, true, nil
}
