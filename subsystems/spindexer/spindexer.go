// Package spindexer implements the three slot rotating carrier that stores game pieces between
// the intake and the shooter.
//
// The carrier is driven by a continuous rotation motor and observed by an incremental encoder
// and a home limit switch. Positions are meaningless until a calibration run has found the home
// edge; until then every position command is ignored. Once zeroed, Update runs a PIDF loop each
// tick that holds the carrier at its target.
//
// A Spindexer is owned by the control thread and is not safe for concurrent use.
package spindexer

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"go.viam.com/spindexer/components/encoder"
	"go.viam.com/spindexer/components/limitswitch"
	"go.viam.com/spindexer/components/motor"
	"go.viam.com/spindexer/control"
	"go.viam.com/spindexer/logging"
	"go.viam.com/spindexer/telemetry"
	"go.viam.com/spindexer/utils"
)

// A Spindexer is the indexer subsystem.
type Spindexer struct {
	cfg     Config
	motor   motor.Motor
	encoder encoder.Encoder
	home    limitswitch.LimitSwitch
	pidf    *control.PIDF
	logger  logging.Logger
	sink    telemetry.Sink

	isZeroed      bool
	isCalibrating bool
	targetTicks   float64
	zeroRefTicks  float64
	slots         Inventory
}

// New returns an uncalibrated indexer with every slot Unknown.
func New(
	cfg Config,
	m motor.Motor,
	enc encoder.Encoder,
	home limitswitch.LimitSwitch,
	sink telemetry.Sink,
	logger logging.Logger,
) (*Spindexer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "spindexer config")
	}
	pidf, err := control.NewPIDF(cfg.PIDF)
	if err != nil {
		return nil, errors.Wrap(err, "spindexer pidf")
	}
	if sink == nil {
		sink = telemetry.Discard
	}
	s := &Spindexer{
		cfg:     cfg,
		motor:   m,
		encoder: enc,
		home:    home,
		pidf:    pidf,
		logger:  logger,
		sink:    telemetry.WithPrefix(sink, "spindexer"),
	}
	s.ResetSlots()
	return s, nil
}

// Reconfigure applies new tunables. The whole PIDF config, nominal period included, takes effect
// on the next Update without resetting the controller state.
func (s *Spindexer) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "spindexer config")
	}
	if err := s.pidf.Apply(cfg.PIDF); err != nil {
		return errors.Wrap(err, "spindexer pidf")
	}
	if cfg.TicksPerRevolution != s.cfg.TicksPerRevolution && s.isZeroed {
		s.logger.Warnw("ticks per revolution changed while zeroed; slot angles shift",
			"from", s.cfg.TicksPerRevolution, "to", cfg.TicksPerRevolution)
	}
	s.cfg = cfg
	return nil
}

// Config returns the current tunables.
func (s *Spindexer) Config() Config {
	return s.cfg
}

// IsZeroed reports whether calibration has established the zero reference.
func (s *Spindexer) IsZeroed() bool {
	return s.isZeroed
}

// IsCalibrating reports whether a calibration run owns the motor.
func (s *Spindexer) IsCalibrating() bool {
	return s.isCalibrating
}

// ZeroReferenceTicks returns the raw encoder value of logical zero.
func (s *Spindexer) ZeroReferenceTicks() float64 {
	return s.zeroRefTicks
}

// TargetTicks returns the position the carrier is held at, relative to zero.
func (s *Spindexer) TargetTicks() float64 {
	return s.targetTicks
}

// TargetDegrees returns the target as a carrier angle.
func (s *Spindexer) TargetDegrees() float64 {
	return s.ticksToDegrees(s.targetTicks)
}

// PIDF exposes the position controller for live tuning.
func (s *Spindexer) PIDF() *control.PIDF {
	return s.pidf
}

func (s *Spindexer) rawTicks(ctx context.Context) (float64, error) {
	ticks, err := s.encoder.TicksCount(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "spindexer encoder")
	}
	return float64(ticks), nil
}

// PositionTicks returns the carrier position relative to the zero reference. Before calibration
// it is relative to wherever the encoder started.
func (s *Spindexer) PositionTicks(ctx context.Context) (float64, error) {
	raw, err := s.rawTicks(ctx)
	if err != nil {
		return 0, err
	}
	return raw - s.zeroRefTicks, nil
}

// PositionDegrees returns the carrier angle, unwrapped, so a full forward turn adds 360.
func (s *Spindexer) PositionDegrees(ctx context.Context) (float64, error) {
	ticks, err := s.PositionTicks(ctx)
	if err != nil {
		return 0, err
	}
	return s.ticksToDegrees(ticks), nil
}

// CurrentSlot returns the slot in front of the intake.
func (s *Spindexer) CurrentSlot(ctx context.Context) (int, error) {
	deg, err := s.PositionDegrees(ctx)
	if err != nil {
		return 0, err
	}
	return SlotIndex(deg), nil
}

func (s *Spindexer) ticksToDegrees(ticks float64) float64 {
	return ticks / s.cfg.TicksPerRevolution * 360
}

func (s *Spindexer) degreesToTicks(deg float64) float64 {
	return deg / 360 * s.cfg.TicksPerRevolution
}

// SetTargetTicks sets the position to hold, relative to zero. It is ignored, reporting false,
// until the carrier is zeroed.
func (s *Spindexer) SetTargetTicks(ticks float64) bool {
	if !s.isZeroed || math.IsNaN(ticks) || math.IsInf(ticks, 0) {
		return false
	}
	if ticks != s.targetTicks {
		s.logger.Debugw("target", "ticks", ticks)
	}
	s.targetTicks = ticks
	return true
}

// SetTargetRevolutions sets the position to hold in revolutions from zero.
func (s *Spindexer) SetTargetRevolutions(rev float64) bool {
	return s.SetTargetTicks(rev * s.cfg.TicksPerRevolution)
}

// resolveAngle turns a carrier angle into the unwrapped tick target equivalent to it that is
// reached from positionDeg by the shortest turn, or by turning forward only. A carrier already
// aligned with angleDeg is corrected by the shortest turn even when forwardOnly is set, so a
// slot just past center is not reached by a full revolution.
func (s *Spindexer) resolveAngle(positionDeg, angleDeg float64, forwardOnly bool) float64 {
	var delta float64
	if forwardOnly && !utils.WithinAngleTolerance(positionDeg, angleDeg, s.cfg.AlignedToleranceDeg) {
		delta = utils.ModAngDeg(angleDeg - positionDeg)
	} else {
		delta = utils.SignedAngleDiffDeg(positionDeg, angleDeg)
	}
	return s.degreesToTicks(positionDeg + delta)
}

// AtTarget reports whether the carrier is within tolerance of its target. It is false until
// the carrier is zeroed.
func (s *Spindexer) AtTarget(ctx context.Context) (bool, error) {
	if !s.isZeroed {
		return false, nil
	}
	pos, err := s.PositionTicks(ctx)
	if err != nil {
		return false, err
	}
	return math.Abs(s.targetTicks-pos) < s.cfg.ToleranceTicks, nil
}

// IsAlignedWith reports whether the carrier angle is within the aligned tolerance of angleDeg,
// across the 0/360 seam.
func (s *Spindexer) IsAlignedWith(ctx context.Context, angleDeg float64) (bool, error) {
	if !s.isZeroed {
		return false, nil
	}
	deg, err := s.PositionDegrees(ctx)
	if err != nil {
		return false, err
	}
	return utils.WithinAngleTolerance(deg, angleDeg, s.cfg.AlignedToleranceDeg), nil
}

// Update runs one tick of position control. It does nothing to the motor until the carrier is
// zeroed or while a calibration run owns it.
func (s *Spindexer) Update(ctx context.Context) error {
	s.publish()
	if !s.isZeroed || s.isCalibrating {
		return nil
	}
	pos, err := s.PositionTicks(ctx)
	if err != nil {
		return err
	}
	out := s.pidf.Output(pos, s.targetTicks)
	s.sink.Put("position_ticks", pos)
	s.sink.Put("slot", SlotIndex(s.ticksToDegrees(pos)))
	s.sink.Put("output", out)
	if err := s.motor.SetPower(ctx, out, nil); err != nil {
		return errors.Wrap(err, "spindexer motor")
	}
	return nil
}

func (s *Spindexer) publish() {
	s.sink.Put("zeroed", s.isZeroed)
	s.sink.Put("calibrating", s.isCalibrating)
	s.sink.Put("target_ticks", s.targetTicks)
	s.sink.Put("slots", s.slots.String())
}

// Stop stops the motor. A zeroed carrier resumes holding its target on the next Update.
func (s *Spindexer) Stop(ctx context.Context) error {
	return s.motor.Stop(ctx, nil)
}

// HoldCurrent makes the current position the target and clears the controller history, so the
// next Update does not move the carrier.
func (s *Spindexer) HoldCurrent(ctx context.Context) error {
	if !s.isZeroed {
		return nil
	}
	pos, err := s.PositionTicks(ctx)
	if err != nil {
		return err
	}
	s.SetTargetTicks(pos)
	s.pidf.Reset()
	return nil
}
