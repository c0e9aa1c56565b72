package spindexer

import (
	"context"
	"math"

	"go.viam.com/spindexer/step"
)

// ToTicks returns a step that sets the target to ticks from zero every tick and keeps running
// until the carrier is within tolerance of it. Before calibration it never completes and never
// commands the motor. Once converged, advancing it again completes immediately.
func (s *Spindexer) ToTicks(ticks float64) step.Step {
	return step.Func(func(ctx context.Context) (bool, error) {
		if !s.SetTargetTicks(ticks) {
			return true, nil
		}
		pos, err := s.PositionTicks(ctx)
		if err != nil {
			return false, err
		}
		return math.Abs(ticks-pos) >= s.cfg.ToleranceTicks, nil
	})
}

// ToPosition is ToTicks with the target in revolutions from zero.
func (s *Spindexer) ToPosition(revolutions float64) step.Step {
	return s.ToTicks(revolutions * s.cfg.TicksPerRevolution)
}

type toAngle struct {
	s           *Spindexer
	angleDeg    func() float64
	forwardOnly bool
	resolved    bool
	target      float64
}

// ToAngle returns a step that moves the carrier to the nearest position equivalent to the given
// angle, by the shortest turn or, with forwardOnly, turning forward only. The angle is read and
// resolved against the carrier position on the first advance after calibration.
func (s *Spindexer) ToAngle(angleDeg float64, forwardOnly bool) step.Step {
	return s.toAngleFunc(func() float64 { return angleDeg }, forwardOnly)
}

func (s *Spindexer) toAngleFunc(angleDeg func() float64, forwardOnly bool) step.Step {
	return &toAngle{s: s, angleDeg: angleDeg, forwardOnly: forwardOnly}
}

func (t *toAngle) Advance(ctx context.Context) (bool, error) {
	if !t.s.isZeroed {
		return true, nil
	}
	pos, err := t.s.PositionTicks(ctx)
	if err != nil {
		return false, err
	}
	if !t.resolved {
		t.resolved = true
		t.target = t.s.resolveAngle(t.s.ticksToDegrees(pos), t.angleDeg(), t.forwardOnly)
	}
	t.s.SetTargetTicks(t.target)
	return math.Abs(t.target-pos) >= t.s.cfg.ToleranceTicks, nil
}

// ToIntakeSlot returns a step that brings slot i in front of the intake, turning forward only.
func (s *Spindexer) ToIntakeSlot(i int) step.Step {
	return s.toAngleFunc(func() float64 { return s.IntakeAngle(i) }, true)
}

// ToShootSlot returns a step that brings slot i in front of the ejection port by the shortest
// turn.
func (s *Spindexer) ToShootSlot(i int) step.Step {
	return s.toAngleFunc(func() float64 { return s.ShootAngle(i) }, false)
}
