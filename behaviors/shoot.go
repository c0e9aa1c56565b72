package behaviors

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/spindexer/step"
	"go.viam.com/spindexer/subsystems/spindexer"
	"go.viam.com/spindexer/subsystems/transfer"
)

// Align brings a slot to the ejection port.
type Align struct {
	b    *Behaviors
	want spindexer.SlotContent
	slot int
	move step.Step
}

// AlignAndShoot returns a step that picks the slot to fire and turns it to the ejection port by
// the shortest path. A slot holding want is preferred, then any occupied slot, then the nearest.
// Pass Unknown to take any color. The slot is chosen on the first advance after calibration and
// the step completes once the carrier is within tolerance of it.
func (b *Behaviors) AlignAndShoot(want spindexer.SlotContent) *Align {
	return &Align{b: b, want: want, slot: -1}
}

// Slot returns the slot chosen, or -1 before one is.
func (a *Align) Slot() int {
	return a.slot
}

// Advance implements step.Step.
func (a *Align) Advance(ctx context.Context) (bool, error) {
	idx := a.b.deps.Spindexer
	if a.move == nil {
		if !idx.IsZeroed() {
			return true, nil
		}
		pos, err := idx.PositionDegrees(ctx)
		if err != nil {
			return false, err
		}
		a.slot = idx.ShootSlotAt(pos, a.want)
		a.move = idx.ToShootSlot(a.slot)
		a.b.deps.Logger.Debugw("aligning to shoot", "slot", a.slot, "content", idx.Slot(a.slot), "want", a.want)
	}
	return a.move.Advance(ctx)
}

// Fire returns a step that holds the shooter at its target speed, waits until it is there, runs
// the transfer for the feed time and marks the slot returned by slot as empty. The shooter keeps
// running afterwards; schedule the shooter's Stop to spin it down.
func (b *Behaviors) Fire(slot func() int) (step.Step, error) {
	if b.deps.Shooter == nil {
		return nil, errors.New("fire needs a shooter")
	}
	sh := b.deps.Shooter
	feed := step.Sequence(
		sh.AtSpeed(),
		b.deps.Transfer.SetStep(transfer.Forward),
		step.Wait(b.deps.Clock, b.cfg.FeedTime),
		b.deps.Transfer.SetStep(transfer.Stopped),
		step.Instant(func(context.Context) error {
			i := slot()
			b.deps.Spindexer.ClearSlot(i)
			b.deps.Logger.Infow("fired", "slot", i)
			return nil
		}),
	)
	return step.Deadline(sh.Hold(sh.TargetRPM()), feed), nil
}

// ShootOne returns a step that spins the shooter up while aligning the best slot for want, then
// fires it.
func (b *Behaviors) ShootOne(want spindexer.SlotContent) (step.Step, error) {
	if b.deps.Shooter == nil {
		return nil, errors.New("shoot needs a shooter")
	}
	align := b.AlignAndShoot(want)
	fire, err := b.Fire(align.Slot)
	if err != nil {
		return nil, err
	}
	return step.Sequence(step.Parallel(align, b.deps.Shooter.SpinUp(b.deps.Shooter.TargetRPM())), fire), nil
}
