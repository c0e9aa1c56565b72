package behaviors

import (
	"context"
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"go.viam.com/spindexer/step"
	"go.viam.com/spindexer/subsystems/spindexer"
	"go.viam.com/spindexer/subsystems/transfer"
)

// IntakeState is a phase of an intake run.
type IntakeState int

// The intake states.
const (
	FindSlot IntakeState = iota
	MoveToSlot
	Classify
	Settle
	IntakeDone
)

func (s IntakeState) String() string {
	switch s {
	case FindSlot:
		return "FindSlot"
	case MoveToSlot:
		return "MoveToSlot"
	case Classify:
		return "Classify"
	case Settle:
		return "Settle"
	case IntakeDone:
		return "IntakeDone"
	default:
		return fmt.Sprintf("IntakeState(%d)", int(s))
	}
}

// Intake takes one piece into the next free slot and records its color.
//
// It picks the free slot in front of the intake, or the next free one going forward, runs the
// transfer, turns the carrier there, opens the gate and samples the color sensor until the median
// of the last few samples falls inside a color band. The color is written to the slot, the carrier
// holds for the settle time, and the transfer and gate are stopped. If no confident color is seen
// within the classify timeout the slot is left as it was. While the carrier is not calibrated the
// run waits without moving anything. A full carrier ends the run at once.
type Intake struct {
	*step.Machine[IntakeState]
	b *Behaviors

	slot     int
	move     step.Step
	deadline time.Time
	settled  time.Time
	hues     []float64
	sats     []float64
	result   spindexer.SlotContent
	timedOut bool
}

// IntakeAndClassify returns a new intake run.
func (b *Behaviors) IntakeAndClassify() *Intake {
	in := &Intake{b: b, slot: -1, result: spindexer.Unknown}
	m, err := step.NewMachine(FindSlot, IntakeDone, map[IntakeState]step.State[IntakeState]{
		FindSlot:   {Tick: in.findSlot, Next: []IntakeState{MoveToSlot, IntakeDone}},
		MoveToSlot: {Tick: in.moveToSlot, Next: []IntakeState{Classify}},
		Classify:   {Enter: in.beginClassify, Tick: in.classify, Next: []IntakeState{Settle, IntakeDone}},
		Settle:     {Enter: in.beginSettle, Tick: in.settle, Next: []IntakeState{IntakeDone}},
		IntakeDone: {Enter: in.finish},
	})
	if err != nil {
		panic(err)
	}
	m.OnEnter(func(s IntakeState) { b.deps.Logger.Debugw("intake", "state", s, "slot", in.slot) })
	in.Machine = m
	return in
}

// Slot returns the slot being filled, or -1 before one is chosen.
func (in *Intake) Slot() int {
	return in.slot
}

// Result returns the color recorded, Unknown until one is.
func (in *Intake) Result() spindexer.SlotContent {
	return in.result
}

// TimedOut reports whether classification gave up.
func (in *Intake) TimedOut() bool {
	return in.timedOut
}

func (in *Intake) findSlot(ctx context.Context) (IntakeState, bool, error) {
	idx := in.b.deps.Spindexer
	if !idx.IsZeroed() {
		return FindSlot, false, nil
	}
	if idx.IsFull() {
		in.b.deps.Logger.Info("intake skipped: carrier full")
		return IntakeDone, true, nil
	}
	pos, err := idx.PositionDegrees(ctx)
	if err != nil {
		return FindSlot, false, err
	}
	slot, ok := idx.IntakeSlotAt(pos)
	if !ok {
		return IntakeDone, true, nil
	}
	in.slot = slot
	in.move = idx.ToIntakeSlot(slot)
	if err := in.b.deps.Transfer.Set(ctx, transfer.Forward); err != nil {
		return FindSlot, false, err
	}
	return MoveToSlot, true, nil
}

func (in *Intake) moveToSlot(ctx context.Context) (IntakeState, bool, error) {
	more, err := in.move.Advance(ctx)
	if err != nil || more {
		return MoveToSlot, false, err
	}
	if in.b.deps.Gate != nil {
		if err := in.b.deps.Gate.Open(ctx, nil); err != nil {
			return MoveToSlot, false, errors.Wrap(err, "intake gate")
		}
	}
	return Classify, true, nil
}

func (in *Intake) beginClassify(ctx context.Context) error {
	in.deadline = in.b.deps.Clock.Now().Add(in.b.cfg.ClassifyTimeout)
	in.hues, in.sats = in.hues[:0], in.sats[:0]
	return nil
}

func (in *Intake) classify(ctx context.Context) (IntakeState, bool, error) {
	r, err := in.b.deps.Sensor.Reading(ctx, nil)
	if err != nil {
		return Classify, false, errors.Wrap(err, "intake color sensor")
	}
	window := in.b.cfg.SampleWindow
	in.hues = appendWindow(in.hues, r.H, window)
	in.sats = appendWindow(in.sats, r.S, window)
	if len(in.hues) == window {
		c, err := in.classifyWindow()
		if err != nil {
			return Classify, false, err
		}
		if c.IsColor() {
			in.result = c
			in.b.deps.Spindexer.SetSlot(in.slot, c)
			in.b.deps.Logger.Infow("intake classified", "slot", in.slot, "color", c)
			return Settle, true, nil
		}
	}
	if !in.b.deps.Clock.Now().Before(in.deadline) {
		in.timedOut = true
		in.b.deps.Logger.Warnw("intake gave up classifying", "slot", in.slot, "after", in.b.cfg.ClassifyTimeout)
		return IntakeDone, true, nil
	}
	return Classify, false, nil
}

func (in *Intake) classifyWindow() (spindexer.SlotContent, error) {
	h, err := stats.Median(stats.Float64Data(in.hues))
	if err != nil {
		return spindexer.Unknown, err
	}
	s, err := stats.Median(stats.Float64Data(in.sats))
	if err != nil {
		return spindexer.Unknown, err
	}
	bands := in.b.cfg.Bands
	green, purple := bands.Green.Contains(h, s), bands.Purple.Contains(h, s)
	switch {
	case green && !purple:
		return spindexer.Green, nil
	case purple && !green:
		return spindexer.Purple, nil
	default:
		return spindexer.Unknown, nil
	}
}

func (in *Intake) beginSettle(ctx context.Context) error {
	in.settled = in.b.deps.Clock.Now().Add(in.b.cfg.SettleTime)
	return nil
}

func (in *Intake) settle(ctx context.Context) (IntakeState, bool, error) {
	if in.b.deps.Clock.Now().Before(in.settled) {
		return Settle, false, nil
	}
	return IntakeDone, true, nil
}

func (in *Intake) finish(ctx context.Context) error {
	err := in.b.deps.Transfer.Set(ctx, transfer.Stopped)
	if in.b.deps.Gate != nil {
		if gerr := in.b.deps.Gate.Close(ctx, nil); gerr != nil {
			err = errors.Wrap(gerr, "intake gate")
		}
	}
	return err
}

func appendWindow(xs []float64, x float64, n int) []float64 {
	xs = append(xs, x)
	if over := len(xs) - n; over > 0 {
		xs = xs[over:]
	}
	return xs
}
