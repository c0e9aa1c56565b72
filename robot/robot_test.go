package robot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"go.viam.com/spindexer/components/colorsensor"
	"go.viam.com/spindexer/config"
	"go.viam.com/spindexer/logging"
	"go.viam.com/spindexer/sim"
	"go.viam.com/spindexer/step"
	"go.viam.com/spindexer/subsystems/spindexer"
	"go.viam.com/spindexer/subsystems/transfer"
	"go.viam.com/spindexer/telemetry"
)

const period = 20 * time.Millisecond

type rig struct {
	t     *testing.T
	r     *Robot
	bench *sim.Bench
	clk   *clock.Mock
	rec   *telemetry.Recorder
}

func hardware(b *sim.Bench) Hardware {
	return Hardware{
		SpindexerMotor:   b.Carrier.Motor,
		SpindexerEncoder: b.Carrier.Encoder,
		Home:             b.Carrier.Home,
		TransferMotor:    b.TransferMotor,
		ShooterMotor:     b.Flywheel.Motor,
		ShooterEncoder:   b.Flywheel.Encoder,
		Gate:             b.Intake.Gate,
		ColorSensor:      b.Intake.Sensor,
	}
}

func newRig(t *testing.T, logger logging.Logger) *rig {
	t.Helper()
	clk := clock.NewMock()
	rec := telemetry.NewRecorder()
	bench := sim.NewBench(0, colorsensor.DefaultBands, logger)
	r := New(clk, rec, logger)
	test.That(t, r.BringUp(hardware(bench), nil), test.ShouldBeNil)
	return &rig{t: t, r: r, bench: bench, clk: clk, rec: rec}
}

func (g *rig) tick(ctx context.Context) {
	g.t.Helper()
	test.That(g.t, g.r.Tick(ctx), test.ShouldBeNil)
	test.That(g.t, g.bench.Step(ctx, period), test.ShouldBeNil)
	g.clk.Add(period)
}

// runUntilIdle ticks until the scheduler has nothing left to run.
func (g *rig) runUntilIdle(ctx context.Context, maxTicks int) {
	g.t.Helper()
	for i := 0; i < maxTicks; i++ {
		if g.r.Scheduler().IsEmpty() {
			return
		}
		g.tick(ctx)
	}
	g.t.Fatalf("scheduler still busy after %d ticks", maxTicks)
}

func TestNotConstructed(t *testing.T) {
	ctx := context.Background()
	r := New(clock.NewMock(), nil, logging.NewTestLogger(t))
	test.That(t, r.IsConstructed(), test.ShouldBeFalse)
	test.That(t, r.Tunables(), test.ShouldBeNil)

	_, err := r.Spindexer()
	var nce *NotConstructedError
	test.That(t, errors.As(err, &nce), test.ShouldBeTrue)
	test.That(t, nce.Name, test.ShouldEqual, "spindexer")
	test.That(t, err.Error(), test.ShouldContainSubstring, "before the robot was brought up")

	_, err = r.Transfer()
	test.That(t, errors.As(err, &nce), test.ShouldBeTrue)
	_, err = r.Shooter()
	test.That(t, errors.As(err, &nce), test.ShouldBeTrue)
	_, err = r.Behaviors()
	test.That(t, errors.As(err, &nce), test.ShouldBeTrue)
	test.That(t, errors.As(r.Reconfigure(config.Default()), &nce), test.ShouldBeTrue)
	test.That(t, func() { r.MustSpindexer() }, test.ShouldPanic)

	// The scheduler exists before bring up.
	ran := false
	r.Schedule(step.Instant(func(context.Context) error {
		ran = true
		return nil
	}))
	test.That(t, r.Tick(ctx), test.ShouldBeNil)
	test.That(t, ran, test.ShouldBeTrue)
	test.That(t, r.EmergencyStop(ctx), test.ShouldBeNil)
}

func TestBringUp(t *testing.T) {
	logger := logging.NewTestLogger(t)
	bench := sim.NewBench(0, colorsensor.DefaultBands, logger)

	r := New(nil, nil, logger)
	hw := hardware(bench)
	hw.Gate = nil
	hw.ShooterEncoder = nil
	err := r.BringUp(hw, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "missing gate")
	test.That(t, err.Error(), test.ShouldContainSubstring, "missing shooter encoder")
	test.That(t, r.IsConstructed(), test.ShouldBeFalse)

	bad := config.Default()
	bad.TransferPower = 0
	test.That(t, r.BringUp(hardware(bench), bad), test.ShouldNotBeNil)
	test.That(t, r.IsConstructed(), test.ShouldBeFalse)

	test.That(t, r.BringUp(hardware(bench), nil), test.ShouldBeNil)
	test.That(t, r.IsConstructed(), test.ShouldBeTrue)
	test.That(t, r.Tunables(), test.ShouldResemble, config.Default())
	test.That(t, r.MustSpindexer(), test.ShouldNotBeNil)

	var ace *AlreadyConstructedError
	test.That(t, errors.As(r.BringUp(hardware(bench), nil), &ace), test.ShouldBeTrue)
}

func TestCalibrateIntakeShoot(t *testing.T) {
	ctx := context.Background()
	g := newRig(t, logging.NewTestLogger(t))
	idx := g.r.MustSpindexer()
	b, err := g.r.Behaviors()
	test.That(t, err, test.ShouldBeNil)

	g.r.Schedule(idx.Calibrate())
	g.runUntilIdle(ctx, 500)
	test.That(t, idx.IsZeroed(), test.ShouldBeTrue)

	g.bench.Intake.Feed(sim.GreenPiece, sim.PurplePiece)
	g.r.Schedule(step.Sequence(b.IntakeAndClassify(), b.IntakeAndClassify()))
	g.runUntilIdle(ctx, 500)
	test.That(t, idx.Slots(), test.ShouldResemble, spindexer.Inventory{spindexer.Green, spindexer.Purple, spindexer.Unknown})
	test.That(t, g.bench.Intake.Queued(), test.ShouldEqual, 0)

	shoot, err := b.ShootOne(spindexer.Purple)
	test.That(t, err, test.ShouldBeNil)
	sh, err := g.r.Shooter()
	test.That(t, err, test.ShouldBeNil)
	g.r.Schedule(step.Sequence(shoot, sh.Stop()))
	g.runUntilIdle(ctx, 500)
	test.That(t, idx.Slots(), test.ShouldResemble, spindexer.Inventory{spindexer.Green, spindexer.Empty, spindexer.Unknown})
	test.That(t, sh.Enabled(), test.ShouldBeFalse)

	v, ok := g.rec.Get("spindexer.slots")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, "[green empty unknown]")
	_, ok = g.rec.Get("shooter.rpm")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, g.rec.Flushes(), test.ShouldBeGreaterThan, 0)
}

func TestEmergencyStop(t *testing.T) {
	ctx := context.Background()
	g := newRig(t, logging.NewTestLogger(t))
	idx := g.r.MustSpindexer()
	tr, err := g.r.Transfer()
	test.That(t, err, test.ShouldBeNil)
	sh, err := g.r.Shooter()
	test.That(t, err, test.ShouldBeNil)
	b, err := g.r.Behaviors()
	test.That(t, err, test.ShouldBeNil)

	g.r.Schedule(idx.Calibrate())
	g.runUntilIdle(ctx, 500)

	g.bench.Intake.Feed(sim.GreenPiece)
	g.r.Schedule(b.IntakeAndClassify(), sh.Hold(3000))
	for i := 0; i < 5; i++ {
		g.tick(ctx)
	}
	test.That(t, tr.State(), test.ShouldEqual, transfer.Forward)
	test.That(t, sh.Enabled(), test.ShouldBeTrue)

	test.That(t, g.r.EmergencyStop(ctx), test.ShouldBeNil)
	test.That(t, g.r.Scheduler().IsEmpty(), test.ShouldBeTrue)
	test.That(t, tr.State(), test.ShouldEqual, transfer.Stopped)
	test.That(t, g.bench.TransferMotor.PowerPct(), test.ShouldEqual, 0.)
	test.That(t, sh.Enabled(), test.ShouldBeFalse)
	test.That(t, g.bench.Flywheel.Motor.PowerPct(), test.ShouldEqual, 0.)
	open, err := g.bench.Intake.Gate.IsOpen(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, open, test.ShouldBeFalse)

	// The indexer holds where it stopped instead of resuming the abandoned move.
	stoppedAt := g.bench.Carrier.Position()
	for i := 0; i < 20; i++ {
		g.tick(ctx)
	}
	test.That(t, g.bench.Carrier.Position(), test.ShouldAlmostEqual, stoppedAt, 50)
}

func TestEmergencyStopDuringCalibration(t *testing.T) {
	ctx := context.Background()
	g := newRig(t, logging.NewTestLogger(t))
	idx := g.r.MustSpindexer()
	g.r.Schedule(idx.Calibrate())
	for i := 0; i < 3; i++ {
		g.tick(ctx)
	}
	test.That(t, idx.IsCalibrating(), test.ShouldBeTrue)

	test.That(t, g.r.EmergencyStop(ctx), test.ShouldBeNil)
	test.That(t, idx.IsCalibrating(), test.ShouldBeFalse)
	test.That(t, idx.IsZeroed(), test.ShouldBeFalse)
	commands := g.bench.Carrier.Motor.Commands()
	for i := 0; i < 10; i++ {
		g.tick(ctx)
	}
	test.That(t, g.bench.Carrier.Motor.Commands(), test.ShouldEqual, commands)
}

func TestTunablesReload(t *testing.T) {
	ctx := context.Background()
	logger, logs := logging.NewObservedTestLogger(t)
	g := newRig(t, logger)
	updates := make(chan *config.Tunables, 1)
	g.r.WatchTunables(updates)

	next := config.Default()
	next.Spindexer.PIDF.Gains.P = 0.004
	next.Shooter.TargetRPM = 3500
	next.TransferPower = 0.5
	updates <- next
	g.tick(ctx)
	test.That(t, g.r.MustSpindexer().PIDF().Gains().P, test.ShouldEqual, 0.004)
	sh, err := g.r.Shooter()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sh.TargetRPM(), test.ShouldEqual, 3500.)
	test.That(t, g.r.Tunables(), test.ShouldEqual, next)

	bad := config.Default()
	bad.Spindexer.PIDF.Gains.P = 1
	bad.TransferPower = 3
	updates <- bad
	g.tick(ctx)
	test.That(t, g.r.MustSpindexer().PIDF().Gains().P, test.ShouldEqual, 0.004)
	test.That(t, g.r.Tunables(), test.ShouldEqual, next)
	test.That(t, logs.FilterMessage("rejected tunables").Len(), test.ShouldEqual, 1)

	close(updates)
	g.tick(ctx)
	g.tick(ctx)
}

func TestTickCombinesFailures(t *testing.T) {
	ctx := context.Background()
	g := newRig(t, logging.NewTestLogger(t))
	boom := errors.New("boom")
	g.r.Schedule(step.Instant(func(context.Context) error { return boom }))
	g.bench.Flywheel.Encoder.SetError(errors.New("flywheel encoder unplugged"))

	err := g.r.Tick(ctx)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, boom), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "flywheel encoder unplugged")
	// Telemetry is still flushed.
	test.That(t, g.rec.Flushes(), test.ShouldEqual, 1)
}
