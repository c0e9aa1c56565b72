// Package robot holds the robot's single set of hardware-bound subsystems and the scheduler that
// drives them, and runs the control tick.
//
// A Robot is created empty and brought up exactly once. Accessing a subsystem before that is a
// NotConstructedError. Everything here runs on the control thread; the only value that crosses
// threads is the tunables channel drained at the start of each tick.
package robot

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/spindexer/behaviors"
	"go.viam.com/spindexer/components/colorsensor"
	"go.viam.com/spindexer/components/encoder"
	"go.viam.com/spindexer/components/gate"
	"go.viam.com/spindexer/components/limitswitch"
	"go.viam.com/spindexer/components/motor"
	"go.viam.com/spindexer/config"
	"go.viam.com/spindexer/logging"
	"go.viam.com/spindexer/step"
	"go.viam.com/spindexer/subsystems/shooter"
	"go.viam.com/spindexer/subsystems/spindexer"
	"go.viam.com/spindexer/subsystems/transfer"
	"go.viam.com/spindexer/telemetry"
)

// Hardware is the set of devices the robot is built from.
type Hardware struct {
	SpindexerMotor   motor.Motor
	SpindexerEncoder encoder.Encoder
	Home             limitswitch.LimitSwitch
	TransferMotor    motor.Motor
	ShooterMotor     motor.Motor
	ShooterEncoder   encoder.Encoder
	Gate             gate.Gate
	ColorSensor      colorsensor.ColorSensor
}

func (hw *Hardware) validate() error {
	var errs error
	for name, missing := range map[string]bool{
		"spindexer motor":   hw.SpindexerMotor == nil,
		"spindexer encoder": hw.SpindexerEncoder == nil,
		"home sensor":       hw.Home == nil,
		"transfer motor":    hw.TransferMotor == nil,
		"shooter motor":     hw.ShooterMotor == nil,
		"shooter encoder":   hw.ShooterEncoder == nil,
		"gate":              hw.Gate == nil,
		"color sensor":      hw.ColorSensor == nil,
	} {
		if missing {
			errs = multierr.Append(errs, errors.Errorf("missing %s", name))
		}
	}
	return errs
}

// A Robot owns the scheduler and the subsystems.
type Robot struct {
	clk       clock.Clock
	sink      telemetry.Sink
	logger    logging.Logger
	scheduler *step.Scheduler
	updates   <-chan *config.Tunables

	constructed bool
	hw          Hardware
	tunables    *config.Tunables
	spindexer   *spindexer.Spindexer
	transfer    *transfer.Transfer
	shooter     *shooter.Shooter
	behaviors   *behaviors.Behaviors
}

// New returns a robot with a running scheduler and no subsystems. A nil clock is the wall clock
// and a nil sink discards telemetry.
func New(clk clock.Clock, sink telemetry.Sink, logger logging.Logger) *Robot {
	if clk == nil {
		clk = clock.New()
	}
	if sink == nil {
		sink = telemetry.Discard
	}
	return &Robot{
		clk:       clk,
		sink:      sink,
		logger:    logger,
		scheduler: step.NewScheduler(logger.Sublogger("scheduler")),
	}
}

// BringUp constructs every subsystem from hw and tunables. It may succeed only once.
func (r *Robot) BringUp(hw Hardware, tunables *config.Tunables) error {
	if r.constructed {
		return &AlreadyConstructedError{}
	}
	if tunables == nil {
		tunables = config.Default()
	}
	if err := hw.validate(); err != nil {
		return errors.Wrap(err, "robot hardware")
	}
	if err := tunables.Validate(); err != nil {
		return errors.Wrap(err, "robot tunables")
	}

	idx, err := spindexer.New(tunables.Spindexer, hw.SpindexerMotor, hw.SpindexerEncoder, hw.Home,
		r.sink, r.logger.Sublogger("spindexer"))
	if err != nil {
		return err
	}
	tr, err := transfer.New(hw.TransferMotor, tunables.TransferPower, r.logger.Sublogger("transfer"))
	if err != nil {
		return err
	}
	sh, err := shooter.New(tunables.Shooter, hw.ShooterMotor, hw.ShooterEncoder, r.clk,
		r.sink, r.logger.Sublogger("shooter"))
	if err != nil {
		return err
	}
	b, err := behaviors.New(behaviors.Deps{
		Spindexer: idx,
		Transfer:  tr,
		Shooter:   sh,
		Gate:      hw.Gate,
		Sensor:    hw.ColorSensor,
		Clock:     r.clk,
		Logger:    r.logger.Sublogger("behaviors"),
	}, tunables.Behaviors)
	if err != nil {
		return err
	}

	r.hw = hw
	r.tunables = tunables
	r.spindexer, r.transfer, r.shooter, r.behaviors = idx, tr, sh, b
	r.constructed = true
	r.logger.Info("robot brought up")
	return nil
}

// IsConstructed reports whether BringUp has succeeded.
func (r *Robot) IsConstructed() bool {
	return r.constructed
}

// Scheduler returns the robot's scheduler. It exists from New on.
func (r *Robot) Scheduler() *step.Scheduler {
	return r.scheduler
}

// Schedule adds steps to the scheduler.
func (r *Robot) Schedule(steps ...step.Step) {
	r.scheduler.Schedule(steps...)
}

// Spindexer returns the indexer.
func (r *Robot) Spindexer() (*spindexer.Spindexer, error) {
	if !r.constructed {
		return nil, NewNotConstructedError("spindexer")
	}
	return r.spindexer, nil
}

// MustSpindexer returns the indexer and panics if the robot is not brought up.
func (r *Robot) MustSpindexer() *spindexer.Spindexer {
	idx, err := r.Spindexer()
	if err != nil {
		panic(err)
	}
	return idx
}

// Transfer returns the transfer.
func (r *Robot) Transfer() (*transfer.Transfer, error) {
	if !r.constructed {
		return nil, NewNotConstructedError("transfer")
	}
	return r.transfer, nil
}

// Shooter returns the shooter.
func (r *Robot) Shooter() (*shooter.Shooter, error) {
	if !r.constructed {
		return nil, NewNotConstructedError("shooter")
	}
	return r.shooter, nil
}

// Behaviors returns the routine builder.
func (r *Robot) Behaviors() (*behaviors.Behaviors, error) {
	if !r.constructed {
		return nil, NewNotConstructedError("behaviors")
	}
	return r.behaviors, nil
}

// Tunables returns the tunables in effect, or nil before BringUp.
func (r *Robot) Tunables() *config.Tunables {
	return r.tunables
}

// WatchTunables makes every tick apply the newest tunables received on updates.
func (r *Robot) WatchTunables(updates <-chan *config.Tunables) {
	r.updates = updates
}

// Reconfigure applies tunables to every subsystem. Nothing is changed if they are invalid.
func (r *Robot) Reconfigure(tunables *config.Tunables) error {
	if !r.constructed {
		return NewNotConstructedError("robot")
	}
	if err := tunables.Validate(); err != nil {
		return err
	}
	if err := r.spindexer.Reconfigure(tunables.Spindexer); err != nil {
		return err
	}
	if err := r.shooter.Reconfigure(tunables.Shooter); err != nil {
		return err
	}
	if err := r.behaviors.Reconfigure(tunables.Behaviors); err != nil {
		return err
	}
	if err := r.transfer.SetPower(tunables.TransferPower); err != nil {
		return err
	}
	r.tunables = tunables
	r.logger.Infow("tunables applied", "spindexer_gains", tunables.Spindexer.PIDF.Gains, "shooter_gains", tunables.Shooter.PIDF.Gains)
	return nil
}

// Tick runs one control cycle: pending tunables are applied, every scheduled step is advanced,
// the closed loops run and telemetry is flushed. Failures of individual parts are combined;
// one failing part does not skip the others.
func (r *Robot) Tick(ctx context.Context) error {
	r.drainTunables()
	errs := r.scheduler.Advance(ctx)
	if r.constructed {
		errs = multierr.Append(errs, r.spindexer.Update(ctx))
		errs = multierr.Append(errs, r.shooter.Update(ctx))
	}
	r.sink.Flush()
	return errs
}

func (r *Robot) drainTunables() {
	if r.updates == nil || !r.constructed {
		return
	}
	select {
	case t, ok := <-r.updates:
		if !ok {
			r.updates = nil
			return
		}
		if err := r.Reconfigure(t); err != nil {
			r.logger.Warnw("rejected tunables", "error", err)
		}
	default:
	}
}

// EmergencyStop abandons every scheduled step and puts every actuator in a safe state: the
// indexer holds where it is, the transfer and shooter stop and the gate closes. Every actuator
// is commanded even if an earlier one fails.
func (r *Robot) EmergencyStop(ctx context.Context) error {
	r.scheduler.Clear()
	r.logger.Warn("emergency stop")
	if !r.constructed {
		return nil
	}
	r.spindexer.AbortCalibration()
	return multierr.Combine(
		r.spindexer.HoldCurrent(ctx),
		r.spindexer.Stop(ctx),
		r.transfer.ForceStop(ctx),
		r.shooter.ForceStop(ctx),
		errors.Wrap(r.hw.Gate.Close(ctx, nil), "gate"),
	)
}
