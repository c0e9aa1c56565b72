// Package shooter implements the flywheel that launches game pieces.
package shooter

import (
	"context"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/spindexer/components/encoder"
	"go.viam.com/spindexer/components/motor"
	"go.viam.com/spindexer/control"
	"go.viam.com/spindexer/logging"
	"go.viam.com/spindexer/step"
	"go.viam.com/spindexer/telemetry"
)

// Config holds the shooter tunables.
type Config struct {
	// PIDF runs on RPM. F is the open loop power for the usual target speed.
	PIDF               control.PIDFConfig `json:"pidf"`
	TicksPerRevolution float64            `json:"ticks_per_revolution"`
	TargetRPM          float64            `json:"target_rpm"`
	RPMTolerance       float64            `json:"rpm_tolerance"`
	// SpeedWindow is how many speed samples the median estimate covers.
	SpeedWindow int `json:"speed_window"`
}

// DefaultConfig returns the tunables of the competition shooter.
func DefaultConfig() Config {
	return Config{
		PIDF: control.PIDFConfig{
			Gains:     control.Gains{P: 0.0002, F: 0.5},
			OutputMin: -1,
			OutputMax: 1,
		},
		TicksPerRevolution: 28,
		TargetRPM:          3000,
		RPMTolerance:       150,
		SpeedWindow:        5,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate() error {
	var errs error
	if cfg.TicksPerRevolution <= 0 {
		errs = multierr.Append(errs, errors.New("shooter ticks_per_revolution must be positive"))
	}
	if cfg.TargetRPM <= 0 {
		errs = multierr.Append(errs, errors.New("shooter target_rpm must be positive"))
	}
	if cfg.RPMTolerance <= 0 {
		errs = multierr.Append(errs, errors.New("shooter rpm_tolerance must be positive"))
	}
	if cfg.SpeedWindow < 1 {
		errs = multierr.Append(errs, errors.New("shooter speed_window must be at least 1"))
	}
	return errs
}

// A Shooter spins its flywheel at a commanded speed. Speed is estimated from encoder deltas over
// clock time, smoothed with a running median.
type Shooter struct {
	cfg     Config
	motor   motor.Motor
	encoder encoder.Encoder
	clk     clock.Clock
	pidf    *control.PIDF
	logger  logging.Logger
	sink    telemetry.Sink

	enabled   bool
	targetRPM float64
	rpm       float64
	samples   []float64
	lastTicks int64
	lastTime  time.Time
	primed    bool
	running   bool
}

// New returns a stopped shooter.
func New(
	cfg Config,
	m motor.Motor,
	enc encoder.Encoder,
	clk clock.Clock,
	sink telemetry.Sink,
	logger logging.Logger,
) (*Shooter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "shooter config")
	}
	pidf, err := control.NewPIDF(cfg.PIDF)
	if err != nil {
		return nil, errors.Wrap(err, "shooter pidf")
	}
	if sink == nil {
		sink = telemetry.Discard
	}
	return &Shooter{
		cfg:       cfg,
		motor:     m,
		encoder:   enc,
		clk:       clk,
		pidf:      pidf,
		logger:    logger,
		sink:      telemetry.WithPrefix(sink, "shooter"),
		targetRPM: cfg.TargetRPM,
	}, nil
}

// Reconfigure applies new tunables.
func (s *Shooter) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "shooter config")
	}
	if err := s.pidf.Apply(cfg.PIDF); err != nil {
		return errors.Wrap(err, "shooter pidf")
	}
	if s.targetRPM == s.cfg.TargetRPM {
		s.targetRPM = cfg.TargetRPM
	}
	s.cfg = cfg
	return nil
}

// PIDF exposes the speed controller for live tuning.
func (s *Shooter) PIDF() *control.PIDF {
	return s.pidf
}

// RPM returns the smoothed speed estimate.
func (s *Shooter) RPM() float64 {
	return s.rpm
}

// TargetRPM returns the commanded speed.
func (s *Shooter) TargetRPM() float64 {
	return s.targetRPM
}

// Enabled reports whether the speed loop is driving the motor.
func (s *Shooter) Enabled() bool {
	return s.enabled
}

// IsAtSpeed reports whether the shooter is enabled and within tolerance of its target.
func (s *Shooter) IsAtSpeed() bool {
	return s.enabled && math.Abs(s.targetRPM-s.rpm) < s.cfg.RPMTolerance
}

// SetTarget enables the speed loop at rpm.
func (s *Shooter) SetTarget(rpm float64) {
	if !s.enabled || rpm != s.targetRPM {
		s.logger.Debugw("shooter target", "rpm", rpm)
	}
	s.targetRPM = rpm
	s.enabled = true
}

// Disable stops driving the motor. The flywheel coasts down.
func (s *Shooter) Disable(ctx context.Context) error {
	s.enabled = false
	s.pidf.Reset()
	if !s.running {
		return nil
	}
	return s.ForceStop(ctx)
}

// ForceStop disables the speed loop and stops the motor whether or not it was running.
func (s *Shooter) ForceStop(ctx context.Context) error {
	s.enabled = false
	s.running = false
	s.pidf.Reset()
	if err := s.motor.Stop(ctx, nil); err != nil {
		return errors.Wrap(err, "shooter motor")
	}
	return nil
}

// Update measures the speed and, while enabled, runs one tick of the speed loop.
func (s *Shooter) Update(ctx context.Context) error {
	if err := s.measure(ctx); err != nil {
		return err
	}
	s.sink.Put("rpm", s.rpm)
	s.sink.Put("target_rpm", s.targetRPM)
	s.sink.Put("enabled", s.enabled)
	if !s.enabled {
		return nil
	}
	out := s.pidf.Output(s.rpm, s.targetRPM)
	s.sink.Put("output", out)
	if err := s.motor.SetPower(ctx, out, nil); err != nil {
		return errors.Wrap(err, "shooter motor")
	}
	s.running = true
	return nil
}

func (s *Shooter) measure(ctx context.Context) error {
	ticks, err := s.encoder.TicksCount(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "shooter encoder")
	}
	now := s.clk.Now()
	defer func() {
		s.lastTicks, s.lastTime, s.primed = ticks, now, true
	}()
	if !s.primed {
		return nil
	}
	dt := now.Sub(s.lastTime)
	if dt <= 0 {
		return nil
	}
	sample := float64(ticks-s.lastTicks) / s.cfg.TicksPerRevolution / dt.Minutes()
	s.samples = append(s.samples, sample)
	if over := len(s.samples) - s.cfg.SpeedWindow; over > 0 {
		s.samples = s.samples[over:]
	}
	median, err := stats.Median(stats.Float64Data(s.samples))
	if err != nil {
		return errors.Wrap(err, "shooter speed estimate")
	}
	s.rpm = median
	return nil
}

// SpinUp returns a step that enables the shooter at rpm and runs until it is at speed.
func (s *Shooter) SpinUp(rpm float64) step.Step {
	return step.Func(func(context.Context) (bool, error) {
		s.SetTarget(rpm)
		return !s.IsAtSpeed(), nil
	})
}

// Hold returns a step that keeps the shooter enabled at rpm until abandoned.
func (s *Shooter) Hold(rpm float64) step.Step {
	return step.Forever(func(context.Context) error {
		s.SetTarget(rpm)
		return nil
	})
}

// AtSpeed returns a step that completes once the shooter is at speed.
func (s *Shooter) AtSpeed() step.Step {
	return step.WaitUntil(func(context.Context) (bool, error) { return s.IsAtSpeed(), nil })
}

// Stop returns a step that disables the shooter.
func (s *Shooter) Stop() step.Step {
	return step.Instant(s.Disable)
}
