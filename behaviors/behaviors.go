// Package behaviors composes the subsystems into the ball handling routines: taking a piece in
// and classifying it, and bringing a slot to the shooter and firing it.
//
// Every routine is a step.Step meant to be scheduled on the robot's scheduler. None of them
// commands a safe state when abandoned; callers that clear the scheduler must do that.
package behaviors

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/spindexer/components/colorsensor"
	"go.viam.com/spindexer/components/gate"
	"go.viam.com/spindexer/logging"
	"go.viam.com/spindexer/subsystems/shooter"
	"go.viam.com/spindexer/subsystems/spindexer"
	"go.viam.com/spindexer/subsystems/transfer"
)

// Config holds the behavior tunables.
type Config struct {
	// ClassifyTimeout bounds how long the intake waits for a confident color.
	ClassifyTimeout time.Duration `json:"classify_timeout"`
	// SettleTime is how long the intake holds after classifying so the piece drops in.
	SettleTime time.Duration `json:"settle_time"`
	// SampleWindow is how many sensor samples are combined into one classification.
	SampleWindow int               `json:"sample_window"`
	Bands        colorsensor.Bands `json:"bands"`
	// FeedTime is how long the transfer runs to push a piece into the flywheel.
	FeedTime time.Duration `json:"feed_time"`
}

// DefaultConfig returns the competition tunables.
func DefaultConfig() Config {
	return Config{
		ClassifyTimeout: 2 * time.Second,
		SettleTime:      200 * time.Millisecond,
		SampleWindow:    3,
		Bands:           colorsensor.DefaultBands,
		FeedTime:        300 * time.Millisecond,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate() error {
	var errs error
	if cfg.ClassifyTimeout <= 0 {
		errs = multierr.Append(errs, errors.New("classify_timeout must be positive"))
	}
	if cfg.SettleTime < 0 {
		errs = multierr.Append(errs, errors.New("settle_time must not be negative"))
	}
	if cfg.SampleWindow < 1 {
		errs = multierr.Append(errs, errors.New("sample_window must be at least 1"))
	}
	if cfg.FeedTime <= 0 {
		errs = multierr.Append(errs, errors.New("feed_time must be positive"))
	}
	return errs
}

// Deps are the subsystems and devices the behaviors drive. They are shared, not owned.
type Deps struct {
	Spindexer *spindexer.Spindexer
	Transfer  *transfer.Transfer
	Shooter   *shooter.Shooter
	Gate      gate.Gate
	Sensor    colorsensor.ColorSensor
	Clock     clock.Clock
	Logger    logging.Logger
}

// Behaviors builds routines over a fixed set of dependencies.
type Behaviors struct {
	deps Deps
	cfg  Config
}

// New returns a builder for the routines.
func New(deps Deps, cfg Config) (*Behaviors, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "behaviors config")
	}
	if deps.Spindexer == nil || deps.Transfer == nil {
		return nil, errors.New("behaviors need a spindexer and a transfer")
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	return &Behaviors{deps: deps, cfg: cfg}, nil
}

// Reconfigure applies new tunables to routines built from now on.
func (b *Behaviors) Reconfigure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "behaviors config")
	}
	b.cfg = cfg
	return nil
}

// Config returns the current tunables.
func (b *Behaviors) Config() Config {
	return b.cfg
}
