package spindexer

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/spindexer/control"
)

// Config holds the tunables of the indexer. Every field may be changed at runtime with
// Spindexer.Reconfigure.
type Config struct {
	PIDF control.PIDFConfig `json:"pidf"`

	TicksPerRevolution float64 `json:"ticks_per_revolution"`
	// ToleranceTicks is how close the carrier must be to its target for a move to complete.
	ToleranceTicks float64 `json:"tolerance_ticks"`
	// AlignedToleranceDeg is how close to a slot center the carrier may be for that slot to be
	// chosen without moving.
	AlignedToleranceDeg float64 `json:"aligned_tolerance_deg"`

	BackOffTicks float64 `json:"back_off_ticks"`
	// SensorOffsetTicks is added to the encoder reading at the precise home edge to get the zero
	// reference. The home sensor trips past true zero, so it is usually negative.
	SensorOffsetTicks float64 `json:"sensor_offset_ticks"`
	FastPower         float64 `json:"fast_power"`
	SlowPower         float64 `json:"slow_power"`
	MoveOffPower      float64 `json:"move_off_power"`

	// SlotCenterOffsetDeg is the angle of slot 0's center from zero.
	SlotCenterOffsetDeg float64 `json:"slot_center_offset_deg"`
	// ShootOffsetDeg is the angle between a slot's intake position and the ejection port.
	ShootOffsetDeg float64 `json:"shoot_offset_deg"`
}

// DefaultConfig returns the tunables of the competition robot.
func DefaultConfig() Config {
	return Config{
		PIDF: control.PIDFConfig{
			Gains:         control.Gains{P: 0.002, I: 0.0004, D: 0.001},
			OutputMin:     -1,
			OutputMax:     1,
			IntegralLimit: 500,
		},
		TicksPerRevolution:  8192,
		ToleranceTicks:      50,
		AlignedToleranceDeg: 8,
		BackOffTicks:        200,
		SensorOffsetTicks:   -45,
		FastPower:           0.4,
		SlowPower:           0.1,
		MoveOffPower:        0.25,
		SlotCenterOffsetDeg: 60,
		ShootOffsetDeg:      180,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate() error {
	var errs error
	if cfg.TicksPerRevolution <= 0 {
		errs = multierr.Append(errs, NewZeroTicksPerRevolutionError())
	}
	if cfg.ToleranceTicks <= 0 {
		errs = multierr.Append(errs, errors.New("tolerance_ticks must be positive"))
	}
	if cfg.AlignedToleranceDeg <= 0 || cfg.AlignedToleranceDeg >= 60 {
		errs = multierr.Append(errs, errors.Errorf("aligned_tolerance_deg must be in (0, 60), got %v", cfg.AlignedToleranceDeg))
	}
	if cfg.BackOffTicks <= 0 {
		errs = multierr.Append(errs, errors.New("back_off_ticks must be positive"))
	}
	for name, p := range map[string]float64{
		"fast_power":     cfg.FastPower,
		"slow_power":     cfg.SlowPower,
		"move_off_power": cfg.MoveOffPower,
	} {
		if p <= 0 || p > 1 {
			errs = multierr.Append(errs, errors.Errorf("%s must be in (0, 1], got %v", name, p))
		}
	}
	if cfg.SlowPower > cfg.FastPower {
		errs = multierr.Append(errs, errors.New("slow_power must not exceed fast_power"))
	}
	return errs
}

// NewZeroTicksPerRevolutionError returns an error for a carrier configured with no encoder
// resolution.
func NewZeroTicksPerRevolutionError() error {
	return errors.New("ticks_per_revolution must be positive")
}
