package sim

import (
	"context"
	"math"
	"time"

	fakeencoder "go.viam.com/spindexer/components/encoder/fake"
	fakemotor "go.viam.com/spindexer/components/motor/fake"
	"go.viam.com/spindexer/logging"
)

// FlywheelConfig describes the simulated shooter flywheel.
type FlywheelConfig struct {
	TicksPerRevolution float64
	// MaxRPM is the free speed at full power.
	MaxRPM float64
	// TimeConstant is how long the wheel takes to cover 63% of a speed change.
	TimeConstant time.Duration
}

// DefaultFlywheelConfig returns a wheel that reaches 3000 RPM in well under a second.
func DefaultFlywheelConfig() FlywheelConfig {
	return FlywheelConfig{
		TicksPerRevolution: 28,
		MaxRPM:             6000,
		TimeConstant:       150 * time.Millisecond,
	}
}

// A Flywheel spins up toward the speed its motor power asks for with first order lag.
type Flywheel struct {
	cfg     FlywheelConfig
	Motor   *fakemotor.Motor
	Encoder *fakeencoder.Encoder
	rpm     float64
	ticks   float64
}

// NewFlywheel returns a stopped flywheel.
func NewFlywheel(cfg FlywheelConfig, logger logging.Logger) *Flywheel {
	return &Flywheel{
		cfg:     cfg,
		Motor:   fakemotor.NewMotor("shooter", logger),
		Encoder: &fakeencoder.Encoder{},
	}
}

// RPM returns the true wheel speed.
func (f *Flywheel) RPM() float64 {
	return f.rpm
}

// Step advances the plant by dt.
func (f *Flywheel) Step(ctx context.Context, dt time.Duration) error {
	_, power, err := f.Motor.IsPowered(ctx, nil)
	if err != nil {
		return err
	}
	alpha := 1 - math.Exp(-dt.Seconds()/f.cfg.TimeConstant.Seconds())
	f.rpm += (power*f.cfg.MaxRPM - f.rpm) * alpha
	f.ticks += f.rpm / 60 * dt.Seconds() * f.cfg.TicksPerRevolution
	f.Encoder.SetPosition(int64(math.Round(f.ticks)))
	return nil
}
