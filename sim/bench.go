package sim

import (
	"context"
	"time"

	"go.uber.org/multierr"

	"go.viam.com/spindexer/components/colorsensor"
	fakemotor "go.viam.com/spindexer/components/motor/fake"
	"go.viam.com/spindexer/logging"
)

// A Bench is every simulated mechanism of the robot.
type Bench struct {
	Carrier       *Carrier
	Flywheel      *Flywheel
	Intake        *Intake
	TransferMotor *fakemotor.Motor
}

// NewBench returns a bench with default plants. The carrier starts at raw position start.
func NewBench(start float64, bands colorsensor.Bands, logger logging.Logger) *Bench {
	b := &Bench{
		Carrier:       NewCarrier(DefaultCarrierConfig(), logger),
		Flywheel:      NewFlywheel(DefaultFlywheelConfig(), logger),
		Intake:        NewIntake(bands),
		TransferMotor: fakemotor.NewMotor("transfer", logger),
	}
	b.Carrier.SetPosition(start)
	return b
}

// Step advances every plant by one control tick of length dt.
func (b *Bench) Step(ctx context.Context, dt time.Duration) error {
	return multierr.Combine(
		b.Carrier.Step(ctx),
		b.Flywheel.Step(ctx, dt),
		b.Intake.Step(ctx),
	)
}
