// Package sim contains tick driven plant models of the mechanisms, wired to fake components so
// the control code can run closed loop without hardware.
package sim

import (
	"context"
	"math"

	fakeencoder "go.viam.com/spindexer/components/encoder/fake"
	fakelimitswitch "go.viam.com/spindexer/components/limitswitch/fake"
	fakemotor "go.viam.com/spindexer/components/motor/fake"
	"go.viam.com/spindexer/logging"
)

// CarrierConfig describes the simulated indexer carrier.
type CarrierConfig struct {
	TicksPerRevolution float64
	// MaxTicksPerStep is how far the carrier turns in one step at full power.
	MaxTicksPerStep float64
	// Deadband is the smallest power magnitude that turns the carrier.
	Deadband float64
	// HomeStartTicks is the raw position, within one revolution, where the home switch starts
	// reading triggered. It stays triggered for HomeWidthTicks.
	HomeStartTicks float64
	HomeWidthTicks float64
}

// DefaultCarrierConfig matches the competition carrier closely enough for closed loop tests.
func DefaultCarrierConfig() CarrierConfig {
	return CarrierConfig{
		TicksPerRevolution: 8192,
		MaxTicksPerStep:    200,
		Deadband:           0.03,
		HomeStartTicks:     1000,
		HomeWidthTicks:     150,
	}
}

// A Carrier turns its encoder according to the power on its motor and trips its home switch as
// the carrier passes the home window.
type Carrier struct {
	cfg      CarrierConfig
	Motor    *fakemotor.Motor
	Encoder  *fakeencoder.Encoder
	Home     *fakelimitswitch.LimitSwitch
	position float64
}

// NewCarrier returns a carrier at raw position zero.
func NewCarrier(cfg CarrierConfig, logger logging.Logger) *Carrier {
	c := &Carrier{
		cfg:     cfg,
		Motor:   fakemotor.NewMotor("spindexer", logger),
		Encoder: &fakeencoder.Encoder{},
		Home:    &fakelimitswitch.LimitSwitch{},
	}
	c.SetPosition(0)
	return c
}

// SetPosition teleports the carrier to a raw position.
func (c *Carrier) SetPosition(raw float64) {
	c.position = raw
	c.sync()
}

// Position returns the raw position.
func (c *Carrier) Position() float64 {
	return c.position
}

// InHomeWindow reports whether the raw position trips the home switch.
func (c *Carrier) InHomeWindow(raw float64) bool {
	into := math.Mod(raw-c.cfg.HomeStartTicks, c.cfg.TicksPerRevolution)
	if into < 0 {
		into += c.cfg.TicksPerRevolution
	}
	return into < c.cfg.HomeWidthTicks
}

// Step advances the plant by one control tick.
func (c *Carrier) Step(ctx context.Context) error {
	_, power, err := c.Motor.IsPowered(ctx, nil)
	if err != nil {
		return err
	}
	if math.Abs(power) >= c.cfg.Deadband {
		c.position += power * c.cfg.MaxTicksPerStep
	}
	c.sync()
	return nil
}

func (c *Carrier) sync() {
	c.Encoder.SetPosition(int64(math.Round(c.position)))
	c.Home.Set(c.InHomeWindow(c.position))
}
