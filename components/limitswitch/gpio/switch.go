// Package gpio implements a limit switch read from a digital input pin, such as a hall effect
// home sensor wired to a board header.
package gpio

import (
	"context"

	"github.com/pkg/errors"
	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"go.viam.com/spindexer/components/limitswitch"
)

var _ limitswitch.LimitSwitch = &Switch{}

// Config names the input pin and its polarity.
type Config struct {
	Pin string `json:"pin"`
	// ActiveLow switches pull the pin to ground when tripped. The pin is pulled up so an
	// open switch reads high.
	ActiveLow bool `json:"active_low"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate() error {
	if cfg.Pin == "" {
		return errors.New("gpio limit switch needs a pin")
	}
	return nil
}

// Switch is a limit switch on a digital input.
type Switch struct {
	pin       pgpio.PinIn
	activeLow bool
}

// New looks the configured pin up in the host's pin registry and configures it as an input.
func New(cfg Config) (*Switch, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pin := gpioreg.ByName(cfg.Pin)
	if pin == nil {
		return nil, errors.Errorf("no gpio pin named %q", cfg.Pin)
	}
	return NewFromPin(pin, cfg.ActiveLow)
}

// NewFromPin configures pin as an input and returns a switch reading it.
func NewFromPin(pin pgpio.PinIn, activeLow bool) (*Switch, error) {
	pull := pgpio.PullDown
	if activeLow {
		pull = pgpio.PullUp
	}
	if err := pin.In(pull, pgpio.NoEdge); err != nil {
		return nil, errors.Wrapf(err, "configuring %s as input", pin)
	}
	return &Switch{pin: pin, activeLow: activeLow}, nil
}

// Triggered reads the pin.
func (s *Switch) Triggered(ctx context.Context, extra map[string]interface{}) (bool, error) {
	high := s.pin.Read() == pgpio.High
	return high != s.activeLow, nil
}
