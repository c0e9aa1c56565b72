// Package fake implements a fake motor.
package fake

import (
	"context"
	"math"
	"sync"

	"go.viam.com/spindexer/components/motor"
	"go.viam.com/spindexer/logging"
)

var _ motor.Motor = &Motor{}

// A Motor records the power it was last set to and how many commands it received.
type Motor struct {
	Name     string
	Logger   logging.Logger
	mu       sync.Mutex
	powerPct float64
	commands int
}

// NewMotor returns a stopped fake motor.
func NewMotor(name string, logger logging.Logger) *Motor {
	return &Motor{Name: name, Logger: logger}
}

// SetPower sets the given power percentage.
func (m *Motor) SetPower(ctx context.Context, powerPct float64, extra map[string]interface{}) error {
	if math.IsNaN(powerPct) || math.Abs(powerPct) > 1 {
		return motor.NewInvalidPowerError(m.Name, powerPct)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Logger != nil && powerPct != m.powerPct {
		m.Logger.Debugf("Motor %s SetPower %f", m.Name, powerPct)
	}
	m.powerPct = powerPct
	m.commands++
	return nil
}

// Stop has the motor pretend to be off.
func (m *Motor) Stop(ctx context.Context, extra map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.powerPct = 0
	m.commands++
	return nil
}

// IsPowered returns if the motor is pretending to be on or not, and its power level.
func (m *Motor) IsPowered(ctx context.Context, extra map[string]interface{}) (bool, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return math.Abs(m.powerPct) >= 0.005, m.powerPct, nil
}

// PowerPct returns the set power percentage.
func (m *Motor) PowerPct() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.powerPct
}

// Commands returns how many SetPower and Stop calls the motor has received.
func (m *Motor) Commands() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commands
}
