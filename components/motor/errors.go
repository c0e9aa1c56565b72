package motor

import "github.com/pkg/errors"

// NewInvalidPowerError returns an error for a power command outside [-1, 1].
func NewInvalidPowerError(motorName string, powerPct float64) error {
	return errors.Errorf("motor %s cannot be set to power %v, must be between -1 and 1", motorName, powerPct)
}
