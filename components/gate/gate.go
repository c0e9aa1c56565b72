// Package gate defines two-position actuators that open or block a ball path.
package gate

import (
	"context"
)

// A Gate is a binary actuator.
type Gate interface {
	// Open moves the gate to its open position.
	Open(ctx context.Context, extra map[string]interface{}) error

	// Close moves the gate to its closed position.
	Close(ctx context.Context, extra map[string]interface{}) error

	// IsOpen returns whether the gate was last commanded open.
	IsOpen(ctx context.Context, extra map[string]interface{}) (bool, error)
}
