// Package limitswitch defines binary position sensors such as the home sensor of a mechanism.
package limitswitch

import (
	"context"
)

// A LimitSwitch reports whether its target is present.
type LimitSwitch interface {
	// Triggered returns true while the switch is tripped.
	Triggered(ctx context.Context, extra map[string]interface{}) (bool, error)
}
