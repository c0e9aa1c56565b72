// Package encoder defines incremental position sensors.
package encoder

import (
	"context"
)

// An Encoder reports the signed, monotonic tick count of a rotating shaft.
type Encoder interface {
	// TicksCount returns the number of ticks since the last reset.
	TicksCount(ctx context.Context, extra map[string]interface{}) (int64, error)

	// Reset sets the current position to be the new zero.
	Reset(ctx context.Context, extra map[string]interface{}) error
}
