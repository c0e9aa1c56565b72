// Package fake implements a fake encoder.
package fake

import (
	"context"
	"sync"

	"go.viam.com/spindexer/components/encoder"
)

var _ encoder.Encoder = &Encoder{}

// Encoder keeps track of a fake shaft position.
type Encoder struct {
	mu       sync.Mutex
	position int64
	err      error
}

// TicksCount returns the current position in terms of ticks.
func (e *Encoder) TicksCount(ctx context.Context, extra map[string]interface{}) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return 0, e.err
	}
	return e.position, nil
}

// Reset sets the current position to zero.
func (e *Encoder) Reset(ctx context.Context, extra map[string]interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = 0
	return nil
}

// SetPosition sets the position of the encoder.
func (e *Encoder) SetPosition(position int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = position
}

// Add moves the encoder by delta ticks.
func (e *Encoder) Add(delta int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position += delta
}

// SetError makes every following read fail with err until it is set back to nil.
func (e *Encoder) SetError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}
