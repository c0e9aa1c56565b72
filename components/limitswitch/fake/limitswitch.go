// Package fake implements a fake limit switch.
package fake

import (
	"context"
	"sync"

	"go.viam.com/spindexer/components/limitswitch"
)

var _ limitswitch.LimitSwitch = &LimitSwitch{}

// LimitSwitch is a switch whose state is set by the test or simulation driving it.
type LimitSwitch struct {
	mu        sync.Mutex
	triggered bool
	reads     int
}

// Triggered returns the current state.
func (s *LimitSwitch) Triggered(ctx context.Context, extra map[string]interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return s.triggered, nil
}

// Set changes the state of the switch.
func (s *LimitSwitch) Set(triggered bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggered = triggered
}

// Reads returns how many times the switch was polled.
func (s *LimitSwitch) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}
