// Package fake implements a fake gate.
package fake

import (
	"context"
	"sync"

	"go.viam.com/spindexer/components/gate"
)

var _ gate.Gate = &Gate{}

// Gate records its commanded position.
type Gate struct {
	mu       sync.Mutex
	open     bool
	commands int
}

// Open opens the gate.
func (g *Gate) Open(ctx context.Context, extra map[string]interface{}) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.open = true
	g.commands++
	return nil
}

// Close closes the gate.
func (g *Gate) Close(ctx context.Context, extra map[string]interface{}) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.open = false
	g.commands++
	return nil
}

// IsOpen returns the commanded position.
func (g *Gate) IsOpen(ctx context.Context, extra map[string]interface{}) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open, nil
}

// Commands returns how many Open and Close calls the gate received.
func (g *Gate) Commands() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.commands
}
