// Package feetech implements a gate driven by a Feetech STS serial bus servo.
package feetech

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
	"github.com/pkg/errors"

	"go.viam.com/spindexer/components/gate"
	"go.viam.com/spindexer/logging"
)

var _ gate.Gate = &Gate{}

// Config describes where the gate servo is wired and its two positions in raw servo steps.
type Config struct {
	Port           string        `json:"port"`
	ServoID        int           `json:"servo_id"`
	OpenPosition   int           `json:"open_position"`
	ClosedPosition int           `json:"closed_position"`
	Timeout        time.Duration `json:"timeout"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate() error {
	if cfg.Port == "" {
		return errors.New("feetech gate needs a serial port")
	}
	if cfg.ServoID < 1 || cfg.ServoID > 253 {
		return errors.Errorf("feetech gate servo id %d out of range 1-253", cfg.ServoID)
	}
	if cfg.OpenPosition == cfg.ClosedPosition {
		return errors.New("feetech gate open and closed positions must differ")
	}
	return nil
}

// Gate is an intake gate on a serial bus servo.
type Gate struct {
	mu     sync.Mutex
	cfg    Config
	bus    *feetech.Bus
	servo  *feetech.Servo
	logger logging.Logger
	open   bool
}

// NewGate opens the bus, finds the configured servo and enables its torque. The gate starts
// closed.
func NewGate(ctx context.Context, cfg Config, logger logging.Logger) (*Gate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 100 * time.Millisecond
	}
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     cfg.Port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  timeout,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open bus %s", cfg.Port)
	}

	servos, err := bus.Scan(ctx, cfg.ServoID, cfg.ServoID)
	if err != nil {
		bus.Close()
		return nil, errors.Wrapf(err, "scan for servo %d", cfg.ServoID)
	}
	var servo *feetech.Servo
	for _, s := range servos {
		if s.ID == cfg.ServoID {
			servo = feetech.NewServo(bus, s.ID, s.Model)
			break
		}
	}
	if servo == nil {
		bus.Close()
		return nil, errors.Errorf("no servo with id %d on %s", cfg.ServoID, cfg.Port)
	}
	if err := servo.Enable(ctx); err != nil {
		bus.Close()
		return nil, errors.Wrapf(err, "enable servo %d", cfg.ServoID)
	}

	g := &Gate{cfg: cfg, bus: bus, servo: servo, logger: logger}
	if err := g.Close(ctx, nil); err != nil {
		return nil, multiClose(err, g.Release(ctx))
	}
	return g, nil
}

// Open moves the servo to the open position.
func (g *Gate) Open(ctx context.Context, extra map[string]interface{}) error {
	return g.moveTo(ctx, true)
}

// Close moves the servo to the closed position.
func (g *Gate) Close(ctx context.Context, extra map[string]interface{}) error {
	return g.moveTo(ctx, false)
}

func (g *Gate) moveTo(ctx context.Context, open bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	target := g.cfg.ClosedPosition
	if open {
		target = g.cfg.OpenPosition
	}
	// Read first so a dead bus surfaces as an error on the command rather than on the next poll.
	if _, err := g.servo.Position(ctx); err != nil {
		return errors.Wrapf(err, "gate servo %d", g.cfg.ServoID)
	}
	g.servo.SetPosition(ctx, target)
	if g.open != open {
		g.logger.Debugw("gate moved", "open", open, "position", target)
	}
	g.open = open
	return nil
}

// IsOpen reads the servo and reports whether it is nearer the open position than the closed one.
func (g *Gate) IsOpen(ctx context.Context, extra map[string]interface{}) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	pos, err := g.servo.Position(ctx)
	if err != nil {
		return g.open, errors.Wrapf(err, "gate servo %d", g.cfg.ServoID)
	}
	return isNearerOpen(pos, g.cfg.OpenPosition, g.cfg.ClosedPosition), nil
}

// Release disables the servo torque and closes the bus.
func (g *Gate) Release(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.servo.Disable(ctx)
	return g.bus.Close()
}

func isNearerOpen(pos, open, closed int) bool {
	return math.Abs(float64(pos-open)) < math.Abs(float64(pos-closed))
}

func multiClose(err, closeErr error) error {
	if closeErr == nil {
		return err
	}
	return errors.Wrapf(err, "also failed to release: %v", closeErr)
}
