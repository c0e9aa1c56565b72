// Package control implements the closed-loop control primitives used by the mechanisms.
package control

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/spindexer/utils"
)

// Gains are the proportional, integral, derivative and feed-forward coefficients of a PIDF.
type Gains struct {
	P float64 `json:"p"`
	I float64 `json:"i"`
	D float64 `json:"d"`
	F float64 `json:"f"`
}

// PIDFConfig configures a PIDF controller.
type PIDFConfig struct {
	Gains Gains `json:"gains"`
	// OutputMin and OutputMax bound every command. Both zero means [-1, 1].
	OutputMin float64 `json:"output_min"`
	OutputMax float64 `json:"output_max"`
	// IntegralLimit bounds the magnitude of the integral accumulator. Zero leaves it unbounded.
	IntegralLimit float64 `json:"integral_limit"`
	// NominalPeriod is the control period used to scale the integral. Zero means 20ms.
	NominalPeriod time.Duration `json:"nominal_period"`
}

const defaultNominalPeriod = 20 * time.Millisecond

// PIDF is a discrete PID controller with a sign-of-setpoint feed-forward term. It is
// advanced from the control thread only and is not safe for concurrent use.
type PIDF struct {
	gains         Gains
	setpoint      float64
	integral      float64
	previousError float64
	integralLimit float64
	dt            float64
	min, max      float64
	lastOutput    float64
}

// NewPIDF returns a controller for the given config.
func NewPIDF(cfg PIDFConfig) (*PIDF, error) {
	p := &PIDF{}
	if err := p.Apply(cfg); err != nil {
		return nil, err
	}
	return p, nil
}

// Apply replaces the gains, limits and nominal period without clearing the integral or
// derivative history. An invalid config leaves the controller unchanged.
func (p *PIDF) Apply(cfg PIDFConfig) error {
	lo, hi := cfg.OutputMin, cfg.OutputMax
	if lo == 0 && hi == 0 {
		lo, hi = -1, 1
	}
	if lo >= hi {
		return errors.Errorf("pidf output limits are inverted: min %v >= max %v", lo, hi)
	}
	if cfg.IntegralLimit < 0 {
		return errors.Errorf("pidf integral limit must be non-negative, got %v", cfg.IntegralLimit)
	}
	if cfg.NominalPeriod < 0 {
		return errors.Errorf("pidf nominal period must be non-negative, got %v", cfg.NominalPeriod)
	}
	p.gains = cfg.Gains
	p.min, p.max = lo, hi
	p.SetIntegralLimit(cfg.IntegralLimit)
	p.SetNominalPeriod(cfg.NominalPeriod)
	return nil
}

// SetNominalPeriod changes the period the integral is scaled by. Zero or less means 20ms.
func (p *PIDF) SetNominalPeriod(period time.Duration) {
	if period <= 0 {
		period = defaultNominalPeriod
	}
	p.dt = period.Seconds()
}

// NominalPeriod returns the period the integral is scaled by.
func (p *PIDF) NominalPeriod() time.Duration {
	return time.Duration(math.Round(p.dt * float64(time.Second)))
}

// Output computes the next command for the given measurement and setpoint and records the
// setpoint as the controller's current one. A NaN input leaves the state untouched and repeats
// the previous command.
func (p *PIDF) Output(measurement, setpoint float64) float64 {
	if math.IsNaN(measurement) || math.IsNaN(setpoint) {
		return p.lastOutput
	}
	p.setpoint = setpoint
	err := setpoint - measurement

	p.integral += err * p.dt
	if p.integralLimit > 0 {
		p.integral = utils.Clamp(p.integral, -p.integralLimit, p.integralLimit)
	}
	derivative := err - p.previousError
	p.previousError = err

	out := p.gains.P*err +
		p.gains.I*p.integral +
		p.gains.D*derivative +
		p.gains.F*utils.Sign(setpoint)
	p.lastOutput = utils.Clamp(out, p.min, p.max)
	return p.lastOutput
}

// SetPID replaces all four gains. The next call to Output uses them.
func (p *PIDF) SetPID(kp, ki, kd, kf float64) {
	p.gains = Gains{P: kp, I: ki, D: kd, F: kf}
}

// SetGains replaces the gains.
func (p *PIDF) SetGains(g Gains) {
	p.gains = g
}

// Gains returns the current gains.
func (p *PIDF) Gains() Gains {
	return p.gains
}

// SetOutputLimits changes the command bounds.
func (p *PIDF) SetOutputLimits(lo, hi float64) error {
	if lo >= hi {
		return errors.Errorf("pidf output limits are inverted: min %v >= max %v", lo, hi)
	}
	p.min, p.max = lo, hi
	return nil
}

// OutputLimits returns the command bounds.
func (p *PIDF) OutputLimits() (float64, float64) {
	return p.min, p.max
}

// SetIntegralLimit changes the accumulator bound. Zero removes it.
func (p *PIDF) SetIntegralLimit(limit float64) {
	p.integralLimit = math.Abs(limit)
	if p.integralLimit > 0 {
		p.integral = utils.Clamp(p.integral, -p.integralLimit, p.integralLimit)
	}
}

// Setpoint returns the setpoint of the last Output call.
func (p *PIDF) Setpoint() float64 {
	return p.setpoint
}

// Integral returns the integral accumulator.
func (p *PIDF) Integral() float64 {
	return p.integral
}

// LastOutput returns the most recent command.
func (p *PIDF) LastOutput() float64 {
	return p.lastOutput
}

// Reset clears the integral and derivative history.
func (p *PIDF) Reset() {
	p.integral = 0
	p.previousError = 0
	p.lastOutput = 0
}
