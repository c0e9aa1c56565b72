// Package fake implements a fake color sensor.
package fake

import (
	"context"
	"sync"

	"go.viam.com/spindexer/components/colorsensor"
)

var _ colorsensor.ColorSensor = &ColorSensor{}

// ColorSensor returns whatever color it was last shown.
type ColorSensor struct {
	mu        sync.Mutex
	bands     colorsensor.Bands
	reading   colorsensor.Reading
	err       error
	refreshes int
}

// NewColorSensor returns a sensor looking at black, classified with bands.
func NewColorSensor(bands colorsensor.Bands) *ColorSensor {
	return &ColorSensor{bands: bands, reading: colorsensor.NewReadingFromRGB(0, 0, 0, bands)}
}

// Reading returns the current sample.
func (s *ColorSensor) Reading(ctx context.Context, extra map[string]interface{}) (colorsensor.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	if s.err != nil {
		return colorsensor.Reading{}, s.err
	}
	return s.reading, nil
}

// SetRGB shows the sensor a color given as 8-bit channels.
func (s *ColorSensor) SetRGB(r, g, b uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reading = colorsensor.NewReadingFromRGB(r, g, b, s.bands)
}

// SetHSV shows the sensor a color given as hue, saturation and value.
func (s *ColorSensor) SetHSV(h, sat, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reading = colorsensor.NewReadingFromHSV(h, sat, v, s.bands)
}

// SetError makes every following read fail with err until it is set back to nil.
func (s *ColorSensor) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Refreshes returns how many times the sensor was read.
func (s *ColorSensor) Refreshes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}
