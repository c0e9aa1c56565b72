// Package colorsensor defines a sensor that classifies the color of the item in front of it.
package colorsensor

import (
	"context"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// A Reading is one sample from a color sensor. H is in degrees [0, 360), S and V are in [0, 1].
// Green and Purple are set when the sample falls inside the configured band for that color.
type Reading struct {
	R, G, B uint8
	H, S, V float64
	Green   bool
	Purple  bool
}

func (r Reading) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d) hsv(%.1f,%.2f,%.2f) green=%v purple=%v", r.R, r.G, r.B, r.H, r.S, r.V, r.Green, r.Purple)
}

// Confident reports whether exactly one color flag is set.
func (r Reading) Confident() bool {
	return r.Green != r.Purple
}

// A Band is a region of hue and saturation. When HueMin is greater than HueMax the band wraps
// through 0 degrees.
type Band struct {
	HueMin float64 `json:"hue_min"`
	HueMax float64 `json:"hue_max"`
	SatMin float64 `json:"sat_min"`
	SatMax float64 `json:"sat_max"`
}

// Contains reports whether the hue and saturation fall within the band.
func (b Band) Contains(h, s float64) bool {
	if s < b.SatMin || s > b.SatMax {
		return false
	}
	if b.HueMin <= b.HueMax {
		return h >= b.HueMin && h <= b.HueMax
	}
	return h >= b.HueMin || h <= b.HueMax
}

// Bands holds the band for each color the robot sorts.
type Bands struct {
	Green  Band `json:"green"`
	Purple Band `json:"purple"`
}

// DefaultBands are tuned for the game pieces under the intake lighting.
var DefaultBands = Bands{
	Green:  Band{HueMin: 90, HueMax: 160, SatMin: 0.35, SatMax: 1},
	Purple: Band{HueMin: 250, HueMax: 320, SatMin: 0.25, SatMax: 1},
}

// NewReading builds a reading from a color and classifies it with bands.
func NewReading(c colorful.Color, bands Bands) Reading {
	r, g, b := c.Clamped().RGB255()
	h, s, v := c.Hsv()
	return Reading{
		R: r, G: g, B: b,
		H: h, S: s, V: v,
		Green:  bands.Green.Contains(h, s),
		Purple: bands.Purple.Contains(h, s),
	}
}

// NewReadingFromRGB builds a classified reading from 8-bit channel values.
func NewReadingFromRGB(r, g, b uint8, bands Bands) Reading {
	return NewReading(colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}, bands)
}

// NewReadingFromHSV builds a classified reading from hue in degrees and saturation and value in
// [0, 1]. The H, S and V fields hold the inputs unchanged.
func NewReadingFromHSV(h, s, v float64, bands Bands) Reading {
	rd := NewReading(colorful.Hsv(h, s, v), bands)
	rd.H, rd.S, rd.V = h, s, v
	rd.Green = bands.Green.Contains(h, s)
	rd.Purple = bands.Purple.Contains(h, s)
	return rd
}

// A ColorSensor samples the color in front of it on demand.
type ColorSensor interface {
	Reading(ctx context.Context, extra map[string]interface{}) (Reading, error)
}
