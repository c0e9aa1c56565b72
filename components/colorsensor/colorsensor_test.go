package colorsensor

import (
	"testing"

	"go.viam.com/test"
)

func TestBandContains(t *testing.T) {
	b := Band{HueMin: 90, HueMax: 160, SatMin: 0.35, SatMax: 1}
	test.That(t, b.Contains(120, 0.6), test.ShouldBeTrue)
	test.That(t, b.Contains(120, 0.2), test.ShouldBeFalse)
	test.That(t, b.Contains(200, 0.6), test.ShouldBeFalse)

	wrap := Band{HueMin: 340, HueMax: 20, SatMin: 0, SatMax: 1}
	test.That(t, wrap.Contains(350, 0.5), test.ShouldBeTrue)
	test.That(t, wrap.Contains(10, 0.5), test.ShouldBeTrue)
	test.That(t, wrap.Contains(180, 0.5), test.ShouldBeFalse)
}

func TestNewReadingFromHSV(t *testing.T) {
	r := NewReadingFromHSV(120, 0.6, 0.8, DefaultBands)
	test.That(t, r.H, test.ShouldEqual, 120.)
	test.That(t, r.S, test.ShouldEqual, 0.6)
	test.That(t, r.Green, test.ShouldBeTrue)
	test.That(t, r.Purple, test.ShouldBeFalse)
	test.That(t, r.Confident(), test.ShouldBeTrue)
	test.That(t, r.G, test.ShouldBeGreaterThan, r.R)

	r = NewReadingFromHSV(285, 0.5, 0.7, DefaultBands)
	test.That(t, r.Purple, test.ShouldBeTrue)
	test.That(t, r.Green, test.ShouldBeFalse)

	r = NewReadingFromHSV(30, 0.9, 0.9, DefaultBands)
	test.That(t, r.Confident(), test.ShouldBeFalse)
}

func TestNewReadingFromRGB(t *testing.T) {
	r := NewReadingFromRGB(0, 255, 0, DefaultBands)
	test.That(t, r.H, test.ShouldAlmostEqual, 120, 0.01)
	test.That(t, r.S, test.ShouldAlmostEqual, 1, 0.01)
	test.That(t, r.Green, test.ShouldBeTrue)

	r = NewReadingFromRGB(128, 128, 128, DefaultBands)
	test.That(t, r.S, test.ShouldAlmostEqual, 0, 0.01)
	test.That(t, r.Confident(), test.ShouldBeFalse)
}
