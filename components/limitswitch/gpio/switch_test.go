package gpio

import (
	"context"
	"testing"

	"go.viam.com/test"
	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestPolarity(t *testing.T) {
	ctx := context.Background()
	for _, c := range []struct {
		activeLow bool
		level     pgpio.Level
		triggered bool
	}{
		{false, pgpio.Low, false},
		{false, pgpio.High, true},
		{true, pgpio.High, false},
		{true, pgpio.Low, true},
	} {
		pin := &gpiotest.Pin{N: "HOME", Num: 17}
		sw, err := NewFromPin(pin, c.activeLow)
		test.That(t, err, test.ShouldBeNil)
		pin.L = c.level
		triggered, err := sw.Triggered(ctx, nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, triggered, test.ShouldEqual, c.triggered)
	}
}

func TestNewFromRegistry(t *testing.T) {
	_, err := New(Config{})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = New(Config{Pin: "NO_SUCH_PIN"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "NO_SUCH_PIN")

	pin := &gpiotest.Pin{N: "SPINDEXER_HOME", Num: 417}
	test.That(t, gpioreg.Register(pin), test.ShouldBeNil)
	sw, err := New(Config{Pin: "SPINDEXER_HOME", ActiveLow: true})
	test.That(t, err, test.ShouldBeNil)
	pin.L = pgpio.Low
	triggered, err := sw.Triggered(context.Background(), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, triggered, test.ShouldBeTrue)
}
