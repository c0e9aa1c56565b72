package fake

import (
	"context"
	"errors"
	"testing"

	"go.viam.com/test"

	"go.viam.com/spindexer/components/colorsensor"
)

func TestColorSensor(t *testing.T) {
	ctx := context.Background()
	s := NewColorSensor(colorsensor.DefaultBands)

	r, err := s.Reading(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Confident(), test.ShouldBeFalse)

	s.SetHSV(120, 0.6, 0.8)
	r, err = s.Reading(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Green, test.ShouldBeTrue)

	s.SetRGB(150, 40, 200)
	r, _ = s.Reading(ctx, nil)
	test.That(t, r.Purple, test.ShouldBeTrue)

	boom := errors.New("i2c nack")
	s.SetError(boom)
	_, err = s.Reading(ctx, nil)
	test.That(t, err, test.ShouldEqual, boom)
	test.That(t, s.Refreshes(), test.ShouldEqual, 4)
}
