package fake

import (
	"context"
	"testing"

	"go.viam.com/test"

	"go.viam.com/spindexer/logging"
)

func TestMotor(t *testing.T) {
	ctx := context.Background()
	m := NewMotor("carousel", logging.NewTestLogger(t))

	on, pct, err := m.IsPowered(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, on, test.ShouldBeFalse)
	test.That(t, pct, test.ShouldEqual, 0.0)

	test.That(t, m.SetPower(ctx, -0.4, nil), test.ShouldBeNil)
	on, pct, err = m.IsPowered(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, on, test.ShouldBeTrue)
	test.That(t, pct, test.ShouldEqual, -0.4)

	err = m.SetPower(ctx, 1.5, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "carousel")
	test.That(t, m.PowerPct(), test.ShouldEqual, -0.4)

	test.That(t, m.Stop(ctx, nil), test.ShouldBeNil)
	test.That(t, m.PowerPct(), test.ShouldEqual, 0.0)
	test.That(t, m.Commands(), test.ShouldEqual, 2)
}
