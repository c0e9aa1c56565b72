package transfer

import (
	"context"
	"testing"

	"go.viam.com/test"

	"go.viam.com/spindexer/components/motor/fake"
	"go.viam.com/spindexer/logging"
)

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	m := fake.NewMotor("transfer", logger)

	_, err := New(m, 0, logger)
	test.That(t, err, test.ShouldNotBeNil)

	tr, err := New(m, 0.8, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tr.State(), test.ShouldEqual, Stopped)

	test.That(t, tr.Stop(ctx), test.ShouldBeNil)
	test.That(t, m.Commands(), test.ShouldEqual, 1)

	test.That(t, tr.Forward(ctx), test.ShouldBeNil)
	test.That(t, m.PowerPct(), test.ShouldEqual, 0.8)
	test.That(t, tr.Forward(ctx), test.ShouldBeNil)
	test.That(t, m.Commands(), test.ShouldEqual, 2)

	test.That(t, tr.Reverse(ctx), test.ShouldBeNil)
	test.That(t, m.PowerPct(), test.ShouldEqual, -0.8)
	test.That(t, tr.State(), test.ShouldEqual, Reverse)

	test.That(t, tr.Stop(ctx), test.ShouldBeNil)
	test.That(t, tr.Stop(ctx), test.ShouldBeNil)
	test.That(t, m.Commands(), test.ShouldEqual, 4)
	test.That(t, tr.ForceStop(ctx), test.ShouldBeNil)
	test.That(t, m.Commands(), test.ShouldEqual, 5)

	test.That(t, tr.SetPower(1.5), test.ShouldNotBeNil)
	test.That(t, tr.SetPower(0.5), test.ShouldBeNil)
	test.That(t, tr.Set(ctx, State(9)), test.ShouldNotBeNil)
	test.That(t, State(9).String(), test.ShouldEqual, "State(9)")
}

func TestSetStep(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	m := fake.NewMotor("transfer", logger)
	tr, err := New(m, 0.6, logger)
	test.That(t, err, test.ShouldBeNil)

	s := tr.SetStep(Forward)
	more, err := s.Advance(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, more, test.ShouldBeFalse)
	test.That(t, tr.State(), test.ShouldEqual, Forward)
	test.That(t, m.PowerPct(), test.ShouldEqual, 0.6)
}
