package step

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"
)

func TestWait(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	w := Wait(clk, 200*time.Millisecond)

	clk.Add(time.Second) // time before the first advance does not count
	more, err := w.Advance(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, more, test.ShouldBeTrue)

	clk.Add(150 * time.Millisecond)
	more, _ = w.Advance(ctx)
	test.That(t, more, test.ShouldBeTrue)

	clk.Add(50 * time.Millisecond)
	more, _ = w.Advance(ctx)
	test.That(t, more, test.ShouldBeFalse)
}

func TestTimeout(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()

	t.Run("child finishes first", func(t *testing.T) {
		child := newCounter("child", 3, nil)
		s := Timeout(clk, time.Second, child)
		for i := 0; i < 2; i++ {
			more, err := s.Advance(ctx)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, more, test.ShouldBeTrue)
			clk.Add(100 * time.Millisecond)
		}
		more, err := s.Advance(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, more, test.ShouldBeFalse)
	})

	t.Run("watchdog fires", func(t *testing.T) {
		child := newCounter("never", 1000, nil)
		s := Timeout(clk, 300*time.Millisecond, child)
		more, err := s.Advance(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, more, test.ShouldBeTrue)

		clk.Add(300 * time.Millisecond)
		more, err = s.Advance(ctx)
		test.That(t, more, test.ShouldBeFalse)
		test.That(t, errors.Is(err, ErrTimedOut), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "300ms")

		more, err = s.Advance(ctx)
		test.That(t, more, test.ShouldBeFalse)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, child.calls, test.ShouldEqual, 2)
	})
}
