package feetech

import (
	"testing"

	"go.viam.com/test"
)

func TestConfigValidate(t *testing.T) {
	for _, c := range []struct {
		name string
		cfg  Config
		err  string
	}{
		{"valid", Config{Port: "/dev/ttyACM0", ServoID: 7, OpenPosition: 2400, ClosedPosition: 1600}, ""},
		{"no port", Config{ServoID: 7, OpenPosition: 1, ClosedPosition: 2}, "feetech gate needs a serial port"},
		{"bad id", Config{Port: "p", ServoID: 0, OpenPosition: 1, ClosedPosition: 2}, "feetech gate servo id 0 out of range 1-253"},
		{"same positions", Config{Port: "p", ServoID: 3, OpenPosition: 5, ClosedPosition: 5}, "feetech gate open and closed positions must differ"},
	} {
		t.Run(c.name, func(t *testing.T) {
			err := c.cfg.Validate()
			if c.err == "" {
				test.That(t, err, test.ShouldBeNil)
				return
			}
			test.That(t, err, test.ShouldBeError, c.err)
		})
	}
}

func TestIsNearerOpen(t *testing.T) {
	test.That(t, isNearerOpen(2300, 2400, 1600), test.ShouldBeTrue)
	test.That(t, isNearerOpen(1700, 2400, 1600), test.ShouldBeFalse)
	test.That(t, isNearerOpen(1500, 1000, 2000), test.ShouldBeTrue)
}
