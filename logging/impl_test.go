package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestObservedLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)

	logger.Debugw("slot classified", "slot", 1, "color", "green")
	logger.Infof("calibrated at %d", 1234)

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	entries := logs.All()
	test.That(t, entries[0].Message, test.ShouldEqual, "slot classified")
	test.That(t, entries[0].Level, test.ShouldEqual, zapcore.DebugLevel)
	test.That(t, entries[0].ContextMap()["slot"], test.ShouldEqual, int64(1))
	test.That(t, entries[0].ContextMap()["color"], test.ShouldEqual, "green")
	test.That(t, entries[1].Message, test.ShouldEqual, "calibrated at 1234")
}

func TestLevelFiltering(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.SetLevel(WARN)

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Errorw("kept too", "err", "boom")

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	test.That(t, logger.GetLevel(), test.ShouldEqual, WARN)
}

func TestUnpairedKey(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Infow("odd", "lonely")
	test.That(t, logs.All()[0].ContextMap()["lonely"], test.ShouldEqual, "unpaired log key")
}

func TestSublogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("spindexer").Sublogger("calibration")
	sub.Info("hello")

	test.That(t, logs.Len(), test.ShouldEqual, 1)
	test.That(t, logs.All()[0].LoggerName, test.ShouldEqual, "spindexer.calibration")
}

func TestLevelFromString(t *testing.T) {
	for _, c := range []struct {
		in   string
		want Level
		err  bool
	}{
		{"debug", DEBUG, false},
		{"INFO", INFO, false},
		{"Warning", WARN, false},
		{"error", ERROR, false},
		{"loud", DEBUG, true},
	} {
		t.Run(c.in, func(t *testing.T) {
			level, err := LevelFromString(c.in)
			if c.err {
				test.That(t, err, test.ShouldNotBeNil)
				return
			}
			test.That(t, err, test.ShouldBeNil)
			test.That(t, level, test.ShouldEqual, c.want)
			test.That(t, level.AsZap().String(), test.ShouldEqual, map[Level]string{
				DEBUG: "debug", INFO: "info", WARN: "warn", ERROR: "error",
			}[c.want])
		})
	}
}

func TestConstructorLevels(t *testing.T) {
	test.That(t, NewLogger("robot").GetLevel(), test.ShouldEqual, INFO)
	test.That(t, NewDebugLogger("robot").GetLevel(), test.ShouldEqual, DEBUG)

	logger := NewLoggerAt("robot", ERROR)
	test.That(t, logger.GetLevel(), test.ShouldEqual, ERROR)
	test.That(t, logger.Sublogger("shooter").GetLevel(), test.ShouldEqual, ERROR)
}
