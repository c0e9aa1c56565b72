package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/spindexer/logging"
	"go.viam.com/spindexer/subsystems/spindexer"
)

func TestParsePieces(t *testing.T) {
	pieces, err := parsePieces("gP")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pieces, test.ShouldResemble, []spindexer.SlotContent{spindexer.Green, spindexer.Purple})

	pieces, err = parsePieces("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pieces, test.ShouldBeEmpty)

	_, err = parsePieces("gx")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = parsePieces("gggg")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestInventoryTable(t *testing.T) {
	out := inventoryTable(spindexer.Inventory{spindexer.Green, spindexer.Empty, spindexer.Purple})
	test.That(t, out, test.ShouldContainSubstring, "CONTENTS")
	test.That(t, out, test.ShouldContainSubstring, "green")
	test.That(t, out, test.ShouldContainSubstring, "1 GREEN, 1 PURPLE")
}

func TestRunShootsEveryPiece(t *testing.T) {
	inv, err := run(context.Background(), options{
		Period:       20 * time.Millisecond,
		Duration:     time.Minute,
		Pieces:       "gp",
		Fast:         true,
		ExitWhenIdle: true,
		Telemetry:    true,
	}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, inv, test.ShouldResemble, spindexer.Inventory{spindexer.Empty, spindexer.Empty, spindexer.Unknown})
}

func TestRunStopsAfterDuration(t *testing.T) {
	inv, err := run(context.Background(), options{
		Period:   20 * time.Millisecond,
		Duration: 100 * time.Millisecond,
		Pieces:   "g",
		Fast:     true,
	}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, inv, test.ShouldResemble, spindexer.Inventory{spindexer.Unknown, spindexer.Unknown, spindexer.Unknown})
}

func TestRunWithConfig(t *testing.T) {
	logger := logging.NewTestLogger(t)
	path := filepath.Join(t.TempDir(), "tunables.json5")
	test.That(t, os.WriteFile(path, []byte(`{shooter: {target_rpm: 3100}}`), 0o600), test.ShouldBeNil)

	inv, err := run(context.Background(), options{
		ConfigPath:   path,
		Watch:        true,
		Period:       20 * time.Millisecond,
		Duration:     time.Minute,
		Pieces:       "p",
		Fast:         true,
		ExitWhenIdle: true,
	}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, inv, test.ShouldResemble, spindexer.Inventory{spindexer.Empty, spindexer.Unknown, spindexer.Unknown})

	test.That(t, os.WriteFile(path, []byte(`{shooter: {target_rpm: `), 0o600), test.ShouldBeNil)
	_, err = run(context.Background(), options{ConfigPath: path, Period: time.Millisecond, Fast: true}, logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = run(context.Background(), options{Pieces: "g"}, logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inv, err := run(ctx, options{Period: 20 * time.Millisecond, Pieces: "g"}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, inv.String(), test.ShouldEqual, "[unknown unknown unknown]")
}
