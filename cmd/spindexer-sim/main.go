// Package main runs the robot against simulated mechanisms: it calibrates the indexer, takes in
// a queue of pieces and shoots them back out by color.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/spindexer/config"
	"go.viam.com/spindexer/logging"
	"go.viam.com/spindexer/robot"
	"go.viam.com/spindexer/sim"
	"go.viam.com/spindexer/step"
	"go.viam.com/spindexer/subsystems/spindexer"
	"go.viam.com/spindexer/telemetry"
)

const (
	flagConfig       = "config"
	flagWatch        = "watch"
	flagPeriod       = "period"
	flagDuration     = "duration"
	flagPieces       = "pieces"
	flagStart        = "start"
	flagFast         = "fast"
	flagExitWhenIdle = "exit-when-idle"
	flagTelemetry    = "telemetry"
	flagLogLevel     = "log-level"
	flagDebug        = "debug"
)

type options struct {
	ConfigPath   string
	Watch        bool
	Period       time.Duration
	Duration     time.Duration
	Pieces       string
	Start        float64
	Fast         bool
	ExitWhenIdle bool
	Telemetry    bool
}

func main() {
	app := &cli.App{
		Name:  "spindexer-sim",
		Usage: "run the indexer, intake and shooter against simulated mechanisms",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load tunables from `FILE`",
			},
			&cli.BoolFlag{
				Name:  flagWatch,
				Usage: "reload tunables whenever the config file changes",
			},
			&cli.DurationFlag{
				Name:  flagPeriod,
				Value: 20 * time.Millisecond,
				Usage: "control tick period",
			},
			&cli.DurationFlag{
				Name:  flagDuration,
				Usage: "stop after this much simulated time; zero runs until interrupted",
			},
			&cli.StringFlag{
				Name:  flagPieces,
				Value: "gpg",
				Usage: "pieces to feed the intake, g for green and p for purple",
			},
			&cli.Float64Flag{
				Name:  flagStart,
				Usage: "raw encoder position the carrier starts at",
			},
			&cli.BoolFlag{
				Name:  flagFast,
				Usage: "tick as fast as possible instead of in real time",
			},
			&cli.BoolFlag{
				Name:  flagExitWhenIdle,
				Usage: "exit once every piece has been shot",
			},
			&cli.BoolFlag{
				Name:  flagTelemetry,
				Usage: "log telemetry at debug level",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Value: "info",
				Usage: "minimum level logged: debug, info, warn or error",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "log at debug level regardless of --log-level",
			},
		},
		Action: func(c *cli.Context) error {
			level, err := logging.LevelFromString(c.String(flagLogLevel))
			if err != nil {
				return err
			}
			if c.Bool(flagDebug) {
				level = logging.DEBUG
			}
			logger := logging.NewLoggerAt("spindexer-sim", level)
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
			defer stop()
			inv, err := run(ctx, options{
				ConfigPath:   c.String(flagConfig),
				Watch:        c.Bool(flagWatch),
				Period:       c.Duration(flagPeriod),
				Duration:     c.Duration(flagDuration),
				Pieces:       c.String(flagPieces),
				Start:        c.Float64(flagStart),
				Fast:         c.Bool(flagFast),
				ExitWhenIdle: c.Bool(flagExitWhenIdle),
				Telemetry:    c.Bool(flagTelemetry),
			}, logger)
			logger.Infow("simulation finished", "slots", inv.String())
			fmt.Fprintln(c.App.Writer, inventoryTable(inv))
			return err
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func parsePieces(pieces string) ([]spindexer.SlotContent, error) {
	var out []spindexer.SlotContent
	for _, r := range strings.ToLower(pieces) {
		switch r {
		case 'g':
			out = append(out, spindexer.Green)
		case 'p':
			out = append(out, spindexer.Purple)
		default:
			return nil, errors.Errorf("unknown piece %q in %q", r, pieces)
		}
	}
	if len(out) > spindexer.NumSlots {
		return nil, errors.Errorf("at most %d pieces fit, got %d", spindexer.NumSlots, len(out))
	}
	return out, nil
}

// inventoryTable renders the slot contents and a count of each kind.
func inventoryTable(inv spindexer.Inventory) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Slot", "Contents"})
	counts := map[spindexer.SlotContent]int{}
	for i, c := range inv {
		t.AppendRow(table.Row{i, c})
		counts[c]++
	}
	t.AppendFooter(table.Row{"Pieces", fmt.Sprintf("%d green, %d purple", counts[spindexer.Green], counts[spindexer.Purple])})
	return t.Render()
}

func pieceColor(c spindexer.SlotContent) colorful.Color {
	if c == spindexer.Purple {
		return sim.PurplePiece
	}
	return sim.GreenPiece
}

// run simulates until the context ends, the duration passes or, with ExitWhenIdle, the routine
// completes. It returns the final slot inventory.
func run(ctx context.Context, opts options, logger logging.Logger) (spindexer.Inventory, error) {
	var inv spindexer.Inventory
	if opts.Period <= 0 {
		return inv, errors.New("period must be positive")
	}
	pieces, err := parsePieces(opts.Pieces)
	if err != nil {
		return inv, err
	}

	tunables := config.Default()
	if opts.ConfigPath != "" {
		if tunables, err = config.Read(opts.ConfigPath); err != nil {
			return inv, err
		}
	}

	var sink telemetry.Sink = telemetry.Discard
	if opts.Telemetry {
		sink = telemetry.NewLogSink(logger.Sublogger("telemetry"))
	}
	// Simulated time advances exactly one period per tick however long the tick takes.
	simClock := clock.NewMock()
	bench := sim.NewBench(opts.Start, tunables.Behaviors.Bands, logger.Sublogger("sim"))
	r := robot.New(simClock, sink, logger)
	if err := r.BringUp(robot.Hardware{
		SpindexerMotor:   bench.Carrier.Motor,
		SpindexerEncoder: bench.Carrier.Encoder,
		Home:             bench.Carrier.Home,
		TransferMotor:    bench.TransferMotor,
		ShooterMotor:     bench.Flywheel.Motor,
		ShooterEncoder:   bench.Flywheel.Encoder,
		Gate:             bench.Intake.Gate,
		ColorSensor:      bench.Intake.Sensor,
	}, tunables); err != nil {
		return inv, err
	}

	if opts.Watch && opts.ConfigPath != "" {
		w, err := config.NewWatcher(opts.ConfigPath, logger.Sublogger("config"))
		if err != nil {
			return inv, err
		}
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warnw("closing config watcher", "error", err)
			}
		}()
		r.WatchTunables(w.Updates())
	}

	plan, err := routine(r, bench, pieces)
	if err != nil {
		return inv, err
	}
	r.Schedule(plan)

	var pace *clock.Ticker
	if !opts.Fast {
		pace = clock.New().Ticker(opts.Period)
		defer pace.Stop()
	}
	idx := r.MustSpindexer()
	start := simClock.Now()
	for {
		if ctx.Err() != nil {
			break
		}
		if opts.Duration > 0 && simClock.Now().Sub(start) >= opts.Duration {
			break
		}
		if opts.ExitWhenIdle && r.Scheduler().IsEmpty() {
			break
		}
		if err := r.Tick(ctx); err != nil {
			logger.Errorw("tick failed", "error", err)
		}
		if err := bench.Step(ctx, opts.Period); err != nil {
			return idx.Slots(), err
		}
		simClock.Add(opts.Period)
		if pace != nil {
			select {
			case <-ctx.Done():
			case <-pace.C:
			}
		}
	}
	// The context may already be done here.
	stopErr := r.EmergencyStop(context.Background())
	return idx.Slots(), stopErr
}

// routine calibrates, takes in every piece and then shoots them out in the order they came in.
func routine(r *robot.Robot, bench *sim.Bench, pieces []spindexer.SlotContent) (step.Step, error) {
	b, err := r.Behaviors()
	if err != nil {
		return nil, err
	}
	sh, err := r.Shooter()
	if err != nil {
		return nil, err
	}
	steps := []step.Step{r.MustSpindexer().Calibrate()}
	for _, p := range pieces {
		bench.Intake.Feed(pieceColor(p))
		steps = append(steps, b.IntakeAndClassify())
	}
	for _, p := range pieces {
		shoot, err := b.ShootOne(p)
		if err != nil {
			return nil, err
		}
		steps = append(steps, shoot)
	}
	steps = append(steps, sh.Stop())
	return step.Sequence(steps...), nil
}
